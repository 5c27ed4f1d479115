package hostapi

import (
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/openclaw/snapper/internal/facade"
	"github.com/openclaw/snapper/internal/kernel"
	"github.com/openclaw/snapper/internal/logging"
	"github.com/openclaw/snapper/internal/manifest"
	"github.com/openclaw/snapper/internal/registry"
)

// Server is the demo host: a thin Gin HTTP API plus a WebSocket event
// stream, wrapping one Kernel. It implements facade.HostSink so façades
// constructed by the kernel can push toasts and prompt context out to
// connected clients.
type Server struct {
	kernel *kernel.Kernel
	router *gin.Engine
	hub    *hub
	logger *logging.Logger

	mu       sync.Mutex
	facades  map[string]*facade.Facade
}

// NewServer builds a Server around k. The returned Gin engine is already
// fully routed; callers only need to call Run/http.Serve on it.
func NewServer(k *kernel.Kernel, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewDefault()
	}

	s := &Server{
		kernel:  k,
		hub:     newHub(logger.Logger),
		logger:  logger,
		facades: make(map[string]*facade.Facade),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:    []string{"Content-Type"},
	}))

	router.GET("/health", s.health)
	router.GET("/apps", s.listApps)
	router.POST("/apps/discover", s.discover)
	router.POST("/apps/:id/activate", s.activate)
	router.POST("/apps/:id/suspend", s.suspend)
	router.DELETE("/apps/:id", s.unload)
	router.POST("/hooks/:event", s.emitHook)
	router.GET("/ws", s.hub.HandleConnection)

	s.router = router
	return s
}

// Router returns the underlying Gin engine.
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listApps(c *gin.Context) {
	apps := s.kernel.Registry.GetAll()
	out := make([]gin.H, 0, len(apps))
	for _, a := range apps {
		snap := a.Snapshot()
		out = append(out, gin.H{
			"id":    snap.Manifest.ID,
			"name":  snap.Manifest.Name,
			"state": string(snap.State),
		})
	}
	c.JSON(http.StatusOK, gin.H{"apps": out})
}

func (s *Server) discover(c *gin.Context) {
	apps, errs, warnings := s.kernel.DiscoverAndRegister()

	ids := make([]string, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.Manifest.ID)
	}
	errOut := make([]string, 0, len(errs))
	for _, e := range errs {
		errOut = append(errOut, e.Error())
	}

	c.JSON(http.StatusOK, gin.H{"registered": ids, "errors": errOut, "warnings": warnings})
}

// activate loads (if necessary) and activates the named app with a no-op
// Instance. Executing an app's own entry module is outside this kernel's
// scope; a real
// host would resolve Manifest.Entry to a factory function before calling
// Kernel.LoadAndActivate. This demo stands in with an instance that has no
// callbacks, so the lifecycle transitions are exercised end to end without
// pulling a script runtime into the core.
func (s *Server) activate(c *gin.Context) {
	id := c.Param("id")
	f, err := s.kernel.LoadAndActivate(id, nil, func(f *facade.Facade) (*registry.Instance, error) {
		return &registry.Instance{}, nil
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.facades[id] = f
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"id": id, "state": "active"})
}

func (s *Server) suspend(c *gin.Context) {
	id := c.Param("id")
	ok, err := s.kernel.Suspend(id)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "suspended": ok})
}

func (s *Server) unload(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	f := s.facades[id]
	delete(s.facades, id)
	s.mu.Unlock()

	ok, err := s.kernel.Unload(id, f)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "unloaded": ok})
}

// emitHook decodes the request body as a JSON payload and emits it on the
// named event: the host pushing a lifecycle event into the Hook Router.
func (s *Server) emitHook(c *gin.Context) {
	event := manifest.HookName(c.Param("event"))
	if !event.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown hook event"})
		return
	}

	var payload map[string]interface{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	s.kernel.Emit(event, payload)
	c.JSON(http.StatusOK, gin.H{"emitted": string(event)})
}

// ShowToast implements facade.HostSink by broadcasting to every connected
// WebSocket client.
func (s *Server) ShowToast(appID string, opts facade.ToastOptions) {
	s.hub.broadcast(gin.H{
		"type":    "toast",
		"appId":   appID,
		"title":   opts.Title,
		"message": opts.Message,
		"level":   opts.Level,
	})
}

// InjectPromptContext implements facade.HostSink by broadcasting to every
// connected WebSocket client.
func (s *Server) InjectPromptContext(appID string, text string, priority int) {
	s.hub.broadcast(gin.H{
		"type":     "prompt_context",
		"appId":    appID,
		"text":     text,
		"priority": priority,
	})
}
