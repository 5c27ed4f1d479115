package hostapi

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/openclaw/snapper/internal/shared/id"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans out JSON messages to every connected demo-host WebSocket client.
// It is the transport behind Server's facade.HostSink implementation.
type hub struct {
	mu      sync.Mutex
	clients map[id.ConnID]*websocket.Conn
	logger  *zap.Logger
}

func newHub(logger *zap.Logger) *hub {
	return &hub{clients: make(map[id.ConnID]*websocket.Conn), logger: logger}
}

// HandleConnection upgrades the request, assigns it a ConnID, and registers
// the connection until it closes or a read fails (the demo host never
// expects inbound traffic on this socket beyond pings, but reading keeps
// the connection's close handshake working).
func (h *hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := id.NewConnID()
	h.mu.Lock()
	h.clients[connID] = conn
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", zap.String("conn_id", connID.String()))
	defer func() {
		h.mu.Lock()
		delete(h.clients, connID)
		h.mu.Unlock()
		h.logger.Debug("websocket client disconnected", zap.String("conn_id", connID.String()))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// broadcast writes message to every connected client as JSON. A write
// failure drops that client from the set; it does not stop the broadcast.
func (h *hub) broadcast(message interface{}) {
	h.mu.Lock()
	conns := make(map[id.ConnID]*websocket.Conn, len(h.clients))
	for connID, conn := range h.clients {
		conns[connID] = conn
	}
	h.mu.Unlock()

	for connID, conn := range conns {
		if err := conn.WriteJSON(message); err != nil {
			h.mu.Lock()
			delete(h.clients, connID)
			h.mu.Unlock()
			conn.Close()
		}
	}
}
