package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openclaw/snapper/internal/config"
	"github.com/openclaw/snapper/internal/hostapi"
	"github.com/openclaw/snapper/internal/kernel"
	"github.com/openclaw/snapper/internal/logging"
	"github.com/openclaw/snapper/internal/monitoring"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	configFile := flag.String("config", "", "path to a snapper.toml config file (overrides env vars)")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	metrics := monitoring.New()
	k := kernel.New(cfg, logger, metrics, nil)

	srv := hostapi.NewServer(k, logger)
	k.SetHostSink(srv)

	apps, discoverErrs, warnings := k.DiscoverAndRegister()
	logger.Info("discovered snapps",
		zap.Int("registered", len(apps)),
		zap.Int("errors", len(discoverErrs)),
		zap.Int("warnings", len(warnings)),
	)

	httpSrv := &http.Server{Addr: *addr, Handler: srv.Router()}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("snapper kernel listening", zap.String("addr", *addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		logger.Fatal("server error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
