package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Bessaq/AstroManusJules/pkg/config"
	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
	applogger "github.com/Bessaq/AstroManusJules/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	log        *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, httpServer *xhttp.Server, log *applogger.Logger) *App {
	return &App{
		cfg:        cfg,
		httpServer: httpServer,
		log:        log,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the HTTP server and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("application started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops the HTTP server. Publisher and cache clients
// are closed by the DI cleanup after Run returns.
func (a *App) shutdown() error {
	// ctx is already cancelled here, so the drain gets a fresh one
	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
