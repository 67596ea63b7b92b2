// Package dashboard serves the flight bag's local JSON API and a
// server-sent-events stream that tells browsers when to re-render.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/flightbag/internal/efb"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Service *efb.Service
	Port    int
	Out     io.Writer
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Service == nil {
		return fmt.Errorf("dashboard: service is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	hub := newHub(defaultHeartbeat)
	unsubscribe := opts.Service.Subscribe(hub)
	defer unsubscribe()

	router := newRouter(opts.Service, hub)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		hub.close()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// newRouter builds the gin engine with all routes registered.
func newRouter(svc *efb.Service, hub *hub) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, svc, hub)
	return router
}
