// Package debugapi implements a read-only introspection HTTP server over a
// Session, plus one validator-tagged mutating endpoint to trigger a manual
// playlist change. It exists for operators and integration tests, never for
// the embedding API itself (spec.md §6's four primitives are the only
// contract an embedder should depend on).
package debugapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qfwfq/corespot/session"
)

// Server serves the debug API over HTTP.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a Server bound to addr, exposing read-only routes over
// sess's tables and one mutating route for posting a playlist change.
func NewServer(sess *session.Session, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), securityHeaders())

	h := &handlers{sess: sess}
	engine.GET("/debug/stats", h.stats)
	engine.GET("/debug/playlists", h.playlists)
	engine.POST("/debug/playlists/:id/change", h.changePlaylist)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start runs the HTTP server until ctx is canceled, mirroring the teacher's
// Server.Start: an errChan for a bind failure raced against ctx.Done, with
// a bounded graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		slog.Info("debugapi: server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
