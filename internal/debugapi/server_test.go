package debugapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/qfwfq/corespot/config"
	"github.com/qfwfq/corespot/internal/ident"
	"github.com/qfwfq/corespot/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandlers(t *testing.T) *handlers {
	t.Helper()
	cfg := config.Load()
	cfg.CacheDir = t.TempDir()
	sess, err := session.Init(cfg, session.Callbacks{})
	if err != nil {
		t.Fatalf("session.Init: %v", err)
	}
	return &handlers{sess: sess}
}

func TestStatsReportsZeroedCountersBeforeLogin(t *testing.T) {
	h := newTestHandlers(t)
	engine := gin.New()
	engine.GET("/debug/stats", h.stats)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/stats", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"logged_in":false`) {
		t.Fatalf("want logged_in:false in body, got %s", rec.Body.String())
	}
}

func TestChangePlaylistRejectsMissingXMLOps(t *testing.T) {
	h := newTestHandlers(t)
	engine := gin.New()
	engine.POST("/debug/playlists/:id/change", h.changePlaylist)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/debug/playlists/"+ident.HashKey{}.String()+"/change", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for missing xmlOps, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestChangePlaylistReturnsNotFoundForUninternedID(t *testing.T) {
	h := newTestHandlers(t)
	engine := gin.New()
	engine.POST("/debug/playlists/:id/change", h.changePlaylist)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/debug/playlists/"+ident.HashKey{}.String()+"/change", strings.NewReader(`{"xmlOps":"<ops/>"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404 for an uninterned playlist id, got %d: %s", rec.Code, rec.Body.String())
	}
}
