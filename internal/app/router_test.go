package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	httpserver "github.com/fairyhunter13/resume-ranker/internal/adapter/httpserver"
	"github.com/fairyhunter13/resume-ranker/internal/config"
)

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"*"}, ParseOrigins(""))
	assert.Equal(t, []string{"*"}, ParseOrigins("*"))
	assert.Equal(t, []string{"*"}, ParseOrigins(" , ,"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		ParseOrigins(" https://a.example, https://b.example "))
}

func TestBuildRouter_HealthAndSecurityHeaders(t *testing.T) {
	t.Parallel()
	cfg := config.Config{CORSAllowOrigins: "*", RateLimitPerMin: 100}
	h := BuildRouter(cfg, &httpserver.Server{Cfg: cfg})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestBuildRouter_Metrics(t *testing.T) {
	t.Parallel()
	cfg := config.Config{CORSAllowOrigins: "*", RateLimitPerMin: 100}
	h := BuildRouter(cfg, &httpserver.Server{Cfg: cfg})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessChecks_NotConfigured(t *testing.T) {
	t.Parallel()
	cfg := config.Config{}
	dbCheck, redisCheck, _, tikaCheck := BuildReadinessChecks(cfg, nil, nil)
	assert.Error(t, dbCheck(t.Context()))
	assert.Error(t, redisCheck(t.Context()))
	assert.Error(t, tikaCheck(t.Context()))
}

func TestReadinessChecks_QdrantProbe(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("api-key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Config{QdrantURL: srv.URL, QdrantAPIKey: "key"}
	_, _, qdrantCheck, _ := BuildReadinessChecks(cfg, nil, nil)
	assert.NoError(t, qdrantCheck(t.Context()))
}
