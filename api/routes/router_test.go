package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventwizard/internal/draftstore"
	"eventwizard/internal/marketplace"
	"eventwizard/internal/shared/config"
	"eventwizard/internal/shared/database"
	"eventwizard/internal/submission"
	"eventwizard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type downStore struct {
	*draftstore.Memory
}

func (downStore) Ping(context.Context) error {
	return errors.New("draft store unreachable")
}

func newEngine(t *testing.T, store draftstore.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		APIPrefix:  "/api",
		APIVersion: "v1",
		JWT:        config.JWTConfig{Secret: "test-secret"},
		Drafts:     config.DraftsConfig{Backend: config.DraftBackendMemory, TimeZone: "UTC", SessionIdle: time.Minute},
	}

	engine := gin.New()
	NewRouter(cfg, Dependencies{
		DB:          &database.DB{},
		Drafts:      store,
		Marketplace: marketplace.NewClient("http://marketplace.invalid"),
		Transformer: submission.NewTransformer(),
		Logger:      logger.Discard(),
	}).SetupRoutes(engine)
	return engine
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealthRoutes(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, draftstore.NewMemory(time.Hour))
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/ping").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/status").Code)

	down := newEngine(t, downStore{draftstore.NewMemory(time.Hour)})
	w := serve(down, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "draft store unreachable")
}

func TestModulesAreMounted(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, draftstore.NewMemory(time.Hour))

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/wizard/create"},
		{http.MethodPatch, "/api/v1/wizard/create/fields"},
		{http.MethodGet, "/api/v1/events/mine"},
		{http.MethodGet, "/api/v1/suppliers/services"},
		{http.MethodPost, "/api/v1/checkin/verify"},
	} {
		assert.Equal(t, http.StatusUnauthorized, serve(engine, route.method, route.path).Code, route.path)
	}
}

func TestSweep(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{APIPrefix: "/api", APIVersion: "v1", Drafts: config.DraftsConfig{SessionIdle: time.Minute}}
	r := NewRouter(cfg, Dependencies{
		Drafts:      draftstore.NewMemory(time.Hour),
		Marketplace: marketplace.NewClient("http://marketplace.invalid"),
		Transformer: submission.NewTransformer(),
		Logger:      logger.Discard(),
	})
	r.SetupRoutes(gin.New())

	// nothing open yet; the sweep must still run against every component
	r.sweep(context.Background())
	assert.NotNil(t, r.wizardService)
	assert.NotNil(t, r.listingService)
}

func TestRunJanitorWithoutInterval(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{APIPrefix: "/api", APIVersion: "v1"}
	r := NewRouter(cfg, Dependencies{Drafts: draftstore.NewMemory(time.Hour), Logger: logger.Discard()})

	done := make(chan struct{})
	go func() {
		r.RunJanitor(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor kept running with a zero interval")
	}
}
