package fx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"funda-listing-notifier/config"
	"funda-listing-notifier/internal/router"
)

// stubHandler gives the mux one route; chi only runs the middleware
// chain for requests that can be routed.
type stubHandler struct{}

func (h *stubHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/v1/listings", h.Handle)
}

func (h *stubHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func newDevMux() *chi.Mux {
	return NewMux(muxParams{
		Cfg:      config.Config{AppEnv: "development"},
		Logger:   zap.NewNop().Sugar(),
		Handlers: []router.Handler{&stubHandler{}},
	})
}

func TestNewMux_CORSPreflight_AllowsLocalhost5173_InDev(t *testing.T) {
	t.Parallel()

	r := newDevMux()

	req := httptest.NewRequest(http.MethodOptions, "/v1/listings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestNewMux_RoutesRegisteredHandlers(t *testing.T) {
	t.Parallel()

	r := newDevMux()

	req := httptest.NewRequest(http.MethodGet, "/v1/listings", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestNewMux_NoCORSOutsideDevAndTest(t *testing.T) {
	t.Parallel()

	r := NewMux(muxParams{
		Cfg:      config.Config{AppEnv: "production"},
		Logger:   zap.NewNop().Sugar(),
		Handlers: []router.Handler{&stubHandler{}},
	})

	req := httptest.NewRequest(http.MethodOptions, "/v1/listings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
