// Package api serves the lost-and-found JSON API.
package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/portal"
)

// Deps are the services the router needs.
type Deps struct {
	Portal          *portal.Portal
	Gate            *auth.Gate
	KV              kv.Store
	JWTSecret       string
	TokenTTL        time.Duration
	RateLimitPerMin int // zero disables rate limiting
	MaxUpload       int64
	Metrics         *metrics.Metrics
	Log             *zap.Logger
	// Health reports backend reachability for /healthz. Nil means healthy.
	Health func(context.Context) error
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	mux := http.NewServeMux()

	authHandler := &AuthHandler{
		Gate:      d.Gate,
		KV:        d.KV,
		JWTSecret: d.JWTSecret,
		TokenTTL:  d.TokenTTL,
		Metrics:   d.Metrics,
		Log:       d.Log,
	}
	itemsHandler := &ItemsHandler{Portal: d.Portal, MaxUpload: d.MaxUpload, Log: d.Log}

	authMW := AuthMiddleware(d.JWTSecret, d.KV, d.Log)
	requireAdmin := RequireRole(model.RoleAdmin)
	limit := func(h http.Handler) http.Handler { return h }
	if d.RateLimitPerMin > 0 {
		limit = NewTokenBucket(d.RateLimitPerMin, d.RateLimitPerMin).Middleware
	}

	// Public.
	mux.Handle("POST /api/auth/login", limit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/auth/register", limit(http.HandlerFunc(authHandler.Register)))
	mux.HandleFunc("GET /api/catalog", itemsHandler.Catalog)
	mux.HandleFunc("GET /healthz", healthHandler(d.Health))
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	// Authenticated.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))

	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("POST /api/items/{id}/claim", authMW(http.HandlerFunc(itemsHandler.Claim)))
	mux.Handle("GET /api/stats", authMW(http.HandlerFunc(itemsHandler.Stats)))

	// Admin only.
	mux.Handle("POST /api/items/{id}/review", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Review))))
	mux.Handle("POST /api/items/{id}/intake", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Intake))))

	return mux
}

func healthHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
