package api

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Gate      *auth.Gate
	KV        kv.Store
	JWTSecret string
	TokenTTL  time.Duration
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

type loginRequest struct {
	UniversityID string `json:"universityId"`
	Password     string `json:"password"`
}

type registerRequest struct {
	Name         string `json:"name"`
	UniversityID string `json:"universityId"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

type sessionResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Gate.Login(r.Context(), req.UniversityID, req.Password)
	if err != nil {
		h.countLogin(err)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Log.Warn("login failed", zap.String("university_id", req.UniversityID), zap.String("remote", r.RemoteAddr))
		}
		writeError(w, h.Log, err)
		return
	}
	h.countLogin(nil)

	h.issue(w, http.StatusOK, user)
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Gate.Register(r.Context(), req.Name, req.UniversityID, req.Email, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.Logins.WithLabelValues("registered").Inc()
	}

	h.issue(w, http.StatusCreated, user)
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.KV, claims.ID, claims.ExpiresAt.Time); err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.Log.Info("user logged out", zap.String("university_id", claims.UniversityID))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	jsonResponse(w, http.StatusOK, claims.User())
}

func (h *AuthHandler) issue(w http.ResponseWriter, status int, user model.User) {
	token, err := auth.GenerateToken(h.JWTSecret, user, h.TokenTTL)
	if err != nil {
		h.Log.Error("generating token failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	jsonResponse(w, status, sessionResponse{Token: token, User: user})
}

func (h *AuthHandler) countLogin(err error) {
	if h.Metrics == nil {
		return
	}
	result := "ok"
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		result = "invalid"
	case err != nil:
		result = "rejected"
	}
	h.Metrics.Logins.WithLabelValues(result).Inc()
}
