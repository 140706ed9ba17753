package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/erazemk/lostfound/internal/claim"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/portal"
	"github.com/erazemk/lostfound/internal/search"
)

// DefaultMaxUpload caps multipart photo uploads.
const DefaultMaxUpload = 10 << 20

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Portal    *portal.Portal
	MaxUpload int64
	Log       *zap.Logger
}

type claimRequest struct {
	Reason string `json:"reason"`
}

type reviewRequest struct {
	Decision claim.Decision `json:"decision"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c := search.Criteria{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Location: q.Get("location"),
		Status:   q.Get("status"),
		Type:     q.Get("type"),
	}

	if c.Type != "" && c.Type != search.All && !model.ValidItemType(model.ItemType(c.Type)) {
		jsonError(w, http.StatusBadRequest, "type must be lost, found or all")
		return
	}
	if c.Status != "" && c.Status != search.All && !model.ValidStatus(model.Status(c.Status)) {
		jsonError(w, http.StatusBadRequest, "status must be pending, unclaimed, claimed or all")
		return
	}

	if q.Get("scope") == "admin" {
		claims := GetClaims(r.Context())
		if claims == nil || !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Fields = search.AdminFields
	}

	if err := h.Portal.Reload(r.Context()); err != nil {
		writeError(w, h.Log, err)
		return
	}
	items := h.Portal.List(c)
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		items = search.Recent(items, n)
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Report
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Portal.Report(r.Context(), GetClaims(r.Context()).User(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := h.Portal.Reload(r.Context()); err != nil {
		writeError(w, h.Log, err)
		return
	}
	item, err := h.Portal.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUpload
	if limit <= 0 {
		limit = DefaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	item, err := h.Portal.SetImage(r.Context(), GetClaims(r.Context()).User(), r.PathValue("id"), file)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Claim handles POST /api/items/{id}/claim.
func (h *ItemsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Portal.Claim(r.Context(), GetClaims(r.Context()).User(), r.PathValue("id"), req.Reason)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Review handles POST /api/items/{id}/review.
func (h *ItemsHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Portal.Review(r.Context(), GetClaims(r.Context()).User(), r.PathValue("id"), req.Decision)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Intake handles POST /api/items/{id}/intake.
func (h *ItemsHandler) Intake(w http.ResponseWriter, r *http.Request) {
	item, err := h.Portal.Intake(r.Context(), GetClaims(r.Context()).User(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Stats handles GET /api/stats.
func (h *ItemsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if err := h.Portal.Reload(r.Context()); err != nil {
		writeError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, h.Portal.Stats())
}

// Catalog handles GET /api/catalog.
func (h *ItemsHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Portal.Catalog())
}
