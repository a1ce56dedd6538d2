// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spicesync/spicesync/internal/application/scan"
	domain "github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/ports/inbound"
	apperrors "github.com/spicesync/spicesync/pkg/errors"
)

// APIHandlers handles REST API requests
type APIHandlers struct {
	pantry  inbound.PantryService
	profile inbound.ProfileService
	finder  inbound.RecipeFinder
	scanner inbound.ScanService
	logger  *zap.Logger
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(
	pantrySvc inbound.PantryService,
	profileSvc inbound.ProfileService,
	finder inbound.RecipeFinder,
	scanner inbound.ScanService,
	logger *zap.Logger,
) *APIHandlers {
	return &APIHandlers{
		pantry:  pantrySvc,
		profile: profileSvc,
		finder:  finder,
		scanner: scanner,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Routes mounts all API routes on a router.
func (h *APIHandlers) Routes(r chi.Router) {
	r.Route("/scan", func(r chi.Router) {
		r.Get("/", h.GetScan)
		r.Post("/", h.SubmitScan)
		r.Post("/commit", h.CommitScan)
		r.Post("/cancel", h.CancelScan)
	})

	r.Route("/pantry", func(r chi.Router) {
		r.Get("/", h.ListPantry)
		r.Post("/", h.AddIngredients)
		r.Put("/", h.ReplacePantry)
		r.Delete("/{id}", h.RemoveIngredient)
	})

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", h.ListRecipes)
		r.Post("/fetch", h.FetchRecipes)
	})

	r.Route("/profile", func(r chi.Router) {
		r.Get("/", h.GetProfile)
		r.Put("/", h.PutProfile)
	})
}

// scanView is the wire representation of the workflow state.
type scanView struct {
	State inbound.ScanState   `json:"state"`
	Items []domain.Ingredient `json:"items"`
}

// GetScan handles GET /api/v1/scan
func (h *APIHandlers) GetScan(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    scanView{State: h.scanner.State(), Items: h.scanner.ReviewItems()},
	})
}

// SubmitScan handles POST /api/v1/scan
func (h *APIHandlers) SubmitScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageBase64 string `json:"image_base64"`
		MIMEType    string `json:"mime_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeBadRequest, "invalid request body", err))
		return
	}
	if req.ImageBase64 == "" {
		h.writeError(w, apperrors.New(apperrors.CodeBadRequest, "image_base64 is required"))
		return
	}
	if req.MIMEType == "" {
		req.MIMEType = "image/jpeg"
	}

	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeBadRequest, "image_base64 is not valid base64", err))
		return
	}

	if err := h.scanner.Submit(r.Context(), data, req.MIMEType); err != nil {
		h.logger.Warn("Scan submission failed", zap.Error(err))
		if errors.Is(err, scan.ErrBusy) {
			h.writeError(w, apperrors.Wrap(apperrors.CodeScanBusy, "a scan is already in progress", err))
			return
		}
		h.writeError(w, apperrors.Wrap(apperrors.CodeExternalServiceError, "ingredient recognition failed", err))
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    scanView{State: h.scanner.State(), Items: h.scanner.ReviewItems()},
		Message: "Scan ready for review",
	})
}

// CommitScan handles POST /api/v1/scan/commit
func (h *APIHandlers) CommitScan(w http.ResponseWriter, r *http.Request) {
	committed, err := h.scanner.Commit(r.Context())
	if err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeStorageError, "failed to commit scanned items", err))
		return
	}
	if !committed {
		h.writeError(w, apperrors.New(apperrors.CodeNothingToCommit, "no reviewed items to commit"))
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]interface{}{"pantry_size": len(h.pantry.Items(r.Context()))},
		Message: "Scanned items added to pantry",
	})
}

// CancelScan handles POST /api/v1/scan/cancel
func (h *APIHandlers) CancelScan(w http.ResponseWriter, r *http.Request) {
	h.scanner.Cancel()
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Scan cancelled"})
}

// ListPantry handles GET /api/v1/pantry
func (h *APIHandlers) ListPantry(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    h.pantry.Items(r.Context()),
	})
}

// ingredientRequest is the wire shape for manually entered items.
type ingredientRequest struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	Category   string `json:"category"`
	Freshness  string `json:"freshness"`
	ExpiryDate string `json:"expiry_date"`
}

func (h *APIHandlers) decodeIngredients(reqs []ingredientRequest) ([]domain.Ingredient, error) {
	items := make([]domain.Ingredient, 0, len(reqs))
	for _, req := range reqs {
		category, err := domain.ParseCategory(req.Category)
		if err != nil {
			return nil, err
		}
		item, err := domain.NewIngredient(req.Name, req.Quantity, category, domain.ParseFreshness(req.Freshness))
		if err != nil {
			return nil, err
		}
		item.ExpiryDate = req.ExpiryDate
		items = append(items, item)
	}
	return items, nil
}

// AddIngredients handles POST /api/v1/pantry
func (h *APIHandlers) AddIngredients(w http.ResponseWriter, r *http.Request) {
	var reqs []ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeBadRequest, "invalid request body", err))
		return
	}

	items, err := h.decodeIngredients(reqs)
	if err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeValidationFailed, "invalid ingredient", err))
		return
	}

	if err := h.pantry.Add(r.Context(), items...); err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeStorageError, "failed to add ingredients", err))
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    items,
		Message: "Ingredients added",
	})
}

// ReplacePantry handles PUT /api/v1/pantry
func (h *APIHandlers) ReplacePantry(w http.ResponseWriter, r *http.Request) {
	var reqs []ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeBadRequest, "invalid request body", err))
		return
	}

	items, err := h.decodeIngredients(reqs)
	if err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeValidationFailed, "invalid ingredient", err))
		return
	}

	if err := h.pantry.Replace(r.Context(), items); err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeStorageError, "failed to replace pantry", err))
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    items,
		Message: "Pantry replaced",
	})
}

// RemoveIngredient handles DELETE /api/v1/pantry/{id}
func (h *APIHandlers) RemoveIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeBadRequest, "invalid ingredient id", err))
		return
	}

	// Removing an absent id is a no-op, matching the store contract.
	if err := h.pantry.Remove(r.Context(), id); err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeStorageError, "failed to remove ingredient", err))
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Ingredient removed"})
}

// FetchRecipes handles POST /api/v1/recipes/fetch
func (h *APIHandlers) FetchRecipes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preferences []string `json:"preferences"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, apperrors.Wrap(apperrors.CodeBadRequest, "invalid request body", err))
			return
		}
	}

	// Stored diet preferences seed the request when none are supplied.
	if len(req.Preferences) == 0 {
		if prefs, err := h.profile.Get(r.Context()); err == nil {
			req.Preferences = prefs.Diet
		}
	}

	snapshot := h.pantry.Items(r.Context())
	if len(snapshot) == 0 {
		h.writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Data:    map[string]interface{}{"state": h.finder.State()},
			Message: "Pantry is empty; nothing fetched",
		})
		return
	}

	if err := h.finder.Fetch(r.Context(), snapshot, req.Preferences); err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeExternalServiceError, "recipe suggestion failed", err))
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"state":   h.finder.State(),
			"recipes": h.finder.Batch(),
		},
	})
}

// ListRecipes handles GET /api/v1/recipes
func (h *APIHandlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := inbound.ViewOptions{
		Search:      q.Get("q"),
		PerfectOnly: q.Get("perfect") == "true",
		SortBy:      inbound.SortByScore,
	}
	if diets := q.Get("diets"); diets != "" {
		for _, d := range strings.Split(diets, ",") {
			if d = strings.TrimSpace(d); d != "" {
				opts.DietaryFilters = append(opts.DietaryFilters, d)
			}
		}
	}
	switch q.Get("sort") {
	case "time":
		opts.SortBy = inbound.SortByTime
	case "difficulty":
		opts.SortBy = inbound.SortByDifficulty
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"state":   h.finder.State(),
			"recipes": h.finder.View(opts),
		},
	})
}

// GetProfile handles GET /api/v1/profile
func (h *APIHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.profile.Get(r.Context())
	if err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeStorageError, "failed to load profile", err))
		return
	}
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: prefs})
}

// PutProfile handles PUT /api/v1/profile
func (h *APIHandlers) PutProfile(w http.ResponseWriter, r *http.Request) {
	var prefs inbound.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeBadRequest, "invalid request body", err))
		return
	}

	if err := h.profile.Put(r.Context(), prefs); err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.CodeStorageError, "failed to save profile", err))
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: prefs, Message: "Profile updated"})
}

func (h *APIHandlers) writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *APIHandlers) writeError(w http.ResponseWriter, appErr *apperrors.AppError) {
	h.writeJSON(w, appErr.StatusCode(), APIResponse{
		Success: false,
		Error:   string(appErr.Code),
		Message: appErr.Message,
	})
}
