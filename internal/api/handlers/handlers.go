// internal/api/handlers/handlers.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tomanasmo/finnmonitor/internal/domain"
	"github.com/tomanasmo/finnmonitor/internal/repositories"
	"github.com/tomanasmo/finnmonitor/internal/status"
)

const timeLayout = "2006-01-02 15:04:05"

// Handler serves the read/write API over the listing store and the worker
// status flags.
type Handler struct {
	repo        repositories.ListingRepository
	statusStore status.Store
	webRoot     string
	loc         *time.Location
	log         *zap.SugaredLogger
}

// New builds the API handler. loc is the display timezone for timestamps.
func New(repo repositories.ListingRepository, statusStore status.Store, webRoot string, loc *time.Location, log *zap.SugaredLogger) *Handler {
	return &Handler{
		repo:        repo,
		statusStore: statusStore,
		webRoot:     webRoot,
		loc:         loc,
		log:         log,
	}
}

// RegisterRoutes attaches all API routes to the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
	r.HandleFunc("/api/get_heat_pumps", h.GetHeatPumps).Methods(http.MethodGet)
	r.HandleFunc("/api/update_category/{finn_code}", h.UpdateCategory).Methods(http.MethodPost)
	r.HandleFunc("/api/scraper_status", h.workerStatus(status.WorkerScraper)).Methods(http.MethodGet)
	r.HandleFunc("/api/category_status", h.workerStatus(status.WorkerCategory)).Methods(http.MethodGet)
	r.HandleFunc("/api/ocr_status", h.workerStatus(status.WorkerOCR)).Methods(http.MethodGet)
}

// Index serves the dashboard page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page := filepath.Join(h.webRoot, "index.html")
	if _, err := os.Stat(page); err != nil {
		h.log.Warnw("index.html not found", "path", page)
		writeError(w, http.StatusNotFound, "index.html not found")
		return
	}
	http.ServeFile(w, r, page)
}

// listingItem is the wire shape of one listing in the read API.
type listingItem struct {
	FinnCode     string `json:"finn_code"`
	Title        string `json:"title"`
	Price        string `json:"price"`
	CreatedAt    string `json:"created_at"`
	Category     string `json:"category"`
	KategoriTest string `json:"kategori_test"`
}

// GetHeatPumps returns every listing, newest first.
func (h *Handler) GetHeatPumps(w http.ResponseWriter, r *http.Request) {
	listings, err := h.repo.FindAll(r.Context())
	if err != nil {
		h.log.Errorw("failed to fetch listings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch listings")
		return
	}

	items := make([]listingItem, 0, len(listings))
	for _, l := range listings {
		category := l.Category
		if category == "" {
			category = string(domain.CategoryUbehandlet)
		}
		items = append(items, listingItem{
			FinnCode:     l.FinnCode,
			Title:        l.Title,
			Price:        l.Price,
			CreatedAt:    l.CreatedAt.In(h.loc).Format(timeLayout),
			Category:     category,
			KategoriTest: l.KategoriTest,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":      items,
		"updated_at": time.Now().In(h.loc).Format(timeLayout),
	})
}

type updateCategoryRequest struct {
	Category *string `json:"category"`
}

// UpdateCategory sets the curated category for one listing.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["finn_code"]

	var req updateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Category == nil {
		writeError(w, http.StatusBadRequest, "invalid request, missing category value")
		return
	}

	updated, err := h.repo.SetCategory(r.Context(), code, domain.Category(*req.Category))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCategory) {
			writeError(w, http.StatusBadRequest, "invalid category: "+*req.Category)
			return
		}
		h.log.Errorw("failed to update category", "finn_code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update category")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "no listing found with finn code "+code)
		return
	}

	h.log.Infow("category updated", "finn_code", code, "category", *req.Category)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// workerStatus reports a worker's flag; a missing flag reads as Idle.
func (h *Handler) workerStatus(worker status.Worker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := h.statusStore.Get(worker)
		if err != nil {
			h.log.Errorw("failed to read worker status", "worker", worker, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to read status")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": string(state)})
	}
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
