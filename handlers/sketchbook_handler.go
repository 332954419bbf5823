package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tripRecapAPI/internal/types/sketchbook"
	"tripRecapAPI/services"
	"tripRecapAPI/utils"
)

type SketchbookHandler struct {
	sketchbookService *services.SketchbookService
}

func NewSketchbookHandler(sketchbookService *services.SketchbookService) *SketchbookHandler {
	return &SketchbookHandler{
		sketchbookService: sketchbookService,
	}
}

func (h *SketchbookHandler) CreateSketchbook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req sketchbook.CreateSketchbookRequest
	if err := decodeJSON(r, &req, true); err != nil {
		respondWithServiceError(w, r, err, "Failed to create sketchbook")
		return
	}

	sb, err := h.sketchbookService.Create(ctx, req.Title)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create sketchbook")
		return
	}

	respondWithJSON(w, http.StatusCreated, sb)
}

func (h *SketchbookHandler) ListSketchbooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sketchbooks, err := h.sketchbookService.List(ctx)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list sketchbooks")
		return
	}

	respondWithJSON(w, http.StatusOK, sketchbooks)
}

func (h *SketchbookHandler) GetSketchbook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sb, err := h.sketchbookService.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get sketchbook")
		return
	}

	respondWithJSON(w, http.StatusOK, sb)
}

func (h *SketchbookHandler) DeleteSketchbook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.sketchbookService.Delete(ctx, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, err, "Failed to delete sketchbook")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Sketchbook deleted successfully"})
}

func (h *SketchbookHandler) AddCanvas(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req sketchbook.CreateCanvasRequest
	if err := decodeJSON(r, &req, true); err != nil {
		respondWithServiceError(w, r, err, "Failed to add canvas")
		return
	}

	c, err := h.sketchbookService.AddCanvas(ctx, mux.Vars(r)["id"], req.Title)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to add canvas")
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *SketchbookHandler) GetCanvas(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ref, err := h.sketchbookService.GetCanvas(ctx, mux.Vars(r)["canvasId"])
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get canvas")
		return
	}

	respondWithJSON(w, http.StatusOK, ref)
}

func (h *SketchbookHandler) UpdateCanvas(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req sketchbook.UpdateCanvasRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondWithServiceError(w, r, err, "Failed to update canvas")
		return
	}

	c, err := h.sketchbookService.UpdateCanvas(ctx, mux.Vars(r)["canvasId"], &req)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update canvas")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *SketchbookHandler) DeleteCanvas(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vars := mux.Vars(r)
	if err := h.sketchbookService.DeleteCanvas(ctx, vars["sketchbookId"], vars["canvasId"]); err != nil {
		respondWithServiceError(w, r, err, "Failed to delete canvas")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Canvas deleted successfully"})
}

func (h *SketchbookHandler) RecentCanvases(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := utils.IntQuery(r.URL.Query(), "limit", services.DefaultRecentLimit)

	refs, err := h.sketchbookService.RecentCanvases(ctx, limit)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get recent canvases")
		return
	}

	respondWithJSON(w, http.StatusOK, refs)
}

func (h *SketchbookHandler) ImportLegacy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req sketchbook.ImportLegacyRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondWithServiceError(w, r, err, "Failed to import canvases")
		return
	}

	sb, err := h.sketchbookService.ImportLegacy(ctx, &req)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to import canvases")
		return
	}

	respondWithJSON(w, http.StatusCreated, sb)
}
