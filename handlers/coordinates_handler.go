package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tripRecapAPI/internal/types/coordinates"
	"tripRecapAPI/services"
)

type CoordinatesHandler struct {
	coordinatesService *services.CoordinatesService
}

func NewCoordinatesHandler(coordinatesService *services.CoordinatesService) *CoordinatesHandler {
	return &CoordinatesHandler{
		coordinatesService: coordinatesService,
	}
}

func (h *CoordinatesHandler) UpsertCoordinates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req coordinates.UpsertRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondWithServiceError(w, r, err, "Failed to save coordinates")
		return
	}

	record, err := h.coordinatesService.Upsert(ctx, req.CanvasID, *req.Latitude, *req.Longitude)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to save coordinates")
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

func (h *CoordinatesHandler) GetCoordinates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	record, err := h.coordinatesService.Get(ctx, mux.Vars(r)["canvasId"])
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get coordinates")
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

func (h *CoordinatesHandler) ListCoordinates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.coordinatesService.List(ctx)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list coordinates")
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}
