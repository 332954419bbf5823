package handlers

import (
	"context"
	"net/http"
	"time"

	"tripRecapAPI/services"
)

type MapHandler struct {
	mapService *services.MapService
}

func NewMapHandler(mapService *services.MapService) *MapHandler {
	return &MapHandler{
		mapService: mapService,
	}
}

// GetMarkers returns a GeoJSON FeatureCollection, optionally for one sketchbook.
func (h *MapHandler) GetMarkers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	fc, err := h.mapService.Markers(ctx, r.URL.Query().Get("sketchbookId"))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to load map markers")
		return
	}

	respondWithJSON(w, http.StatusOK, fc)
}

func (h *MapHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.mapService.Config())
}
