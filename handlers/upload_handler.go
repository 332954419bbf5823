package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"tripRecapAPI/internal/logging"
	"tripRecapAPI/internal/types/geo"
	"tripRecapAPI/services"
)

// multipart parts beyond this stay on disk until the form is closed
const uploadMemory = 8 << 20

type UploadHandler struct {
	uploadService *services.UploadService
	maxBytes      int64
}

func NewUploadHandler(uploadService *services.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
	}
}

func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusBadRequest, "Image exceeds the upload size limit")
			return
		}
		respondWithError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read uploaded image")
		return
	}
	if len(data) == 0 {
		respondWithError(w, http.StatusBadRequest, "Uploaded image is empty")
		return
	}

	clientCoords := parseClientCoordinates(r)

	result, err := h.uploadService.Process(ctx, header.Filename, data, clientCoords)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to process image")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// parseClientCoordinates reads the optional coordinates form field. Malformed
// or partial values are logged and treated as absent.
func parseClientCoordinates(r *http.Request) *geo.Coordinates {
	raw := r.FormValue("coordinates")
	if raw == "" {
		return nil
	}

	var partial geo.PartialCoordinates
	if err := json.Unmarshal([]byte(raw), &partial); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("coordinates", raw).Msg("ignoring malformed client coordinates")
		return nil
	}

	c, ok := partial.Complete()
	if !ok {
		logging.Ctx(r.Context()).Warn().Str("coordinates", raw).Msg("ignoring incomplete client coordinates")
		return nil
	}
	return c
}
