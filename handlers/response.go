package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"tripRecapAPI/internal/imaging"
	"tripRecapAPI/internal/logging"
	"tripRecapAPI/internal/store"
	"tripRecapAPI/internal/validation"
	"tripRecapAPI/services"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service errors to status codes. Anything
// unrecognised is logged and answered with fallback as a 500.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validationErr *validation.RequestValidationError
	var conversionErr *imaging.ConversionError

	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmailInUse):
		respondWithError(w, http.StatusBadRequest, "Email already in use")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondWithError(w, http.StatusBadRequest, "Invalid email or password")
	case errors.Is(err, store.ErrConflict):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, imaging.ErrTooManyPixels):
		respondWithError(w, http.StatusBadRequest, "Image dimensions exceed the pixel limit")
	case errors.As(err, &conversionErr):
		respondWithError(w, http.StatusInternalServerError, conversionErr.Error())
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		respondWithError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logging.Ctx(r.Context()).Error().Err(err).Msg("request timed out")
		respondWithError(w, http.StatusInternalServerError, "Request timed out")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg(fallback)
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads a JSON body into dst and validates it. An empty body is
// allowed when allowEmpty is set, leaving dst at its zero value.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return &validation.RequestValidationError{Fields: []validation.FieldError{{
				Field: "body", Tag: "json", Message: "Invalid request body",
			}}}
		}
	}
	return validation.ValidateStruct(dst)
}
