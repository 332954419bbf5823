package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripRecapAPI/internal/imaging"
	"tripRecapAPI/internal/store"
	"tripRecapAPI/internal/store/memory"
	"tripRecapAPI/internal/types/sketchbook"
	"tripRecapAPI/services"
)

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "not found",
			err:      fmt.Errorf("sketchbook x: %w", store.ErrNotFound),
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"sketchbook x: not found"}`,
		},
		{
			name:     "email in use",
			err:      services.ErrEmailInUse,
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Email already in use"}`,
		},
		{
			name:     "conversion failure",
			err:      &imaging.ConversionError{Format: "heic", Err: errors.New("bad box")},
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"failed to convert heic image: bad box"}`,
		},
		{
			name:     "too many pixels",
			err:      fmt.Errorf("60000x60000: %w", imaging.ErrTooManyPixels),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Image dimensions exceed the pixel limit"}`,
		},
		{
			name:     "unknown",
			err:      errors.New("disk on fire"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Failed to do it"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			respondWithServiceError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "Failed to do it")

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var req sketchbook.CreateSketchbookRequest
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.NoError(t, decodeJSON(r, &req, true))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.Error(t, decodeJSON(r, &req, false))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	assert.Error(t, decodeJSON(r, &req, true))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"`+strings.Repeat("a", 201)+`"}`))
	assert.Error(t, decodeJSON(r, &req, false))
}

func TestParseClientCoordinates(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "complete", value: `{"latitude":0,"longitude":0}`, want: true},
		{name: "missing field", value: ``},
		{name: "partial", value: `{"latitude":10}`},
		{name: "malformed", value: `lat=10`},
		{name: "out of range", value: `{"latitude":91,"longitude":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			if tt.value != "" {
				require.NoError(t, mw.WriteField("coordinates", tt.value))
			}
			require.NoError(t, mw.Close())

			r := httptest.NewRequest(http.MethodPost, "/", &buf)
			r.Header.Set("Content-Type", mw.FormDataContentType())
			require.NoError(t, r.ParseMultipartForm(1<<20))

			got := parseClientCoordinates(r)
			assert.Equal(t, tt.want, got != nil)
		})
	}
}

func TestUploadImage_TooLarge(t *testing.T) {
	svc, err := services.NewUploadService(services.UploadConfig{})
	require.NoError(t, err)
	h := NewUploadHandler(svc, 1024)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "big.jpg")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{0xFF}, 4096))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/upload/image", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.UploadImage(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Image exceeds the upload size limit"}`, rr.Body.String())
}

func TestSketchbookHandler_GetMissing(t *testing.T) {
	st := memory.New()
	h := NewSketchbookHandler(services.NewSketchbookService(st, services.NewCoordinatesService(st)))

	router := mux.NewRouter()
	router.HandleFunc("/api/sketchbooks/{id}", h.GetSketchbook).Methods("GET")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sketchbooks/nope", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "not found")
}

func TestSketchbookHandler_RecentClampsLimit(t *testing.T) {
	st := memory.New()
	svc := services.NewSketchbookService(st, services.NewCoordinatesService(st))
	h := NewSketchbookHandler(svc)

	sb, err := svc.Create(t.Context(), "trip")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := svc.AddCanvas(t.Context(), sb.ID, "")
		require.NoError(t, err)
	}

	for _, query := range []string{"?limit=0", "?limit=abc", "?limit=-4", ""} {
		rr := httptest.NewRecorder()
		h.RecentCanvases(rr, httptest.NewRequest(http.MethodGet, "/api/sketchbooks/canvases/recent"+query, nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 3, strings.Count(rr.Body.String(), `"sketchbookId"`), query)
	}
}
