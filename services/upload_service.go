package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"tripRecapAPI/internal/imaging"
	"tripRecapAPI/internal/logging"
	"tripRecapAPI/internal/metrics"
	"tripRecapAPI/internal/types/geo"
	"tripRecapAPI/utils"
)

const (
	SourceClient = "client"
	SourceNone   = "none"
)

type UploadConfig struct {
	MaxDimension int
	// MaxPixels caps width*height before any full decode.
	MaxPixels   int
	HEICQuality int
	CacheSize   int
}

type UploadMetadata struct {
	Width             int              `json:"width"`
	Height            int              `json:"height"`
	Format            string           `json:"format"`
	Coordinates       *geo.Coordinates `json:"coordinates"`
	CoordinatesSource string           `json:"coordinatesSource"`
	Timestamp         time.Time        `json:"timestamp"`
	OriginalTimestamp *time.Time       `json:"originalTimestamp,omitempty"`
}

type UploadResult struct {
	ImageData string         `json:"imageData"`
	Metadata  UploadMetadata `json:"metadata"`
}

// UploadService runs one image through normalize, extract and resize. Nothing is persisted.
type UploadService struct {
	cfg   UploadConfig
	cache *lru.Cache[[sha256.Size]byte, imaging.Result]
	now   func() time.Time
}

func NewUploadService(cfg UploadConfig) (*UploadService, error) {
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = imaging.DefaultMaxDimension
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = imaging.DefaultMaxPixels
	}
	if cfg.HEICQuality <= 0 {
		cfg.HEICQuality = imaging.DefaultJPEGQuality
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}

	cache, err := lru.New[[sha256.Size]byte, imaging.Result](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction cache: %w", err)
	}

	return &UploadService{
		cfg:   cfg,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Process handles one uploaded file. Client coordinates, when present, win and
// skip extraction. Metadata describes the normalized input, not the resized output.
func (s *UploadService) Process(ctx context.Context, filename string, data []byte, clientCoords *geo.Coordinates) (*UploadResult, error) {
	start := time.Now()
	log := logging.Ctx(ctx)

	result, err := s.process(ctx, filename, data, clientCoords)
	metrics.UploadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("filename", filename).Msg("image processing failed")
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	log.Info().
		Str("filename", filename).
		Int("width", result.Metadata.Width).
		Int("height", result.Metadata.Height).
		Str("coordinates_source", result.Metadata.CoordinatesSource).
		Dur("took", time.Since(start)).
		Msg("image processed")
	return result, nil
}

func (s *UploadService) process(ctx context.Context, filename string, data []byte, clientCoords *geo.Coordinates) (*UploadResult, error) {
	normalized, err := imaging.Normalize(data, filename, s.cfg.HEICQuality, s.cfg.MaxPixels)
	if err != nil {
		return nil, err
	}

	info, err := imaging.Probe(normalized)
	if err != nil {
		return nil, err
	}
	if err := imaging.CheckPixels(info.Width, info.Height, s.cfg.MaxPixels); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	md := UploadMetadata{
		Width:             info.Width,
		Height:            info.Height,
		Format:            info.Format,
		CoordinatesSource: SourceNone,
		Timestamp:         s.now(),
	}

	// the capture time is read even when the client supplies the location
	res := s.extract(ctx, normalized)
	md.OriginalTimestamp = res.OriginalTimestamp

	switch {
	case clientCoords != nil:
		c := *clientCoords
		md.Coordinates = &c
		md.CoordinatesSource = SourceClient
	case res.HasLocation():
		md.Coordinates = res.Coordinates
		md.CoordinatesSource = string(res.Status)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// resizing drops the metadata block, so it runs last
	processed, err := imaging.Resize(normalized, s.cfg.MaxDimension)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		ImageData: utils.DataURI(processed.MIME, processed.Data),
		Metadata:  md,
	}, nil
}

func (s *UploadService) extract(ctx context.Context, buf []byte) imaging.Result {
	key := sha256.Sum256(buf)
	if res, ok := s.cache.Get(key); ok {
		metrics.ExtractionCacheHits.Inc()
		return res
	}

	res := imaging.ExtractCoordinates(buf)
	metrics.ExtractionsTotal.WithLabelValues(string(res.Status)).Inc()
	if res.Status == imaging.StatusFailed {
		logging.Ctx(ctx).Warn().Err(res.Err).Msg("image metadata present but unreadable")
	}

	s.cache.Add(key, res)
	return res
}
