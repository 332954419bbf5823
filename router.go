package main

import (
	"context"
	"net/http"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripRecapAPI/handlers"
	"tripRecapAPI/internal/config"
	"tripRecapAPI/internal/store"
	"tripRecapAPI/middleware"
	"tripRecapAPI/services"

	_ "net/http/pprof"
)

type application struct {
	cfg         *config.Config
	store       store.Store
	rateLimiter *middleware.RateLimiter

	sketchbookHandler  *handlers.SketchbookHandler
	uploadHandler      *handlers.UploadHandler
	coordinatesHandler *handlers.CoordinatesHandler
	userHandler        *handlers.UserHandler
	mapHandler         *handlers.MapHandler
}

// newApplication wires services and handlers on top of an opened store.
func newApplication(cfg *config.Config, st store.Store) (*application, error) {
	coordinatesService := services.NewCoordinatesService(st)
	sketchbookService := services.NewSketchbookService(st, coordinatesService)
	userService := services.NewUserService(st, cfg.JWTSecret, cfg.TokenTTL)
	mapService := services.NewMapService(st, st, services.MapConfig{
		AccessToken: cfg.MapAccessToken,
		Style:       cfg.MapStyle,
	})

	uploadService, err := services.NewUploadService(services.UploadConfig{
		MaxDimension: cfg.ImageMaxDimension,
		MaxPixels:    cfg.ImageMaxPixels,
		HEICQuality:  cfg.HEICQuality,
		CacheSize:    cfg.ExtractionCacheSize,
	})
	if err != nil {
		return nil, err
	}

	return &application{
		cfg:                cfg,
		store:              st,
		rateLimiter:        middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		sketchbookHandler:  handlers.NewSketchbookHandler(sketchbookService),
		uploadHandler:      handlers.NewUploadHandler(uploadService, cfg.UploadMaxBytes),
		coordinatesHandler: handlers.NewCoordinatesHandler(coordinatesService),
		userHandler:        handlers.NewUserHandler(userService),
		mapHandler:         handlers.NewMapHandler(mapService),
	}, nil
}

func (a *application) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger, middleware.Recoverer, middleware.OptionalAuthMiddleware(a.cfg.JWTSecret))

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(a.rateLimiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(a.cfg.MetricsUser, a.cfg.MetricsPass)(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(a.cfg.PprofSecret)(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", a.health).Methods("GET")
	standardRouter.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message": "API is working"}`))
	}).Methods("GET")

	api := standardRouter.PathPrefix("/api").Subrouter()

	api.HandleFunc("/upload/image", a.uploadHandler.UploadImage).Methods("POST")

	api.HandleFunc("/sketchbooks", a.sketchbookHandler.CreateSketchbook).Methods("POST")
	api.HandleFunc("/sketchbooks", a.sketchbookHandler.ListSketchbooks).Methods("GET")
	api.HandleFunc("/sketchbooks/import", a.sketchbookHandler.ImportLegacy).Methods("POST")
	api.HandleFunc("/sketchbooks/canvases/recent", a.sketchbookHandler.RecentCanvases).Methods("GET")
	api.HandleFunc("/sketchbooks/canvas/{canvasId}", a.sketchbookHandler.GetCanvas).Methods("GET")
	api.HandleFunc("/sketchbooks/canvas/{canvasId}", a.sketchbookHandler.UpdateCanvas).Methods("PUT")
	api.HandleFunc("/sketchbooks/{id}", a.sketchbookHandler.GetSketchbook).Methods("GET")
	api.HandleFunc("/sketchbooks/{id}", a.sketchbookHandler.DeleteSketchbook).Methods("DELETE")
	api.HandleFunc("/sketchbooks/{id}/canvases", a.sketchbookHandler.AddCanvas).Methods("POST")
	api.HandleFunc("/sketchbooks/{sketchbookId}/canvases/{canvasId}", a.sketchbookHandler.DeleteCanvas).Methods("DELETE")

	api.HandleFunc("/coordinates", a.coordinatesHandler.ListCoordinates).Methods("GET")
	api.HandleFunc("/coordinates", a.coordinatesHandler.UpsertCoordinates).Methods("POST")
	api.HandleFunc("/coordinates/{canvasId}", a.coordinatesHandler.GetCoordinates).Methods("GET")

	api.HandleFunc("/users/register", a.userHandler.Register).Methods("POST")
	api.HandleFunc("/users/login", a.userHandler.Login).Methods("GET")

	api.HandleFunc("/map/markers", a.mapHandler.GetMarkers).Methods("GET")
	api.HandleFunc("/map/config", a.mapHandler.GetConfig).Methods("GET")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(a.cfg.AllowedOrigins()),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret", middleware.RequestIDHeader}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length", middleware.RequestIDHeader}),
	)

	return gorillaHandlers.ProxyHeaders(corsHandler(r))
}

func (a *application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := a.store.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy", "service": "tripRecap-api"}`))
}
