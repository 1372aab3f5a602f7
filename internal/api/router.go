package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/apr-datagen/internal/health"
	"github.com/sebastiankruger/apr-datagen/internal/metrics"
)

// NewRouter mounts the health, metrics and API routes. m may be nil.
func NewRouter(h *Handler, hh *health.Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", hh.HandleHealth)
	r.Get("/health/live", hh.HandleLive)
	r.Get("/health/ready", hh.HandleReady)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/generate", func(r chi.Router) {
			r.Get("/data-types", h.HandleDataTypes)
			r.Get("/scenarios", h.HandleScenarios)
			r.Post("/{kind}/download", h.HandleDownload)
			r.Post("/month/preview", h.HandlePreview)
			r.Get("/single/{dataType}", h.HandleSingle)
		})
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", h.HandleCreateJob)
			r.Get("/", h.HandleListJobs)
			r.Get("/{id}", h.HandleGetJob)
			r.Get("/{id}/archive", h.HandleJobArchive)
			r.Get("/{id}/archive/url", h.HandleJobArchiveURL)
		})
		r.HandleFunc("/config", h.HandleConfig)
	})
	return r
}

// requestLogger logs one line per request with zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
