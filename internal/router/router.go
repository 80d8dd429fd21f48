package router

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/truelectro/image-resampler/internal/handlers"
	"github.com/truelectro/image-resampler/internal/middleware"
)

func New(h *handlers.BatchHandler, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.TraceID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/batches", func(r chi.Router) {
			r.Post("/", h.Create)

			r.Route("/{batchID}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.Delete("/", h.Delete)
				r.Post("/process", h.Process)
				r.Get("/archive", h.Archive)

				r.Route("/files", func(r chi.Router) {
					r.Post("/", h.Upload)

					r.Route("/{fileID}", func(r chi.Router) {
						r.Get("/", h.FilePreview)
						r.Delete("/", h.RemoveFile)
						r.Get("/status", h.FileStatus)
						r.Get("/result", h.FileResult)
					})
				})
			})
		})
	})

	return r
}
