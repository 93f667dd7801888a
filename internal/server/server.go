// Package server exposes the companion HTTP API the canvas editor talks
// to: snapshot save/load, asset upload/serve, checkpoints, and page CRUD.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/devidw/rem/internal/assets"
	"github.com/devidw/rem/internal/config"
	"github.com/devidw/rem/internal/document"
	"github.com/devidw/rem/internal/session"
)

// Server wires the stores and session into an HTTP handler.
type Server struct {
	cfg     *config.Config
	log     *zap.Logger
	docs    *document.Store
	assets  *assets.Store
	session *session.Session
}

func New(cfg *config.Config, docs *document.Store, as *assets.Store, sess *session.Session, log *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		docs:    docs,
		assets:  as,
		session: sess,
	}
}

// Handler configures all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.log))

	if s.cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/document", s.handleGetDocument)
		r.Put("/document", s.handlePutDocument)

		r.Route("/pages", func(r chi.Router) {
			r.Get("/", s.handleListPages)
			r.Post("/", s.handleCreatePage)
			r.Patch("/{pageID}", s.handleRenamePage)
			r.Delete("/{pageID}", s.handleDeletePage)
		})

		r.Route("/assets", func(r chi.Router) {
			r.Get("/", s.handleListAssets)
			r.Post("/", s.handleUploadAsset)
			r.Get("/{assetID}", s.handleGetAsset)
			r.Delete("/{assetID}", s.handleDeleteAsset)
		})

		r.Route("/checkpoints", func(r chi.Router) {
			r.Get("/", s.handleListCheckpoints)
			r.Post("/", s.handleCreateCheckpoint)
			r.Post("/{checkpointID}/restore", s.handleRestoreCheckpoint)
		})
	})

	return r
}

// requestLogger logs one structured line per request.
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
