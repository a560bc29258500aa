// Package httpapi exposes the card identification pipeline over HTTP for the
// browser frontend.
//
// Routes:
//
//	POST /ocr        multipart "file" -> identification result
//	POST /identify   alias of /ocr
//	POST /search     {"query": "...", "limit": 5} -> {"items": [...]}
//	GET  /templates  loaded set identifiers
//	GET  /scans      recent scan history (404 when history is disabled)
//	GET  /healthz    liveness and subsystem status
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ironsheep/card-scanner/internal/history"
	"github.com/ironsheep/card-scanner/internal/ocr"
	"github.com/ironsheep/card-scanner/internal/pipeline"
)

// MaxUploadBytes bounds the size of an uploaded card photo.
const MaxUploadBytes = 20 << 20

// ScanLister lists stored scans.
type ScanLister interface {
	Recent(ctx context.Context, limit int) ([]history.Scan, error)
}

// Options configures a Server.
type Options struct {
	Identifier     *pipeline.Identifier
	History        ScanLister
	OCR            ocr.Info
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server serves the HTTP API.
type Server struct {
	identifier *pipeline.Identifier
	history    ScanLister
	ocr        ocr.Info
	origins    []string
	logger     *slog.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		identifier: opts.Identifier,
		history:    opts.History,
		ocr:        opts.OCR,
		origins:    origins,
		logger:     logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Post("/ocr", s.handleIdentify)
	r.Post("/identify", s.handleIdentify)
	r.Post("/search", s.handleSearch)
	r.Get("/templates", s.handleTemplates)
	r.Get("/scans", s.handleScans)
	r.Get("/healthz", s.handleHealth)

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type errorResponse struct {
	Error string                 `json:"error"`
	Code  string                 `json:"code,omitempty"`
	Info  map[string]interface{} `json:"details,omitempty"`
}

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	writeJson(w, status, resp)
}
