// Package httpapi exposes the audio pipeline over HTTP: generation,
// status, deletion, playlist assembly, byte-range streaming and a
// websocket progress feed.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/lessoncast/lessoncast/pkg/blob"
	"github.com/lessoncast/lessoncast/pkg/errorsx"
	"github.com/lessoncast/lessoncast/pkg/generate"
	"github.com/lessoncast/lessoncast/pkg/lesson"
	"github.com/lessoncast/lessoncast/pkg/logging"
	"github.com/lessoncast/lessoncast/pkg/manifest"
	"github.com/lessoncast/lessoncast/pkg/metrics"
	"github.com/lessoncast/lessoncast/pkg/notify"
	"github.com/lessoncast/lessoncast/pkg/playlist"
)

// Server wires the pipeline components behind a mux router.
type Server struct {
	router    *mux.Router
	lessons   lesson.Source
	orch      *generate.Orchestrator
	manifests *manifest.Store
	assembler *playlist.Assembler
	blobs     blob.Store
	notifier  notify.Notifier
	progress  *ProgressHub
	obs       metrics.Observer
	logger    *slog.Logger
}

// Options collects the server's collaborators.
type Options struct {
	Lessons      lesson.Source
	Orchestrator *generate.Orchestrator
	Manifests    *manifest.Store
	Assembler    *playlist.Assembler
	Blobs        blob.Store
	Notifier     notify.Notifier
	Progress     *ProgressHub
	Observer     metrics.Observer
}

// NewServer builds the HTTP server and its routes.
func NewServer(opts Options) *Server {
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}
	if opts.Observer == nil {
		opts.Observer = metrics.NoopObserver{}
	}
	s := &Server{
		router:    mux.NewRouter(),
		lessons:   opts.Lessons,
		orch:      opts.Orchestrator,
		manifests: opts.Manifests,
		assembler: opts.Assembler,
		blobs:     opts.Blobs,
		notifier:  opts.Notifier,
		progress:  opts.Progress,
		obs:       opts.Observer,
		logger:    logging.NewComponentLogger(slog.Default(), "httpapi"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestMiddleware)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	p := s.router.PathPrefix("/programs").Subrouter()
	p.HandleFunc("/generate-lesson-audio", s.handleGenerate).Methods(http.MethodPost)
	p.HandleFunc("/lessons/{lessonID}/audio/status", s.handleStatus).Methods(http.MethodGet)
	p.HandleFunc("/lessons/{lessonID}/audio", s.handleDelete).Methods(http.MethodDelete)
	p.HandleFunc("/lessons/{lessonID}/playlist", s.handlePlaylist).Methods(http.MethodGet)
	p.HandleFunc("/lessons/{lessonID}/audio/{audioID}/stream", s.handleStream).Methods(http.MethodGet)
	if s.progress != nil {
		p.HandleFunc("/lessons/{lessonID}/audio/progress", s.progress.handleSubscribe).Methods(http.MethodGet)
	}
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.obs.RecordEvent(metrics.Event(metrics.EventHTTPRequest, float64(time.Since(start).Milliseconds()), map[string]string{
			"method": r.Method,
			"path":   r.URL.Path,
		}))
		s.logger.Debug("request served",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validLessonID rejects malformed lesson identifiers before any I/O.
func validLessonID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return errorsx.New(errorsx.ReasonValidation, "lesson id %q is not a valid uuid", id)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// writeError maps the error taxonomy to HTTP statuses: validation
// before I/O is 400, absent things are 404, provider throttling is
// 429, and storage outages surface as 502 because there is no partial
// result to return.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lesson.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "lesson not found", Reason: string(errorsx.ReasonLessonNotFound)})
		return
	case errorsx.HasReason(err, errorsx.ReasonValidation):
		status = http.StatusBadRequest
	case errorsx.HasReason(err, errorsx.ReasonManifestNotFound),
		errorsx.HasReason(err, errorsx.ReasonArtifactNotFound),
		errorsx.HasReason(err, errorsx.ReasonLessonNotFound):
		status = http.StatusNotFound
	case errorsx.HasReason(err, errorsx.ReasonSynthesisRateLimit):
		status = http.StatusTooManyRequests
	case errorsx.HasReason(err, errorsx.ReasonStorageGet),
		errorsx.HasReason(err, errorsx.ReasonStoragePut),
		errorsx.HasReason(err, errorsx.ReasonStorageDelete),
		errorsx.HasReason(err, errorsx.ReasonStorageList):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Reason: string(errorsx.Reason(err))})
}
