package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/phish-detector/internal/application/session"
	domai "github.com/bryanwahyu/phish-detector/internal/domain/ai"
	"github.com/bryanwahyu/phish-detector/internal/domain/analysis"
	"github.com/bryanwahyu/phish-detector/internal/domain/history"
	"github.com/bryanwahyu/phish-detector/internal/middleware"
)

// HistoryLister is the read side of the audit log.
type HistoryLister interface {
	List(ctx context.Context, page, pageSize int) (*history.PaginatedResult, error)
}

// Options wires the router. Recorder, History, Limiter and Readiness are optional.
type Options struct {
	Sessions       *session.Store
	Scorer         session.Scorer
	Recorder       session.Recorder
	History        HistoryLister
	Checkers       map[string]middleware.HealthChecker
	Readiness      *middleware.Readiness
	Limiter        *middleware.RateLimiter
	APIKeys        map[string]string
	AllowedOrigins []string
	MaxBodyBytes   int64
	Logger         *zap.Logger
}

type Router struct {
	sessions     *session.Store
	scorer       session.Scorer
	recorder     session.Recorder
	history      HistoryLister
	maxBodyBytes int64
	logger       *zap.Logger
}

func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Readiness == nil {
		opts.Readiness = &middleware.Readiness{}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	r := &Router{
		sessions:     opts.Sessions,
		scorer:       opts.Scorer,
		recorder:     opts.Recorder,
		history:      opts.History,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       opts.Logger,
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware(opts.Logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.Limiter != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.Limiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/ready", opts.Readiness.Handler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/sessions", r.wrap(r.handleCreateSession))
		rt.Route("/sessions/{id}", func(st chi.Router) {
			st.Get("/", r.wrap(r.handleGetSession))
			st.Delete("/", r.wrap(r.handleDeleteSession))
			st.Post("/analyze", r.wrap(r.handleSessionAnalyze))
			st.Post("/reset", r.wrap(r.handleReset))
			st.Get("/messages", r.wrap(r.handleTranscript))
			st.Post("/messages", r.wrap(r.handleAsk))
			st.Put("/panel", r.wrap(r.handlePanel))
		})
		if r.history != nil {
			rt.Get("/history", r.wrap(r.handleHistory))
		}
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks client errors that have no domain sentinel
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var (
			bad     badRequest
			tooBig  *http.MaxBytesError
			status  int
			message = err.Error()
		)
		switch {
		case errors.Is(err, context.Canceled):
			// client sudah pergi, gak ada yang baca respons
			r.logger.Debug("request cancelled", zap.String("path", req.URL.Path))
			return
		case errors.Is(err, session.ErrEmptyInput):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, session.ErrBusy):
			status = http.StatusConflict
		case errors.Is(err, analysis.ErrInvalidContentType), errors.Is(err, session.ErrInvalidPanel):
			status = http.StatusBadRequest
		case errors.Is(err, session.ErrSessionNotFound):
			status = http.StatusNotFound
		case errors.Is(err, domai.ErrQuotaExceeded):
			status, message = http.StatusTooManyRequests, "ai quota exceeded"
		case errors.As(err, &tooBig):
			status, message = http.StatusRequestEntityTooLarge, "request body too large"
		case errors.As(err, &bad):
			status = http.StatusBadRequest
		default:
			r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			status, message = http.StatusInternalServerError, "internal error"
		}
		writeJSON(w, status, map[string]string{"error": message})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func (r *Router) decode(w http.ResponseWriter, req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return badRequest{"request body is required"}
		}
		return badRequest{"invalid JSON body: " + err.Error()}
	}
	return nil
}

type analyzeRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

func (r *Router) parseAnalyze(w http.ResponseWriter, req *http.Request) (analysis.Input, error) {
	var body analyzeRequest
	if err := r.decode(w, req, &body); err != nil {
		return analysis.Input{}, err
	}
	ct, err := analysis.ParseContentType(body.Type)
	if err != nil {
		return analysis.Input{}, err
	}
	return analysis.Input{Text: middleware.SanitizeString(body.Text), Type: ct}, nil
}

func (r *Router) session(req *http.Request) (*session.Controller, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return nil, session.ErrSessionNotFound
	}
	return r.sessions.Get(id)
}

// POST /v1/analyze
// Body: {"text": "...", "type": "email|url|sms|social"}
// Stateless, answers immediately without the analyze delay.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	in, err := r.parseAnalyze(w, req)
	if err != nil {
		return err
	}
	if in.Blank() {
		return session.ErrEmptyInput
	}
	res := r.scorer.Score(in)
	middleware.IncrementAnalyses(string(res.RiskLevel))

	if r.recorder != nil {
		if err := r.recorder.Record(req.Context(), "", in, res.Clone()); err != nil {
			r.logger.Warn("failed to record verdict", zap.Error(err))
		}
	}
	return writeJSON(w, http.StatusOK, res)
}

// POST /v1/sessions
func (r *Router) handleCreateSession(w http.ResponseWriter, req *http.Request) error {
	c := r.sessions.Create()
	middleware.IncrementSessions()
	return writeJSON(w, http.StatusCreated, c.Snapshot())
}

// GET /v1/sessions/{id}
func (r *Router) handleGetSession(w http.ResponseWriter, req *http.Request) error {
	c, err := r.session(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, c.Snapshot())
}

// DELETE /v1/sessions/{id}
func (r *Router) handleDeleteSession(w http.ResponseWriter, req *http.Request) error {
	c, err := r.session(req)
	if err != nil {
		return err
	}
	if err := r.sessions.Delete(c.ID()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/sessions/{id}/analyze
// Blocks for the analyze delay, then returns the verdict.
func (r *Router) handleSessionAnalyze(w http.ResponseWriter, req *http.Request) error {
	c, err := r.session(req)
	if err != nil {
		return err
	}
	in, err := r.parseAnalyze(w, req)
	if err != nil {
		return err
	}
	res, err := c.Analyze(req.Context(), in)
	if err != nil {
		return err
	}
	middleware.IncrementAnalyses(string(res.RiskLevel))
	return writeJSON(w, http.StatusOK, res)
}

// POST /v1/sessions/{id}/reset
func (r *Router) handleReset(w http.ResponseWriter, req *http.Request) error {
	c, err := r.session(req)
	if err != nil {
		return err
	}
	if err := c.Reset(); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, c.Snapshot())
}

// GET /v1/sessions/{id}/messages
func (r *Router) handleTranscript(w http.ResponseWriter, req *http.Request) error {
	c, err := r.session(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, c.Transcript())
}

// POST /v1/sessions/{id}/messages
// Body: {"content": "..."}
func (r *Router) handleAsk(w http.ResponseWriter, req *http.Request) error {
	c, err := r.session(req)
	if err != nil {
		return err
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := r.decode(w, req, &body); err != nil {
		return err
	}
	msg, err := c.Ask(req.Context(), middleware.SanitizeString(body.Content))
	if err != nil {
		return err
	}
	middleware.IncrementChatReplies()
	return writeJSON(w, http.StatusOK, msg)
}

// PUT /v1/sessions/{id}/panel
// Body: {"state": "open|closed|minimized"}
func (r *Router) handlePanel(w http.ResponseWriter, req *http.Request) error {
	c, err := r.session(req)
	if err != nil {
		return err
	}
	var body struct {
		State string `json:"state"`
	}
	if err := r.decode(w, req, &body); err != nil {
		return err
	}
	p, err := session.ParsePanel(body.State)
	if err != nil {
		return err
	}
	if err := c.SetPanel(p); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, c.Snapshot())
}

// GET /v1/history?page=&page_size=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.history.List(req.Context(), middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}
