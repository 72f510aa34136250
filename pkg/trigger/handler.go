package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/docrelay/pkg/blob"
	"github.com/dmitrymomot/docrelay/pkg/httpserver"
	"github.com/dmitrymomot/docrelay/pkg/logger"
	"github.com/dmitrymomot/docrelay/pkg/relay"
)

// InvocationIDHeader carries the host's invocation id.
const InvocationIDHeader = "X-Azure-Functions-InvocationId"

const maxNotificationBody = 1 << 20

// Runner relays a single event, or records one that could not be read.
// *relay.Service implements it.
type Runner interface {
	Run(ctx context.Context, ev relay.Event) relay.Result
	Abort(ctx context.Context, name string, err error, retryable bool) relay.Result
}

// Handler adapts HTTP trigger requests into relay events.
type Handler struct {
	runner Runner
	cfg    Config
	source blob.Source
	logger *slog.Logger
	newID  func() string
	checks []func(context.Context) error
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithSource enables POST /events, resolving notification keys through src.
func WithSource(src blob.Source) Option {
	return func(h *Handler) {
		h.source = src
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(h *Handler) {
		if fn != nil {
			h.newID = fn
		}
	}
}

// WithReadinessCheck adds a dependency check to GET /readyz.
func WithReadinessCheck(fn func(context.Context) error) Option {
	return func(h *Handler) {
		if fn != nil {
			h.checks = append(h.checks, fn)
		}
	}
}

func New(runner Runner, cfg Config, opts ...Option) *Handler {
	def := DefaultConfig()
	if cfg.Function == "" {
		cfg.Function = def.Function
	}
	if cfg.Binding == "" {
		cfg.Binding = def.Binding
	}
	if cfg.Encoding == "" {
		cfg.Encoding = def.Encoding
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = def.MaxBody
	}

	h := &Handler{
		runner: runner,
		cfg:    cfg,
		logger: logger.Nop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns the trigger routes:
//
//	GET  /healthz      liveness
//	GET  /readyz       readiness checks
//	POST /events       S3 event notifications
//	POST /{function}   Functions host invocations
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", httpserver.HealthCheckHandler(h.logger))
	r.Get("/readyz", httpserver.HealthCheckHandler(h.logger, h.checks...))
	r.Post("/events", h.handleEvents)
	r.Post("/{function}", h.handleInvocation)
	return r
}

func (h *Handler) handleInvocation(w http.ResponseWriter, r *http.Request) {
	if fn := chi.URLParam(r, "function"); fn != h.cfg.Function {
		writeError(w, http.StatusNotFound, "unknown function "+fn)
		return
	}

	id := r.Header.Get(InvocationIDHeader)
	if id == "" {
		id = h.newID()
	}
	ctx := relay.WithInvocationID(r.Context(), id)

	var req invocationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.cfg.MaxBody)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		h.badRequest(ctx, w, errors.Join(ErrMalformedRequest, err))
		return
	}

	name, err := req.blobName()
	if err != nil {
		h.badRequest(ctx, w, err)
		return
	}
	data, err := req.content(h.cfg.Binding, h.cfg.Encoding)
	if err != nil {
		h.badRequest(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "blob trigger invoked", logger.Blob(name), logger.Size(int64(len(data))))

	res := h.runner.Run(ctx, relay.Event{
		Name: name,
		Body: bytes.NewReader(data),
		Size: int64(len(data)),
	})

	writeJSON(w, statusFor(res), invocationResponse{
		Outputs:     map[string]any{},
		Logs:        []string{logLine(res)},
		ReturnValue: viewOf(res),
	})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeError(w, http.StatusNotImplemented, ErrNoSource.Error())
		return
	}

	var n s3Notification
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNotificationBody)).Decode(&n); err != nil {
		h.badRequest(r.Context(), w, errors.Join(ErrMalformedRequest, err))
		return
	}

	status := http.StatusOK
	results := make([]resultView, 0, len(n.Records))
	for _, rec := range n.Records {
		if rec.EventName != "" && !strings.HasPrefix(rec.EventName, "ObjectCreated") {
			h.logger.DebugContext(r.Context(), "skipping notification", slog.String("event", rec.EventName))
			continue
		}

		ctx := relay.WithInvocationID(r.Context(), h.newID())
		res := h.relayObject(ctx, rec.S3.Object.Key)
		if statusFor(res) != http.StatusOK {
			status = http.StatusInternalServerError
		}
		results = append(results, viewOf(res))
	}

	writeJSON(w, status, map[string]any{"results": results})
}

func (h *Handler) relayObject(ctx context.Context, rawKey string) relay.Result {
	key, err := objectKey(rawKey)
	if err != nil {
		return h.runner.Abort(ctx, rawKey, err, false)
	}

	rc, obj, err := h.source.Open(ctx, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to open object", logger.Blob(key), logger.Error(err))
		return h.runner.Abort(ctx, key, err, blob.IsTemporary(err))
	}
	defer rc.Close()

	return h.runner.Run(ctx, relay.Event{Name: key, Body: rc, Size: obj.Size})
}

// statusFor maps a result to the status the host sees. Anything a redelivery
// could fix, and configuration errors, answer 500.
func statusFor(res relay.Result) int {
	if res.Retryable || res.Outcome == relay.OutcomeFatal {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

func (h *Handler) badRequest(ctx context.Context, w http.ResponseWriter, err error) {
	h.logger.WarnContext(ctx, "rejecting trigger request", logger.Error(err))
	writeError(w, http.StatusBadRequest, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
