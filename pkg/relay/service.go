package relay

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/dmitrymomot/docrelay/pkg/graph"
	"github.com/dmitrymomot/docrelay/pkg/identity"
	"github.com/dmitrymomot/docrelay/pkg/logger"
)

// ConfigLoader yields the configuration for one invocation.
type ConfigLoader func() (Config, error)

// Service runs invocations end to end. Each Run loads configuration afresh,
// builds a token client and uploader for it and hands the event to a
// Pipeline. The HTTP client is the only state shared across runs.
type Service struct {
	load   ConfigLoader
	client *http.Client
	opts   []Option
}

// NewService creates a service. A nil loader means LoadConfig; a nil client
// means a client with its own pooled transport. opts are applied to every
// Pipeline, before the per-invocation scratch dir and Graph base URL.
func NewService(load ConfigLoader, client *http.Client, opts ...Option) *Service {
	if load == nil {
		load = LoadConfig
	}
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	return &Service{load: load, client: client, opts: opts}
}

// Run relays ev. Configuration errors yield a fatal Result before any network
// call is made.
func (s *Service) Run(ctx context.Context, ev Event) Result {
	base := New(nil, nil, s.opts...)

	id := InvocationIDFromContext(ctx)
	if id == "" {
		id = base.newID()
		ctx = WithInvocationID(ctx, id)
	}

	cfg, err := s.load()
	if err != nil {
		return base.fatal(ctx, id, ev.Name, err)
	}

	tokens, err := identity.New(cfg.Config, identity.WithHTTPClient(s.client))
	if err != nil {
		return base.fatal(ctx, id, ev.Name, errors.Join(ErrConfig, err))
	}

	uploader := graph.NewUploader(
		graph.WithHTTPClient(s.client),
		graph.WithTimeout(cfg.UploadTimeout),
	)

	opts := append(slices.Clone(s.opts),
		WithScratchDir(cfg.ScratchDir),
		WithGraphBaseURL(cfg.GraphBaseURL),
	)
	return New(tokens, uploader, opts...).Handle(ctx, cfg.Target(), ev)
}

// Abort records a result for an event whose content could not be obtained.
func (s *Service) Abort(ctx context.Context, name string, err error, retryable bool) Result {
	return New(nil, nil, s.opts...).Abort(ctx, name, err, retryable)
}

func (p *Pipeline) fatal(ctx context.Context, id, name string, err error) Result {
	p.logger.ErrorContext(ctx, "configuration error", logger.Blob(name), logger.Error(err))
	res := FatalResult(id, name, err)
	p.recorder.Record(res)
	return res
}
