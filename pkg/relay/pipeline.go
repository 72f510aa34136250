package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/docrelay/pkg/archive"
	"github.com/dmitrymomot/docrelay/pkg/graph"
	"github.com/dmitrymomot/docrelay/pkg/identity"
	"github.com/dmitrymomot/docrelay/pkg/logger"
	"github.com/dmitrymomot/docrelay/pkg/scratch"
	"github.com/dmitrymomot/docrelay/pkg/statemachine"
)

// TokenSource yields a bearer token for Microsoft Graph.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Uploader performs the simple-upload PUT.
type Uploader interface {
	Put(ctx context.Context, req graph.Request) (graph.Response, error)
}

// Recorder observes finished invocations.
type Recorder interface {
	Record(Result)
}

// Target is the document library receiving archives.
type Target struct {
	SiteID  string
	DriveID string
}

// Event is one object delivered by a storage trigger. Name may carry
// container prefixes; only its base name is used.
type Event struct {
	Name string
	Body io.Reader
	Size int64 // -1 when unknown
}

// Pipeline relays events: token, stage, compress, upload, clean up.
// A Pipeline is safe for concurrent use; invocations share nothing but the
// token source and uploader.
type Pipeline struct {
	tokens       TokenSource
	uploader     Uploader
	logger       *slog.Logger
	recorder     Recorder
	scratchDir   string
	graphBaseURL string
	level        int
	newID        func() string
}

type Option func(*Pipeline)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithScratchDir sets the root under which per-invocation directories are created.
func WithScratchDir(dir string) Option {
	return func(p *Pipeline) {
		if dir != "" {
			p.scratchDir = dir
		}
	}
}

func WithGraphBaseURL(u string) Option {
	return func(p *Pipeline) {
		if u != "" {
			p.graphBaseURL = u
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithIDGenerator replaces uuid.NewString for invocations whose context
// carries no id.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithCompressionLevel sets the deflate level passed to archive.ZipFile.
func WithCompressionLevel(level int) Option {
	return func(p *Pipeline) {
		p.level = level
	}
}

func New(tokens TokenSource, uploader Uploader, opts ...Option) *Pipeline {
	p := &Pipeline{
		tokens:       tokens,
		uploader:     uploader,
		logger:       logger.Nop(),
		recorder:     nopRecorder{},
		scratchDir:   os.TempDir(),
		graphBaseURL: graph.DefaultBaseURL,
		level:        -1,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BaseName returns the last element of an event name. Both '/' and '\' are
// treated as separators. Names that reduce to nothing usable fail with
// ErrInvalidName.
func BaseName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, nil
}

// Handle runs one invocation and reports how it ended. It never returns an
// error: failures are classified into the Result. Scratch files are removed
// before Handle returns whatever the outcome.
func (p *Pipeline) Handle(ctx context.Context, target Target, ev Event) (res Result) {
	start := time.Now()

	id := InvocationIDFromContext(ctx)
	if id == "" {
		id = p.newID()
		ctx = WithInvocationID(ctx, id)
	}

	log := p.logger.With(logger.Blob(ev.Name))
	sm := p.stageMachine(log)
	res = Result{InvocationID: id, Name: ev.Name}

	defer func() {
		res.Stages = stagesOf(sm)
		res.Duration = time.Since(start)
		p.recorder.Record(res)
		log.DebugContext(ctx, "invocation finished", slog.Any("result", res))
	}()

	abort := func(outcome Outcome, err error, retryable bool) Result {
		p.fire(ctx, sm, eventAbort)
		p.fire(ctx, sm, eventClean)
		res.Outcome = outcome
		res.Err = err
		res.Retryable = retryable
		return res
	}

	if target.SiteID == "" || target.DriveID == "" {
		log.ErrorContext(ctx, "upload target is not configured")
		return abort(OutcomeFatal, ErrInvalidTarget, true)
	}

	name, err := BaseName(ev.Name)
	if err != nil {
		log.ErrorContext(ctx, "event name is not usable", logger.Error(err))
		return abort(OutcomeAborted, err, false)
	}
	if ev.Body == nil {
		log.ErrorContext(ctx, "event has no content", logger.Error(ErrNilBody))
		return abort(OutcomeAborted, ErrNilBody, false)
	}
	res.ArchiveName = name + ".zip"

	log.InfoContext(ctx, "processing blob", logger.Size(ev.Size))

	token, err := p.tokens.Token(ctx)
	if err == nil && token == "" {
		err = identity.ErrNoToken
	}
	if err != nil {
		log.ErrorContext(ctx, "no token", logger.Error(err))
		return abort(OutcomeAborted, err, identity.IsTemporary(err))
	}
	p.fire(ctx, sm, eventToken)

	ws, err := scratch.New(p.scratchDir, id)
	if err != nil {
		p.fire(ctx, sm, eventClean)
		return p.fail(ctx, log, &res, StageTokenAcquired, err)
	}
	defer p.cleanup(ctx, log, sm, ws, name, res.ArchiveName)

	rawPath, n, err := ws.Stage(ctx, name, ev.Body)
	if err != nil {
		return p.fail(ctx, log, &res, StageTokenAcquired, err)
	}
	p.fire(ctx, sm, eventStage)
	log.DebugContext(ctx, "blob staged", logger.Path(rawPath), logger.Size(n))

	zipPath, err := ws.Path(res.ArchiveName)
	if err != nil {
		return p.fail(ctx, log, &res, StageStaged, err)
	}
	info, err := archive.ZipFile(ctx, rawPath, zipPath, name, archive.WithLevel(p.level))
	if err != nil {
		return p.fail(ctx, log, &res, StageStaged, err)
	}
	p.fire(ctx, sm, eventCompress)
	res.ArchiveSize = info.ArchiveSize
	log.DebugContext(ctx, "archive built",
		logger.Path(zipPath),
		logger.Size(info.ArchiveSize),
		slog.Int64("compressed_size", info.CompressedSize),
	)

	resp, err := p.upload(ctx, target, res.ArchiveName, token, zipPath, info.ArchiveSize)
	if err != nil {
		return p.fail(ctx, log, &res, StageCompressed, err)
	}
	p.fire(ctx, sm, eventUpload)

	res.StatusCode = resp.StatusCode
	res.ResponseBody = resp.Summary()

	if resp.Succeeded() {
		res.Outcome = OutcomeSucceeded
		log.InfoContext(ctx, "file uploaded successfully",
			logger.StatusCode(resp.StatusCode),
			logger.Duration(resp.Duration),
		)
		return res
	}

	res.Outcome = OutcomeRejected
	res.Retryable = resp.Retryable()
	res.Err = fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	log.ErrorContext(ctx, "failed to upload file",
		logger.StatusCode(resp.StatusCode),
		slog.String("response", resp.Text()),
	)
	return res
}

func (p *Pipeline) upload(ctx context.Context, target Target, archiveName, token, zipPath string, size int64) (graph.Response, error) {
	f, err := os.Open(zipPath)
	if err != nil {
		return graph.Response{}, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	return p.uploader.Put(ctx, graph.Request{
		URL:   graph.ContentURL(p.graphBaseURL, target.SiteID, target.DriveID, archiveName),
		Token: token,
		Body:  f,
		Size:  size,
	})
}

// fail records a staging, compression or transport error. The deferred
// cleanup moves the stage machine to cleaned.
func (p *Pipeline) fail(ctx context.Context, log *slog.Logger, res *Result, at Stage, err error) Result {
	res.Outcome = OutcomeFailed
	res.Err = err
	res.Retryable = retryableFailure(err)
	log.ErrorContext(ctx, "error processing blob", logger.Stage(string(at)), logger.Error(err))
	return *res
}

// cleanup removes both scratch files and the invocation directory.
func (p *Pipeline) cleanup(ctx context.Context, log *slog.Logger, sm statemachine.StateMachine, ws *scratch.Workspace, names ...string) {
	for _, name := range names {
		full := filepath.Join(ws.Dir(), name)
		removed, err := ws.Remove(name)
		if err != nil {
			log.WarnContext(ctx, "failed to remove scratch file", logger.Path(full), logger.Error(err))
			continue
		}
		if removed {
			log.InfoContext(ctx, "removed scratch file", logger.Path(full))
		}
	}
	if err := ws.Close(); err != nil {
		log.WarnContext(ctx, "failed to remove scratch directory", logger.Path(ws.Dir()), logger.Error(err))
	}
	p.fire(ctx, sm, eventClean)
}

// stageMachine builds the invocation's state machine, logging each stage
// entered at debug level.
func (p *Pipeline) stageMachine(log *slog.Logger) statemachine.StateMachine {
	return newStageMachine(func(ctx context.Context, _, to statemachine.State, _ statemachine.Event, _ any) error {
		log.DebugContext(ctx, "stage entered", logger.Stage(to.Name()))
		return nil
	})
}

// Abort reports an event that never reached the pipeline, for example because
// its object could not be read. The result passes through the recorder like
// any other invocation.
func (p *Pipeline) Abort(ctx context.Context, name string, err error, retryable bool) Result {
	id := InvocationIDFromContext(ctx)
	if id == "" {
		id = p.newID()
		ctx = WithInvocationID(ctx, id)
	}

	log := p.logger.With(logger.Blob(name))
	sm := p.stageMachine(log)
	p.fire(ctx, sm, eventAbort)
	p.fire(ctx, sm, eventClean)

	res := Result{
		InvocationID: id,
		Name:         name,
		Outcome:      OutcomeAborted,
		Retryable:    retryable,
		Stages:       stagesOf(sm),
		Err:          err,
	}
	log.ErrorContext(ctx, "event aborted", logger.Error(err))
	p.recorder.Record(res)
	return res
}

func retryableFailure(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, scratch.ErrInvalidPath),
		errors.Is(err, scratch.ErrNilReader),
		errors.Is(err, archive.ErrEmptyEntryName),
		errors.Is(err, archive.ErrInvalidLevel),
		errors.Is(err, graph.ErrInvalidURL),
		errors.Is(err, graph.ErrInvalidRequest):
		return false
	}
	return true
}

type nopRecorder struct{}

func (nopRecorder) Record(Result) {}
