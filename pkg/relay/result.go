package relay

import (
	"log/slog"
	"time"
)

// Outcome classifies how an invocation ended.
type Outcome string

const (
	// OutcomeSucceeded means Graph answered 200 or 201.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeRejected means Graph answered with any other status.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means staging, compression or the upload transport failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeAborted means no token or no usable name; nothing touched disk.
	OutcomeAborted Outcome = "aborted"
	// OutcomeFatal means configuration was missing or invalid.
	OutcomeFatal Outcome = "fatal"
)

// Result is the typed report of one invocation. Handle always returns one.
type Result struct {
	InvocationID string
	Name         string // event name as delivered
	ArchiveName  string // "<base>.zip"; empty when the name was unusable
	Outcome      Outcome
	Retryable    bool // worth a redelivery by the trigger host
	StatusCode   int  // Graph status; zero when no response was received
	ResponseBody string
	ArchiveSize  int64
	Stages       []Stage
	Duration     time.Duration
	Err          error
}

// OK reports whether the archive was stored.
func (r Result) OK() bool { return r.Outcome == OutcomeSucceeded }

// LogValue renders the result as a log group.
func (r Result) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("invocation_id", r.InvocationID),
		slog.String("outcome", string(r.Outcome)),
		slog.Bool("retryable", r.Retryable),
		slog.String("blob", r.Name),
		slog.Duration("duration", r.Duration),
	}
	if r.ArchiveName != "" {
		attrs = append(attrs, slog.String("archive", r.ArchiveName))
	}
	if r.StatusCode != 0 {
		attrs = append(attrs, slog.Int("status_code", r.StatusCode))
	}
	if r.Err != nil {
		attrs = append(attrs, slog.String("error", r.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// FatalResult reports a configuration failure detected before the pipeline
// could run. The event itself may be fine, so the result is retryable.
func FatalResult(invocationID, name string, err error) Result {
	return Result{
		InvocationID: invocationID,
		Name:         name,
		Outcome:      OutcomeFatal,
		Retryable:    true,
		Stages:       []Stage{StageStart},
		Err:          err,
	}
}
