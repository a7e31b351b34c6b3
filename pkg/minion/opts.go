package minion

import (
	"errors"
	"time"

	// Packages
	types "github.com/Grinnz/minion-pg/pkg/db/types"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for New.
type Opt func(*opts) error

type opts struct {
	namespace       string
	dequeueInterval time.Duration
	missingAfter    time.Duration
	removeAfter     time.Duration
	stuckAfter      time.Duration
	backoff         func(retries uint64) time.Duration
	foregroundQueue string
	tracer          trace.Tracer
}

////////////////////////////////////////////////////////////////////////////////
// ERRORS

var (
	ErrInvalidInterval  = errors.New("interval must be >= 1ms")
	ErrInvalidBackoff   = errors.New("backoff function must not be nil")
	ErrInvalidNamespace = errors.New("namespace must be a valid lower-case SQL identifier")
)

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithNamespace sets the table-name prefix the minion tables live under,
// e.g. "minion" produces "minion_jobs", "minion_workers", and so on.
// Defaults to "minion". The namespace is spliced unquoted into the SQL
// text of every query, so it must be a valid identifier.
func WithNamespace(ns string) Opt {
	return func(o *opts) error {
		if ns == "" {
			return nil
		}
		if !types.IsIdentifier(ns) {
			return ErrInvalidNamespace
		}
		o.namespace = ns
		return nil
	}
}

// WithDequeueInterval sets the period between dequeue polls in DequeueWait
// and RunDispatchLoop. Defaults to 500ms.
func WithDequeueInterval(d time.Duration) Opt {
	return func(o *opts) error {
		if d < time.Millisecond {
			return ErrInvalidInterval
		}
		o.dequeueInterval = d
		return nil
	}
}

// WithMissingAfter sets how long a worker may go without a heartbeat before
// repair considers it dead and deletes its row.
func WithMissingAfter(d time.Duration) Opt {
	return func(o *opts) error {
		if d < time.Millisecond {
			return ErrInvalidInterval
		}
		o.missingAfter = d
		return nil
	}
}

// WithRemoveAfter sets how long a finished job is retained before repair
// garbage-collects it (only once no non-finished child still depends on it).
func WithRemoveAfter(d time.Duration) Opt {
	return func(o *opts) error {
		if d < time.Millisecond {
			return ErrInvalidInterval
		}
		o.removeAfter = d
		return nil
	}
}

// WithStuckAfter sets how long an inactive job may sit past its delayed
// time before repair force-fails it as stuck.
func WithStuckAfter(d time.Duration) Opt {
	return func(o *opts) error {
		if d < time.Millisecond {
			return ErrInvalidInterval
		}
		o.stuckAfter = d
		return nil
	}
}

// WithBackoff overrides the retry backoff function. The default is
// 15 + retries^4 seconds.
func WithBackoff(fn func(retries uint64) time.Duration) Opt {
	return func(o *opts) error {
		if fn == nil {
			return ErrInvalidBackoff
		}
		o.backoff = fn
		return nil
	}
}

// WithForegroundQueue names the synchronous foreground queue that repair
// excludes from orphan reclamation, since its jobs are expected to run
// without a worker heartbeat.
func WithForegroundQueue(queue string) Opt {
	return func(o *opts) error {
		if queue != "" {
			o.foregroundQueue = queue
		}
		return nil
	}
}

// WithOTELTracer installs an OpenTelemetry tracer. Dispatch, completion,
// and repair operations start a span under it; a nil tracer (the default)
// disables this without affecting per-query tracing configured via
// db.WithTracer on the underlying connection.
func WithOTELTracer(t trace.Tracer) Opt {
	return func(o *opts) error {
		o.tracer = t
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func defaultBackoff(retries uint64) time.Duration {
	return time.Duration(15+retries*retries*retries*retries) * time.Second
}

func applyOpts(opt []Opt) (opts, error) {
	o := opts{
		namespace:       schema.SchemaName,
		dequeueInterval: schema.DefaultDequeueInterval,
		missingAfter:    schema.DefaultMissingAfter,
		removeAfter:     schema.DefaultRemoveAfter,
		stuckAfter:      schema.DefaultStuckAfter,
		backoff:         defaultBackoff,
		foregroundQueue: "foreground",
	}
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			return opts{}, err
		}
	}
	return o, nil
}
