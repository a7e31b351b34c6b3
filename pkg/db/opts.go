package db

import (
	"net/url"
	"slices"
	"strings"

	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	*tracer
	path string
	bind *Bind
}

// Opt configures a connection pool.
type Opt func(*opt) error

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// defaultScheme is accepted (and stripped) on URLs passed to WithURL, for
// callers that prefer a URL-shaped connection string over a bare path.
var defaultScheme = []string{"sqlite", "sqlite3", "file"}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func apply(opts ...Opt) (*opt, error) {
	o := &opt{bind: NewBind()}

	for _, fn := range opts {
		if err := fn(o); err != nil {
			return nil, err
		}
	}

	if o.path == "" {
		return nil, ErrBadParameter.With("database path is required")
	}

	return o, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WithPath sets the path to the single-file database. Use ":memory:" for a
// private in-memory database that vanishes when the connection closes.
func WithPath(path string) Opt {
	return func(o *opt) error {
		o.path = path
		return nil
	}
}

// WithURL sets the database path from a URL or bare path. Accepted forms:
// a plain filesystem path, "file:path/to.db", "sqlite:path/to.db", or
// ":memory:". A query string, if present, is dropped — SQLite's tuning
// parameters are applied as PRAGMA statements after connecting instead of
// through the connection string.
func WithURL(value string) Opt {
	return func(o *opt) error {
		if value == "" {
			return nil
		}
		scheme, _, _ := strings.Cut(value, ":")
		if value == ":memory:" || !strings.Contains(value, "://") && !slices.Contains(defaultScheme, scheme) {
			o.path = value
			return nil
		}

		u, err := url.Parse(value)
		if err != nil {
			return err
		}
		if u.Scheme != "" && !slices.Contains(defaultScheme, u.Scheme) {
			return ErrBadParameter.With("invalid database scheme")
		}
		path := u.Opaque
		if path == "" {
			path = u.Path
		}
		if host := u.Host; host != "" {
			path = host + path
		}
		o.path = path
		return nil
	}
}

// WithTrace installs a plain trace callback invoked after every query.
func WithTrace(fn TraceFn) Opt {
	return func(o *opt) error {
		o.tracer = NewTracer(fn)
		return nil
	}
}

// WithTracer installs an OpenTelemetry tracer, spanning every query.
func WithTracer(t trace.Tracer) Opt {
	return func(o *opt) error {
		o.tracer = NewOTELTracer(t)
		return nil
	}
}

// WithBind sets a default bind variable carried by every connection drawn
// from the pool.
func WithBind(k string, v any) Opt {
	return func(o *opt) error {
		o.bind.Set(k, v)
		return nil
	}
}
