package pipeline

import (
	"io"
	"log/slog"

	"github.com/LdDl/hive-mot/storage"
)

type options struct {
	store            *storage.Store
	workers          int
	allowMissingZone bool
	progress         io.Writer
	logger           *slog.Logger
}

// Option configures Processor
type Option func(*options)

// WithStore persists every run into the store. Files already stored are skipped
func WithStore(store *storage.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithWorkers sets number of files tracked concurrently. Default 1
func WithWorkers(workers int) Option {
	return func(o *options) {
		if workers > 0 {
			o.workers = workers
		}
	}
}

// WithAllowMissingZone tracks files whose date has no zone without direction classification.
// By default such files are skipped.
func WithAllowMissingZone(allow bool) Option {
	return func(o *options) {
		o.allowMissingZone = allow
	}
}

// WithProgress renders progress bar into w (usually os.Stderr)
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// WithLogger sets logger. By default nothing is logged
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func collectOptions(opts []Option) options {
	o := options{
		workers: 1,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
