package mot

import (
	"io"
	"log/slog"
)

type options struct {
	logger *slog.Logger
}

// Option configures TrackManager and Engine
type Option func(*options)

// WithLogger sets logger for diagnostics. By default nothing is logged
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func collectOptions(opts []Option) options {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
