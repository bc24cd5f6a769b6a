package bootstrap

import (
	"time"

	"github.com/kbukum/tabletool/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	shutdownTimeout *time.Duration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger. If not set, the logger is initialized
// from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithShutdownTimeout bounds the stop hooks.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.shutdownTimeout = &d
	}
}
