package batchflow

import (
	"log/slog"

	"github.com/xraph/batchflow/ext"
	"github.com/xraph/batchflow/middleware"
	"github.com/xraph/batchflow/resource"
)

// Option configures a Registry.
type Option func(*Registry) error

// WithConfig replaces the registry configuration wholesale.
func WithConfig(cfg Config) Option {
	return func(r *Registry) error {
		r.config = cfg
		return nil
	}
}

// WithLogger sets the structured logger for the registry.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) error {
		r.logger = l
		return nil
	}
}

// WithExtension registers an extension for lifecycle events.
func WithExtension(e ext.Extension) Option {
	return func(r *Registry) error {
		r.pendingExts = append(r.pendingExts, e)
		return nil
	}
}

// WithMiddleware appends middleware to the per-attempt execution chain.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(r *Registry) error {
		r.pendingMws = append(r.pendingMws, mws...)
		return nil
	}
}

// WithResourceMonitor sets an explicit resource monitor, overriding the
// Resource section of the configuration.
func WithResourceMonitor(m *resource.Monitor) Option {
	return func(r *Registry) error {
		r.monitor = m
		return nil
	}
}

// WithQueueCapacity sets the intake buffer size for submitted batches.
func WithQueueCapacity(n int) Option {
	return func(r *Registry) error {
		r.config.QueueCapacity = n
		return nil
	}
}
