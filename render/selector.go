package render

import (
	"context"
	"fmt"
	"log/slog"
)

// Selector walks an ordered engine chain until one render succeeds.
//
// Within a single call no engine is attempted twice; retrying a render
// belongs to the batch retry policy one layer up. The chain order is the
// sole tie-break between available engines.
type Selector struct {
	engines []Engine
	logger  *slog.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithSelectorLogger sets the structured logger for the selector.
func WithSelectorLogger(l *slog.Logger) SelectorOption {
	return func(s *Selector) { s.logger = l }
}

// NewSelector creates a Selector over the given engines in priority order.
// The selector works with as few as one engine.
func NewSelector(engines []Engine, opts ...SelectorOption) *Selector {
	s := &Selector{
		engines: engines,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engines returns the configured engine names in priority order.
func (s *Selector) Engines() []string {
	names := make([]string, 0, len(s.engines))
	for _, e := range s.engines {
		names = append(names, e.Name())
	}
	return names
}

// Available returns the names of engines whose probe currently passes,
// in priority order.
func (s *Selector) Available(ctx context.Context) []string {
	var names []string
	for _, e := range s.engines {
		if e.Probe(ctx) {
			names = append(names, e.Name())
		}
	}
	return names
}

// Render tries each engine in priority order and returns the first
// success. On failure or an unavailable engine it advances to the next;
// when the chain is exhausted the result carries one error per engine in
// priority order.
func (s *Selector) Render(ctx context.Context, req Request) Result {
	if len(s.engines) == 0 {
		return Result{Errors: []EngineError{{Engine: "", Err: ErrNoEngines}}}
	}

	var failures []EngineError
	for _, e := range s.engines {
		if !e.Probe(ctx) {
			s.logger.Debug("render engine unavailable, trying next",
				slog.String("engine", e.Name()),
				slog.String("request_id", req.ID.String()),
			)
			failures = append(failures, EngineError{Engine: e.Name(), Err: ErrEngineUnavailable})
			continue
		}

		output, err := e.Render(ctx, req)
		if err != nil {
			s.logger.Warn("render engine failed, trying next",
				slog.String("engine", e.Name()),
				slog.String("request_id", req.ID.String()),
				slog.String("error", err.Error()),
			)
			failures = append(failures, EngineError{Engine: e.Name(), Err: err})
			continue
		}

		s.logger.Debug("render succeeded",
			slog.String("engine", e.Name()),
			slog.String("request_id", req.ID.String()),
			slog.Int("output_bytes", len(output)),
		)

		return Result{
			Success:    true,
			Output:     output,
			EngineUsed: e.Name(),
			Errors:     failures,
		}
	}

	s.logger.Error("render failed: all engines exhausted",
		slog.String("request_id", req.ID.String()),
		slog.Int("engines_tried", len(s.engines)),
	)

	return Result{Errors: failures}
}

// Processor adapts the selector into a batch processing function. Items
// must be render.Request values; the returned value is a render.Result.
// Chain exhaustion is reported as an ordinary error so the batch retry
// policy governs whether the whole chain walk is re-attempted.
func (s *Selector) Processor() func(ctx context.Context, item any) (any, error) {
	return func(ctx context.Context, item any) (any, error) {
		req, ok := item.(Request)
		if !ok {
			return nil, fmt.Errorf("render: item is %T, want render.Request", item)
		}

		res := s.Render(ctx, req)
		if !res.Success {
			// Per-engine errors travel inside the Result; the recorded
			// error stays a terse summary instead of repeating them.
			return res, fmt.Errorf("%w: %d engines tried", ErrExhausted, len(res.Errors))
		}

		return res, nil
	}
}
