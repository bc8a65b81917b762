// Package render converts document payloads into output artifacts through
// an ordered chain of rendering engines. The Selector tries each configured
// engine in priority order and returns the first success; priority order is
// fixed at construction and never reordered by past outcomes, so fallback
// behavior stays deterministic and auditable.
package render

import (
	"errors"
	"fmt"

	"github.com/xraph/batchflow/id"
)

// Format is the target output format of a render request.
type Format string

// Supported output formats.
const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatDOCX Format = "docx"
)

// PageConfig holds layout configuration passed to engines.
type PageConfig struct {
	// Size is a named page size, e.g. "A4" or "Letter".
	Size string `json:"size" yaml:"size"`
	// MarginMM is the uniform page margin in millimeters.
	MarginMM float64 `json:"margin_mm" yaml:"margin_mm"`
	// Zoom is the rendering zoom factor; zero means 1.0.
	Zoom float64 `json:"zoom" yaml:"zoom"`
}

// DefaultPage returns the page configuration used when a request leaves
// Page zero-valued.
func DefaultPage() PageConfig {
	return PageConfig{Size: "A4", MarginMM: 10, Zoom: 1.0}
}

// Request is one document to render. Payload is opaque to the selector;
// engines interpret it (typically HTML markup).
type Request struct {
	ID      id.RenderID `json:"id"`
	Payload []byte      `json:"payload"`
	Format  Format      `json:"format"`
	Page    PageConfig  `json:"page"`
}

// NewRequest creates a render request with a fresh ID and default page
// configuration.
func NewRequest(payload []byte, format Format) Request {
	return Request{
		ID:      id.NewRenderID(),
		Payload: payload,
		Format:  format,
		Page:    DefaultPage(),
	}
}

// EngineError records one engine's failure within a fallback chain walk.
type EngineError struct {
	// Engine is the name of the engine that failed.
	Engine string `json:"engine"`
	// Err is the failure; ErrEngineUnavailable when the probe rejected it.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e EngineError) Error() string {
	return fmt.Sprintf("render: engine %s: %v", e.Engine, e.Err)
}

// Unwrap exposes the underlying engine failure to errors.Is/As.
func (e EngineError) Unwrap() error { return e.Err }

// Result is the outcome of one render call.
type Result struct {
	// Success reports whether any engine produced output.
	Success bool `json:"success"`
	// Output holds the rendered bytes when Success is true.
	Output []byte `json:"-"`
	// EngineUsed names the engine whose output was returned. For audit
	// purposes it always reflects the actual producer, never a default.
	EngineUsed string `json:"engine_used,omitempty"`
	// Errors holds one entry per failed engine, in priority order.
	Errors []EngineError `json:"errors,omitempty"`
}

var (
	// ErrEngineUnavailable marks an engine whose probe rejected it —
	// missing executable, unreachable process.
	ErrEngineUnavailable = errors.New("render: engine unavailable")

	// ErrExhausted is returned when every configured engine failed.
	ErrExhausted = errors.New("render: all engines exhausted")

	// ErrNoEngines is returned by a selector configured with no engines.
	ErrNoEngines = errors.New("render: no engines configured")
)
