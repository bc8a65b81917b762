package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Engine is one concrete rendering backend.
//
// Probe reports whether the engine can currently be invoked at all; the
// selector skips engines whose probe fails without counting a render
// attempt against them. Render converts the request payload into output
// bytes. Implementations must be safe for concurrent use.
type Engine interface {
	Name() string
	Probe(ctx context.Context) bool
	Render(ctx context.Context, req Request) ([]byte, error)
}

// ──────────────────────────────────────────────────
// EngineFunc
// ──────────────────────────────────────────────────

// EngineFunc adapts plain functions to the Engine interface. A nil probe
// means always available.
type EngineFunc struct {
	EngineName string
	ProbeFunc  func(ctx context.Context) bool
	RenderFunc func(ctx context.Context, req Request) ([]byte, error)
}

// Name implements Engine.
func (e *EngineFunc) Name() string { return e.EngineName }

// Probe implements Engine.
func (e *EngineFunc) Probe(ctx context.Context) bool {
	if e.ProbeFunc == nil {
		return true
	}
	return e.ProbeFunc(ctx)
}

// Render implements Engine.
func (e *EngineFunc) Render(ctx context.Context, req Request) ([]byte, error) {
	return e.RenderFunc(ctx, req)
}

// ──────────────────────────────────────────────────
// CommandEngine
// ──────────────────────────────────────────────────

// ArgsFunc builds the command-line arguments for one invocation, given the
// request and the input/output file paths prepared by the engine.
type ArgsFunc func(req Request, inputPath, outputPath string) []string

// CommandEngine renders by invoking an external command-line tool. The
// payload is written to a temporary input file, the tool is executed, and
// the produced output file is read back. Probe checks that the binary is
// resolvable on PATH.
type CommandEngine struct {
	name   string
	binary string
	args   ArgsFunc
}

// NewCommandEngine creates an engine backed by an external binary.
func NewCommandEngine(name, binary string, args ArgsFunc) *CommandEngine {
	return &CommandEngine{name: name, binary: binary, args: args}
}

// Name implements Engine.
func (e *CommandEngine) Name() string { return e.name }

// Probe implements Engine by resolving the binary on PATH.
func (e *CommandEngine) Probe(_ context.Context) bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// Render implements Engine.
func (e *CommandEngine) Render(ctx context.Context, req Request) ([]byte, error) {
	dir, err := os.MkdirTemp("", "batchflow-render-*")
	if err != nil {
		return nil, fmt.Errorf("render: %s: temp dir: %w", e.name, err)
	}
	defer os.RemoveAll(dir)

	inputPath := filepath.Join(dir, "input.html")
	outputPath := filepath.Join(dir, "output."+string(req.Format))

	if err := os.WriteFile(inputPath, req.Payload, 0o600); err != nil {
		return nil, fmt.Errorf("render: %s: write input: %w", e.name, err)
	}

	cmd := exec.CommandContext(ctx, e.binary, e.args(req, inputPath, outputPath)...)
	if out, runErr := cmd.CombinedOutput(); runErr != nil {
		return nil, fmt.Errorf("render: %s: %w: %s", e.name, runErr, string(out))
	}

	output, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("render: %s: read output: %w", e.name, err)
	}

	return output, nil
}

// ──────────────────────────────────────────────────
// Standard engine chain
// ──────────────────────────────────────────────────

// DefaultEngines returns the standard fallback chain in priority order:
// a native headless-browser renderer, the legacy HTML-to-PDF tool, and a
// CSS-based layout renderer. Engines whose binaries are missing are simply
// skipped at probe time, so any installed subset works.
func DefaultEngines() []Engine {
	return []Engine{
		NewCommandEngine("chromium-headless", "chromium", func(_ Request, in, out string) []string {
			return []string{"--headless", "--disable-gpu", "--no-pdf-header-footer", "--print-to-pdf=" + out, in}
		}),
		NewCommandEngine("wkhtmltopdf", "wkhtmltopdf", func(req Request, in, out string) []string {
			margin := fmt.Sprintf("%.0fmm", req.Page.MarginMM)
			return []string{
				"--page-size", req.Page.Size,
				"--margin-top", margin, "--margin-bottom", margin,
				"--margin-left", margin, "--margin-right", margin,
				in, out,
			}
		}),
		NewCommandEngine("weasyprint", "weasyprint", func(_ Request, in, out string) []string {
			return []string{in, out}
		}),
	}
}
