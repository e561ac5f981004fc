// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package latex drives the external LaTeX toolchain: the engine that compiles
// a wrapper document to PDF and the tool that removes its byproducts. Both are
// opaque subprocesses; this package only builds their command lines.
package latex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

// logTailLines is how much engine output is kept in a build error.
const logTailLines = 20

const wrapperTemplate = `\documentclass[pgfplots]{standalone}
\usepackage{pgfplots}
\begin{document}
\input{FILENAME}
\end{document}
`

// ErrToolUnavailable is returned when a tool is not configured or not on PATH.
var ErrToolUnavailable = errors.New("tool unavailable")

// Wrapper returns the standalone document that includes inputPath.
func Wrapper(inputPath string) string {
	return strings.Replace(wrapperTemplate, "FILENAME", toSlash(inputPath), 1)
}

// Tool is an external command line: a binary and its leading arguments.
type Tool struct {
	Bin  string
	Args []string
}

// ParseTool splits a command string using shell quoting rules. An empty or
// blank string yields the zero Tool.
func ParseTool(s string) (Tool, error) {
	parts, err := shlex.Split(s)
	if err != nil {
		return Tool{}, fmt.Errorf("parsing command %q: %w", s, err)
	}
	if len(parts) == 0 {
		return Tool{}, nil
	}
	return Tool{Bin: parts[0], Args: parts[1:]}, nil
}

// IsZero reports whether no binary is configured.
func (t Tool) IsZero() bool { return t.Bin == "" }

func (t Tool) String() string {
	return strings.Join(append([]string{t.Bin}, t.Args...), " ")
}

// hasFlag reports whether the tool's own arguments already set name
// (e.g. "-interaction"), in either -name=value or --name=value form.
func (t Tool) hasFlag(name string) bool {
	for _, a := range t.Args {
		a = strings.TrimLeft(a, "-")
		if a == name || strings.HasPrefix(a, name+"=") {
			return true
		}
	}
	return false
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, dir, name string, args []string, out io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, dir, name string, args []string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

var defaultExec executor = &osExecutor{}

// Option configures an Engine or Cleaner.
type Option func(*runner)

// WithOutput tees subprocess output to w in addition to the internal buffer.
func WithOutput(w io.Writer) Option {
	return func(r *runner) { r.stream = w }
}

// WithLogger sets the logger used for command tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *runner) { r.log = l }
}

// runner holds what Engine and Cleaner share: the tool, the executor, and
// where subprocess output goes.
type runner struct {
	tool   Tool
	exec   executor
	stream io.Writer
	log    logrus.FieldLogger
}

func newRunner(tool Tool, exec executor, opts []Option) runner {
	r := runner{tool: tool, exec: exec, log: discardLogger()}
	for _, o := range opts {
		o(&r)
	}
	return r
}

// available resolves the tool binary on PATH.
func (r *runner) available() error {
	if r.tool.IsZero() {
		return fmt.Errorf("%w: not configured", ErrToolUnavailable)
	}
	if _, err := r.exec.LookPath(r.tool.Bin); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrToolUnavailable, r.tool.Bin, err)
	}
	return nil
}

// run executes the tool with extra arguments appended and returns its
// captured output.
func (r *runner) run(ctx context.Context, dir string, extra ...string) (string, error) {
	args := make([]string, 0, len(r.tool.Args)+len(extra))
	args = append(args, r.tool.Args...)
	args = append(args, extra...)

	var buf bytes.Buffer
	var out io.Writer = &buf
	if r.stream != nil {
		out = io.MultiWriter(&buf, r.stream)
	}

	r.log.WithFields(logrus.Fields{
		"cmd":  r.tool.Bin,
		"args": strings.Join(args, " "),
		"dir":  dir,
	}).Debug("running")

	err := r.exec.Run(ctx, dir, r.tool.Bin, args, out)
	return buf.String(), err
}

// Engine compiles wrapper documents to PDF.
type Engine struct {
	runner
}

// NewEngine returns an Engine that runs tool.
func NewEngine(tool Tool, opts ...Option) *Engine {
	return &Engine{runner: newRunner(tool, defaultExec, opts)}
}

// Tool returns the configured command line.
func (e *Engine) Tool() Tool { return e.tool }

// Build runs the engine on wrapper from workDir, writing output into outDir.
// A non-zero exit is an error carrying the tail of the engine log.
func (e *Engine) Build(ctx context.Context, wrapper, outDir, workDir string) error {
	if err := e.available(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	var extra []string
	if !e.tool.hasFlag("interaction") {
		extra = append(extra, "-interaction=nonstopmode")
	}
	extra = append(extra, "-output-directory="+outDir, wrapper)

	out, err := e.run(ctx, workDir, extra...)
	if err != nil {
		tail := Tail(out, logTailLines)
		if tail == "" {
			return fmt.Errorf("running %s on %s: %w", e.tool.Bin, wrapper, err)
		}
		return fmt.Errorf("running %s on %s: %w\n%s", e.tool.Bin, wrapper, err, tail)
	}
	return nil
}

// Cleaner removes auxiliary files produced by a build.
type Cleaner struct {
	runner
}

// NewCleaner returns a Cleaner that runs tool. A zero tool is valid; Clean
// then always reports ErrToolUnavailable.
func NewCleaner(tool Tool, opts ...Option) *Cleaner {
	return &Cleaner{runner: newRunner(tool, defaultExec, opts)}
}

// Tool returns the configured command line.
func (c *Cleaner) Tool() Tool { return c.tool }

// Clean runs the cleanup tool against wrapper and outDir.
func (c *Cleaner) Clean(ctx context.Context, wrapper, outDir string) error {
	if err := c.available(); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	if _, err := c.run(ctx, "", "-c", "-output-directory="+outDir, wrapper); err != nil {
		return fmt.Errorf("running %s on %s: %w", c.tool.Bin, wrapper, err)
	}
	return nil
}

// Available reports whether tool resolves on PATH.
func Available(tool Tool) bool {
	if tool.IsZero() {
		return false
	}
	_, err := defaultExec.LookPath(tool.Bin)
	return err == nil
}

// Tail returns the last n non-blank lines of s.
func Tail(s string, n int) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, strings.TrimRight(l, "\r"))
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
