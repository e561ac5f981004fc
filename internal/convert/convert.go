// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns PGF figures into PDFs: it writes a standalone wrapper
// document for each input, runs the LaTeX engine into a mirrored output
// directory, and removes the build byproducts.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/pgf2pdf/internal/latex"
	"github.com/pdiddy/pgf2pdf/internal/pdfcheck"
	"github.com/pdiddy/pgf2pdf/internal/resolve"
)

// Cleanup methods reported in an Outcome.
const (
	CleanedByTool     = "tool"
	CleanedByFallback = "fallback"
)

// Builder compiles a wrapper document into outDir. *latex.Engine implements it.
type Builder interface {
	Build(ctx context.Context, wrapper, outDir, workDir string) error
}

// Cleaner removes build byproducts for wrapper from outDir. *latex.Cleaner
// implements it.
type Cleaner interface {
	Clean(ctx context.Context, wrapper, outDir string) error
}

// Options tunes a Converter.
type Options struct {
	// CleanExtensions lists byproduct extensions removed when the Cleaner
	// is unavailable or fails.
	CleanExtensions []string

	// TempDir is the parent for per-conversion wrapper directories.
	// Empty means os.TempDir().
	TempDir string

	// Inspect examines the produced PDF. Nil means pdfcheck.Inspect.
	Inspect func(path string) (pdfcheck.Info, error)
}

// Job is one input to convert.
type Job struct {
	// Input is the PGF file.
	Input string
	// Root is the discovered root the input was found under.
	Root string
	// OutRoot is the output root mirrored from Root.
	OutRoot string
}

// Outcome describes a finished conversion.
type Outcome struct {
	Input     string
	OutputDir string
	PDF       string
	Pages     int
	CleanedBy string
	// Warning is set when the engine exited cleanly but the PDF is missing
	// or unreadable.
	Warning  string
	Duration time.Duration
}

// Converter runs single-file conversions.
type Converter struct {
	engine  Builder
	cleaner Cleaner
	opts    Options
	log     logrus.FieldLogger
}

// New creates a Converter. A nil logger discards log output.
func New(engine Builder, cleaner Cleaner, opts Options, log logrus.FieldLogger) *Converter {
	if opts.Inspect == nil {
		opts.Inspect = pdfcheck.Inspect
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Converter{engine: engine, cleaner: cleaner, opts: opts, log: log}
}

// Convert compiles job.Input to <mirrored output dir>/<stem>.pdf. The
// temporary wrapper is removed on every path. Engine failures are returned;
// cleanup failures fall back to deleting known byproducts and are never
// returned.
func (c *Converter) Convert(ctx context.Context, job Job) (Outcome, error) {
	start := time.Now()
	out := Outcome{Input: job.Input}

	abs, err := filepath.Abs(filepath.FromSlash(job.Input))
	if err != nil {
		return out, fmt.Errorf("resolving %s: %w", job.Input, err)
	}
	stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))

	tmpDir, err := os.MkdirTemp(c.opts.TempDir, "pgf2pdf-*")
	if err != nil {
		return out, fmt.Errorf("creating temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			c.log.WithError(err).WithField("dir", tmpDir).Warn("removing wrapper")
		}
	}()

	wrapper := filepath.Join(tmpDir, stem+".tex")
	if err := os.WriteFile(wrapper, []byte(latex.Wrapper(filepath.ToSlash(abs))), 0o644); err != nil {
		return out, fmt.Errorf("writing wrapper for %s: %w", job.Input, err)
	}

	outDir, err := resolve.OutputDir(job.Root, job.Input, job.OutRoot)
	if err != nil {
		return out, err
	}
	if outDir, err = filepath.Abs(outDir); err != nil {
		return out, fmt.Errorf("resolving output dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return out, fmt.Errorf("creating %s: %w", outDir, err)
	}
	out.OutputDir = outDir
	out.PDF = filepath.Join(outDir, stem+".pdf")

	log := c.log.WithFields(logrus.Fields{"input": job.Input, "out": outDir})

	if err := c.engine.Build(ctx, wrapper, outDir, filepath.Dir(abs)); err != nil {
		return out, fmt.Errorf("building %s: %w", job.Input, err)
	}

	out.CleanedBy = c.cleanup(ctx, log, wrapper, outDir, stem)

	if info, err := c.opts.Inspect(out.PDF); err != nil {
		out.Warning = err.Error()
		log.WithError(err).Warn("engine succeeded but PDF is not usable")
	} else {
		out.Pages = info.Pages
	}

	out.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"pages":    out.Pages,
		"cleanup":  out.CleanedBy,
		"duration": out.Duration,
	}).Debug("converted")
	return out, nil
}

// cleanup runs the Cleaner and falls back to deleting <stem>.<ext> for each
// configured extension. It reports which method ran.
func (c *Converter) cleanup(ctx context.Context, log logrus.FieldLogger, wrapper, outDir, stem string) string {
	if c.cleaner != nil {
		err := c.cleaner.Clean(ctx, wrapper, outDir)
		if err == nil {
			return CleanedByTool
		}
		log.WithError(err).Debug("cleanup tool failed, removing byproducts directly")
	}

	for _, ext := range c.opts.CleanExtensions {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext == "" {
			continue
		}
		path := filepath.Join(outDir, stem+"."+ext)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithField("file", path).Warn("removing byproduct")
		}
	}
	return CleanedByFallback
}
