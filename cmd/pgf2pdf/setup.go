package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/pdiddy/pgf2pdf/internal/convert"
	"github.com/pdiddy/pgf2pdf/internal/history"
	"github.com/pdiddy/pgf2pdf/internal/latex"
	"github.com/pdiddy/pgf2pdf/internal/pdfcheck"
	"github.com/pdiddy/pgf2pdf/pkg/types"
)

// loadConfig merges flags, environment and config file into a ConvertConfig.
func loadConfig() types.ConvertConfig {
	cfg := types.Defaults()
	cfg.Engine = viper.GetString("engine")
	cfg.Cleanup = viper.GetString("cleanup")
	cfg.Extensions = splitList(viper.GetStringSlice("ext"))
	cfg.CleanExtensions = splitList(viper.GetStringSlice("clean-ext"))
	cfg.HistoryDB = viper.GetString("history")
	cfg.KeepGoing = viper.GetBool("keep-going")
	cfg.ReportPath = viper.GetString("report")
	return cfg
}

// splitList flattens comma-separated entries, as given in env vars or config
// strings, and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// newConverter builds the engine, cleanup tool and converter for cfg.
func newConverter(cfg types.ConvertConfig) (*convert.Converter, error) {
	engineTool, err := latex.ParseTool(cfg.Engine)
	if err != nil {
		return nil, err
	}
	if engineTool.IsZero() {
		return nil, errors.New("no LaTeX engine configured")
	}
	cleanupTool, err := latex.ParseTool(cfg.Cleanup)
	if err != nil {
		return nil, err
	}

	opts := []latex.Option{latex.WithLogger(logger)}
	if viper.GetBool("verbose") {
		opts = append(opts, latex.WithOutput(os.Stderr))
	}

	if !latex.Available(engineTool) {
		logger.WithField("engine", engineTool.Bin).Warn("engine not found on PATH")
	}
	if !cleanupTool.IsZero() && !latex.Available(cleanupTool) {
		logger.WithField("cleanup", cleanupTool.Bin).Info("cleanup tool not found, byproducts will be deleted directly")
	}

	return convert.New(
		latex.NewEngine(engineTool, opts...),
		latex.NewCleaner(cleanupTool, opts...),
		convert.Options{
			CleanExtensions: cfg.CleanExtensions,
			Inspect:         pdfcheck.Inspect,
		},
		logger,
	), nil
}

// historyRecorder writes each attempt to the history database. Recording
// failures are logged and never interrupt a run.
type historyRecorder struct {
	store *history.Store
	runID string
}

// openHistory opens the configured history database, or returns nil when
// none is configured.
func openHistory(cfg types.ConvertConfig, runID string) (*historyRecorder, error) {
	if cfg.HistoryDB == "" {
		return nil, nil
	}
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return nil, err
	}
	return &historyRecorder{store: store, runID: runID}, nil
}

func (h *historyRecorder) Record(ctx context.Context, out convert.Outcome, err error) {
	e := history.Entry{
		RunID:    h.runID,
		Input:    out.Input,
		PDF:      out.PDF,
		Pages:    out.Pages,
		Duration: out.Duration,
		Status:   history.StatusConverted,
	}
	switch {
	case err != nil:
		e.Status = history.StatusFailed
		e.Error = err.Error()
	case out.Warning != "":
		e.Status = history.StatusWarning
		e.Error = out.Warning
	}
	// A cancelled run still gets its last attempt recorded.
	if rerr := h.store.Record(context.WithoutCancel(ctx), e); rerr != nil {
		logger.WithError(rerr).Warn("recording history")
	}
}

func (h *historyRecorder) Close() error {
	return h.store.Close()
}

// recorderOrNil avoids handing convert a typed-nil Recorder.
func recorderOrNil(h *historyRecorder) convert.Recorder {
	if h == nil {
		return nil
	}
	return h
}

func newRunID() string {
	return uuid.NewString()
}
