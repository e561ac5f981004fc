// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes a YAML summary of one batch run.
package report

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pgf2pdf/internal/convert"
	"github.com/pdiddy/pgf2pdf/pkg/types"
)

// Report is the on-disk representation of a batch run.
type Report struct {
	RunID    string           `yaml:"run_id"`
	Input    string           `yaml:"input"`
	Output   string           `yaml:"output"`
	Config   types.ToolConfig `yaml:"config"`
	Started  time.Time        `yaml:"started"`
	Finished time.Time        `yaml:"finished"`
	Files    []File           `yaml:"files"`
	Summary  Summary          `yaml:"summary"`
}

// File is the outcome for one input.
type File struct {
	Input    string `yaml:"input"`
	PDF      string `yaml:"pdf,omitempty"`
	Status   string `yaml:"status"`
	Pages    int    `yaml:"pages,omitempty"`
	Cleanup  string `yaml:"cleanup,omitempty"`
	Duration string `yaml:"duration,omitempty"`
	Warning  string `yaml:"warning,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

// Summary holds batch counters.
type Summary struct {
	Converted int `yaml:"converted"`
	Warnings  int `yaml:"warnings"`
	Failed    int `yaml:"failed"`
	Pending   int `yaml:"pending"`
}

// New builds a report from a finished batch.
func New(runID, input, output string, tools types.ToolConfig, started time.Time, res convert.BatchResult) *Report {
	r := &Report{
		RunID:    runID,
		Input:    input,
		Output:   output,
		Config:   tools,
		Started:  started.UTC(),
		Finished: time.Now().UTC(),
		Summary: Summary{
			Converted: res.Converted(),
			Warnings:  res.Warnings(),
			Failed:    res.Failed(),
			Pending:   res.Pending,
		},
	}
	for _, o := range res.Outcomes {
		f := File{
			Input:    o.Input,
			PDF:      o.PDF,
			Status:   "converted",
			Pages:    o.Pages,
			Cleanup:  o.CleanedBy,
			Duration: o.Duration.Round(time.Millisecond).String(),
			Warning:  o.Warning,
		}
		if o.Warning != "" {
			f.Status = "warning"
		}
		r.Files = append(r.Files, f)
	}
	for _, fl := range res.Failures {
		r.Files = append(r.Files, File{Input: fl.Input, Status: "failed", Error: fl.Err.Error()})
	}
	return r
}

// Write saves the report as YAML.
func (r *Report) Write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Read loads a previously written report.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &r, nil
}
