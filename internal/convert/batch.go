// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/pdiddy/pgf2pdf/internal/resolve"
)

var (
	okLabel   = color.New(color.FgGreen).SprintFunc()
	warnLabel = color.New(color.FgYellow).SprintFunc()
	failLabel = color.New(color.FgRed).SprintFunc()
)

// PrintConverted writes the status line for a successful conversion.
func PrintConverted(w io.Writer, input, pdf string) {
	fmt.Fprintf(w, "%s %s -> %s\n", okLabel("converted:"), input, pdf)
}

// PrintWarning writes the status line for a conversion whose PDF is unusable.
func PrintWarning(w io.Writer, input, warning string) {
	fmt.Fprintf(w, "%s   %s (%s)\n", warnLabel("warning:"), input, warning)
}

// PrintFailed writes the status line for a failed conversion.
func PrintFailed(w io.Writer, input string) {
	fmt.Fprintf(w, "%s    %s\n", failLabel("failed:"), input)
}

// Recorder observes every conversion attempt in a batch. err is nil for a
// successful conversion.
type Recorder interface {
	Record(ctx context.Context, out Outcome, err error)
}

// BatchOptions controls batch behaviour.
type BatchOptions struct {
	// KeepGoing continues after a failed file. Without it the first failure
	// ends the batch and is returned.
	KeepGoing bool

	// Recorder, if set, is told about every attempt.
	Recorder Recorder
}

// Failure pairs a failed input with its error.
type Failure struct {
	Input string
	Err   error
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Outcomes []Outcome
	Failures []Failure
	// Pending counts inputs never attempted because the batch stopped early.
	Pending int
}

// Converted returns the number of successful conversions.
func (r BatchResult) Converted() int { return len(r.Outcomes) }

// Failed returns the number of failed conversions.
func (r BatchResult) Failed() int { return len(r.Failures) }

// Total returns the number of inputs attempted.
func (r BatchResult) Total() int { return r.Converted() + r.Failed() }

// HasFailures reports whether any input failed conversion.
func (r BatchResult) HasFailures() bool { return r.Failed() > 0 }

// Warnings returns the number of conversions that finished with a warning.
func (r BatchResult) Warnings() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Warning != "" {
			n++
		}
	}
	return n
}

// Batch converts every resolved input into outRoot, one at a time, printing
// per-file status to w. Without KeepGoing the first failure is returned
// immediately; with it, all inputs are attempted and an error summarising
// the failures is returned at the end.
func (c *Converter) Batch(ctx context.Context, res resolve.Result, outRoot string, opts BatchOptions, w io.Writer) (BatchResult, error) {
	var result BatchResult
	for i, file := range res.Files {
		if err := ctx.Err(); err != nil {
			result.Pending = len(res.Files) - i
			return result, err
		}

		out, err := c.Convert(ctx, Job{Input: file, Root: res.Root, OutRoot: outRoot})
		if opts.Recorder != nil {
			opts.Recorder.Record(ctx, out, err)
		}

		if err != nil {
			PrintFailed(w, file)
			result.Failures = append(result.Failures, Failure{Input: file, Err: err})
			if !opts.KeepGoing {
				result.Pending = len(res.Files) - i - 1
				return result, err
			}
			continue
		}

		result.Outcomes = append(result.Outcomes, out)
		if out.Warning != "" {
			PrintWarning(w, file, out.Warning)
			continue
		}
		PrintConverted(w, file, out.PDF)
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed, %d warnings (total: %d)\n",
		result.Converted(), result.Failed(), result.Warnings(), result.Total())

	if result.HasFailures() {
		return result, fmt.Errorf("%d of %d file(s) failed conversion", result.Failed(), result.Total())
	}
	return result, nil
}
