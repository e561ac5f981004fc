package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pgf2pdf/internal/convert"
	"github.com/pdiddy/pgf2pdf/internal/resolve"
	"github.com/pdiddy/pgf2pdf/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir> [output-dir]",
	Short: "Recompile figures whenever they change",
	Long: `Watch monitors a directory tree and recompiles each matching figure
after it is written. Bursts of writes to the same file are coalesced and
figures are compiled one at a time. Stop with Ctrl-C.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("initial", false, "convert every matching file before watching")
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before recompiling a changed file")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	res, err := resolve.Inputs(args[0], cfg.Extensions)
	if err != nil {
		return err
	}
	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("watch needs a directory, got file %s", args[0])
	}

	outRoot := res.Root
	if len(args) == 2 {
		outRoot = args[1]
		if err := resolve.CheckOutputDir(outRoot); err != nil {
			return err
		}
	}

	conv, err := newConverter(cfg)
	if err != nil {
		return err
	}

	runID := newRunID()
	hist, err := openHistory(cfg, runID)
	if err != nil {
		return err
	}
	if hist != nil {
		defer hist.Close()
	}
	rec := recorderOrNil(hist)

	ctx := cmd.Context()
	if initial, _ := cmd.Flags().GetBool("initial"); initial && len(res.Files) > 0 {
		// Failures are reported but do not stop the watcher from starting.
		_, _ = conv.Batch(ctx, res, outRoot, convert.BatchOptions{KeepGoing: true, Recorder: rec}, os.Stdout)
	}

	w, err := watch.New(res.Root, cfg.Extensions, func(ctx context.Context, file string) error {
		out, err := conv.Convert(ctx, convert.Job{Input: file, Root: res.Root, OutRoot: outRoot})
		if rec != nil {
			rec.Record(ctx, out, err)
		}
		switch {
		case err != nil:
			convert.PrintFailed(os.Stdout, file)
			return err
		case out.Warning != "":
			convert.PrintWarning(os.Stdout, file, out.Warning)
		default:
			convert.PrintConverted(os.Stdout, file, out.PDF)
		}
		return nil
	}, logger)
	if err != nil {
		return err
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")
	w.SetDebounce(debounce)

	fmt.Fprintf(os.Stdout, "Watching %s for %v changes (Ctrl-C to stop)\n", res.Root, cfg.Extensions)
	return w.Run(ctx)
}
