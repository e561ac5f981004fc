package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pgf2pdf/internal/convert"
	"github.com/pdiddy/pgf2pdf/internal/report"
	"github.com/pdiddy/pgf2pdf/internal/resolve"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> [output-dir]",
	Short: "Compile a PGF file or a directory of PGF files to PDF",
	Long: `Convert compiles each matching input to a PDF. A directory input is
searched recursively. PDFs are written to output-dir, mirroring the layout
of the input tree; without output-dir they are written next to their
sources.

Files are converted one at a time. The first failure stops the run unless
--keep-going is set.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Bool("keep-going", false, "continue after a failed file")
	convertCmd.Flags().String("report", "", "write a YAML summary of the run to this file")

	for _, key := range []string{"keep-going", "report"} {
		if err := viper.BindPFlag(key, convertCmd.Flags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	started := time.Now()
	cfg := loadConfig()

	res, err := resolve.Inputs(args[0], cfg.Extensions)
	if err != nil {
		return err
	}

	outRoot := res.Root
	if len(args) == 2 {
		outRoot = args[1]
		if err := resolve.CheckOutputDir(outRoot); err != nil {
			return err
		}
	}

	if len(res.Files) == 0 {
		fmt.Fprintf(os.Stdout, "No files matching %v under %s\n", cfg.Extensions, args[0])
		return nil
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

	logger.WithField("run_id", runID).WithField("files", len(res.Files)).Debug("starting batch")

	result, batchErr := conv.Batch(cmd.Context(), res, outRoot, convert.BatchOptions{
		KeepGoing: cfg.KeepGoing,
		Recorder:  recorderOrNil(hist),
	}, os.Stdout)

	if cfg.ReportPath != "" {
		r := report.New(runID, args[0], outRoot, cfg.ToolConfig, started, result)
		if err := r.Write(cfg.ReportPath); err != nil {
			logger.WithError(err).Error("writing report")
		}
	}

	return batchErr
}
