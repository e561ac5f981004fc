package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pgf2pdf/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent conversion attempts",
	Long: `History lists conversion attempts recorded in the database given by
--history (or PGF2PDF_HISTORY / the history key in the config file), newest
first.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries to show")
	historyCmd.Flags().Bool("failed", false, "show failed attempts only")
	historyCmd.Flags().String("input", "", "show attempts for this input file only")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cfg.HistoryDB == "" {
		return errors.New("no history database configured: pass --history <file>")
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	failed, _ := cmd.Flags().GetBool("failed")
	input, _ := cmd.Flags().GetString("input")

	q := history.Query{Limit: limit, Input: input}
	if failed {
		q.Status = history.StatusFailed
	}

	entries, err := store.Recent(cmd.Context(), q)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No conversions recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-9s  %-5s  %-8s  %s\n", "When", "Status", "Pages", "Took", "Input")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%-20s  %-9s  %-5d  %-8s  %s\n",
			e.At.Local().Format("2006-01-02 15:04:05"),
			e.Status,
			e.Pages,
			e.Duration.Round(10*time.Millisecond),
			e.Input,
		)
		if e.Error != "" {
			fmt.Fprintf(os.Stdout, "%22s%s\n", "", firstLine(e.Error))
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
