// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pgf2pdf CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pgf2pdf/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured from --log-level / --verbose before any command runs.
var logger = logrus.New()

// rootCmd is the base command for the pgf2pdf CLI.
var rootCmd = &cobra.Command{
	Use:   "pgf2pdf",
	Short: "Compile PGF/TikZ figures to standalone PDFs",
	Long: `pgf2pdf wraps each PGF figure in a minimal standalone LaTeX document,
compiles it with a LaTeX engine (pdflatex by default), and removes the
auxiliary files the build leaves behind.

Point it at a single figure or at a directory; directories are searched
recursively and the output tree mirrors the input tree.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := types.Defaults()
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: pgf2pdf.yaml in . or ~/.config/pgf2pdf/)")
	pf.String("engine", defaults.Engine, "LaTeX engine command line")
	pf.String("cleanup", defaults.Cleanup, `auxiliary cleanup command line ("" to delete byproducts directly)`)
	pf.StringSlice("ext", defaults.Extensions, "input file extensions to convert")
	pf.StringSlice("clean-ext", defaults.CleanExtensions, "byproduct extensions removed when the cleanup tool fails")
	pf.String("history", "", "SQLite database recording conversion attempts")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.BoolP("verbose", "v", false, "debug logging and engine output on stderr")

	for _, key := range []string{"engine", "cleanup", "ext", "clean-ext", "history", "log-level", "verbose"} {
		if err := viper.BindPFlag(key, pf.Lookup(key)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pgf2pdf")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pgf2pdf"))
		}
	}

	viper.SetEnvPrefix("PGF2PDF")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "warning: reading config:", err)
	}
}

func setupLogger() error {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if viper.GetBool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
		return nil
	}
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger.SetLevel(level)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
