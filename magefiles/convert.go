//go:build mage

package main

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	examplesDir = "testdata/figures"
	examplesOut = "testdata/out"
)

// Examples builds the CLI and converts the sample figures in testdata/.
// It needs a TeX installation with pdflatex and pgfplots.
func Examples() error {
	mg.Deps(Build)

	if _, err := exec.LookPath("pdflatex"); err != nil {
		fmt.Println("[examples] pdflatex not found; skipping.")
		return nil
	}
	bin := filepath.Join(binDir, binName)
	return sh.RunV(bin, "convert", examplesDir, examplesOut, "--keep-going")
}
