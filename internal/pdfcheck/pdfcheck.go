// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfcheck inspects PDFs produced by the engine.
package pdfcheck

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrNoOutput is returned when the expected PDF does not exist.
var ErrNoOutput = errors.New("no PDF produced")

func init() {
	// pdfcpu would otherwise create a config directory under the user's home.
	api.DisableConfigDir()
}

// Info describes a produced PDF.
type Info struct {
	Path  string
	Pages int
	Size  int64
}

// Inspect reads the PDF at path and reports its page count and size.
func Inspect(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, fmt.Errorf("%w: %s", ErrNoOutput, path)
		}
		return Info{}, fmt.Errorf("inspecting %s: %w", path, err)
	}
	if st.Size() == 0 {
		return Info{}, fmt.Errorf("%w: %s is empty", ErrNoOutput, path)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Info{Path: path, Pages: pages, Size: st.Size()}, nil
}
