// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns a user-supplied path into the ordered set of input
// files to convert, and maps each input onto its mirrored output directory.
package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when the input path does not exist.
	ErrNotFound = errors.New("input not found")

	// ErrExtensionMismatch is returned when a single input file is outside
	// the extension filter.
	ErrExtensionMismatch = errors.New("input does not match extension filter")

	// ErrNotDirectory is returned when an explicit output path exists but is
	// not a directory.
	ErrNotDirectory = errors.New("output path is not a directory")
)

// Result is the outcome of input resolution.
type Result struct {
	// Root is the discovered root: the input directory itself, or the
	// parent directory of a single input file.
	Root string

	// Files lists the matching inputs in walk order, with forward slashes.
	Files []string
}

// Inputs resolves path into the files to convert. A directory is walked
// recursively and every regular file passing the extension filter is kept.
// A single file must itself pass the filter. An empty filter accepts all files.
func Inputs(path string, extensions []string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Result{}, fmt.Errorf("inspecting %s: %w", path, err)
	}

	exts := normalize(extensions)

	if !info.IsDir() {
		if !matches(path, exts) {
			return Result{}, fmt.Errorf("%w %v: %s", ErrExtensionMismatch, extensions, path)
		}
		return Result{
			Root:  filepath.ToSlash(filepath.Dir(path)),
			Files: []string{filepath.ToSlash(path)},
		}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch {
		case d.Type().IsRegular():
		case d.Type()&fs.ModeSymlink != 0:
			// Linked files are kept; linked directories are not descended.
			target, err := os.Stat(p)
			if err != nil || !target.Mode().IsRegular() {
				return nil
			}
		default:
			return nil
		}
		if matches(p, exts) {
			files = append(files, filepath.ToSlash(p))
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walking %s: %w", path, err)
	}

	return Result{Root: filepath.ToSlash(path), Files: files}, nil
}

// MatchExt reports whether name passes the extension filter. Filter entries
// match with or without their leading dot; an empty filter matches everything.
func MatchExt(name string, extensions []string) bool {
	return matches(name, normalize(extensions))
}

// OutputDir returns the directory a converted file lands in: outRoot joined
// with the directory of file relative to root.
func OutputDir(root, file, outRoot string) (string, error) {
	rel, err := filepath.Rel(filepath.FromSlash(root), filepath.Dir(filepath.FromSlash(file)))
	if err != nil {
		return "", fmt.Errorf("locating %s under %s: %w", file, root, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", file, root)
	}
	return filepath.Join(outRoot, rel), nil
}

// CheckOutputDir verifies that an explicit output path is an existing
// directory. Subdirectories mirrored beneath it are created on demand.
func CheckOutputDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", ErrNotDirectory, path)
		}
		return fmt.Errorf("inspecting output %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	return nil
}

// normalize strips leading dots and drops empty entries.
func normalize(extensions []string) map[string]bool {
	set := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		e = strings.TrimPrefix(strings.TrimSpace(e), ".")
		if e != "" {
			set[e] = true
		}
	}
	return set
}

func matches(name string, exts map[string]bool) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return ext != "" && exts[ext]
}
