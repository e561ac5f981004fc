// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch reconverts figures when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/pgf2pdf/internal/resolve"
)

// DefaultDebounce is the quiet period after the last event before pending
// files are converted.
const DefaultDebounce = 300 * time.Millisecond

// ConvertFunc converts one changed file.
type ConvertFunc func(ctx context.Context, file string) error

// Watcher converts matching files under a root as they are written.
// Conversions run one at a time on the watcher's own goroutine.
type Watcher struct {
	root     string
	exts     []string
	convert  ConvertFunc
	debounce time.Duration
	log      logrus.FieldLogger
}

// New creates a Watcher for root. exts must be non-empty so that the
// watcher never reacts to its own output.
func New(root string, exts []string, convert ConvertFunc, log logrus.FieldLogger) (*Watcher, error) {
	if len(exts) == 0 {
		return nil, errors.New("watch requires at least one input extension")
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Watcher{
		root:     root,
		exts:     exts,
		convert:  convert,
		debounce: DefaultDebounce,
		log:      log,
	}, nil
}

// SetDebounce overrides DefaultDebounce.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Run watches until ctx is cancelled. Conversion errors are logged, not
// returned.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	w.log.WithField("root", w.root).Info("watching")

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handle(fw, ev, pending) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")

		case <-timer.C:
			w.flush(ctx, pending)
		}
	}
}

// handle updates the watch set and the pending set for one event. It reports
// whether a file was queued.
func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event, pending map[string]struct{}) bool {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(fw, ev.Name); err != nil {
				w.log.WithError(err).WithField("dir", ev.Name).Warn("watching new directory")
			}
			// Figures moved or copied in with the directory produce no
			// events of their own.
			return w.queueTree(ev.Name, pending)
		}
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	if !resolve.MatchExt(ev.Name, w.exts) {
		return false
	}
	pending[filepath.ToSlash(ev.Name)] = struct{}{}
	return true
}

// flush converts every pending file in sorted order and clears the set.
func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) {
	files := make([]string, 0, len(pending))
	for f := range pending {
		files = append(files, f)
	}
	clear(pending)
	sort.Strings(files)

	for _, f := range files {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(f); err != nil {
			continue
		}
		log := w.log.WithField("file", f)
		if err := w.convert(ctx, f); err != nil {
			log.WithError(err).Error("conversion failed")
			continue
		}
		log.Info("reconverted")
	}
}

// queueTree adds every matching file under dir to pending and reports
// whether any were found.
func (w *Watcher) queueTree(dir string, pending map[string]struct{}) bool {
	queued := false
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !resolve.MatchExt(p, w.exts) {
			return nil
		}
		pending[filepath.ToSlash(p)] = struct{}{}
		queued = true
		return nil
	})
	if err != nil {
		w.log.WithError(err).WithField("dir", dir).Warn("scanning new directory")
	}
	return queued
}

// addTree registers dir and all its subdirectories.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
