// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pgf2pdf/internal/pdfcheck"
	"github.com/pdiddy/pgf2pdf/internal/resolve"
)

// fakeEngine implements Builder. It writes a PDF and typical byproducts named
// after the wrapper, or fails for inputs listed in failFor.
type fakeEngine struct {
	failFor  map[string]bool
	skipPDF  bool
	builds   []string
	wrappers []string
	workDirs []string
}

func (f *fakeEngine) Build(ctx context.Context, wrapper, outDir, workDir string) error {
	data, err := os.ReadFile(wrapper)
	if err != nil {
		return err
	}
	f.wrappers = append(f.wrappers, string(data))
	f.workDirs = append(f.workDirs, workDir)

	stem := strings.TrimSuffix(filepath.Base(wrapper), ".tex")
	f.builds = append(f.builds, stem)
	for _, ext := range []string{"aux", "log", "fls"} {
		if err := os.WriteFile(filepath.Join(outDir, stem+"."+ext), []byte("x"), 0o644); err != nil {
			return err
		}
	}
	if f.failFor[stem] {
		return errors.New("exit status 1")
	}
	if f.skipPDF {
		return nil
	}
	return os.WriteFile(filepath.Join(outDir, stem+".pdf"), []byte("%PDF-1.5"), 0o644)
}

// fakeCleaner implements Cleaner. On success it removes the byproducts itself.
type fakeCleaner struct {
	err   error
	calls int
}

func (f *fakeCleaner) Clean(ctx context.Context, wrapper, outDir string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	stem := strings.TrimSuffix(filepath.Base(wrapper), ".tex")
	for _, ext := range []string{"aux", "log", "fls"} {
		os.Remove(filepath.Join(outDir, stem+"."+ext))
	}
	return nil
}

func fakeInspect(path string) (pdfcheck.Info, error) {
	if _, err := os.Stat(path); err != nil {
		return pdfcheck.Info{}, pdfcheck.ErrNoOutput
	}
	return pdfcheck.Info{Path: path, Pages: 1}, nil
}

// setupFigures creates a source tree and returns its root, the output root,
// and a private temp dir for wrappers.
func setupFigures(t *testing.T, names ...string) (root, outRoot, tmp string) {
	t.Helper()
	base := t.TempDir()
	root = filepath.Join(base, "figs")
	outRoot = filepath.Join(base, "pdf")
	tmp = filepath.Join(base, "tmp")
	require.NoError(t, os.MkdirAll(tmp, 0o755))
	for _, n := range names {
		p := filepath.Join(root, filepath.FromSlash(n))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(`\begin{tikzpicture}\end{tikzpicture}`), 0o644))
	}
	return root, outRoot, tmp
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary wrapper left behind in %s", dir)
}

func newTestConverter(e Builder, c Cleaner, tmp string) *Converter {
	return New(e, c, Options{
		CleanExtensions: []string{"aux", ".log", "fls"},
		TempDir:         tmp,
		Inspect:         fakeInspect,
	}, nil)
}

func TestConvertSuccess(t *testing.T) {
	root, outRoot, tmp := setupFigures(t, "sub/plot.pgf")
	engine := &fakeEngine{}
	cleaner := &fakeCleaner{}
	c := newTestConverter(engine, cleaner, tmp)

	input := filepath.ToSlash(filepath.Join(root, "sub", "plot.pgf"))
	out, err := c.Convert(context.Background(), Job{Input: input, Root: filepath.ToSlash(root), OutRoot: outRoot})
	require.NoError(t, err)

	wantDir := filepath.Join(outRoot, "sub")
	assert.Equal(t, wantDir, out.OutputDir)
	assert.Equal(t, filepath.Join(wantDir, "plot.pdf"), out.PDF)
	assert.FileExists(t, out.PDF)
	assert.NoFileExists(t, filepath.Join(wantDir, "plot.aux"))
	assert.Equal(t, CleanedByTool, out.CleanedBy)
	assert.Equal(t, 1, out.Pages)
	assert.Empty(t, out.Warning)
	assert.Equal(t, 1, cleaner.calls)
	assertEmptyDir(t, tmp)

	require.Len(t, engine.wrappers, 1)
	assert.Contains(t, engine.wrappers[0], `\input{`+input+`}`)
	assert.Contains(t, engine.wrappers[0], `\documentclass[pgfplots]{standalone}`)
	assert.Equal(t, filepath.Join(root, "sub"), engine.workDirs[0])
}

func TestConvertCleanupFallback(t *testing.T) {
	root, outRoot, tmp := setupFigures(t, "plot.pgf")
	require.NoError(t, os.MkdirAll(outRoot, 0o755))
	unrelated := filepath.Join(outRoot, "other.aux")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))

	tests := []struct {
		name    string
		cleaner Cleaner
	}{
		{name: "cleanup tool fails", cleaner: &fakeCleaner{err: errors.New("latexmk: exit status 12")}},
		{name: "no cleanup tool", cleaner: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConverter(&fakeEngine{}, tt.cleaner, tmp)
			out, err := c.Convert(context.Background(), Job{
				Input:   filepath.Join(root, "plot.pgf"),
				Root:    root,
				OutRoot: outRoot,
			})
			require.NoError(t, err)
			assert.Equal(t, CleanedByFallback, out.CleanedBy)
			for _, ext := range []string{"aux", "log", "fls"} {
				assert.NoFileExists(t, filepath.Join(outRoot, "plot."+ext))
			}
			assert.FileExists(t, filepath.Join(outRoot, "plot.pdf"))
			assert.FileExists(t, unrelated)
			assertEmptyDir(t, tmp)
		})
	}
}

func TestConvertEngineFailure(t *testing.T) {
	root, outRoot, tmp := setupFigures(t, "broken.pgf")
	cleaner := &fakeCleaner{}
	c := newTestConverter(&fakeEngine{failFor: map[string]bool{"broken": true}}, cleaner, tmp)

	_, err := c.Convert(context.Background(), Job{
		Input:   filepath.Join(root, "broken.pgf"),
		Root:    root,
		OutRoot: outRoot,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.Equal(t, 0, cleaner.calls)
	assertEmptyDir(t, tmp)
}

func TestConvertMissingPDFIsWarning(t *testing.T) {
	root, outRoot, tmp := setupFigures(t, "silent.pgf")
	cleaner := &fakeCleaner{}
	c := newTestConverter(&fakeEngine{skipPDF: true}, cleaner, tmp)

	out, err := c.Convert(context.Background(), Job{
		Input:   filepath.Join(root, "silent.pgf"),
		Root:    root,
		OutRoot: outRoot,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Warning)
	assert.Equal(t, 0, out.Pages)
	// A clean engine exit still goes through the cleanup tool, not the fallback.
	assert.Equal(t, CleanedByTool, out.CleanedBy)
	assertEmptyDir(t, tmp)
}

func TestConvertSameStemDifferentDirs(t *testing.T) {
	root, outRoot, tmp := setupFigures(t, "a/fig.pgf", "b/fig.pgf")
	c := newTestConverter(&fakeEngine{}, &fakeCleaner{}, tmp)

	for _, dir := range []string{"a", "b"} {
		_, err := c.Convert(context.Background(), Job{
			Input:   filepath.Join(root, dir, "fig.pgf"),
			Root:    root,
			OutRoot: outRoot,
		})
		require.NoError(t, err)
	}
	assert.FileExists(t, filepath.Join(outRoot, "a", "fig.pdf"))
	assert.FileExists(t, filepath.Join(outRoot, "b", "fig.pdf"))
	assertEmptyDir(t, tmp)
}

// recorder captures Record calls.
type recorder struct {
	ok     []string
	failed []string
}

func (r *recorder) Record(ctx context.Context, out Outcome, err error) {
	if err != nil {
		r.failed = append(r.failed, out.Input)
		return
	}
	r.ok = append(r.ok, out.Input)
}

func TestBatch(t *testing.T) {
	tests := []struct {
		name          string
		keepGoing     bool
		wantConverted int
		wantFailed    int
		wantPending   int
		wantLog       []string
	}{
		{
			name:          "stops at first failure",
			wantConverted: 1,
			wantFailed:    1,
			wantPending:   1,
			wantLog:       []string{"converted:", "failed:"},
		},
		{
			name:          "keep going",
			keepGoing:     true,
			wantConverted: 2,
			wantFailed:    1,
			wantLog:       []string{"converted:", "failed:", "Batch summary: 2 converted, 1 failed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, outRoot, tmp := setupFigures(t, "1-ok.pgf", "2-bad.pgf", "3-ok.pgf")
			res, err := resolve.Inputs(root, []string{"pgf"})
			require.NoError(t, err)

			rec := &recorder{}
			c := newTestConverter(&fakeEngine{failFor: map[string]bool{"2-bad": true}}, &fakeCleaner{}, tmp)

			var buf bytes.Buffer
			result, err := c.Batch(context.Background(), res, outRoot, BatchOptions{KeepGoing: tt.keepGoing, Recorder: rec}, &buf)
			require.Error(t, err)

			assert.Equal(t, tt.wantConverted, result.Converted())
			assert.Equal(t, tt.wantFailed, result.Failed())
			assert.Equal(t, tt.wantPending, result.Pending)
			assert.Len(t, rec.ok, tt.wantConverted)
			assert.Len(t, rec.failed, tt.wantFailed)
			for _, want := range tt.wantLog {
				assert.Contains(t, buf.String(), want)
			}
			assertEmptyDir(t, tmp)
		})
	}
}

func TestBatchAllSucceed(t *testing.T) {
	root, outRoot, tmp := setupFigures(t, "a.pgf", "nested/b.pgf")
	res, err := resolve.Inputs(root, []string{"pgf"})
	require.NoError(t, err)

	c := newTestConverter(&fakeEngine{}, &fakeCleaner{}, tmp)
	var buf bytes.Buffer
	result, err := c.Batch(context.Background(), res, outRoot, BatchOptions{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total())
	assert.False(t, result.HasFailures())
	assert.FileExists(t, filepath.Join(outRoot, "a.pdf"))
	assert.FileExists(t, filepath.Join(outRoot, "nested", "b.pdf"))
}

func TestBatchCancelled(t *testing.T) {
	root, outRoot, tmp := setupFigures(t, "a.pgf", "b.pgf")
	res, err := resolve.Inputs(root, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &fakeEngine{}
	c := newTestConverter(engine, &fakeCleaner{}, tmp)
	result, err := c.Batch(ctx, res, outRoot, BatchOptions{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, result.Pending)
	assert.Empty(t, engine.builds)
}

func TestStatusLines(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	PrintConverted(&buf, "figs/a.pgf", "pdf/a.pdf")
	PrintWarning(&buf, "figs/b.pgf", "no PDF produced")
	PrintFailed(&buf, "figs/c.pgf")

	assert.Equal(t, "converted: figs/a.pgf -> pdf/a.pdf\n"+
		"warning:   figs/b.pgf (no PDF produced)\n"+
		"failed:    figs/c.pgf\n", buf.String())
}
