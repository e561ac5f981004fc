package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCleanExtensions(t *testing.T) {
	for _, ext := range []string{
		"aux", "idx", "ind", "lof", "lot", "out", "toc",
		"acn", "acr", "alg", "glg", "glo", "gls", "ist",
		"log", "fls", "fdb_latexmk",
	} {
		assert.Contains(t, DefaultCleanExtensions, ext)
	}
	assert.NotContains(t, DefaultCleanExtensions, "tex")
	assert.NotContains(t, DefaultCleanExtensions, "pdf")
}

func TestDefaultsCopiesLists(t *testing.T) {
	cfg := Defaults()
	cfg.CleanExtensions[0] = "changed"
	cfg.Extensions[0] = "changed"

	assert.Equal(t, "aux", DefaultCleanExtensions[0])
	assert.Equal(t, "pgf", DefaultExtensions[0])
	assert.Equal(t, DefaultEngine, cfg.Engine)
	assert.Equal(t, DefaultCleanup, cfg.Cleanup)
}
