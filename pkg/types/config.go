package types

// DefaultEngine is the LaTeX engine used when none is configured.
const DefaultEngine = "pdflatex"

// DefaultCleanup is the auxiliary-file cleanup tool used when none is configured.
const DefaultCleanup = "latexmk"

// DefaultExtensions is the input filter applied when none is configured.
var DefaultExtensions = []string{"pgf"}

// DefaultCleanExtensions lists the LaTeX byproducts removed by the fallback
// cleanup when the cleanup tool is unavailable or fails. "tex" is left out:
// the fallback deletes inside the output directory, where a <stem>.tex may
// be a user's own source rather than the temporary wrapper.
var DefaultCleanExtensions = []string{
	"aux", "idx", "ind", "lof", "lot", "out", "toc",
	"acn", "acr", "alg", "glg", "glo", "gls", "ist",
	"log", "fls", "fdb_latexmk", "synctex.gz", "nav", "snm",
}

// ToolConfig names the external executables used for a conversion. Each value
// is a command line: a binary optionally followed by extra arguments
// (e.g. "lualatex -shell-escape").
type ToolConfig struct {
	// Engine compiles the wrapper document to PDF.
	Engine string `json:"engine" yaml:"engine"`

	// Cleanup removes auxiliary files after a build. Empty skips the tool
	// and goes straight to the extension-based fallback.
	Cleanup string `json:"cleanup,omitempty" yaml:"cleanup,omitempty"`
}

// ConvertConfig holds the resolved settings for a conversion run, merged from
// flags, environment (PGF2PDF_*) and the optional config file.
type ConvertConfig struct {
	ToolConfig `yaml:",inline"`

	// Extensions filters input files. Entries may be given with or without
	// a leading dot. Empty accepts every file.
	Extensions []string `json:"extensions" yaml:"extensions"`

	// CleanExtensions lists byproduct extensions deleted by the fallback cleanup.
	CleanExtensions []string `json:"clean_extensions" yaml:"clean_extensions"`

	// KeepGoing continues a batch after a failed file instead of aborting.
	KeepGoing bool `json:"keep_going" yaml:"keep_going"`

	// HistoryDB is the optional SQLite database recording conversion attempts.
	HistoryDB string `json:"history_db,omitempty" yaml:"history_db,omitempty"`

	// ReportPath is the optional YAML file summarising one batch run.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}

// Defaults returns a ConvertConfig populated with the built-in defaults.
func Defaults() ConvertConfig {
	return ConvertConfig{
		ToolConfig: ToolConfig{
			Engine:  DefaultEngine,
			Cleanup: DefaultCleanup,
		},
		Extensions:      append([]string(nil), DefaultExtensions...),
		CleanExtensions: append([]string(nil), DefaultCleanExtensions...),
	}
}
