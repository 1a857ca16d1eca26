// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConvertConfig holds settings for a conversion run.
// See docs/ARCHITECTURE § Orchestration.
type ConvertConfig struct {
	// InputPath is the UTF-8 encoded JSON document to convert.
	InputPath string `json:"input_path" yaml:"input_path"`

	// OutputDir receives the generated PDFs, the summary report, and the
	// run manifest. Created if it does not exist.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// FileCount is the exact number of PDF files to produce (default 40).
	// Values <= 0 are a configuration error.
	FileCount int `json:"file_count" yaml:"file_count"`

	// Sequential forces the one-at-a-time execution tier instead of the
	// bounded worker pool.
	Sequential bool `json:"sequential" yaml:"sequential"`

	// RenderTimeout bounds a single chunk render (default 5m). A timed-out
	// chunk is recorded as an error; siblings continue.
	RenderTimeout time.Duration `json:"render_timeout" yaml:"render_timeout"`

	// Workers is the parallel-tier pool degree (default 2).
	Workers int `json:"workers" yaml:"workers"`
}

// LedgerConfig holds settings for the run-history store.
type LedgerConfig struct {
	// Path is the SQLite database file (default "jsonpdf.db"). An empty
	// path disables the ledger.
	Path string `json:"path" yaml:"path"`
}
