// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

const (
	// SummaryFile is the human-readable report written into the output
	// directory after every run.
	SummaryFile = "conversion_summary.txt"

	// ManifestFile is the machine-readable counterpart of the summary.
	ManifestFile = "run.yaml"
)

// WriteSummary writes the plain-text conversion report into the run's
// output directory.
func WriteSummary(res *Result) error {
	var b strings.Builder

	b.WriteString("JSON to PDF Conversion Summary\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	fmt.Fprintf(&b, "Conversion Date: %s\n", res.Stats.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Duration: %s\n", res.Stats.Duration)
	fmt.Fprintf(&b, "Input File: %s\n", res.InputPath)
	fmt.Fprintf(&b, "Output Directory: %s\n\n", res.OutputDir)

	b.WriteString("Results:\n")
	fmt.Fprintf(&b, "  Total Chunks: %d\n", res.Stats.TotalChunks)
	fmt.Fprintf(&b, "  Files Created: %d\n", res.Stats.FilesCreated)
	fmt.Fprintf(&b, "  Success Rate: %.1f%%\n\n", res.Stats.SuccessRate())

	if len(res.Stats.Errors) > 0 {
		b.WriteString("Errors:\n")
		for _, e := range res.Stats.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
		b.WriteString("\n")
	}

	if len(res.Stats.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, warning := range res.Stats.Warnings {
			fmt.Fprintf(&b, "  - %s\n", warning)
		}
		b.WriteString("\n")
	}

	b.WriteString("Generated Files:\n")
	for _, name := range res.GeneratedFiles {
		fmt.Fprintf(&b, "  - %s\n", name)
	}

	path := filepath.Join(res.OutputDir, SummaryFile)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing summary report: %w", err)
	}
	return nil
}

// WriteManifest writes the run result as YAML next to the summary.
func WriteManifest(res *Result) error {
	data, err := yaml.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling run manifest: %w", err)
	}
	path := filepath.Join(res.OutputDir, ManifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run manifest: %w", err)
	}
	return nil
}
