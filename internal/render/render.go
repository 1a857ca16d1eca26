// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns one chunk descriptor into one paginated A4 PDF.
// Payload embedding is capped so a pathological chunk cannot produce an
// unbounded document, and Render reports errors instead of panicking across
// its boundary.
// See docs/ARCHITECTURE § Rendering.
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"github.com/pdiddy/jsonpdf/pkg/types"
)

// Embedding caps. A slice can be far larger than what fits in a readable
// document; beyond these limits content is cut with a visible marker.
const (
	maxArrayItems  = 100
	maxObjectKeys  = 50
	maxValueChars  = 2000
	maxScalarChars = 1000
	maxKeyChars    = 100

	linesPerBlock   = 30
	itemsPerBreak   = 20
	keysPerBreak    = 15
	lineHeight      = 4.5
	headingHeight   = 8.0
	truncatedMarker = "... (truncated)"
)

// Generator renders chunk descriptors into PDF files under a fixed output
// directory.
type Generator struct {
	outputDir string

	// now is the timestamp source for the cover page; tests override it.
	now func() time.Time
}

// NewGenerator returns a Generator writing into outputDir. The directory is
// created lazily on the first render, so constructing a Generator produces
// no output on its own.
func NewGenerator(outputDir string) *Generator {
	return &Generator{outputDir: outputDir, now: time.Now}
}

// Render writes one PDF for the chunk under the generator's output
// directory. A panic inside the document build is recovered and returned as
// an error so one bad chunk never takes down the batch.
func (g *Generator) Render(chunk types.Chunk, filename string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rendering %s: panic: %v", filename, r)
		}
	}()

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", g.outputDir, err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 15)

	g.coverPage(pdf, tr, chunk)

	pdf.AddPage()
	writeHeading(pdf, tr, "Data Content")
	writeContent(pdf, tr, chunk)
	writeFooter(pdf, tr, chunk)

	if pdf.Err() {
		return fmt.Errorf("rendering %s: %w", filename, pdf.Error())
	}
	if err := pdf.OutputFileAndClose(filepath.Join(g.outputDir, filename)); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

// coverPage writes the title page: document title plus a metadata table
// identifying the chunk.
func (g *Generator) coverPage(pdf *fpdf.Fpdf, tr func(string) string, chunk types.Chunk) {
	meta := chunk.Meta()

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(46, 64, 87)
	pdf.CellFormat(0, 14, tr(fmt.Sprintf("JSON Data Chunk %d", meta.SequenceID)), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	rows := [][2]string{
		{"Chunk", fmt.Sprintf("%d/%d", meta.SequenceID, meta.TotalChunks)},
		{"Kind", strings.ReplaceAll(string(chunk.Kind()), "_", " ")},
		{"Content Size", fmt.Sprintf("%d", chunk.Size())},
		{"Fingerprint", meta.Fingerprint},
		{"Generated", g.now().Format("2006-01-02 15:04:05")},
	}
	if meta.IsDuplicate {
		rows = append(rows, [2]string{"Note", "Duplicate chunk for equal distribution"})
	}

	pdf.SetTextColor(44, 62, 80)
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(120, 8, tr(row[1]), "1", 1, "L", false, 0, "")
	}
}

// writeContent formats the chunk payload per kind. Merged parts recurse, so
// nested merges from repeated normalization rounds render with the same
// caps as first-class chunks.
func writeContent(pdf *fpdf.Fpdf, tr func(string) string, chunk types.Chunk) {
	switch c := chunk.(type) {
	case *types.ArraySlice:
		writeArray(pdf, tr, c)
	case *types.ObjectSlice:
		writeObject(pdf, tr, c)
	case *types.ScalarReplica:
		writeScalar(pdf, tr, c)
	case *types.Merged:
		writeMerged(pdf, tr, c)
	}
}

func writeArray(pdf *fpdf.Fpdf, tr func(string) string, s *types.ArraySlice) {
	items := s.Items
	indices := s.Indices
	if len(items) > maxArrayItems {
		writeKeyLine(pdf, tr, fmt.Sprintf("Array Items (showing first %d of %d items)", maxArrayItems, len(items)))
		writeNote(pdf, tr, "Large dataset truncated for PDF generation")
		items = items[:maxArrayItems]
		indices = indices[:maxArrayItems]
	} else {
		writeKeyLine(pdf, tr, fmt.Sprintf("Array Items (%d items)", len(items)))
	}
	pdf.Ln(3)

	for i, item := range items {
		writeKeyLine(pdf, tr, fmt.Sprintf("Item %d (index %d)", i+1, indices[i]))
		writeValue(pdf, tr, item)
		pdf.Ln(2)
		if (i+1)%itemsPerBreak == 0 && i < len(items)-1 {
			pdf.AddPage()
		}
	}
}

func writeObject(pdf *fpdf.Fpdf, tr func(string) string, s *types.ObjectSlice) {
	keys := s.Keys
	if len(keys) > maxObjectKeys {
		writeKeyLine(pdf, tr, fmt.Sprintf("Object Properties (showing first %d of %d keys)", maxObjectKeys, len(keys)))
		writeNote(pdf, tr, "Large object truncated for PDF generation")
		keys = keys[:maxObjectKeys]
	} else {
		writeKeyLine(pdf, tr, fmt.Sprintf("Object Properties (%d keys)", len(keys)))
	}
	pdf.Ln(3)

	for i, key := range keys {
		writeKeyLine(pdf, tr, "Key: "+truncate(key, maxKeyChars))
		writeValue(pdf, tr, s.Values[key])
		pdf.Ln(2)
		if (i+1)%keysPerBreak == 0 && i < len(keys)-1 {
			pdf.AddPage()
		}
	}
}

func writeScalar(pdf *fpdf.Fpdf, tr func(string) string, s *types.ScalarReplica) {
	writeKeyLine(pdf, tr, fmt.Sprintf("Replica %d", s.Replica))
	writeValue(pdf, tr, s.Value)
}

func writeMerged(pdf *fpdf.Fpdf, tr func(string) string, m *types.Merged) {
	writeKeyLine(pdf, tr, fmt.Sprintf("Merged Content (%d parts)", len(m.Parts)))
	pdf.Ln(3)
	for i, part := range m.Parts {
		writeKeyLine(pdf, tr, fmt.Sprintf("Part %d (%s)", i+1, strings.ReplaceAll(string(part.Kind()), "_", " ")))
		writeContent(pdf, tr, part)
		pdf.Ln(4)
	}
}

// writeValue serializes one payload value and writes it as monospaced
// blocks. Containers get indented JSON capped at maxValueChars; scalars are
// capped at maxScalarChars.
func writeValue(pdf *fpdf.Fpdf, tr func(string) string, v any) {
	var text string
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			writeNote(pdf, tr, fmt.Sprintf("Error formatting value: %v", err))
			return
		}
		text = string(b)
		if len(text) > maxValueChars {
			text = truncate(text, maxValueChars) + "\n" + truncatedMarker
		}
	default:
		text = fmt.Sprint(v)
		if len(text) > maxScalarChars {
			text = truncate(text, maxScalarChars) + truncatedMarker
		}
	}

	pdf.SetFont("Courier", "", 9)
	pdf.SetTextColor(44, 62, 80)
	lines := strings.Split(text, "\n")
	for start := 0; start < len(lines); start += linesPerBlock {
		end := start + linesPerBlock
		if end > len(lines) {
			end = len(lines)
		}
		pdf.MultiCell(0, lineHeight, tr(strings.Join(lines[start:end], "\n")), "", "L", false)
	}
}

func writeHeading(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(4, 138, 129)
	pdf.CellFormat(0, headingHeight, tr(text), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func writeKeyLine(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(231, 76, 60)
	pdf.CellFormat(0, 6, tr(text), "", 1, "L", false, 0, "")
}

func writeNote(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 5, tr(text), "", 1, "L", false, 0, "")
}

func writeFooter(pdf *fpdf.Fpdf, tr func(string) string, chunk types.Chunk) {
	meta := chunk.Meta()
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Generated by jsonpdf | Chunk %d/%d", meta.SequenceID, meta.TotalChunks)), "", 1, "C", false, 0, "")
}

// truncate cuts s to at most max bytes, backing up to the nearest rune
// boundary so a multi-byte character is never split.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
