// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pdiddy/jsonpdf/pkg/types"
)

func stamped(c types.Chunk, seq, total int) types.Chunk {
	c.Stamp(seq, total, "deadbeef")
	return c
}

func assertPDF(t *testing.T, dir, filename string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(data) == 0 || !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("output %s is not a PDF (%d bytes)", filename, len(data))
	}
}

func TestRenderEachKind(t *testing.T) {
	arraySlice := &types.ArraySlice{
		Items:   []any{"alpha", map[string]any{"nested": []any{1, 2}}, nil},
		Indices: []int{4, 5, 6},
	}
	objectSlice := &types.ObjectSlice{
		Keys:   []string{"zebra", "apple"},
		Values: map[string]any{"zebra": 1, "apple": map[string]any{"deep": true}},
	}
	replica := &types.ScalarReplica{Value: "only value", Replica: 2}
	merged := &types.Merged{Parts: []types.Chunk{
		&types.ArraySlice{Items: []any{1}, Indices: []int{0}},
		&types.Merged{Parts: []types.Chunk{
			&types.ArraySlice{Items: []any{2}, Indices: []int{1}},
			&types.ArraySlice{Items: []any{3}, Indices: []int{2}},
		}},
	}}

	tests := []struct {
		name  string
		chunk types.Chunk
	}{
		{"array slice", arraySlice},
		{"object slice", objectSlice},
		{"scalar replica", replica},
		{"nested merged", merged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			g := NewGenerator(dir)
			if err := g.Render(stamped(tt.chunk, 1, 4), "out.pdf"); err != nil {
				t.Fatalf("Render: %v", err)
			}
			assertPDF(t, dir, "out.pdf")
		})
	}
}

func TestRenderDuplicateNote(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir)

	dup := &types.ArraySlice{Items: []any{1}, Indices: []int{0}}
	dup.MarkDuplicate(3)
	if err := g.Render(stamped(dup, 4, 4), "dup.pdf"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertPDF(t, dir, "dup.pdf")
}

// Oversized payloads render within the embedding caps instead of failing.
func TestRenderTruncatesLargePayloads(t *testing.T) {
	items := make([]any, 500)
	indices := make([]int, 500)
	for i := range items {
		items[i] = strings.Repeat("x", 40)
		indices[i] = i
	}
	big := &types.ArraySlice{Items: items, Indices: indices}

	keys := make([]string, 80)
	values := make(map[string]any, 80)
	for i := range keys {
		k := fmt.Sprintf("%s%03d", strings.Repeat("k", 117), i)
		keys[i] = k
		values[k] = strings.Repeat("v", 3000)
	}
	wide := &types.ObjectSlice{Keys: keys, Values: values}

	dir := t.TempDir()
	g := NewGenerator(dir)
	if err := g.Render(stamped(big, 1, 2), "big.pdf"); err != nil {
		t.Fatalf("Render big array: %v", err)
	}
	if err := g.Render(stamped(wide, 2, 2), "wide.pdf"); err != nil {
		t.Fatalf("Render wide object: %v", err)
	}
	assertPDF(t, dir, "big.pdf")
	assertPDF(t, dir, "wide.pdf")
}

func TestRenderNonASCII(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir)
	chunk := &types.ScalarReplica{Value: "héllo wörld — ünïcode", Replica: 1}
	if err := g.Render(stamped(chunk, 1, 1), "unicode.pdf"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertPDF(t, dir, "unicode.pdf")
}

// Constructing a generator leaves the filesystem untouched; the output
// directory appears only once something renders.
func TestGeneratorCreatesDirectoryLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	g := NewGenerator(dir)

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("output directory exists before first render (stat err = %v)", err)
	}

	chunk := stamped(&types.ScalarReplica{Value: "v", Replica: 1}, 1, 1)
	if err := g.Render(chunk, "out.pdf"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertPDF(t, dir, "out.pdf")
}

// Byte-capped truncation must never split a multi-byte character.
func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	multi := strings.Repeat("€", 600) // 3 bytes each
	for _, max := range []int{1, 2, 5, 100, 1000, 1001} {
		got := truncate(multi, max)
		if len(got) > max {
			t.Errorf("truncate(max=%d) kept %d bytes", max, len(got))
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(max=%d) produced invalid UTF-8", max)
		}
	}

	if got := truncate("short", 100); got != "short" {
		t.Errorf("truncate passthrough = %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc" {
		t.Errorf("truncate ASCII = %q, want abc", got)
	}
}

// A multi-byte scalar whose byte length crosses the cap mid-character still
// renders cleanly.
func TestRenderTruncatesMultibyteScalar(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir)

	chunk := &types.ScalarReplica{Value: strings.Repeat("€", 2000), Replica: 1}
	if err := g.Render(stamped(chunk, 1, 1), "multibyte.pdf"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertPDF(t, dir, "multibyte.pdf")
}

func TestRenderBadDestination(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir)
	chunk := stamped(&types.ScalarReplica{Value: 1, Replica: 1}, 1, 1)
	if err := g.Render(chunk, filepath.Join("no-such-subdir", "out.pdf")); err == nil {
		t.Fatal("expected error writing into missing subdirectory")
	}
}
