// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/jsonpdf/pkg/types"
)

// fakeRenderer records rendered filenames and fails on request. It stands in
// for the PDF generator so orchestration behavior is testable without fpdf.
type fakeRenderer struct {
	mu       sync.Mutex
	rendered []string

	failOn  map[string]bool
	sleepOn map[string]time.Duration
	panicOn map[string]bool
}

func (f *fakeRenderer) Render(chunk types.Chunk, filename string) error {
	if f.panicOn[filename] {
		panic("synthetic render failure")
	}
	if d, ok := f.sleepOn[filename]; ok {
		time.Sleep(d)
	}
	if f.failOn[filename] {
		return assert.AnError
	}
	f.mu.Lock()
	f.rendered = append(f.rendered, filename)
	f.mu.Unlock()
	return nil
}

func (f *fakeRenderer) files() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.rendered...)
	sort.Strings(out)
	return out
}

func writeJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T, input string, n int) types.ConvertConfig {
	t.Helper()
	return types.ConvertConfig{
		InputPath:     input,
		OutputDir:     t.TempDir(),
		FileCount:     n,
		RenderTimeout: 5 * time.Second,
	}
}

func TestFilenamePattern(t *testing.T) {
	if got := Filename(3); got != "output_03.pdf" {
		t.Errorf("Filename(3) = %q", got)
	}
	if got := Filename(40); got != "output_40.pdf" {
		t.Errorf("Filename(40) = %q", got)
	}
}

func TestRunHappyPath(t *testing.T) {
	cfg := testConfig(t, writeJSON(t, `[1,2,3,4,5,6,7,8,9,10,11,12]`), 4)
	r := &fakeRenderer{}

	res, err := Run(cfg, r, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Stats.TotalChunks)
	assert.Equal(t, 4, res.Stats.FilesCreated)
	assert.False(t, res.Stats.HasFailures())
	assert.InDelta(t, 100.0, res.Stats.SuccessRate(), 0.01)
	assert.Equal(t, []string{"output_01.pdf", "output_02.pdf", "output_03.pdf", "output_04.pdf"}, res.GeneratedFiles)
	assert.Equal(t, "array", res.Shape)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, res.GeneratedFiles, r.files())
}

func TestRunWritesSummaryAndManifest(t *testing.T) {
	cfg := testConfig(t, writeJSON(t, `{"a": 1, "b": 2}`), 2)

	res, err := Run(cfg, &fakeRenderer{}, io.Discard)
	require.NoError(t, err)

	summary, err := os.ReadFile(filepath.Join(cfg.OutputDir, SummaryFile))
	require.NoError(t, err)
	text := string(summary)
	for _, want := range []string{
		"JSON to PDF Conversion Summary",
		"Input File: " + cfg.InputPath,
		"Output Directory: " + cfg.OutputDir,
		"Total Chunks: 2",
		"Files Created: 2",
		"Success Rate: 100.0%",
		"output_01.pdf",
		"output_02.pdf",
	} {
		assert.Contains(t, text, want)
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, ManifestFile))
	require.NoError(t, err)
	var decoded Result
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, res.RunID, decoded.RunID)
	assert.Equal(t, 2, decoded.Stats.FilesCreated)
}

// A timed-out chunk is recorded as an error; siblings finish and the run
// still succeeds at the pipeline level.
func TestRunTimeoutIsPerChunk(t *testing.T) {
	cfg := testConfig(t, writeJSON(t, `[0,1,2,3,4,5,6,7,8,9]`), 10)
	cfg.RenderTimeout = 30 * time.Millisecond
	r := &fakeRenderer{sleepOn: map[string]time.Duration{
		"output_03.pdf": 500 * time.Millisecond,
	}}

	res, err := Run(cfg, r, io.Discard)
	require.NoError(t, err, "per-chunk timeout must not fail the pipeline")

	assert.Equal(t, 10, res.Stats.TotalChunks)
	assert.Equal(t, 9, res.Stats.FilesCreated)
	require.Len(t, res.Stats.Errors, 1)
	assert.Contains(t, res.Stats.Errors[0], "output_03.pdf")
	assert.Contains(t, res.Stats.Errors[0], "timed out")
	assert.NotContains(t, res.GeneratedFiles, "output_03.pdf")
}

func TestRunRecordsRenderErrors(t *testing.T) {
	cfg := testConfig(t, writeJSON(t, `[1,2,3,4]`), 4)
	r := &fakeRenderer{failOn: map[string]bool{"output_02.pdf": true}}

	res, err := Run(cfg, r, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Stats.FilesCreated)
	require.Len(t, res.Stats.Errors, 1)
	assert.Contains(t, res.Stats.Errors[0], "output_02.pdf")
}

// A panicking renderer is contained to its own chunk.
func TestRunContainsRenderPanic(t *testing.T) {
	cfg := testConfig(t, writeJSON(t, `[1,2,3,4]`), 4)
	r := &fakeRenderer{panicOn: map[string]bool{"output_04.pdf": true}}

	res, err := Run(cfg, r, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Stats.FilesCreated)
	require.Len(t, res.Stats.Errors, 1)
	assert.Contains(t, res.Stats.Errors[0], "render panic")
}

// A scheduler-level failure in the parallel tier records a warning and the
// whole batch is retried sequentially to completion.
func TestRunFallsBackToSequential(t *testing.T) {
	orig := parallelTier
	parallelTier = func([]task, Renderer, time.Duration, int, *progressbar.ProgressBar) ([]error, error) {
		return nil, assert.AnError
	}
	t.Cleanup(func() { parallelTier = orig })

	cfg := testConfig(t, writeJSON(t, `[1,2,3,4,5,6]`), 6)
	r := &fakeRenderer{}

	res, err := Run(cfg, r, io.Discard)
	require.NoError(t, err, "fallback must not fail the pipeline")

	assert.Equal(t, 6, res.Stats.FilesCreated)
	assert.Empty(t, res.Stats.Errors)
	assert.Len(t, r.files(), 6)

	require.NotEmpty(t, res.Stats.Warnings)
	joined := strings.Join(res.Stats.Warnings, "\n")
	assert.Contains(t, joined, "parallel execution failed")
	assert.Contains(t, joined, "retrying sequentially")
}

// The fallback tier keeps the per-task timeout semantics of the parallel tier.
func TestRunFallbackKeepsTimeout(t *testing.T) {
	orig := parallelTier
	parallelTier = func([]task, Renderer, time.Duration, int, *progressbar.ProgressBar) ([]error, error) {
		return nil, assert.AnError
	}
	t.Cleanup(func() { parallelTier = orig })

	cfg := testConfig(t, writeJSON(t, `[1,2,3,4]`), 4)
	cfg.RenderTimeout = 30 * time.Millisecond
	r := &fakeRenderer{sleepOn: map[string]time.Duration{
		"output_02.pdf": 500 * time.Millisecond,
	}}

	res, err := Run(cfg, r, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Stats.FilesCreated)
	require.Len(t, res.Stats.Errors, 1)
	assert.Contains(t, res.Stats.Errors[0], "output_02.pdf")
	assert.Contains(t, res.Stats.Errors[0], "timed out")
}

// Both execution tiers produce the same file set for the same input.
func TestRunSequentialMatchesParallel(t *testing.T) {
	input := writeJSON(t, `{"a":1,"b":2,"c":3,"d":4,"e":5,"f":6}`)

	parCfg := testConfig(t, input, 6)
	par := &fakeRenderer{}
	parRes, err := Run(parCfg, par, io.Discard)
	require.NoError(t, err)

	seqCfg := testConfig(t, input, 6)
	seqCfg.Sequential = true
	seq := &fakeRenderer{}
	seqRes, err := Run(seqCfg, seq, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, par.files(), seq.files())
	assert.Equal(t, parRes.GeneratedFiles, seqRes.GeneratedFiles)
}

func TestRunInvalidFileCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		cfg := testConfig(t, writeJSON(t, `[1]`), n)
		_, err := Run(cfg, &fakeRenderer{}, io.Discard)
		require.Error(t, err)
	}
}

func TestRunLoadFailureIsFatal(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing.json"), 3)
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	_, err := Run(cfg, &fakeRenderer{}, io.Discard)
	require.Error(t, err)

	// Nothing is produced before the pipeline fails, not even the output
	// directory itself.
	_, statErr := os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunUnparsableInputLeavesNoOutputDir(t *testing.T) {
	cfg := testConfig(t, writeJSON(t, `{"open": `), 3)
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	_, err := Run(cfg, &fakeRenderer{}, io.Discard)
	require.Error(t, err)

	_, statErr := os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(statErr))
}

// Repaired input surfaces as a warning in the summary report.
func TestRunRepairWarningInSummary(t *testing.T) {
	cfg := testConfig(t, writeJSON(t, `{'fixed': True}`), 2)

	res, err := Run(cfg, &fakeRenderer{}, io.Discard)
	require.NoError(t, err)
	require.NotEmpty(t, res.Stats.Warnings)

	summary, err := os.ReadFile(filepath.Join(cfg.OutputDir, SummaryFile))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(summary), "Warnings:"))
}
