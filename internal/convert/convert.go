// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert orchestrates the pipeline: load the document, partition
// it into chunks, render each chunk to a PDF, and write the summary report.
// Per-chunk failures are recorded and skipped; the batch always runs to
// completion. See docs/ARCHITECTURE § Orchestration.
package convert

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/jsonpdf/internal/analyze"
	"github.com/pdiddy/jsonpdf/internal/load"
	"github.com/pdiddy/jsonpdf/pkg/types"
)

const (
	defaultTimeout = 5 * time.Minute
	defaultWorkers = 2
)

// Renderer turns one chunk descriptor into one document file. The PDF
// generator implements it; tests substitute slow or failing fakes.
type Renderer interface {
	Render(chunk types.Chunk, filename string) error
}

// task pairs a chunk with its destination file. Results are attributed
// through this record, never through completion order.
type task struct {
	chunk    types.Chunk
	filename string
}

// Stats tracks the outcome of a conversion run.
type Stats struct {
	StartTime    time.Time     `json:"start_time" yaml:"start_time"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	TotalChunks  int           `json:"total_chunks" yaml:"total_chunks"`
	FilesCreated int           `json:"files_created" yaml:"files_created"`
	Errors       []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings     []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// SuccessRate returns the percentage of chunks that rendered successfully.
func (s Stats) SuccessRate() float64 {
	if s.TotalChunks == 0 {
		return 0
	}
	return float64(s.FilesCreated) / float64(s.TotalChunks) * 100
}

// HasFailures reports whether any chunk failed to render.
func (s Stats) HasFailures() bool {
	return len(s.Errors) > 0
}

// Result holds everything a completed run produced.
type Result struct {
	RunID          string   `json:"run_id" yaml:"run_id"`
	InputPath      string   `json:"input_path" yaml:"input_path"`
	OutputDir      string   `json:"output_dir" yaml:"output_dir"`
	Shape          string   `json:"shape" yaml:"shape"`
	Complexity     int      `json:"complexity" yaml:"complexity"`
	GeneratedFiles []string `json:"generated_files" yaml:"generated_files"`
	Stats          Stats    `json:"stats" yaml:"stats"`
}

// Filename returns the output file name for a 1-based sequence ID, using
// the fixed zero-padded pattern shared with the summary report.
func Filename(sequenceID int) string {
	return fmt.Sprintf("output_%02d.pdf", sequenceID)
}

// Run executes the full pipeline. It returns an error only for pipeline
// failures: unreadable or unrepairable input, an invalid chunk count, or a
// summary that cannot be written. Per-chunk render failures land in the
// result's error list and do not fail the run.
func Run(cfg types.ConvertConfig, r Renderer, w io.Writer) (*Result, error) {
	if cfg.FileCount <= 0 {
		return nil, fmt.Errorf("target file count must be positive, got %d", cfg.FileCount)
	}

	stats := Stats{StartTime: time.Now()}

	fmt.Fprintf(w, "loading %s\n", cfg.InputPath)
	root, warnings, err := load.Load(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	stats.Warnings = append(stats.Warnings, warnings...)
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}

	cls := analyze.Analyze(root)
	fmt.Fprintf(w, "analyzed %s root: %d items, complexity %d\n", cls.Shape, cls.TotalItems, cls.Complexity)

	chunks, err := analyze.Partition(root, cfg.FileCount)
	if err != nil {
		return nil, err
	}
	stats.TotalChunks = len(chunks)
	fmt.Fprintf(w, "partitioned into %d chunks\n", len(chunks))

	// The output directory appears only once the pipeline is past the point
	// of failing fatally; a bad input leaves nothing behind.
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", cfg.OutputDir, err)
	}

	tasks := make([]task, len(chunks))
	for i, c := range chunks {
		tasks[i] = task{chunk: c, filename: Filename(c.Meta().SequenceID)}
	}

	timeout := cfg.RenderTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	outcomes := runBatch(tasks, r, timeout, workers, cfg.Sequential, &stats, w)

	for i, taskErr := range outcomes {
		if taskErr != nil {
			stats.Errors = append(stats.Errors, taskErr.Error())
			fmt.Fprintf(w, "error: %v\n", taskErr)
			continue
		}
		stats.FilesCreated++
		fmt.Fprintf(w, "generated %s\n", tasks[i].filename)
	}

	stats.Duration = time.Since(stats.StartTime)

	var generated []string
	for i, taskErr := range outcomes {
		if taskErr == nil {
			generated = append(generated, tasks[i].filename)
		}
	}
	sort.Strings(generated)

	res := &Result{
		RunID:          uuid.NewString(),
		InputPath:      cfg.InputPath,
		OutputDir:      cfg.OutputDir,
		Shape:          string(cls.Shape),
		Complexity:     cls.Complexity,
		GeneratedFiles: generated,
		Stats:          stats,
	}

	if err := WriteSummary(res); err != nil {
		return nil, err
	}
	if err := WriteManifest(res); err != nil {
		return nil, err
	}
	return res, nil
}

// runBatch renders all tasks and returns one outcome per task, indexed like
// tasks. The parallel tier is the default; if it fails at the scheduling
// level the whole batch is retried on the sequential tier with the same
// per-task timeout and error semantics.
func runBatch(tasks []task, r Renderer, timeout time.Duration, workers int, sequential bool, stats *Stats, w io.Writer) []error {
	bar := progressbar.NewOptions(len(tasks),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("rendering"),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	if sequential || len(tasks) < 2 {
		return runSequential(tasks, r, timeout, bar)
	}

	outcomes, err := parallelTier(tasks, r, timeout, workers, bar)
	if err == nil {
		return outcomes
	}

	warning := fmt.Sprintf("parallel execution failed (%v); retrying sequentially", err)
	stats.Warnings = append(stats.Warnings, warning)
	fmt.Fprintf(w, "warning: %s\n", warning)
	bar.Reset()
	return runSequential(tasks, r, timeout, bar)
}

// parallelTier is the pooled execution path used by runBatch. Tests swap it
// out to drive the sequential fallback.
var parallelTier = runParallel

// runParallel fans the tasks out over a bounded worker pool. A non-nil
// error means the scheduler itself failed, not any individual task.
func runParallel(tasks []task, r Renderer, timeout time.Duration, workers int, bar *progressbar.ProgressBar) (outcomes []error, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("parallel scheduler: %v", p)
		}
	}()

	outcomes = make([]error, len(tasks))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range tasks {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = renderOne(tasks[i], r, timeout)
			bar.Add(1)
		}(i)
	}
	wg.Wait()
	return outcomes, nil
}

func runSequential(tasks []task, r Renderer, timeout time.Duration, bar *progressbar.ProgressBar) []error {
	outcomes := make([]error, len(tasks))
	for i := range tasks {
		outcomes[i] = renderOne(tasks[i], r, timeout)
		bar.Add(1)
	}
	return outcomes
}

// renderOne runs a single render under its timeout. A timed-out render
// keeps running in its goroutine but is recorded as an error; it cannot be
// interrupted mid-document. Panics inside the renderer become errors here
// so a bad chunk never aborts siblings.
func renderOne(t task, r Renderer, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("render panic: %v", p)
			}
		}()
		done <- r.Render(t.chunk, t.filename)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("generating %s: %w", t.filename, err)
		}
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("generating %s: timed out after %v", t.filename, timeout)
	}
}
