// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/jsonpdf/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.LedgerConfig{Path: filepath.Join(t.TempDir(), "ledger.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(types.LedgerConfig{})
	require.Error(t, err)
}

func TestRecordAndListRuns(t *testing.T) {
	s := openTestStore(t)

	run := Run{
		ID:           "run-1",
		StartedAt:    time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Duration:     1500 * time.Millisecond,
		InputPath:    "data/input.json",
		OutputDir:    "output_pdfs",
		TotalChunks:  10,
		FilesCreated: 9,
		SuccessRate:  90.0,
		Errors:       []string{"generating output_03.pdf: timed out after 30ms"},
	}
	require.NoError(t, s.RecordRun(run))

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, got.StartedAt.Equal(run.StartedAt))
	assert.Equal(t, run.Duration, got.Duration)
	assert.Equal(t, run.InputPath, got.InputPath)
	assert.Equal(t, run.TotalChunks, got.TotalChunks)
	assert.Equal(t, run.FilesCreated, got.FilesCreated)
	assert.InDelta(t, run.SuccessRate, got.SuccessRate, 0.001)

	messages, err := s.RunErrors(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Errors, messages)
}

func TestListRunsNewestFirstAndLimited(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordRun(Run{
			ID:          fmt.Sprintf("run-%d", i),
			StartedAt:   base.Add(time.Duration(i) * time.Hour),
			InputPath:   "in.json",
			OutputDir:   "out",
			TotalChunks: 1,
		}))
	}

	runs, err := s.ListRuns(3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-4", runs[0].ID)
	assert.Equal(t, "run-3", runs[1].ID)
	assert.Equal(t, "run-2", runs[2].ID)
}

func TestRunErrorsEmptyForCleanRun(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RecordRun(Run{ID: "clean", StartedAt: time.Now(), TotalChunks: 2, FilesCreated: 2, SuccessRate: 100}))

	messages, err := s.RunErrors("clean")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestRecordRunDuplicateIDFails(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RecordRun(Run{ID: "dup", StartedAt: time.Now()}))
	require.Error(t, s.RecordRun(Run{ID: "dup", StartedAt: time.Now()}))
}
