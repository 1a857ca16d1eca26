package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/jsonpdf/internal/ledger"
	"github.com/pdiddy/jsonpdf/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent conversion runs from the run ledger",
	Long: `History reads the SQLite run ledger and prints the most recent
conversion runs, newest first, with their outcome and any recorded errors.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 10, "maximum number of runs to list")
	historyCmd.Flags().Bool("errors", false, "include each run's recorded errors")
	historyCmd.Flags().String("ledger", defaultLedger, "run-history database file")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := flagOrConfig(cmd, "ledger", "ledger.path")
	limit, _ := cmd.Flags().GetInt("limit")
	showErrors, _ := cmd.Flags().GetBool("errors")

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no run ledger at %s", path)
	}

	store, err := ledger.Open(types.LedgerConfig{Path: path})
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s  %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.ID)
		fmt.Printf("  %s -> %s\n", r.InputPath, r.OutputDir)
		fmt.Printf("  %d/%d files (%.1f%%) in %s\n",
			r.FilesCreated, r.TotalChunks, r.SuccessRate, r.Duration.Round(time.Millisecond))
		if showErrors {
			messages, err := store.RunErrors(r.ID)
			if err != nil {
				return err
			}
			for _, msg := range messages {
				fmt.Printf("  error: %s\n", msg)
			}
		}
	}
	return nil
}
