package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/jsonpdf/internal/convert"
	"github.com/pdiddy/jsonpdf/internal/ledger"
	"github.com/pdiddy/jsonpdf/internal/render"
	"github.com/pdiddy/jsonpdf/pkg/types"
)

const (
	defaultInput     = "test.json"
	defaultOutput    = "output_pdfs"
	defaultFileCount = 40
	defaultLedger    = "jsonpdf.db"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a JSON document into N paginated PDF files",
	Long: `Convert loads the input JSON document, partitions its content into
exactly N chunks, and renders each chunk to a PDF in the output directory.
Per-chunk render failures are recorded in the summary report but do not fail
the run; the exit status reflects only whether the pipeline itself completed.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("input", "i", defaultInput, "input JSON file")
	convertCmd.Flags().StringP("output", "o", defaultOutput, "output directory")
	convertCmd.Flags().IntP("files", "f", defaultFileCount, "number of output files")
	convertCmd.Flags().BoolP("sequential", "s", false, "render one file at a time instead of the worker pool")
	convertCmd.Flags().DurationP("timeout", "t", 0, "per-file render timeout (default 5m)")
	convertCmd.Flags().String("ledger", defaultLedger, "run-history database file (empty disables)")

	rootCmd.AddCommand(convertCmd)
}

// flagOrConfig resolves a string setting: an explicitly set flag wins, then
// the viper config/env value, then the flag default.
func flagOrConfig(cmd *cobra.Command, flag, key string) string {
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetString(key)
	}
	v, _ := cmd.Flags().GetString(flag)
	return v
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := flagOrConfig(cmd, "input", "convert.input")
	output := flagOrConfig(cmd, "output", "convert.output")
	ledgerPath := flagOrConfig(cmd, "ledger", "ledger.path")

	files, _ := cmd.Flags().GetInt("files")
	if !cmd.Flags().Changed("files") && viper.IsSet("convert.files") {
		files = viper.GetInt("convert.files")
	}
	sequential, _ := cmd.Flags().GetBool("sequential")
	if !cmd.Flags().Changed("sequential") && viper.IsSet("convert.sequential") {
		sequential = viper.GetBool("convert.sequential")
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 && viper.IsSet("convert.timeout") {
		timeout = viper.GetDuration("convert.timeout")
	}

	cfg := types.ConvertConfig{
		InputPath:     input,
		OutputDir:     output,
		FileCount:     files,
		Sequential:    sequential,
		RenderTimeout: timeout,
	}

	gen := render.NewGenerator(cfg.OutputDir)

	res, err := convert.Run(cfg, gen, os.Stdout)
	if err != nil {
		return err
	}

	if ledgerPath != "" {
		if err := recordRun(ledgerPath, res); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not record run in ledger: %v\n", err)
		}
	}

	printConsoleSummary(res)
	return nil
}

func recordRun(path string, res *convert.Result) error {
	store, err := ledger.Open(types.LedgerConfig{Path: path})
	if err != nil {
		return err
	}
	defer store.Close()

	return store.RecordRun(ledger.Run{
		ID:           res.RunID,
		StartedAt:    res.Stats.StartTime,
		Duration:     res.Stats.Duration,
		InputPath:    res.InputPath,
		OutputDir:    res.OutputDir,
		TotalChunks:  res.Stats.TotalChunks,
		FilesCreated: res.Stats.FilesCreated,
		SuccessRate:  res.Stats.SuccessRate(),
		Errors:       res.Stats.Errors,
	})
}

func printConsoleSummary(res *convert.Result) {
	rule := strings.Repeat("=", 60)
	fmt.Println()
	fmt.Println(rule)
	fmt.Println("CONVERSION SUMMARY")
	fmt.Println(rule)
	fmt.Printf("Files Created: %d/%d (%.1f%%)\n", res.Stats.FilesCreated, res.Stats.TotalChunks, res.Stats.SuccessRate())
	fmt.Printf("Duration: %s\n", res.Stats.Duration.Round(time.Millisecond))
	fmt.Printf("Output Directory: %s\n", res.OutputDir)
	if len(res.Stats.Errors) > 0 {
		fmt.Printf("Errors: %d\n", len(res.Stats.Errors))
	}
	fmt.Println(rule)
}
