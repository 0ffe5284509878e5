package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/segmenter/internal/enrichment"
)

var rootCmd = &cobra.Command{
	Use:   "segment",
	Short: "Decompose AS-IS process activities into classified subactivities",
	Long: `segment runs the paginated segmentation pipeline against the configured
Gemini models without the HTTP service, database, or blob storage.

Model and pipeline settings come from config.toml and SEGMENTER_* variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(parseCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log pipeline state transitions")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := charmlog.InfoLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = charmlog.DebugLevel
	}

	handler := charmlog.NewWithOptions(cmd.ErrOrStderr(), charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
		Formatter:       charmlog.TextFormatter,
	})
	return slog.New(handler)
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// readRows decodes a JSON array of source rows.
func readRows(cmd *cobra.Command, path string) ([]enrichment.Row, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	var rows []enrichment.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
