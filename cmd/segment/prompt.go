package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/segmenter/internal/enrichment"
	"github.com/JaimeStill/segmenter/internal/segmentations"
	"github.com/JaimeStill/segmenter/internal/segmenter"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the prompt sent for one page",
	RunE:  runPrompt,
}

func init() {
	promptCmd.Flags().StringP("input", "i", "-", "JSON rows file, or - for stdin")
	promptCmd.Flags().StringP("process", "p", segmentations.DefaultProcessName, "Process name")
	promptCmd.Flags().Int("page", 0, "Zero-based page index")
	promptCmd.Flags().Int("page-size", 5, "Subactivities per page")
}

func runPrompt(cmd *cobra.Command, _ []string) error {
	input, _ := cmd.Flags().GetString("input")
	rows, err := readRows(cmd, input)
	if err != nil {
		return err
	}

	process, _ := cmd.Flags().GetString("process")
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")

	prompt, err := segmenter.BuildPrompt(segmenter.PromptInput{
		Process:  process,
		AsIs:     enrichment.AsIsText(rows),
		Start:    page * pageSize,
		PageSize: pageSize,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt)
	return err
}
