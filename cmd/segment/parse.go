package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/segmenter/internal/segmenter"
)

var errNoEnvelope = errors.New("no JSON envelope recovered")

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Recover and normalize subactivities from raw model output",
	Long: `parse runs the recovery parser and schema salvage on a saved model reply
and prints the normalized page, as the pipeline would accept it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

type parseReport struct {
	Strategy      string                  `json:"strategy"`
	Valid         bool                    `json:"valid"`
	Declared      int                     `json:"numero_subactividades"`
	Subactivities []segmenter.Subactivity `json:"subactividades"`
}

func runParse(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	}

	raw, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	envelope, strategy := segmenter.ParseDetailed(string(raw))
	if envelope == nil {
		return errNoEnvelope
	}

	salvaged := segmenter.Salvage(envelope)
	subs := segmenter.FixDependencies(segmenter.Normalize(segmenter.Records(salvaged)))

	return writeJSON(cmd.OutOrStdout(), parseReport{
		Strategy:      strategy,
		Valid:         segmenter.Validate(salvaged),
		Declared:      segmenter.Declared(salvaged),
		Subactivities: subs,
	})
}
