package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/segmenter/internal/config"
	"github.com/JaimeStill/segmenter/internal/model"
	"github.com/JaimeStill/segmenter/internal/segmentations"
	"github.com/JaimeStill/segmenter/internal/segmenter"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Segment source rows and print the enriched result",
	Long: `run reads a JSON array of source rows (Actividad, Descripción, Tiempo Estándar, ...),
segments them with the configured models, and prints the result document.`,
	RunE: runSegment,
}

func init() {
	runCmd.Flags().StringP("input", "i", "-", "JSON rows file, or - for stdin")
	runCmd.Flags().StringP("output", "o", "", "Write the result to a file instead of stdout")
	runCmd.Flags().StringP("process", "p", segmentations.DefaultProcessName, "Process name")
	runCmd.Flags().Int("page-size", 0, "Subactivities per page (default from config)")
	runCmd.Flags().Int("max-pages", 0, "Page ceiling (default from config)")
	runCmd.Flags().Bool("no-cache", false, "Skip the page cache")
	runCmd.Flags().Bool("force", false, "Ignore cached pages but refresh them")
}

func runSegment(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd)

	cfg, err := config.LoadPipeline()
	if err != nil {
		return err
	}

	backend, err := model.New(&cfg.Model, logger)
	if err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	rows, err := readRows(cmd, input)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	process, _ := flags.GetString("process")
	noCache, _ := flags.GetBool("no-cache")
	force, _ := flags.GetBool("force")
	useCache := !noCache

	command := segmentations.Command{
		ProcessName:     process,
		Data:            rows,
		UseCache:        &useCache,
		ForceReclassify: force,
	}
	if flags.Changed("page-size") {
		n, _ := flags.GetInt("page-size")
		command.PageSize = &n
	}
	if flags.Changed("max-pages") {
		n, _ := flags.GetInt("max-pages")
		command.MaxPages = &n
	}

	pipeline := segmenter.New(&cfg.Segmenter, backend, nil, nil, logger)
	runner := segmentations.NewRunner(pipeline, nil, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx, command)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		logger.Warn(w)
	}

	out := cmd.OutOrStdout()
	if path, _ := flags.GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	return writeJSON(out, result)
}
