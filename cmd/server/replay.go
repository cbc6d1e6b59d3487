package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/arkui-x/app-framework-sub003/internal/scenario"
)

var errScenarioFailed = errors.New("scenario expectations failed")

var replayVerbose bool

var replayCmd = &cobra.Command{
	Use:   "replay <scenario>",
	Short: "Replay a scenario file through a fresh application",
	Long: `Loads a YAML, TOML or JSON scenario (initial configuration, modules,
launched abilities and ordered updates), runs it through a new application
and prints the outcome of every step. Exits non-zero when an expectation fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "Log every pipeline decision")
}

func runReplay(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	logger := newCLILogger(replayVerbose, sc.Bundle)
	defer func() { _ = logger.Sync() }()

	report, err := scenario.Run(cmd.Context(), sc, logger)
	if err != nil {
		return err
	}
	if err := report.Write(cmd.OutOrStdout()); err != nil {
		return err
	}
	if report.Failed() {
		return errScenarioFailed
	}
	return nil
}
