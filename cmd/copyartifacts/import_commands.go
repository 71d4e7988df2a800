package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"copyartifacts/internal/config"
	"copyartifacts/internal/manifest"
	"copyartifacts/internal/session"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var flatten, move, jsonOut bool

	cmd := &cobra.Command{
		Use:   "import MANIFEST",
		Short: "Transfer the leftover files of an import run into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, m, err := loadRun(ctx, args[0])
			if err != nil {
				return err
			}
			opts := session.OptionsFromConfig(cfg)
			prog := newProgress(cmd.ErrOrStderr(), !jsonOut && isTerminal(cmd.ErrOrStderr()))
			opts.Observer = prog.observe
			s := session.New(opts, logger)
			if err := m.Replay(s, cfg.ResolveDest); err != nil {
				return err
			}

			report, err := s.OnSessionEnd(cmd.Context(),
				boolFlag(cmd, "flatten", flatten, cfg.Artifacts.Flatten),
				boolFlag(cmd, "move", move, cfg.Artifacts.Move),
			)
			prog.finish()
			if err != nil {
				return err
			}
			if err := writeReport(cmd, report, jsonOut); err != nil {
				return err
			}
			if report.Failed() {
				return fmt.Errorf("import finished with %d failed, %d canceled, and %d failed source trees",
					report.Summary.Failed, report.Summary.Canceled, report.Summary.TreeErrors)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flatten, "flatten", false, "Place every artifact directly in its destination folder")
	cmd.Flags().BoolVar(&move, "move", false, "Move artifacts instead of copying them")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the session report as JSON")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var flatten, jsonOut bool

	cmd := &cobra.Command{
		Use:   "plan MANIFEST",
		Short: "Show where each leftover file would go without touching the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, m, err := loadRun(ctx, args[0])
			if err != nil {
				return err
			}
			s := session.New(session.OptionsFromConfig(cfg), logger)
			if err := m.Replay(s, cfg.ResolveDest); err != nil {
				return err
			}
			report, err := s.Plan(cmd.Context(), boolFlag(cmd, "flatten", flatten, cfg.Artifacts.Flatten))
			if err != nil {
				return err
			}
			return writeReport(cmd, report, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&flatten, "flatten", false, "Place every artifact directly in its destination folder")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the plan as JSON")
	return cmd
}

func loadRun(ctx *commandContext, manifestPath string) (*config.Config, *slog.Logger, *manifest.Manifest, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logging: %w", err)
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, m, nil
}

// boolFlag prefers an explicitly set flag over the configured value.
func boolFlag(cmd *cobra.Command, name string, flagValue, configured bool) bool {
	if cmd.Flags().Changed(name) {
		return flagValue
	}
	return configured
}

func writeReport(cmd *cobra.Command, report session.Report, jsonOut bool) error {
	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	renderReport(cmd.OutOrStdout(), report, isTerminal(cmd.OutOrStdout()))
	return nil
}
