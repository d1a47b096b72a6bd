package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/epilab/episim/internal/config"
	"github.com/epilab/episim/internal/export"
	"github.com/epilab/episim/internal/integrators"
	"github.com/epilab/episim/internal/logging"
	"github.com/epilab/episim/internal/runner"
	"github.com/epilab/episim/internal/scenario"
	"github.com/epilab/episim/internal/tui"
	"github.com/epilab/episim/internal/viz"
)

// resolveConfig applies the precedence preset < config file < flags, the
// same ordering the scenario parameters follow everywhere.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		c := *p
		cfg = &c
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("days") {
		cfg.Days = days
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("atol") {
		cfg.Tolerances.Absolute = absTol
	}
	if cmd.Flags().Changed("rtol") {
		cfg.Tolerances.Relative = relTol
	}
	if cmd.Flags().Changed("max-step") {
		cfg.Tolerances.MaxStep = maxStep
	}

	if cmd.Flags().Changed("beta") || cmd.Flags().Changed("gamma") {
		cfg.Scenarios = []config.ScenarioConfig{
			{Beta: beta, Gamma: gamma, I0: &i0, RInit: rInit},
		}
	} else if cmd.Flags().Changed("r0") {
		cfg.Scenarios = make([]config.ScenarioConfig, 0, len(r0Values))
		for _, r0 := range r0Values {
			cfg.Scenarios = append(cfg.Scenarios, config.ScenarioConfig{
				R0:               r0,
				InfectiousPeriod: infectiousPeriod,
				I0:               &i0,
				RInit:            rInit,
			})
		}
	}

	return cfg, nil
}

func resolveSweep(cmd *cobra.Command) ([]scenario.Scenario, integrators.Options, int, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, integrators.Options{}, 0, err
	}
	scenarios, err := cfg.Materialize()
	if err != nil {
		return nil, integrators.Options{}, 0, err
	}
	opts := integrators.Options{
		AbsTol:  cfg.Tolerances.Absolute,
		RelTol:  cfg.Tolerances.Relative,
		MaxStep: cfg.Tolerances.MaxStep,
	}
	return scenarios, opts, cfg.Workers, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	scenarios, opts, numWorkers, err := resolveSweep(cmd)
	if err != nil {
		return err
	}

	logger := logging.New()
	result, failures := runner.New(opts, numWorkers).WithLogger(logger).Run(context.Background(), scenarios)

	if err := export.WriteCSV(os.Stdout, result.Table); err != nil {
		return err
	}
	export.Summary(os.Stderr, result, failures)

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d scenarios failed", len(failures), len(scenarios))
	}
	return nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	scenarios, opts, numWorkers, err := resolveSweep(cmd)
	if err != nil {
		return err
	}

	logger := logging.New()
	result, failures := runner.New(opts, numWorkers).WithLogger(logger).Run(context.Background(), scenarios)

	fmt.Println(viz.Plot(result.Table, compartment, plotWidth, plotHeight))
	export.Summary(os.Stderr, result, failures)

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d scenarios failed", len(failures), len(scenarios))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	scenarios, opts, numWorkers, err := resolveSweep(cmd)
	if err != nil {
		return err
	}

	ctx := logging.NewContext(context.Background(), logging.New())
	result, failures, err := tui.Run(ctx, scenarios, opts, numWorkers)
	if err != nil {
		return err
	}
	if result == nil {
		// Dismissed before the sweep finished.
		return nil
	}

	export.Summary(os.Stderr, result, failures)
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d scenarios failed", len(failures), len(scenarios))
	}
	return nil
}
