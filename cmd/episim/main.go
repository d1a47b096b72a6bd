package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/epilab/episim/internal/config"
)

var (
	r0Values         []float64
	infectiousPeriod float64
	beta             float64
	gamma            float64
	days             int
	i0               float64
	rInit            float64
	absTol           float64
	relTol           float64
	maxStep          float64
	workers          int
	preset           string
	configFile       string
	compartment      string
	plotWidth        int
	plotHeight       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "episim",
		Short:         "SIR epidemic scenario engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "run scenarios and print the result table as CSV",
		RunE:  runSimulate,
	}
	addScenarioFlags(simulateCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a sweep from a YAML config file",
		RunE:  runSimulate,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.MarkFlagRequired("config")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "run scenarios and chart a compartment in the terminal",
		RunE:  runPlot,
	}
	addScenarioFlags(plotCmd)
	plotCmd.Flags().StringVar(&compartment, "compartment", "I", "compartment to chart (S, I, or R)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 90, "chart width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 20, "chart height")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run scenarios with a live terminal view",
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list named sweep presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("%s (%d scenarios, %d days)\n", name, len(cfg.Scenarios), cfg.Days)
			}
			return nil
		},
	}

	rootCmd.AddCommand(simulateCmd, sweepCmd, plotCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&r0Values, "r0", nil, "basic reproduction number (repeat for a sweep)")
	cmd.Flags().Float64Var(&infectiousPeriod, "infectious-period", config.DefaultInfectiousPeriod, "mean infectious period in days")
	cmd.Flags().Float64Var(&beta, "beta", 0, "transmission rate (overrides --r0 with --gamma)")
	cmd.Flags().Float64Var(&gamma, "gamma", 0, "removal rate (overrides --r0 with --beta)")
	cmd.Flags().IntVar(&days, "days", config.DefaultDays, "number of daily observation points")
	cmd.Flags().Float64Var(&i0, "i0", config.DefaultI0, "initial infectious fraction")
	cmd.Flags().Float64Var(&rInit, "r-init", 0, "initial removed fraction")
	cmd.Flags().Float64Var(&absTol, "atol", config.DefaultTolerance, "absolute error tolerance")
	cmd.Flags().Float64Var(&relTol, "rtol", config.DefaultTolerance, "relative error tolerance")
	cmd.Flags().Float64Var(&maxStep, "max-step", 0, "upper bound on the internal step size")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel scenario workers (0 = all CPUs)")
	cmd.Flags().StringVar(&preset, "preset", "", "named sweep preset")
	cmd.Flags().StringVar(&configFile, "config", "", "sweep config file (yaml)")
}
