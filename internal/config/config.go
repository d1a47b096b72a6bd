package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/epilab/episim/internal/model"
	"github.com/epilab/episim/internal/scenario"
	"github.com/epilab/episim/internal/sim"
)

const (
	DefaultDays             = 365
	DefaultInfectiousPeriod = 14.0
	DefaultI0               = 0.01
	DefaultTolerance        = 1e-6
)

// Config is the root sweep configuration.
type Config struct {
	Days       int              `yaml:"days"`
	Workers    int              `yaml:"workers"`
	Tolerances TolerancesConfig `yaml:"tolerances"`
	Scenarios  []ScenarioConfig `yaml:"scenarios"`
}

type TolerancesConfig struct {
	Absolute float64 `yaml:"absolute"`
	Relative float64 `yaml:"relative"`
	MaxStep  float64 `yaml:"max_step"`
}

// ScenarioConfig describes one scenario. Parameters come either as
// (r0, infectious_period) or as explicit (beta, gamma); the explicit pair
// wins when both are set. I0 is a pointer so an explicit `i0: 0`
// (seed-free run) is distinguishable from an omitted one (default seed).
type ScenarioConfig struct {
	ID               string   `yaml:"id"`
	R0               float64  `yaml:"r0"`
	InfectiousPeriod float64  `yaml:"infectious_period"`
	Beta             float64  `yaml:"beta"`
	Gamma            float64  `yaml:"gamma"`
	I0               *float64 `yaml:"i0,omitempty"`
	RInit            float64  `yaml:"r_init"`
}

func DefaultConfig() *Config {
	return &Config{
		Days: DefaultDays,
		Tolerances: TolerancesConfig{
			Absolute: DefaultTolerance,
			Relative: DefaultTolerance,
		},
		Scenarios: []ScenarioConfig{
			{R0: 2.0, InfectiousPeriod: DefaultInfectiousPeriod, I0: f64(DefaultI0)},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Scenarios = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Materialize turns the scenario entries into validated engine scenarios.
func (c *Config) Materialize() ([]scenario.Scenario, error) {
	if len(c.Scenarios) == 0 {
		return nil, &sim.InputError{Field: "scenarios", Reason: "empty"}
	}

	days := c.Days
	if days <= 0 {
		days = DefaultDays
	}

	scenarios := make([]scenario.Scenario, 0, len(c.Scenarios))
	for i, sc := range c.Scenarios {
		params, err := sc.params()
		if err != nil {
			return nil, err
		}

		i0 := DefaultI0
		if sc.I0 != nil {
			i0 = *sc.I0
		}

		id := sc.ID
		if id == "" {
			id = fmt.Sprintf("r0=%.2f", params.R0())
		}

		s, err := scenario.New(id, params, model.InitialState(i0, sc.RInit), scenario.Days(days))
		if err != nil {
			return nil, fmt.Errorf("scenario %d (%s): %w", i, id, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// f64 returns a pointer to v, for the optional numeric fields.
func f64(v float64) *float64 { return &v }

func (sc ScenarioConfig) params() (model.Parameters, error) {
	if sc.Beta != 0 || sc.Gamma != 0 {
		return model.Parameters{Beta: sc.Beta, Gamma: sc.Gamma}, nil
	}
	if sc.R0 == 0 {
		return model.Parameters{}, &sim.InputError{Field: "scenario", Reason: "needs r0 or beta/gamma"}
	}
	period := sc.InfectiousPeriod
	if period == 0 {
		period = DefaultInfectiousPeriod
	}
	return model.FromR0(sc.R0, period), nil
}
