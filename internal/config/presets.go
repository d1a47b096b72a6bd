package config

import "sort"

// Presets are named sweep configurations for common questions: the
// baseline R0 comparison, the epidemic threshold, and rough disease
// archetypes.
var Presets = map[string]*Config{
	"baseline": {
		Days: 365,
		Scenarios: []ScenarioConfig{
			{R0: 1.0, InfectiousPeriod: 14, I0: f64(0.01)},
			{R0: 2.0, InfectiousPeriod: 14, I0: f64(0.01)},
			{R0: 3.0, InfectiousPeriod: 14, I0: f64(0.01)},
			{R0: 4.0, InfectiousPeriod: 14, I0: f64(0.01)},
			{R0: 5.0, InfectiousPeriod: 14, I0: f64(0.01)},
		},
	},
	"threshold": {
		Days: 365,
		Scenarios: []ScenarioConfig{
			{R0: 0.8, InfectiousPeriod: 14, I0: f64(0.01)},
			{R0: 0.9, InfectiousPeriod: 14, I0: f64(0.01)},
			{R0: 1.0, InfectiousPeriod: 14, I0: f64(0.01)},
			{R0: 1.1, InfectiousPeriod: 14, I0: f64(0.01)},
			{R0: 1.2, InfectiousPeriod: 14, I0: f64(0.01)},
		},
	},
	"flu": {
		Days: 180,
		Scenarios: []ScenarioConfig{
			{ID: "seasonal", R0: 1.3, InfectiousPeriod: 5, I0: f64(0.001)},
			{ID: "pandemic", R0: 2.0, InfectiousPeriod: 5, I0: f64(0.001)},
		},
	},
	"measles": {
		Days: 120,
		Scenarios: []ScenarioConfig{
			{ID: "unvaccinated", R0: 15, InfectiousPeriod: 8, I0: f64(0.0001)},
			{ID: "partial-immunity", R0: 15, InfectiousPeriod: 8, I0: f64(0.0001), RInit: 0.9},
		},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
