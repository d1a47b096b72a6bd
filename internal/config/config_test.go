package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/epilab/episim/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Days != DefaultDays {
		t.Errorf("days = %d, want %d", cfg.Days, DefaultDays)
	}
	if cfg.Tolerances.Absolute != DefaultTolerance || cfg.Tolerances.Relative != DefaultTolerance {
		t.Errorf("tolerances = %+v", cfg.Tolerances)
	}
	if len(cfg.Scenarios) != 1 || cfg.Scenarios[0].R0 != 2.0 {
		t.Errorf("default scenarios = %+v", cfg.Scenarios)
	}
	if cfg.Scenarios[0].I0 == nil || *cfg.Scenarios[0].I0 != DefaultI0 {
		t.Errorf("default I0 = %v", cfg.Scenarios[0].I0)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")

	orig := &Config{
		Days:    90,
		Workers: 3,
		Tolerances: TolerancesConfig{
			Absolute: 1e-8,
			Relative: 1e-8,
			MaxStep:  0.5,
		},
		Scenarios: []ScenarioConfig{
			{ID: "mild", R0: 1.2, InfectiousPeriod: 7, I0: f64(0.005)},
			{ID: "severe", Beta: 0.4, Gamma: 0.1, I0: f64(0.02), RInit: 0.1},
		},
	}

	if err := Save(path, orig); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Days != 90 || loaded.Workers != 3 {
		t.Errorf("loaded %+v", loaded)
	}
	if loaded.Tolerances != orig.Tolerances {
		t.Errorf("tolerances = %+v, want %+v", loaded.Tolerances, orig.Tolerances)
	}
	if len(loaded.Scenarios) != 2 {
		t.Fatalf("scenarios = %+v", loaded.Scenarios)
	}
	severe := loaded.Scenarios[1]
	if severe.ID != "severe" || severe.Beta != 0.4 || severe.Gamma != 0.1 || severe.RInit != 0.1 {
		t.Errorf("severe scenario = %+v", severe)
	}
	if severe.I0 == nil || *severe.I0 != 0.02 {
		t.Errorf("severe I0 = %v", severe.I0)
	}
}

func TestLoad_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	raw := "scenarios:\n  - r0: 3.0\n"
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Days != DefaultDays {
		t.Errorf("days = %d, want default %d", cfg.Days, DefaultDays)
	}
	if cfg.Tolerances.Absolute != DefaultTolerance {
		t.Errorf("absolute tolerance = %v", cfg.Tolerances.Absolute)
	}
	if len(cfg.Scenarios) != 1 || cfg.Scenarios[0].R0 != 3.0 {
		t.Errorf("scenarios = %+v", cfg.Scenarios)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestMaterialize(t *testing.T) {
	cfg := &Config{
		Days: 30,
		Scenarios: []ScenarioConfig{
			{R0: 2.0, InfectiousPeriod: 10},
			{ID: "explicit", Beta: 0.3, Gamma: 0.1, I0: f64(0.02)},
		},
	}

	scenarios, err := cfg.Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("got %d scenarios", len(scenarios))
	}

	first := scenarios[0]
	if first.ID != "r0=2.00" {
		t.Errorf("auto ID = %q", first.ID)
	}
	if math.Abs(first.Params.Beta-0.2) > 1e-12 {
		t.Errorf("beta = %v, want 0.2", first.Params.Beta)
	}
	if first.Initial[1] != DefaultI0 {
		t.Errorf("default I0 not applied: %v", first.Initial)
	}
	if len(first.Times) != 30 {
		t.Errorf("len(times) = %d, want 30", len(first.Times))
	}

	second := scenarios[1]
	if second.ID != "explicit" || second.Params.Gamma != 0.1 {
		t.Errorf("explicit scenario = %+v", second)
	}
}

func TestLoad_ExplicitZeroSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	raw := "scenarios:\n  - r0: 2.0\n    i0: 0\n"
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// i0: 0 is a deliberate seed-free run, not an omission.
	if cfg.Scenarios[0].I0 == nil || *cfg.Scenarios[0].I0 != 0 {
		t.Fatalf("I0 = %v, want explicit 0", cfg.Scenarios[0].I0)
	}
}

func TestMaterialize_ExplicitZeroSeed(t *testing.T) {
	cfg := &Config{
		Days:      10,
		Scenarios: []ScenarioConfig{{R0: 2, I0: f64(0)}},
	}

	scenarios, err := cfg.Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if got := scenarios[0].Initial[1]; got != 0 {
		t.Errorf("seed-free run got I0 = %v", got)
	}
}

func TestMaterialize_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no scenarios", Config{Days: 10}},
		{"no parameters", Config{Days: 10, Scenarios: []ScenarioConfig{{I0: f64(0.01)}}}},
		{"negative beta", Config{Days: 10, Scenarios: []ScenarioConfig{{Beta: -1, Gamma: 0.1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Materialize(); !errors.Is(err, sim.ErrInvalidInput) {
				t.Errorf("expected invalid-input error, got %v", err)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	want := []string{"baseline", "flu", "measles", "threshold"}
	if len(names) != len(want) {
		t.Fatalf("presets = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("preset[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if GetPreset("baseline") == nil {
		t.Error("baseline preset missing")
	}
	if GetPreset("unknown") != nil {
		t.Error("unknown preset should be nil")
	}

	// Every preset must materialize cleanly.
	for _, name := range names {
		if _, err := GetPreset(name).Materialize(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}
