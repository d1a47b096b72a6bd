package viz

import (
	"strings"
	"testing"

	"github.com/epilab/episim/internal/runner"
	"github.com/epilab/episim/internal/sim"
)

func twoScenarioTable() runner.Table {
	a := &sim.Trajectory{
		Times:  []float64{1, 2, 3},
		States: []sim.State{{0.9, 0.1, 0}, {0.7, 0.2, 0.1}, {0.6, 0.15, 0.25}},
	}
	b := &sim.Trajectory{
		Times:  []float64{1, 2, 3},
		States: []sim.State{{0.95, 0.05, 0}, {0.9, 0.08, 0.02}, {0.85, 0.1, 0.05}},
	}
	table := runner.FromTrajectory("fast", a)
	return append(table, runner.FromTrajectory("slow", b)...)
}

func TestPlot(t *testing.T) {
	out := Plot(twoScenarioTable(), "I", 40, 8)

	if !strings.Contains(out, "I(t)") {
		t.Errorf("caption missing:\n%s", out)
	}
	for _, id := range []string{"fast", "slow"} {
		if !strings.Contains(out, id) {
			t.Errorf("legend missing %q:\n%s", id, out)
		}
	}
	if len(strings.Split(out, "\n")) < 8 {
		t.Errorf("chart too short:\n%s", out)
	}
}

func TestPlot_NoData(t *testing.T) {
	if out := Plot(nil, "I", 40, 8); out != "no data" {
		t.Errorf("empty table plot = %q", out)
	}

	// A compartment no record carries is also empty.
	if out := Plot(twoScenarioTable(), "X", 40, 8); out != "no data" {
		t.Errorf("unknown compartment plot = %q", out)
	}
}

func TestSeriesColors_Cycle(t *testing.T) {
	colors := seriesColors(8)
	if len(colors) != 8 {
		t.Fatalf("got %d colors", len(colors))
	}
	if colors[0] != colors[6] {
		t.Error("palette should repeat after exhaustion")
	}
}
