package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/epilab/episim/internal/runner"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Summary writes a human-readable sweep report: one metrics row per
// successful scenario, then any failures.
func Summary(w io.Writer, result *runner.SweepResult, failures []runner.ScenarioError) {
	fmt.Fprintln(w, titleStyle.Render("sweep summary"))
	fmt.Fprintln(w, dimStyle.Render("run "+result.RunID))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "scenario\tpeak\tpeak day\tfinal size\tdrift")
	for _, id := range result.Table.Scenarios() {
		m := result.Metrics[id]
		fmt.Fprintf(tw, "%s\t%.4f\t%.1f\t%.4f\t%.2e\n",
			id, m["peak_prevalence"], m["peak_time"], m["final_size"], m["conservation_drift"])
	}
	tw.Flush()

	for _, f := range failures {
		fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("failed: %v", f)))
	}
}
