package runner_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/epilab/episim/internal/integrators"
	"github.com/epilab/episim/internal/model"
	"github.com/epilab/episim/internal/runner"
	"github.com/epilab/episim/internal/scenario"
	"github.com/epilab/episim/internal/sim"
)

// sweep runs the given scenarios and fails the test on any scenario error.
func sweep(scenarios ...scenario.Scenario) *runner.SweepResult {
	GinkgoHelper()
	result, failures := runner.New(integrators.Options{}, 2).Run(context.Background(), scenarios)
	Expect(failures).To(BeEmpty())
	return result
}

// infected extracts the daily I series for one scenario.
func infected(result *runner.SweepResult, id string) (times, values []float64) {
	GinkgoHelper()
	times, values = result.Table.Series(id, "I")
	Expect(values).NotTo(BeEmpty())
	return times, values
}

// monotoneSlack is how much a daily sample may move against the expected
// direction before it counts as a real reversal. Interpolated outputs are
// only pinned to the solver tolerance atol + rtol·|I|, both 1e-6 here.
func monotoneSlack(v float64) float64 {
	return 1e-6 * (1 + math.Abs(v))
}

func peak(times, values []float64) (t, v float64) {
	idx := 0
	for i := range values {
		if values[i] > values[idx] {
			idx = i
		}
	}
	return times[idx], values[idx]
}

var _ = Describe("Scenario sweep", func() {
	Describe("conservation", func() {
		It("keeps the compartments summing to the initial total", func() {
			s, err := scenario.FromR0(2, 14, 0.01, 365)
			Expect(err).NotTo(HaveOccurred())

			result := sweep(s)
			byTime := map[float64]float64{}
			for _, rec := range result.Table {
				byTime[rec.Time] += rec.Value
			}
			for t, total := range byTime {
				Expect(math.Abs(total - 1)).To(BeNumerically("<", 1e-8),
					"population drifted at day %v", t)
			}
		})
	})

	Describe("epidemic shape", func() {
		It("rises to a single peak and then declines when R0 > 1", func() {
			s, err := scenario.FromR0(3, 14, 0.01, 365)
			Expect(err).NotTo(HaveOccurred())

			_, values := infected(sweep(s), s.ID)
			idx := 0
			for i := range values {
				if values[i] > values[idx] {
					idx = i
				}
			}
			for i := 0; i < idx; i++ {
				Expect(values[i+1]).To(BeNumerically(">", values[i]-monotoneSlack(values[i])),
					"I fell at day %d before the peak", i+1)
			}
			for i := idx; i < len(values)-1; i++ {
				Expect(values[i+1]).To(BeNumerically("<=", values[i]+monotoneSlack(values[i])),
					"I rose at day %d after the peak", i+1)
			}
		})

		It("never grows when R0 is at the threshold", func() {
			s, err := scenario.FromR0(1, 14, 0.01, 365)
			Expect(err).NotTo(HaveOccurred())

			_, values := infected(sweep(s), s.ID)
			Expect(values[0]).To(BeNumerically("<=", 0.01+monotoneSlack(0.01)))
			for i := 0; i < len(values)-1; i++ {
				Expect(values[i+1]).To(BeNumerically("<=", values[i]+monotoneSlack(values[i])))
			}
		})
	})

	Describe("time-scale invariance", func() {
		It("doubles the peak time when the infectious period doubles at fixed R0", func() {
			short, err := scenario.FromR0(2, 14, 0.01, 365)
			Expect(err).NotTo(HaveOccurred())
			long, err := scenario.New("slow", model.FromR0(2, 28), short.Initial, scenario.Days(730))
			Expect(err).NotTo(HaveOccurred())

			tShort, _ := peak(infected(sweep(short), short.ID))
			tLong, _ := peak(infected(sweep(long), "slow"))

			Expect(math.Abs(tLong - 2*tShort)).To(BeNumerically("<=", 4),
				"peaks at day %v and %v", tShort, tLong)
		})
	})

	Describe("determinism", func() {
		It("produces identical tables on repeated runs", func() {
			scenarios := make([]scenario.Scenario, 0, 4)
			for _, r0 := range []float64{1, 2, 3, 4} {
				s, err := scenario.FromR0(r0, 14, 0.01, 120)
				Expect(err).NotTo(HaveOccurred())
				scenarios = append(scenarios, s)
			}

			first := sweep(scenarios...)
			second := sweep(scenarios...)
			Expect(second.Table).To(Equal(first.Table))
		})

		It("matches a solo solve for every member of the sweep", func() {
			scenarios := make([]scenario.Scenario, 0, 5)
			for _, r0 := range []float64{1, 1.5, 2, 3, 5} {
				s, err := scenario.FromR0(r0, 14, 0.01, 120)
				Expect(err).NotTo(HaveOccurred())
				scenarios = append(scenarios, s)
			}

			result := sweep(scenarios...)

			for _, s := range scenarios {
				sys := model.NewSIR(s.Params)
				traj, err := integrators.Solve(context.Background(), sys, s.Initial, 0, s.Times, integrators.Options{})
				Expect(err).NotTo(HaveOccurred())

				solo := runner.FromTrajectory(s.ID, traj)
				swept := make(runner.Table, 0, len(solo))
				for _, rec := range result.Table {
					if rec.Scenario == s.ID {
						swept = append(swept, rec)
					}
				}
				Expect(swept).To(Equal(solo), "scenario %s diverged inside the sweep", s.ID)
			}
		})
	})

	Describe("reference outbreak", func() {
		var times, values []float64

		BeforeEach(func() {
			s, err := scenario.FromR0(2, 14, 0.01, 365)
			Expect(err).NotTo(HaveOccurred())
			times, values = infected(sweep(s), s.ID)
		})

		It("grows from the seeded prevalence", func() {
			Expect(values[0]).To(BeNumerically(">", 0.01))
		})

		It("peaks in the expected window", func() {
			tPeak, vPeak := peak(times, values)
			Expect(vPeak).To(BeNumerically(">", 0.1))
			Expect(vPeak).To(BeNumerically("<", 0.3))
			Expect(tPeak).To(BeNumerically(">", 50))
			Expect(tPeak).To(BeNumerically("<", 90))
		})

		It("burns out before day 200", func() {
			for i := range times {
				if times[i] >= 200 {
					Expect(values[i]).To(BeNumerically("<", 0.01))
				}
			}
		})
	})

	Describe("anomaly surfacing", func() {
		It("reports convergence failure when the step budget is exhausted", func() {
			s, err := scenario.FromR0(2, 14, 0.01, 365)
			Expect(err).NotTo(HaveOccurred())

			_, failures := runner.New(integrators.Options{MaxSteps: 2}, 1).Run(context.Background(), []scenario.Scenario{s})
			Expect(failures).To(HaveLen(1))
			Expect(failures[0]).To(MatchError(sim.ErrConvergence))
		})
	})
})
