// Package model provides the compartmental epidemic equations integrated
// by the engine.
//
// [SIR] implements [sim.System], and additionally [sim.Bounded] (no
// negative compartments) and [sim.Conserver] (S+I+R constant), which the
// integrator uses to police its own step control.
package model
