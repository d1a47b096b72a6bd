// Package sim holds the engine-core vocabulary shared by the model,
// integrator, and sweep layers: dense state vectors, the [System]
// interface the equations implement, the [Trajectory] the solver produces,
// and the typed errors ([InputError], [ConvergenceError], [AnomalyError])
// that cross package boundaries.
package sim
