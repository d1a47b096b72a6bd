// Package integrators advances a [sim.System] through caller-requested
// observation times with adaptive, error-controlled stepping.
//
// [Solve] drives a Dormand-Prince 5(4) embedded pair ([RK45]) and falls
// back to an A-stable implicit trapezoidal rule ([Trapezoid]) when the
// explicit scheme shows stiffness. Observation times that fall inside an
// accepted step are filled in by the step's dense-output polynomial, so
// requesting many output points costs no extra steps.
package integrators
