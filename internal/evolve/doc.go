// Package evolve integrates binary populations through discrete
// separation steps from their initial separation down to the mutual ISCO,
// and answers log-log interpolation queries against the recorded
// trajectories.
//
// An [Evolution] owns the trajectory table for one population. Hardening
// physics is pluggable through the [Stepper] interface:
//
//   - [MagicDelay]: instantaneous merger after a log-normal time delay
//   - [GWDriven]: self-consistent Peters (1964) GW-driven inspiral
//
// The lifecycle is strict: construct, [Evolution.Evolve] once, then query
// with [Evolution.At] and the derived accessors. Queries before Evolve
// fail with [NotEvolvedError].
package evolve
