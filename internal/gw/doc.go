// Package gw provides the gravitational-wave physics relations shared by
// the evolution integrator and the strain synthesis engine:
//
//   - Kepler relations between total mass, separation and orbital frequency
//   - chirp mass and single-source strain amplitude
//   - Peters (1964) GW-driven hardening and circularization rates
//   - Peters & Mathews (1963) harmonic power distribution g(n,e)
//   - the rate x dwell-time x volume factor converting a binary's
//     residence near a frequency into an expected source count
//
// Everything is cgs; see [github.com/nsvane/gwpop/internal/units].
package gw
