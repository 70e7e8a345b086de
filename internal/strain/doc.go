// Package strain synthesizes characteristic-strain spectra from binary
// populations.
//
// Two independent modes share the same aggregation idea: convert a
// population into squared-strain contributions per observer-frame GW
// frequency bin, then split each bin into foreground (single loudest
// source) and background (everything else).
//
//   - [Discrete]: trajectory-based; queries an evolved population at every
//     harmonic of each frequency bin and Poisson-realizes source counts.
//   - [FromSampledStrains]: sample-based; a single sorted sweep over
//     weighted strain samples.
//
// All randomness flows through explicitly passed sources, one per unit of
// parallel work, so realizations are reproducible.
package strain
