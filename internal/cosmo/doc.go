// Package cosmo provides the cosmographic conversions consumed by the
// binary evolution and GW synthesis engines.
//
// The engines only depend on the [Cosmology] interface: pure, monotonic
// conversions between redshift, lookback time, and comoving distance,
// defined for scale factors in (0, 1]. [FlatLCDM] is the concrete
// implementation, a flat Lambda-CDM model with tabulated integrals.
package cosmo
