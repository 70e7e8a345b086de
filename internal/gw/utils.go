package gw

import (
	"math"

	"github.com/nsvane/gwpop/internal/units"
)

// ChirpMass returns the chirp mass of a binary with component masses
// m1, m2 [g].
func ChirpMass(m1, m2 float64) float64 {
	return math.Pow(m1*m2, 0.6) / math.Pow(m1+m2, 0.2)
}

// RadISCO returns the mutual innermost-stable-circular-orbit separation
// for a binary of component masses m1, m2 [g]: three Schwarzschild radii
// of the total mass.
func RadISCO(m1, m2 float64) float64 {
	return 6.0 * units.NWTG * (m1 + m2) / (units.SPLC * units.SPLC)
}

// KeplerFreqFromSepa returns the orbital frequency [1/s] of a binary with
// total mass mtot [g] at separation sepa [cm].
func KeplerFreqFromSepa(mtot, sepa float64) float64 {
	return math.Sqrt(units.NWTG*mtot/(sepa*sepa*sepa)) / (2.0 * math.Pi)
}

// KeplerSepaFromFreq returns the separation [cm] of a binary with total
// mass mtot [g] at orbital frequency freq [1/s].
func KeplerSepaFromFreq(mtot, freq float64) float64 {
	of := 2.0 * math.Pi * freq
	return math.Cbrt(units.NWTG * mtot / (of * of))
}

// FrstFromFobs converts an observer-frame frequency to rest-frame at
// redshift z.
func FrstFromFobs(fobs, z float64) float64 {
	return fobs * (1.0 + z)
}

// StrainSource returns the sky- and polarization-averaged strain
// amplitude of a single circular binary: chirp mass mchirp [g], comoving
// distance dcom [cm], rest-frame orbital frequency frstOrb [1/s].
func StrainSource(mchirp, dcom, frstOrb float64) float64 {
	gm := units.NWTG * mchirp
	c2 := units.SPLC * units.SPLC
	return (8.0 / math.Sqrt(10.0)) *
		math.Pow(gm, 5.0/3.0) * math.Pow(2.0*math.Pi*frstOrb, 2.0/3.0) /
		(c2 * c2 * dcom)
}

// HardeningDadt returns the Peters (1964) GW-driven hardening rate da/dt
// [cm/s] for component masses m1, m2 [g], separation sepa [cm], and
// eccentricity eccen. The rate is negative: separation decays.
func HardeningDadt(m1, m2, sepa, eccen float64) float64 {
	g := units.NWTG
	c5 := math.Pow(units.SPLC, 5)
	rate := -64.0 / 5.0 * g * g * g * m1 * m2 * (m1 + m2) / (c5 * sepa * sepa * sepa)
	if eccen != 0 {
		e2 := eccen * eccen
		fe := (1.0 + 73.0/24.0*e2 + 37.0/96.0*e2*e2) / math.Pow(1.0-e2, 3.5)
		rate *= fe
	}
	return rate
}

// DedtGW returns the Peters (1964) GW-driven eccentricity decay rate
// de/dt [1/s]. The rate is non-positive: orbits circularize.
func DedtGW(m1, m2, sepa, eccen float64) float64 {
	if eccen == 0 {
		return 0.0
	}
	g := units.NWTG
	c5 := math.Pow(units.SPLC, 5)
	e2 := eccen * eccen
	sepa4 := sepa * sepa * sepa * sepa
	return -304.0 / 15.0 * eccen * g * g * g * m1 * m2 * (m1 + m2) /
		(c5 * sepa4) * (1.0 + 121.0/304.0*e2) / math.Pow(1.0-e2, 2.5)
}

// DfdtFromDadt converts a hardening-rate magnitude [cm/s] into an orbital
// frequency chirp rate df/dt [1/s^2] at separation sepa and rest-frame
// orbital frequency frstOrb. A positive input magnitude yields a positive
// chirp rate.
func DfdtFromDadt(dadt, sepa, frstOrb float64) float64 {
	return 1.5 * frstOrb * dadt / sepa
}

// LambdaFactor returns the number of binaries per unit log-frequency
// interval, per unit comoving volume, implied by a single binary residing
// near rest-frame orbital frequency frstOrb with chirp rate dfdt at
// redshift z and comoving distance dcom [cm]. Multiply by a bin's log
// width and divide by the population's sampled volume to get an expected
// source count.
func LambdaFactor(frstOrb, dfdt, z, dcom float64) float64 {
	return 4.0 * math.Pi * units.SPLC * (1.0 + z) * dcom * dcom * frstOrb / dfdt
}

// eccenZeroTol is the eccentricity below which the harmonic power
// distribution is forced to its circular limit; the general expression
// loses precision there.
const eccenZeroTol = 1.0e-12

// FreqDistFunc returns the Peters & Mathews (1963) GW power distribution
// g(n,e) for harmonic n of the orbital frequency at eccentricity eccen.
// Below a tiny eccentricity all power is forced into the n=2 harmonic.
func FreqDistFunc(n int, eccen float64) float64 {
	if eccen < eccenZeroTol {
		if n == 2 {
			return 1.0
		}
		return 0.0
	}

	nf := float64(n)
	ne := nf * eccen
	jnm2 := math.Jn(n-2, ne)
	jnm1 := math.Jn(n-1, ne)
	jn := math.Jn(n, ne)
	jnp1 := math.Jn(n+1, ne)
	jnp2 := math.Jn(n+2, ne)

	aa := jnm2 - 2.0*eccen*jnm1 + (2.0/nf)*jn + 2.0*eccen*jnp1 - jnp2
	bb := jnm2 - 2.0*jn + jnp2
	cc := jn

	return nf * nf * nf * nf / 32.0 *
		(aa*aa + (1.0-eccen*eccen)*bb*bb + 4.0/(3.0*nf*nf)*cc*cc)
}

// MinMax returns the smallest and largest finite values of xx. When no
// value is finite both returns are NaN.
func MinMax(xx []float64) (float64, float64) {
	lo := math.NaN()
	hi := math.NaN()
	for _, x := range xx {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		if math.IsNaN(lo) || x < lo {
			lo = x
		}
		if math.IsNaN(hi) || x > hi {
			hi = x
		}
	}
	return lo, hi
}

// PTAFrequencies returns the observer-frame GW frequency bin centers
// (nfreqs) and edges (nfreqs+1) sampled by a pulsar-timing array observing
// for dur [s]: centers at harmonics of 1/dur, edges halfway between.
func PTAFrequencies(dur float64, nfreqs int) (cents, edges []float64) {
	df := 1.0 / dur
	cents = make([]float64, nfreqs)
	edges = make([]float64, nfreqs+1)
	for i := 0; i < nfreqs; i++ {
		cents[i] = df * float64(i+1)
		edges[i] = df * (float64(i) + 0.5)
	}
	edges[nfreqs] = df * (float64(nfreqs) + 0.5)
	return cents, edges
}
