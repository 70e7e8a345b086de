package cosmo

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/interp"

	"github.com/nsvane/gwpop/internal/units"
)

// Cosmology converts between the time coordinates used by the evolution
// and synthesis engines. All conversions are pure and monotonic.
type Cosmology interface {
	// ZToDcom returns the comoving distance [cm] to redshift z.
	ZToDcom(z float64) float64
	// ZToTlbk returns the lookback time [s] to redshift z.
	ZToTlbk(z float64) float64
	// TlbkToZ inverts ZToTlbk.
	TlbkToZ(tlbk float64) float64
}

// AToZ converts scale factor to redshift.
func AToZ(a float64) float64 { return 1.0/a - 1.0 }

// ZToA converts redshift to scale factor.
func ZToA(z float64) float64 { return 1.0 / (1.0 + z) }

// FlatLCDM is a flat Lambda-CDM cosmology. Distance and lookback-time
// integrals are tabulated on a grid uniform in log(1+z) at construction
// and evaluated by piecewise-linear interpolation, clamped at the table
// ends.
type FlatLCDM struct {
	h0     float64 // Hubble constant [1/s]
	omegaM float64

	dcomOf interp.PiecewiseLinear // log(1+z) -> comoving distance [cm]
	tlbkOf interp.PiecewiseLinear // log(1+z) -> lookback time [s]
	zOf    interp.PiecewiseLinear // lookback time [s] -> log(1+z)
}

const (
	// WMAP9 parameters, H0 in [km/s/Mpc].
	DefaultH0     = 69.32
	DefaultOmegaM = 0.2880

	tableSize = 4096
	tableZMax = 999.0
)

// NewFlatLCDM builds the conversion tables for the given Hubble constant
// [km/s/Mpc] and matter density.
func NewFlatLCDM(h0 float64, omegaM float64) *FlatLCDM {
	c := &FlatLCDM{
		h0:     h0 * 1.0e5 / units.MPC,
		omegaM: omegaM,
	}
	c.tabulate()
	return c
}

// Default returns a FlatLCDM with WMAP9 parameters.
func Default() *FlatLCDM {
	return NewFlatLCDM(DefaultH0, DefaultOmegaM)
}

func (c *FlatLCDM) efunc(z float64) float64 {
	zp1 := 1.0 + z
	return math.Sqrt(c.omegaM*zp1*zp1*zp1 + (1.0 - c.omegaM))
}

func (c *FlatLCDM) tabulate() {
	logZp1 := make([]float64, tableSize)
	dcom := make([]float64, tableSize)
	tlbk := make([]float64, tableSize)

	lmax := math.Log1p(tableZMax)
	hubbleDist := units.SPLC / c.h0
	hubbleTime := 1.0 / c.h0

	fd := func(zz float64) float64 { return 1.0 / c.efunc(zz) }
	ft := func(zz float64) float64 { return 1.0 / ((1.0 + zz) * c.efunc(zz)) }

	// Cumulative integrals, Simpson's rule on each grid sub-interval.
	zPrev := 0.0
	for i := 1; i < tableSize; i++ {
		logZp1[i] = lmax * float64(i) / float64(tableSize-1)
		z := math.Expm1(logZp1[i])
		zm := 0.5 * (zPrev + z)

		zz := []float64{zPrev, zm, z}
		dcom[i] = dcom[i-1] + hubbleDist*integrate.Simpsons(zz, []float64{fd(zPrev), fd(zm), fd(z)})
		tlbk[i] = tlbk[i-1] + hubbleTime*integrate.Simpsons(zz, []float64{ft(zPrev), ft(zm), ft(z)})

		zPrev = z
	}

	// The grids are strictly increasing by construction, so the fits
	// cannot fail.
	mustFit(&c.dcomOf, logZp1, dcom)
	mustFit(&c.tlbkOf, logZp1, tlbk)
	mustFit(&c.zOf, tlbk, logZp1)
}

func mustFit(pl *interp.PiecewiseLinear, xs, ys []float64) {
	if err := pl.Fit(xs, ys); err != nil {
		panic(err)
	}
}

// ZToDcom returns the comoving distance [cm] to redshift z.
func (c *FlatLCDM) ZToDcom(z float64) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	return c.dcomOf.Predict(math.Log1p(z))
}

// ZToTlbk returns the lookback time [s] to redshift z.
func (c *FlatLCDM) ZToTlbk(z float64) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	return c.tlbkOf.Predict(math.Log1p(z))
}

// TlbkToZ returns the redshift at lookback time tlbk [s].
func (c *FlatLCDM) TlbkToZ(tlbk float64) float64 {
	if math.IsNaN(tlbk) {
		return math.NaN()
	}
	return math.Expm1(c.zOf.Predict(tlbk))
}
