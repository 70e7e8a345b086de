package evolve

import (
	"math"

	"github.com/nsvane/gwpop/internal/cosmo"
	"github.com/nsvane/gwpop/internal/gw"
)

// GWDriven is the self-consistent GW-driven hardening model: the time to
// cross each separation step follows from the Peters (1964) inspiral
// rate, eccentricity decays alongside, and the cosmic clock advances
// accordingly. Binaries that would merge after redshift zero freeze at
// scale factor one.
type GWDriven struct{}

// NewGWDriven returns the Peters-inspiral stepper. It has no free
// parameters.
func NewGWDriven() *GWDriven { return &GWDriven{} }

// Init stores the hardening rates at the initial separation.
func (g *GWDriven) Init(ev *Evolution) error {
	for i := range ev.Sepa {
		m1, m2 := ev.Mass[i][0][0], ev.Mass[i][0][1]
		e0 := 0.0
		if ev.Eccen != nil {
			e0 = ev.Eccen[i][0]
		}
		ev.Dadt[i][0] = -gw.HardeningDadt(m1, m2, ev.Sepa[i][0], e0)
		if ev.Dedt != nil {
			ev.Dedt[i][0] = gw.DedtGW(m1, m2, ev.Sepa[i][0], e0)
		}
	}
	return nil
}

// Advance integrates one separation step for every binary, trapezoidal in
// the hardening rate across the step.
func (g *GWDriven) Advance(ev *Evolution, step int) (Status, error) {
	cos := ev.Cosmology()
	for i := range ev.Sepa {
		ev.Mass[i][step] = ev.Mass[i][step-1]
		m1, m2 := ev.Mass[i][step][0], ev.Mass[i][step][1]

		ePrev := 0.0
		if ev.Eccen != nil {
			ePrev = ev.Eccen[i][step-1]
		}

		sPrev, sCur := ev.Sepa[i][step-1], ev.Sepa[i][step]
		ratePrev := ev.Dadt[i][step-1]
		rateCur := -gw.HardeningDadt(m1, m2, sCur, ePrev)
		dt := (sPrev - sCur) / (0.5 * (ratePrev + rateCur))

		tlbk := ev.Tlbk[i][step-1] - dt
		if tlbk <= 0 {
			// reaches this separation after the present epoch
			tlbk = 0
		}
		ev.Tlbk[i][step] = tlbk
		ev.Scafa[i][step] = cosmo.ZToA(cos.TlbkToZ(tlbk))

		eCur := ePrev
		if ev.Eccen != nil {
			eCur = ePrev + ev.Dedt[i][step-1]*dt
			if eCur < 0 || math.IsNaN(eCur) {
				eCur = 0
			}
			ev.Eccen[i][step] = eCur
			ev.Dedt[i][step] = gw.DedtGW(m1, m2, sCur, eCur)
		}
		ev.Dadt[i][step] = -gw.HardeningDadt(m1, m2, sCur, eCur)
	}
	return Continue, nil
}
