package evolve

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/nsvane/gwpop/internal/cosmo"
	"github.com/nsvane/gwpop/internal/gw"
	"github.com/nsvane/gwpop/internal/units"
)

// Default magic-delay parameters: 5 Gyr median, 0.2 dex scatter.
const (
	DefaultDelay    = 5.0 * units.GYR
	DefaultDelayDex = 0.2
)

// MagicDelay is the instantaneous fixed-time-delay hardening model: each
// binary jumps discontinuously from formation to merger after a
// log-normal time delay. The entire trajectory is filled during Init and
// the step loop ends immediately.
type MagicDelay struct {
	// Delay is the median merger delay [s].
	Delay float64
	// DelayDex is the log-normal scatter in dex; zero means every binary
	// gets exactly Delay.
	DelayDex float64

	src rand.Source
}

// NewMagicDelay returns a MagicDelay with the default delay distribution.
// The source drives the per-binary delay draws; a nil source makes the
// delays deterministic at the median.
func NewMagicDelay(src rand.Source) *MagicDelay {
	return &MagicDelay{Delay: DefaultDelay, DelayDex: DefaultDelayDex, src: src}
}

// Init fills every step of the trajectory: lookback time and scale factor
// jump to the post-delay epoch (clipped at redshift zero), masses stay
// fixed, and the hardening rate is the Peters GW rate at each separation.
func (md *MagicDelay) Init(ev *Evolution) error {
	_, nsteps := ev.Shape()
	cos := ev.Cosmology()

	var delay func() float64
	if md.DelayDex > 0 && md.src != nil {
		dist := distuv.LogNormal{
			Mu:    math.Log(md.Delay),
			Sigma: md.DelayDex * math.Ln10,
			Src:   md.src,
		}
		delay = dist.Rand
	} else {
		delay = func() float64 { return md.Delay }
	}

	for i := range ev.Sepa {
		m1, m2 := ev.Mass[i][0][0], ev.Mass[i][0][1]
		e0 := 0.0
		if ev.Eccen != nil {
			e0 = ev.Eccen[i][0]
		}

		tlbk := math.Max(ev.Tlbk[i][0]-delay(), 0.0)
		scafa := cosmo.ZToA(cos.TlbkToZ(tlbk))

		for s := 0; s < nsteps; s++ {
			if s > 0 {
				ev.Tlbk[i][s] = tlbk
				ev.Scafa[i][s] = scafa
				ev.Mass[i][s] = ev.Mass[i][0]
				if ev.Eccen != nil {
					ev.Eccen[i][s] = e0
				}
			}
			// stored as a positive decay magnitude
			ev.Dadt[i][s] = -gw.HardeningDadt(m1, m2, ev.Sepa[i][s], e0)
		}
	}
	return nil
}

// Advance ends the loop: Init already produced the whole trajectory.
func (md *MagicDelay) Advance(ev *Evolution, step int) (Status, error) {
	return End, nil
}
