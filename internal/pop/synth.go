package pop

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/nsvane/gwpop/internal/units"
)

// SynthConfig controls synthetic population draws. Masses and separations
// are log-normal; formation scale factors are uniform.
type SynthConfig struct {
	Size int
	// MassMed is the median component mass [g]; MassDex the scatter in dex.
	MassMed float64
	MassDex float64
	// SepaMed is the median initial separation [cm]; SepaDex the scatter.
	SepaMed float64
	SepaDex float64
	// ScafaLo, ScafaHi bound the formation scale factor.
	ScafaLo float64
	ScafaHi float64
	// EccenMax enables eccentric draws when positive: eccentricities are
	// uniform in [0, EccenMax).
	EccenMax float64
	// SampleVolume is the comoving volume attributed to the draw [cm^3].
	SampleVolume float64
}

// DefaultSynthConfig returns a population of heavy binaries in a
// (100 Mpc)^3 comoving box.
func DefaultSynthConfig() SynthConfig {
	box := 100.0 * units.MPC
	return SynthConfig{
		Size:         100,
		MassMed:      3.0e8 * units.MSOL,
		MassDex:      0.5,
		SepaMed:      1.0e-1 * units.PC,
		SepaDex:      0.3,
		ScafaLo:      0.3,
		ScafaHi:      0.8,
		SampleVolume: box * box * box,
	}
}

// NewSynthetic draws a population from cfg using src. The source is the
// only randomness; identical sources give identical populations.
func NewSynthetic(cfg SynthConfig, src rand.Source) *Population {
	ln10 := math.Ln10
	mass := distuv.LogNormal{Mu: math.Log(cfg.MassMed), Sigma: cfg.MassDex * ln10, Src: src}
	sepa := distuv.LogNormal{Mu: math.Log(cfg.SepaMed), Sigma: cfg.SepaDex * ln10, Src: src}
	scafa := distuv.Uniform{Min: cfg.ScafaLo, Max: cfg.ScafaHi, Src: src}

	p := &Population{
		Sepa:         make([]float64, cfg.Size),
		Mass:         make([][2]float64, cfg.Size),
		Scafa:        make([]float64, cfg.Size),
		SampleVolume: cfg.SampleVolume,
	}
	if cfg.EccenMax > 0 {
		p.Eccen = make([]float64, cfg.Size)
	}
	eccen := distuv.Uniform{Min: 0, Max: cfg.EccenMax, Src: src}

	for i := 0; i < cfg.Size; i++ {
		p.Sepa[i] = sepa.Rand()
		p.Mass[i][0] = mass.Rand()
		p.Mass[i][1] = mass.Rand()
		p.Scafa[i] = scafa.Rand()
		if p.Eccen != nil {
			p.Eccen[i] = eccen.Rand()
		}
	}
	return p
}
