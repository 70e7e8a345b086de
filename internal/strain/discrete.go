package strain

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/nsvane/gwpop/internal/cosmo"
	"github.com/nsvane/gwpop/internal/evolve"
	"github.com/nsvane/gwpop/internal/gw"
)

// atFields are the trajectory quantities each harmonic query needs.
var atFields = []evolve.Field{
	evolve.FieldMass, evolve.FieldSepa, evolve.FieldDadt,
	evolve.FieldScafa, evolve.FieldEccen,
}

// Config sets the realization counts of a Discrete engine.
type Config struct {
	// NHarms is the highest orbital-frequency harmonic for eccentric
	// populations; circular populations only use harmonic 2.
	NHarms int
	// NReals is the number of Poisson realizations.
	NReals int
	// NLoudest is how many per-bin loudest sources to retain.
	NLoudest int
}

// DefaultConfig mirrors the usual PTA-analysis settings.
func DefaultConfig() Config {
	return Config{NHarms: 30, NReals: 100, NLoudest: 5}
}

// Discrete computes GW spectra from a trajectory-evolved population.
type Discrete struct {
	ev     *evolve.Evolution
	fobsGW []float64
	cfg    Config
	boxVol float64
	log    *slog.Logger
}

// NewDiscrete builds an engine over a finalized evolution and
// observer-frame GW frequency bin centers. An evolution that has not run
// yet is rejected with NotEvolvedError. The centers must be evenly
// log-spaced; uneven spacing is diagnosed with a warning because the
// downstream bin-width math silently assumes it.
func NewDiscrete(ev *evolve.Evolution, fobsGW []float64, cfg Config, logger *slog.Logger) (*Discrete, error) {
	if ev == nil || !ev.Finalized() {
		return nil, evolve.NotEvolvedError{Op: "NewDiscrete"}
	}
	if len(fobsGW) < 2 {
		return nil, evolve.ConfigurationError{Msg: fmt.Sprintf("need at least 2 frequencies, got %d", len(fobsGW))}
	}
	for i, f := range fobsGW {
		if !(f > 0) || (i > 0 && f <= fobsGW[i-1]) {
			return nil, evolve.ConfigurationError{Msg: "frequencies must be positive and ascending"}
		}
	}
	if cfg.NHarms <= 0 || cfg.NReals <= 0 || cfg.NLoudest <= 0 {
		return nil, evolve.ConfigurationError{Msg: "harmonic, realization and loudest counts must be positive"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Discrete{
		ev:     ev,
		fobsGW: fobsGW,
		cfg:    cfg,
		boxVol: ev.Population().SampleVolume,
		log:    logger,
	}

	dlnf0 := math.Log(fobsGW[1]) - math.Log(fobsGW[0])
	for i := 2; i < len(fobsGW); i++ {
		dlnf := math.Log(fobsGW[i]) - math.Log(fobsGW[i-1])
		if math.Abs(dlnf-dlnf0) > 1e-8*math.Abs(dlnf0) {
			logger.Warn("frequency bins are not evenly log-spaced; spectra will be subtly wrong",
				"bin", i, "dlnf", dlnf, "dlnf0", dlnf0)
			break
		}
	}
	return d, nil
}

// Result holds characteristic strain per (frequency bin, realization) and
// the per-bin loudest source amplitudes (bins, loudest, realizations).
type Result struct {
	FobsGW  []float64
	Both    [][]float64
	Fore    [][]float64
	Back    [][]float64
	Strain  [][]float64
	Loudest [][][]float64
}

// Emit computes the spectra. Frequency bins run on parallel workers; the
// seed derives one independent random source per bin, so results are
// reproducible for a given seed regardless of scheduling.
func (d *Discrete) Emit(seed uint64) (*Result, error) {
	nf := len(d.fobsGW)
	res := &Result{
		FobsGW:  d.fobsGW,
		Both:    make([][]float64, nf),
		Fore:    make([][]float64, nf),
		Back:    make([][]float64, nf),
		Strain:  make([][]float64, nf),
		Loudest: make([][][]float64, nf),
	}

	var harms []int
	if d.ev.Eccen != nil {
		harms = make([]int, d.cfg.NHarms)
		for i := range harms {
			harms[i] = i + 1
		}
	} else {
		harms = []int{2}
	}

	errs := make([]error, nf)
	var wg sync.WaitGroup
	for ii := 0; ii < nf; ii++ {
		wg.Add(1)
		go func(ii int) {
			defer wg.Done()

			lo, hi := d.fobsGW[0], d.fobsGW[1]
			if ii > 0 {
				lo, hi = d.fobsGW[ii-1], d.fobsGW[ii]
			}
			dlnf := math.Log(hi) - math.Log(lo)

			src := rand.NewSource(seed + uint64(ii))
			both, fore, back, loud, err := d.harmonicsAtFobs(d.fobsGW[ii], dlnf, harms, src)
			if err != nil {
				errs[ii] = fmt.Errorf("frequency bin %d: %w", ii, err)
				return
			}
			for r := range both {
				both[r] = math.Sqrt(both[r])
				fore[r] = math.Sqrt(fore[r])
				back[r] = math.Sqrt(back[r])
			}
			for l := range loud {
				for r := range loud[l] {
					loud[l][r] = math.Sqrt(loud[l][r])
				}
			}
			res.Both[ii] = both
			res.Fore[ii] = fore
			res.Back[ii] = back
			res.Loudest[ii] = loud
			res.Strain[ii] = make([]float64, len(both))
			for r := range both {
				res.Strain[ii][r] = both[r]
			}
		}(ii)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// harmonicsAtFobs aggregates the squared-strain contributions of every
// binary and harmonic at one observer-frame GW frequency. Returned slices
// hold squared quantities, per realization.
func (d *Discrete) harmonicsAtFobs(fobsGW, dlnf float64, harms []int, src rand.Source) (both, fore, back []float64, loud [][]float64, err error) {
	cos := d.ev.Cosmology()
	nreals := d.cfg.NReals

	// GW-frequency axis targets: binaries whose harmonic h lands on
	// fobsGW orbit at fobsGW/h, i.e. quadrupole axis value 2*fobsGW/h.
	targets := make([]float64, len(harms))
	for k, h := range harms {
		targets[k] = 2.0 * fobsGW / float64(h)
	}

	data, err := d.ev.At(evolve.AxisFobs, targets, atFields, false)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	// Flatten the valid (binary, harmonic) pairs.
	var temp []float64 // h^2 * g(n,e) * (2/n)^2 per source
	var num []float64  // expected count per realization
	nb := len(data.Scafa)
	for i := 0; i < nb; i++ {
		for k, h := range harms {
			scafa := data.Scafa[i][k]
			if math.IsNaN(scafa) || scafa <= 0 || scafa >= 1 {
				continue
			}
			z := cosmo.AToZ(scafa)

			gne := 1.0
			if data.Eccen != nil {
				gne = gw.FreqDistFunc(h, data.Eccen[i][k])
			}

			dcom := cos.ZToDcom(z)
			frstOrb := gw.FrstFromFobs(fobsGW, z) / float64(h)
			mchirp := gw.ChirpMass(data.Mass[i][k][0], data.Mass[i][k][1])
			hs := gw.StrainSource(mchirp, dcom, frstOrb)

			dfdt := gw.DfdtFromDadt(data.Dadt[i][k], data.Sepa[i][k], frstOrb)
			lambda := gw.LambdaFactor(frstOrb, dfdt, z, dcom) / d.boxVol

			hfac := 2.0 / float64(h)
			temp = append(temp, hs*hs*gne*hfac*hfac)
			num = append(num, lambda*dlnf)
		}
	}

	both = make([]float64, nreals)
	fore = make([]float64, nreals)
	back = make([]float64, nreals)
	loud = make([][]float64, d.cfg.NLoudest)
	for l := range loud {
		loud[l] = make([]float64, nreals)
	}
	if len(temp) == 0 {
		return both, fore, back, loud, nil
	}

	// Poisson-draw the source counts, once per (source, realization).
	counts := make([][]float64, len(num))
	for v := range num {
		pois := distuv.Poisson{Lambda: num[v], Src: src}
		row := make([]float64, nreals)
		for r := 0; r < nreals; r++ {
			row[r] = pois.Rand()
		}
		counts[v] = row
	}

	drawn := make([]float64, 0, len(temp))
	for r := 0; r < nreals; r++ {
		drawn = drawn[:0]
		for v := range temp {
			c := counts[v][r]
			both[r] += temp[v] * c / dlnf
			if c > 0 {
				drawn = append(drawn, temp[v])
			}
		}
		if len(drawn) == 0 {
			continue
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(drawn)))
		fore[r] = drawn[0] / dlnf
		for l := 0; l < d.cfg.NLoudest && l < len(drawn); l++ {
			loud[l][r] = drawn[l] / dlnf
		}
		back[r] = both[r] - fore[r]
		if back[r] < 0 {
			d.log.Debug("foreground exceeds total in bin; clamping background",
				"fobs_gw", fobsGW, "realization", r)
			back[r] = 0
		}
	}
	return both, fore, back, loud, nil
}
