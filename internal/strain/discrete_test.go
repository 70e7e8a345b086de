package strain

import (
	"errors"
	"math"
	"testing"

	"github.com/nsvane/gwpop/internal/cosmo"
	"github.com/nsvane/gwpop/internal/evolve"
	"github.com/nsvane/gwpop/internal/gw"
	"github.com/nsvane/gwpop/internal/pop"
	"github.com/nsvane/gwpop/internal/units"
)

// heavyEvolved builds a finalized evolution of identical 2e9 Msol binaries
// whose trajectories cover the PTA band, with large expected source counts
// per bin.
func heavyEvolved(t *testing.T, eccen float64) *evolve.Evolution {
	t.Helper()
	n := 4
	p := &pop.Population{
		Sepa:         make([]float64, n),
		Mass:         make([][2]float64, n),
		Scafa:        make([]float64, n),
		SampleVolume: math.Pow(100*units.MPC, 3),
	}
	for i := 0; i < n; i++ {
		p.Sepa[i] = 1e18
		p.Mass[i] = [2]float64{1e9 * units.MSOL, 1e9 * units.MSOL}
		p.Scafa[i] = 0.5
	}
	if eccen > 0 {
		p.Eccen = make([]float64, n)
		for i := range p.Eccen {
			p.Eccen[i] = eccen
		}
	}

	md := evolve.NewMagicDelay(nil)
	md.DelayDex = 0
	ev, err := evolve.New(p, cosmo.Default(), md, 100)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := ev.Evolve(); err != nil {
		t.Fatalf("evolve: %v", err)
	}
	return ev
}

func ptaCents(t *testing.T) []float64 {
	t.Helper()
	cents, _ := gw.PTAFrequencies(16.0*units.YR, 8)
	return cents
}

func TestNewDiscreteRequiresFinalized(t *testing.T) {
	p := &pop.Population{
		Sepa:         []float64{1e18},
		Mass:         [][2]float64{{1e9 * units.MSOL, 1e9 * units.MSOL}},
		Scafa:        []float64{0.5},
		SampleVolume: math.Pow(100*units.MPC, 3),
	}
	md := evolve.NewMagicDelay(nil)
	ev, err := evolve.New(p, cosmo.Default(), md, 10)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var notEvolved evolve.NotEvolvedError
	if _, err := NewDiscrete(ev, ptaCents(t), DefaultConfig(), nil); !errors.As(err, &notEvolved) {
		t.Errorf("un-evolved input: expected NotEvolvedError, got %v", err)
	}
	if _, err := NewDiscrete(nil, ptaCents(t), DefaultConfig(), nil); !errors.As(err, &notEvolved) {
		t.Errorf("nil input: expected NotEvolvedError, got %v", err)
	}

	if err := ev.Evolve(); err != nil {
		t.Fatalf("evolve: %v", err)
	}
	if _, err := NewDiscrete(ev, ptaCents(t), DefaultConfig(), nil); err != nil {
		t.Errorf("finalized input rejected: %v", err)
	}
}

func TestNewDiscreteValidation(t *testing.T) {
	ev := heavyEvolved(t, 0)
	cents := ptaCents(t)
	good := Config{NHarms: 10, NReals: 5, NLoudest: 2}

	tests := []struct {
		name  string
		freqs []float64
		cfg   Config
	}{
		{"one frequency", cents[:1], good},
		{"descending", []float64{2e-8, 1e-8}, good},
		{"negative frequency", []float64{-1e-8, 1e-8}, good},
		{"zero harmonics", cents, Config{NHarms: 0, NReals: 5, NLoudest: 2}},
		{"zero realizations", cents, Config{NHarms: 10, NReals: 0, NLoudest: 2}},
		{"zero loudest", cents, Config{NHarms: 10, NReals: 5, NLoudest: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDiscrete(ev, tt.freqs, tt.cfg, nil)
			var cfgErr evolve.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestEmitShapes(t *testing.T) {
	ev := heavyEvolved(t, 0)
	cents := ptaCents(t)
	cfg := Config{NHarms: 10, NReals: 20, NLoudest: 3}
	d, err := NewDiscrete(ev, cents, cfg, nil)
	if err != nil {
		t.Fatalf("new discrete: %v", err)
	}
	res, err := d.Emit(3)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	nf := len(cents)
	if len(res.Both) != nf || len(res.Fore) != nf || len(res.Back) != nf ||
		len(res.Strain) != nf || len(res.Loudest) != nf {
		t.Fatalf("per-bin lengths wrong")
	}
	for i := 0; i < nf; i++ {
		if len(res.Both[i]) != cfg.NReals || len(res.Fore[i]) != cfg.NReals {
			t.Fatalf("bin %d: realization count wrong", i)
		}
		if len(res.Loudest[i]) != cfg.NLoudest {
			t.Fatalf("bin %d: loudest count %d, want %d", i, len(res.Loudest[i]), cfg.NLoudest)
		}
		for l := range res.Loudest[i] {
			if len(res.Loudest[i][l]) != cfg.NReals {
				t.Fatalf("bin %d loudest %d: realization count wrong", i, l)
			}
		}
	}
}

func TestEmitDeterministic(t *testing.T) {
	ev := heavyEvolved(t, 0)
	cents := ptaCents(t)
	d, err := NewDiscrete(ev, cents, Config{NHarms: 10, NReals: 10, NLoudest: 2}, nil)
	if err != nil {
		t.Fatalf("new discrete: %v", err)
	}

	a, err := d.Emit(5)
	if err != nil {
		t.Fatalf("first emit: %v", err)
	}
	b, err := d.Emit(5)
	if err != nil {
		t.Fatalf("second emit: %v", err)
	}
	c, err := d.Emit(6)
	if err != nil {
		t.Fatalf("third emit: %v", err)
	}

	differs := false
	for i := range a.Both {
		for r := range a.Both[i] {
			if a.Both[i][r] != b.Both[i][r] || a.Fore[i][r] != b.Fore[i][r] ||
				a.Back[i][r] != b.Back[i][r] {
				t.Fatalf("bin %d real %d: same seed gave different results", i, r)
			}
			if a.Both[i][r] != c.Both[i][r] {
				differs = true
			}
		}
	}
	if !differs {
		t.Error("different seeds gave identical spectra")
	}
}

func TestEmitConsistency(t *testing.T) {
	ev := heavyEvolved(t, 0)
	cents := ptaCents(t)
	d, err := NewDiscrete(ev, cents, Config{NHarms: 10, NReals: 30, NLoudest: 3}, nil)
	if err != nil {
		t.Fatalf("new discrete: %v", err)
	}
	res, err := d.Emit(17)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	for i := range res.Both {
		for r := range res.Both[i] {
			both, fore, back := res.Both[i][r], res.Fore[i][r], res.Back[i][r]
			if math.IsNaN(both) || both < 0 || fore < 0 || back < 0 {
				t.Fatalf("bin %d real %d: invalid strains %g %g %g", i, r, both, fore, back)
			}
			// background and foreground partition the total in power
			sum := fore*fore + back*back
			if diff := math.Abs(sum - both*both); diff > 1e-9*both*both+1e-300 {
				t.Errorf("bin %d real %d: fore^2+back^2=%g, both^2=%g", i, r, sum, both*both)
			}
			if res.Strain[i][r] != both {
				t.Errorf("bin %d real %d: Strain != Both", i, r)
			}
			// loudest list is sorted and led by the foreground
			if res.Loudest[i][0][r] != fore {
				t.Errorf("bin %d real %d: Loudest[0]=%g != Fore=%g", i, r, res.Loudest[i][0][r], fore)
			}
			for l := 1; l < len(res.Loudest[i]); l++ {
				if res.Loudest[i][l][r] > res.Loudest[i][l-1][r] {
					t.Errorf("bin %d real %d: loudest list not descending at %d", i, r, l)
				}
			}
		}
	}

	// the lowest bin has expected counts far above one; every realization
	// should be populated
	for r := range res.Both[0] {
		if res.Both[0][r] <= 0 || res.Fore[0][r] <= 0 {
			t.Fatalf("lowest bin real %d: empty spectrum", r)
		}
	}
}

func TestEmitEccentric(t *testing.T) {
	ev := heavyEvolved(t, 0.4)
	cents := ptaCents(t)
	d, err := NewDiscrete(ev, cents, Config{NHarms: 20, NReals: 10, NLoudest: 2}, nil)
	if err != nil {
		t.Fatalf("new discrete: %v", err)
	}
	res, err := d.Emit(23)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	for i := range res.Both {
		for r := range res.Both[i] {
			if math.IsNaN(res.Both[i][r]) || res.Both[i][r] < 0 {
				t.Fatalf("bin %d real %d: bad strain %g", i, r, res.Both[i][r])
			}
		}
	}
	for r := range res.Both[0] {
		if res.Both[0][r] <= 0 {
			t.Fatalf("lowest bin real %d: eccentric spectrum empty", r)
		}
	}
}

// A realization-mean cross-check: with large expected counts the Poisson
// scatter averages out and the mean squared total strain approaches the
// smooth expectation, which for identical binaries is count-weighted
// single-source power. Computed independently of the engine internals.
func TestEmitMeanMatchesExpectation(t *testing.T) {
	ev := heavyEvolved(t, 0)
	cents := ptaCents(t)
	d, err := NewDiscrete(ev, cents, Config{NHarms: 2, NReals: 200, NLoudest: 1}, nil)
	if err != nil {
		t.Fatalf("new discrete: %v", err)
	}
	res, err := d.Emit(99)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	cos := cosmo.Default()
	fobsGW := cents[0]
	dlnf := math.Log(cents[1]) - math.Log(cents[0])

	// all binaries are identical, so one interpolation query gives the
	// smooth expectation for the whole population
	data, err := ev.At(evolve.AxisFobs, []float64{fobsGW}, nil, false)
	if err != nil {
		t.Fatalf("at: %v", err)
	}
	want := 0.0
	for i := range data.Scafa {
		scafa := data.Scafa[i][0]
		if math.IsNaN(scafa) || scafa <= 0 || scafa >= 1 {
			t.Fatalf("binary %d invalid at %g", i, fobsGW)
		}
		z := cosmo.AToZ(scafa)
		dcom := cos.ZToDcom(z)
		frstOrb := gw.FrstFromFobs(fobsGW, z) / 2.0
		mc := gw.ChirpMass(data.Mass[i][0][0], data.Mass[i][0][1])
		hs := gw.StrainSource(mc, dcom, frstOrb)
		dfdt := gw.DfdtFromDadt(data.Dadt[i][0], data.Sepa[i][0], frstOrb)
		lambda := gw.LambdaFactor(frstOrb, dfdt, z, dcom) / ev.Population().SampleVolume
		want += hs * hs * lambda
	}

	mean := 0.0
	for _, h := range res.Both[0] {
		mean += h * h
	}
	mean /= float64(len(res.Both[0]))

	if rel := math.Abs(mean-want) / want; rel > 0.1 {
		t.Errorf("mean hc^2 = %g, expectation %g (rel %g)", mean, want, rel)
	}

	// cross-mode check: feeding the same binaries through the sampled
	// sweep, weighted by their expected counts, reproduces the same bin
	// power
	var fo, hsArr, ws []float64
	for i := range data.Scafa {
		z := cosmo.AToZ(data.Scafa[i][0])
		dcom := cos.ZToDcom(z)
		frstOrb := gw.FrstFromFobs(fobsGW, z) / 2.0
		mc := gw.ChirpMass(data.Mass[i][0][0], data.Mass[i][0][1])
		hs := gw.StrainSource(mc, dcom, frstOrb)
		dfdt := gw.DfdtFromDadt(data.Dadt[i][0], data.Sepa[i][0], frstOrb)
		lambda := gw.LambdaFactor(frstOrb, dfdt, z, dcom) / ev.Population().SampleVolume
		fo = append(fo, fobsGW)
		hsArr = append(hsArr, hs)
		ws = append(ws, lambda*dlnf)
	}
	swept, err := FromSampledStrains([]float64{cents[0], cents[1]}, fo, hsArr, ws)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	sweptTotal := swept.Fore[0]*swept.Fore[0] + swept.Back[0]*swept.Back[0]
	if rel := math.Abs(sweptTotal-mean) / mean; rel > 0.15 {
		t.Errorf("sampled-mode power %g vs trajectory-mode mean %g (rel %g)", sweptTotal, mean, rel)
	}
}
