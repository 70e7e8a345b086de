package evolve

import (
	"fmt"
	"math"

	"github.com/nsvane/gwpop/internal/cosmo"
	"github.com/nsvane/gwpop/internal/gw"
	"github.com/nsvane/gwpop/internal/pop"
)

type evoState int

const (
	stateUninitialized evoState = iota
	stateStepping
	stateFinalized
)

// Evolution holds the trajectory table of one population: one row per
// binary, one column per integration step. The table is written only
// during Evolve and is read-only afterwards, so concurrent At queries on
// a finalized Evolution are safe.
type Evolution struct {
	// Sepa is the orbital separation [cm], monotonically non-increasing
	// along steps from the initial separation to the mutual ISCO.
	Sepa [][]float64
	// Scafa is the cosmological scale factor at each step.
	Scafa [][]float64
	// Tlbk is the lookback time at each step [s].
	Tlbk [][]float64
	// Mass holds the component masses at each step [g].
	Mass [][][2]float64
	// Dadt is the hardening rate stored as a positive magnitude [cm/s].
	Dadt [][]float64
	// Eccen and Dedt are present only when the population is eccentric.
	Eccen [][]float64
	Dedt  [][]float64

	pop     *pop.Population
	cos     cosmo.Cosmology
	stepper Stepper
	mods    []Modifier

	nbins  int
	nsteps int
	state  evoState

	// derived during finalization; read-only afterwards
	freqOrbRest [][]float64
	coal        []bool
}

// New allocates trajectory storage for p with nsteps integration steps
// per binary. Modifiers run in order during finalization.
func New(p *pop.Population, c cosmo.Cosmology, stepper Stepper, nsteps int, mods ...Modifier) (*Evolution, error) {
	if p == nil || p.Size() <= 0 {
		return nil, ConfigurationError{Msg: "population must contain at least one binary"}
	}
	if nsteps <= 1 {
		return nil, ConfigurationError{Msg: fmt.Sprintf("need at least 2 steps, got %d", nsteps)}
	}
	if stepper == nil {
		return nil, ConfigurationError{Msg: "nil stepper"}
	}
	if err := p.Validate(); err != nil {
		return nil, ConfigurationError{Msg: err.Error()}
	}

	n := p.Size()
	ev := &Evolution{
		Sepa:    alloc2(n, nsteps),
		Scafa:   alloc2(n, nsteps),
		Tlbk:    alloc2(n, nsteps),
		Dadt:    alloc2(n, nsteps),
		Mass:    allocPair(n, nsteps),
		pop:     p,
		cos:     c,
		stepper: stepper,
		mods:    mods,
		nbins:   n,
		nsteps:  nsteps,
	}
	if p.Eccen != nil {
		ev.Eccen = alloc2(n, nsteps)
		ev.Dedt = alloc2(n, nsteps)
	}
	return ev, nil
}

func alloc2(n, m int) [][]float64 {
	buf := make([]float64, n*m)
	out := make([][]float64, n)
	for i := range out {
		out[i] = buf[i*m : (i+1)*m : (i+1)*m]
	}
	return out
}

func allocPair(n, m int) [][][2]float64 {
	buf := make([][2]float64, n*m)
	out := make([][][2]float64, n)
	for i := range out {
		out[i] = buf[i*m : (i+1)*m : (i+1)*m]
	}
	return out
}

// Shape returns (binaries, steps).
func (ev *Evolution) Shape() (int, int) { return ev.nbins, ev.nsteps }

// Population returns the input snapshot.
func (ev *Evolution) Population() *pop.Population { return ev.pop }

// Cosmology returns the conversion collaborator.
func (ev *Evolution) Cosmology() cosmo.Cosmology { return ev.cos }

// Finalized reports whether Evolve has completed.
func (ev *Evolution) Finalized() bool { return ev.state == stateFinalized }

// Evolve integrates every binary from its initial separation toward
// merger, then finalizes: modifiers run in order and all physical fields
// are checked finite. Evolve may be called once.
func (ev *Evolution) Evolve() error {
	if ev.state != stateUninitialized {
		return fmt.Errorf("evolve: already evolved")
	}
	ev.state = stateStepping

	ev.initStepZero()
	if err := ev.stepper.Init(ev); err != nil {
		return fmt.Errorf("evolve: stepper init: %w", err)
	}

	for step := 1; step < ev.nsteps; step++ {
		st, err := ev.stepper.Advance(ev, step)
		if err != nil {
			return fmt.Errorf("evolve: step %d: %w", step, err)
		}
		if st == End {
			break
		}
		if st != Continue {
			return fmt.Errorf("evolve: step %d returned invalid status %d", step, st)
		}
	}

	return ev.finalize()
}

// initStepZero fills the geometric separation grid and copies the input
// snapshot into step 0.
func (ev *Evolution) initStepZero() {
	p := ev.pop
	for i := 0; i < ev.nbins; i++ {
		m1, m2 := p.Mass[i][0], p.Mass[i][1]
		risco := gw.RadISCO(m1, m2)

		// Log-spaced separations from initial down to mutual ISCO.
		lo := math.Log10(p.Sepa[i])
		hi := math.Log10(risco)
		dl := (hi - lo) / float64(ev.nsteps-1)
		for s := 0; s < ev.nsteps; s++ {
			ev.Sepa[i][s] = math.Pow(10.0, lo+dl*float64(s))
		}

		ev.Scafa[i][0] = p.Scafa[i]
		ev.Tlbk[i][0] = ev.cos.ZToTlbk(cosmo.AToZ(p.Scafa[i]))
		ev.Mass[i][0] = p.Mass[i]
		if ev.Eccen != nil {
			ev.Eccen[i][0] = p.Eccen[i]
		}
	}
}

func (ev *Evolution) finalize() error {
	ev.state = stateFinalized

	for k, mod := range ev.mods {
		if err := mod(ev); err != nil {
			return fmt.Errorf("evolve: modifier %d: %w", k, err)
		}
	}
	if err := ev.check(); err != nil {
		return err
	}

	// Derived quantities are computed here, after the modifiers have had
	// their say, so every later query is a pure read and At is safe to
	// call from concurrent workers.
	ev.computeDerived()
	return nil
}

func (ev *Evolution) computeDerived() {
	ev.coal = make([]bool, ev.nbins)
	ev.freqOrbRest = alloc2(ev.nbins, ev.nsteps)
	for i := 0; i < ev.nbins; i++ {
		a := ev.Scafa[i][ev.nsteps-1]
		ev.coal[i] = !math.IsNaN(a) && !math.IsInf(a, 0) && a > 0 && a < 1
		for s := 0; s < ev.nsteps; s++ {
			mtot := ev.Mass[i][s][0] + ev.Mass[i][s][1]
			ev.freqOrbRest[i][s] = gw.KeplerFreqFromSepa(mtot, ev.Sepa[i][s])
		}
	}
}

// check verifies that every physically-required field is finite.
func (ev *Evolution) check() error {
	type fieldCheck struct {
		name string
		data [][]float64
	}
	fields := []fieldCheck{
		{"sepa", ev.Sepa},
		{"scafa", ev.Scafa},
		{"tlbk", ev.Tlbk},
		{"dadt", ev.Dadt},
	}
	if ev.Eccen != nil {
		fields = append(fields, fieldCheck{"eccen", ev.Eccen}, fieldCheck{"dedt", ev.Dedt})
	}
	for _, f := range fields {
		for i := range f.data {
			for s, v := range f.data[i] {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return NumericalError{Field: f.name, Where: fmt.Sprintf("after evolution at binary %d step %d", i, s)}
				}
			}
		}
	}
	for i := range ev.Mass {
		for s, m := range ev.Mass[i] {
			if math.IsNaN(m[0]) || math.IsInf(m[0], 0) || math.IsNaN(m[1]) || math.IsInf(m[1], 0) {
				return NumericalError{Field: "mass", Where: fmt.Sprintf("after evolution at binary %d step %d", i, s)}
			}
		}
	}
	return nil
}

func (ev *Evolution) checkEvolved(op string) error {
	if ev.state != stateFinalized {
		return NotEvolvedError{Op: op}
	}
	return nil
}

// Coal reports, per binary, whether it coalesces strictly before the
// redshift-zero horizon: the final-step scale factor is finite and lies
// inside the open interval (0, 1). Computed once during finalization.
func (ev *Evolution) Coal() ([]bool, error) {
	if err := ev.checkEvolved("Coal"); err != nil {
		return nil, err
	}
	return ev.coal, nil
}

// FreqOrbRest returns the rest-frame orbital frequency [1/s] at each
// (binary, step), from the Kepler relation at the stored total mass and
// separation. Computed once during finalization.
func (ev *Evolution) FreqOrbRest() ([][]float64, error) {
	if err := ev.checkEvolved("FreqOrbRest"); err != nil {
		return nil, err
	}
	return ev.freqOrbRest, nil
}

// FreqOrbObs returns the observer-frame orbital frequency [1/s] at each
// (binary, step).
func (ev *Evolution) FreqOrbObs() ([][]float64, error) {
	frest, err := ev.FreqOrbRest()
	if err != nil {
		return nil, err
	}
	out := alloc2(ev.nbins, ev.nsteps)
	for i := 0; i < ev.nbins; i++ {
		for s := 0; s < ev.nsteps; s++ {
			z := cosmo.AToZ(ev.Scafa[i][s])
			out[i][s] = frest[i][s] / (1.0 + z)
		}
	}
	return out, nil
}
