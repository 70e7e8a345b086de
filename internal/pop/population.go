// Package pop defines the binary population snapshot consumed by the
// trajectory integrator, and a synthetic population generator used by the
// CLI and the tests.
package pop

import (
	"fmt"
	"math"
)

// Population is a snapshot of N massive black-hole binaries. It is
// immutable once handed to the integrator.
type Population struct {
	// Sepa is the initial orbital separation of each binary [cm].
	Sepa []float64
	// Mass holds the two component masses of each binary [g].
	Mass [][2]float64
	// Scafa is the cosmological scale factor at binary formation.
	Scafa []float64
	// Eccen is the initial orbital eccentricity; nil for circular
	// populations.
	Eccen []float64
	// SampleVolume is the comoving volume the population was drawn
	// from [cm^3].
	SampleVolume float64
}

// Size returns the number of binaries.
func (p *Population) Size() int { return len(p.Sepa) }

// Validate checks field lengths and value ranges.
func (p *Population) Validate() error {
	n := p.Size()
	if n == 0 {
		return fmt.Errorf("population is empty")
	}
	if len(p.Mass) != n || len(p.Scafa) != n {
		return fmt.Errorf("field lengths disagree: sepa=%d mass=%d scafa=%d",
			n, len(p.Mass), len(p.Scafa))
	}
	if p.Eccen != nil && len(p.Eccen) != n {
		return fmt.Errorf("eccen length %d != population size %d", len(p.Eccen), n)
	}
	if p.SampleVolume <= 0 {
		return fmt.Errorf("sample volume must be positive, got %g", p.SampleVolume)
	}
	for i := 0; i < n; i++ {
		if !(p.Sepa[i] > 0) {
			return fmt.Errorf("binary %d: separation %g not positive", i, p.Sepa[i])
		}
		if !(p.Mass[i][0] > 0) || !(p.Mass[i][1] > 0) {
			return fmt.Errorf("binary %d: masses %v not positive", i, p.Mass[i])
		}
		if !(p.Scafa[i] > 0) || p.Scafa[i] > 1 {
			return fmt.Errorf("binary %d: scale factor %g outside (0, 1]", i, p.Scafa[i])
		}
		if p.Eccen != nil && (p.Eccen[i] < 0 || p.Eccen[i] >= 1 || math.IsNaN(p.Eccen[i])) {
			return fmt.Errorf("binary %d: eccentricity %g outside [0, 1)", i, p.Eccen[i])
		}
	}
	return nil
}
