package strain

import (
	"fmt"
	"math"
	"sort"

	"github.com/nsvane/gwpop/internal/cosmo"
	"github.com/nsvane/gwpop/internal/evolve"
	"github.com/nsvane/gwpop/internal/gw"
)

// Sampled holds the per-bin result of a sampled-strain sweep.
type Sampled struct {
	// FobsLoud is the observer-frame GW frequency of the loudest sample
	// in each bin [1/s]; zero when the bin is empty.
	FobsLoud []float64
	// Fore is the characteristic strain of the loudest single sample.
	Fore []float64
	// Back is the characteristic strain of everything else.
	Back []float64
}

// FromSampledStrains computes foreground and background characteristic
// strain per frequency bin from weighted strain samples: fo and hs are
// the observer-frame GW frequency [1/s] and source strain of each sample,
// weights the integer number of physical binaries each sample represents.
//
// edges are ascending observer-frame GW frequency bin edges; samples
// outside [edges[0], edges[len-1]) are never consumed. Inputs are not
// mutated; the sweep sorts an internal copy, so the result is independent
// of the input ordering.
func FromSampledStrains(edges, fo, hs, weights []float64) (*Sampled, error) {
	if len(edges) < 2 {
		return nil, evolve.ConfigurationError{Msg: fmt.Sprintf("need at least 2 bin edges, got %d", len(edges))}
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, evolve.ConfigurationError{Msg: "bin edges must be ascending"}
		}
	}
	if len(fo) != len(hs) || len(fo) != len(weights) {
		return nil, evolve.ConfigurationError{Msg: fmt.Sprintf(
			"sample lengths disagree: fo=%d hs=%d weights=%d", len(fo), len(hs), len(weights))}
	}

	// Sort samples by frequency; the sweep below never re-scans.
	idx := make([]int, len(fo))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return fo[idx[a]] < fo[idx[b]] })

	nbins := len(edges) - 1
	out := &Sampled{
		FobsLoud: make([]float64, nbins),
		Fore:     make([]float64, nbins),
		Back:     make([]float64, nbins),
	}

	ii := 0
	nsamp := len(idx)
	// skip samples below the first edge; they belong to no bin
	for ii < nsamp && fo[idx[ii]] < edges[0] {
		ii++
	}

	lo := edges[0]
	for ff := 0; ff < nbins; ff++ {
		hi := edges[ff+1]
		dlnf := math.Log(hi) - math.Log(lo)

		hmax, fmax := 0.0, 0.0
		backSq := 0.0
		for ii < nsamp && fo[idx[ii]] < hi {
			k := idx[ii]
			// the loudest source must be a whole binary
			if weights[k] >= 1 && hs[k] > hmax {
				hmax = hs[k]
				fmax = fo[k]
			}
			backSq += weights[k] * hs[k] * hs[k]
			ii++
		}

		backSq -= hmax * hmax
		if backSq < 0 {
			// float cancellation only; the sum included hmax^2
			backSq = 0
		}
		out.FobsLoud[ff] = fmax
		out.Back[ff] = math.Sqrt(backSq / dlnf)
		out.Fore[ff] = hmax / math.Sqrt(dlnf)
		lo = hi
	}
	return out, nil
}

// StrainsFromSamples converts sampled binary parameters into the source
// strain and observer-frame GW frequency of each sample: total mass [g],
// mass ratio, redshift, and observer-frame orbital frequency [1/s].
func StrainsFromSamples(mtot, mrat, redz, fobsOrb []float64, cos cosmo.Cosmology) (hs, fobsGW []float64, err error) {
	n := len(mtot)
	if len(mrat) != n || len(redz) != n || len(fobsOrb) != n {
		return nil, nil, evolve.ConfigurationError{Msg: fmt.Sprintf(
			"sample lengths disagree: mtot=%d mrat=%d redz=%d fobs=%d",
			n, len(mrat), len(redz), len(fobsOrb))}
	}
	hs = make([]float64, n)
	fobsGW = make([]float64, n)
	for i := 0; i < n; i++ {
		m1, m2 := m1m2FromMtMr(mtot[i], mrat[i])
		mc := gw.ChirpMass(m1, m2)
		dc := cos.ZToDcom(redz[i])
		frstOrb := gw.FrstFromFobs(fobsOrb[i], redz[i])
		hs[i] = gw.StrainSource(mc, dc, frstOrb)
		fobsGW[i] = 2.0 * fobsOrb[i]
	}
	return hs, fobsGW, nil
}

// FromSamples runs the full sample-based path: parameters to strains to
// the binned sweep.
func FromSamples(mtot, mrat, redz, fobsOrb, weights, edges []float64, cos cosmo.Cosmology) (*Sampled, error) {
	hs, fobsGW, err := StrainsFromSamples(mtot, mrat, redz, fobsOrb, cos)
	if err != nil {
		return nil, err
	}
	return FromSampledStrains(edges, fobsGW, hs, weights)
}

// m1m2FromMtMr converts total mass and mass ratio (q <= 1) to component
// masses.
func m1m2FromMtMr(mt, mr float64) (float64, float64) {
	m1 := mt / (1.0 + mr)
	return m1, mt - m1
}
