package strain

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/nsvane/gwpop/internal/cosmo"
	"github.com/nsvane/gwpop/internal/evolve"
	"github.com/nsvane/gwpop/internal/gw"
)

// FromNumberGrid Poisson-realizes a precomputed grid of binary counts
// into characteristic strain. The grid axes are bin edges over total mass
// [g], mass ratio, redshift, and observer-frame orbital frequency [1/s];
// number holds the expected binaries per 4-D bin, already integrated over
// the bin. Strains are evaluated at bin centroids and summed in
// quadrature over the non-frequency axes.
//
// The result is (frequency bins, reals) characteristic strain.
func FromNumberGrid(mtot, mrat, redz, fobsOrb []float64, number [][][][]float64, reals int, cos cosmo.Cosmology, src rand.Source) ([][]float64, error) {
	nm, nq, nz, nf := len(mtot)-1, len(mrat)-1, len(redz)-1, len(fobsOrb)-1
	if nm < 1 || nq < 1 || nz < 1 || nf < 1 {
		return nil, evolve.ConfigurationError{Msg: "every axis needs at least 2 edges"}
	}
	if len(number) != nm {
		return nil, evolve.ConfigurationError{Msg: fmt.Sprintf("number grid has %d mass bins, edges imply %d", len(number), nm)}
	}
	if reals <= 0 {
		return nil, evolve.ConfigurationError{Msg: "realization count must be positive"}
	}

	hc2 := make([][]float64, nf)
	for f := range hc2 {
		hc2[f] = make([]float64, reals)
	}

	for m := 0; m < nm; m++ {
		mc := math.Sqrt(mtot[m] * mtot[m+1]) // log-spaced axis
		for q := 0; q < nq; q++ {
			qc := 0.5 * (mrat[q] + mrat[q+1])
			m1, m2 := m1m2FromMtMr(mc, qc)
			chirp := gw.ChirpMass(m1, m2)
			for z := 0; z < nz; z++ {
				zc := 0.5 * (redz[z] + redz[z+1])
				dc := cos.ZToDcom(zc)
				for f := 0; f < nf; f++ {
					n := number[m][q][z][f]
					if !(n > 0) {
						continue
					}
					fc := math.Sqrt(fobsOrb[f] * fobsOrb[f+1])
					dlnf := math.Log(fobsOrb[f+1]) - math.Log(fobsOrb[f])
					frst := gw.FrstFromFobs(fc, zc)
					hs := gw.StrainSource(chirp, dc, frst)

					pois := distuv.Poisson{Lambda: n, Src: src}
					for r := 0; r < reals; r++ {
						hc2[f][r] += pois.Rand() / dlnf * hs * hs
					}
				}
			}
		}
	}

	for f := range hc2 {
		for r := range hc2[f] {
			hc2[f][r] = math.Sqrt(hc2[f][r])
		}
	}
	return hc2, nil
}
