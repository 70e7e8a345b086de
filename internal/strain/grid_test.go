package strain

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/nsvane/gwpop/internal/cosmo"
	"github.com/nsvane/gwpop/internal/gw"
)

func TestFromNumberGridValidation(t *testing.T) {
	cos := cosmo.Default()
	edges := []float64{1, 2}
	good := [][][][]float64{{{{1.0}}}}

	if _, err := FromNumberGrid([]float64{1}, edges, edges, edges, nil, 5, cos, rand.NewSource(1)); err == nil {
		t.Error("single-edge axis should fail")
	}
	if _, err := FromNumberGrid(edges, edges, edges, edges, good, 0, cos, rand.NewSource(1)); err == nil {
		t.Error("zero realizations should fail")
	}
	if _, err := FromNumberGrid([]float64{1, 2, 4}, edges, edges, edges, good, 5, cos, rand.NewSource(1)); err == nil {
		t.Error("grid shape mismatch should fail")
	}
}

func TestFromNumberGridSingleBin(t *testing.T) {
	cos := cosmo.Default()
	mtot := []float64{1e42, 4e42}
	mrat := []float64{0.8, 1.2}
	redz := []float64{0.2, 0.4}
	fobs := []float64{1e-8, 2e-8}

	n := 80.0
	number := [][][][]float64{{{{n}}}}
	reals := 100

	hc, err := FromNumberGrid(mtot, mrat, redz, fobs, number, reals, cos, rand.NewSource(3))
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if len(hc) != 1 || len(hc[0]) != reals {
		t.Fatalf("shape (%d, %d)", len(hc), len(hc[0]))
	}

	// the analytic expectation at the bin centroids
	m1, m2 := m1m2FromMtMr(2e42, 1.0)
	fc := math.Sqrt(1e-8 * 2e-8)
	dlnf := math.Log(2.0)
	hs := gw.StrainSource(gw.ChirpMass(m1, m2), cos.ZToDcom(0.3), gw.FrstFromFobs(fc, 0.3))
	want := n * hs * hs / dlnf

	mean := 0.0
	for _, h := range hc[0] {
		if h < 0 || math.IsNaN(h) {
			t.Fatalf("bad strain %g", h)
		}
		mean += h * h
	}
	mean /= float64(reals)
	if rel := math.Abs(mean-want) / want; rel > 0.1 {
		t.Errorf("mean hc^2 = %g, want %g (rel %g)", mean, want, rel)
	}
}

func TestFromNumberGridEmpty(t *testing.T) {
	cos := cosmo.Default()
	number := [][][][]float64{{{{0.0}}}}
	hc, err := FromNumberGrid([]float64{1e41, 2e41}, []float64{0.5, 1.0}, []float64{0.1, 0.2}, []float64{1e-8, 2e-8},
		number, 10, cos, rand.NewSource(1))
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	for _, h := range hc[0] {
		if h != 0 {
			t.Fatalf("empty grid gave strain %g", h)
		}
	}
}
