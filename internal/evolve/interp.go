package evolve

import (
	"math"

	"github.com/nsvane/gwpop/internal/gw"
)

// Axis selects the independent variable of an At query.
type Axis string

const (
	// AxisFobs is the observer-frame GW frequency [1/s]: twice the
	// orbital frequency over (1+z). Increasing along steps.
	AxisFobs Axis = "fobs"
	// AxisSepa is the orbital separation [cm]. Decreasing along steps.
	AxisSepa Axis = "sepa"
)

// Field names a trajectory quantity an At query can interpolate.
type Field string

const (
	FieldMass  Field = "mass"
	FieldSepa  Field = "sepa"
	FieldEccen Field = "eccen"
	FieldScafa Field = "scafa"
	FieldDadt  Field = "dadt"
	FieldTlbk  Field = "tlbk"
	FieldDedt  Field = "dedt"
)

// fieldDesc fixes the shape and interpolation space of each field at the
// data-model level: paired fields carry a trailing component dimension,
// log fields interpolate in log10 and strictly positive values.
type fieldDesc struct {
	paired    bool
	logInterp bool
}

var fieldDescs = map[Field]fieldDesc{
	FieldMass:  {paired: true, logInterp: true},
	FieldSepa:  {logInterp: true},
	FieldDadt:  {logInterp: true},
	FieldEccen: {},
	FieldScafa: {},
	FieldTlbk:  {},
	FieldDedt:  {},
}

// DefaultFields is the field set an At query interpolates when none is
// requested explicitly.
var DefaultFields = []Field{FieldMass, FieldSepa, FieldEccen, FieldScafa, FieldDadt, FieldTlbk}

// AtResult holds interpolated trajectory fields, shaped
// (binaries, targets), masses (binaries, targets, 2). Only requested
// fields are non-nil; Eccen and Dedt stay nil for circular populations.
type AtResult struct {
	Mass  [][][2]float64
	Sepa  [][]float64
	Eccen [][]float64
	Scafa [][]float64
	Dadt  [][]float64
	Tlbk  [][]float64
	Dedt  [][]float64
}

// At interpolates the trajectory of every binary onto the target axis
// values. Interpolation is linear in log10 of both axis and value, except
// for the fields fieldDescs marks linear. Invalid (binary, target) pairs
// come back NaN: targets outside a binary's coverage, brackets with
// non-finite scale factor, or, with coalescingOnly, brackets whose scale
// factor falls outside the open interval (0, 1).
//
// Target extrema must overlap the axis extrema across the population, or
// the call fails with RangeError. Valid outputs are checked finite; a
// violation is a NumericalError.
func (ev *Evolution) At(axis Axis, targets []float64, fields []Field, coalescingOnly bool) (*AtResult, error) {
	if err := ev.checkEvolved("At"); err != nil {
		return nil, err
	}
	if axis != AxisFobs && axis != AxisSepa {
		return nil, ConfigurationError{Msg: "axis must be one of fobs, sepa"}
	}
	if len(targets) == 0 {
		return nil, ConfigurationError{Msg: "no targets"}
	}
	if fields == nil {
		fields = DefaultFields
	}

	nb, ns := ev.nbins, ev.nsteps

	// Axis values in log10, oriented so the axis increases along the
	// oriented index; orient maps oriented index -> step.
	xvals := make([][]float64, nb)
	orient := func(k int) int { return k }
	switch axis {
	case AxisFobs:
		fobs, err := ev.FreqOrbObs()
		if err != nil {
			return nil, err
		}
		for i := 0; i < nb; i++ {
			row := make([]float64, ns)
			for s := 0; s < ns; s++ {
				row[s] = math.Log10(2.0 * fobs[i][s])
			}
			xvals[i] = row
		}
	case AxisSepa:
		for i := 0; i < nb; i++ {
			row := make([]float64, ns)
			for s := 0; s < ns; s++ {
				// reversed: separation decreases along steps
				row[s] = math.Log10(ev.Sepa[i][ns-1-s])
			}
			xvals[i] = row
		}
		orient = func(k int) int { return ns - 1 - k }
	}

	tt := make([]float64, len(targets))
	for j, t := range targets {
		tt[j] = math.Log10(t)
	}

	if err := ev.checkOverlap(axis, tt, xvals); err != nil {
		return nil, err
	}

	// Bracketing step pair per (binary, target); -1 marks invalid.
	bef := allocIdx(nb, len(targets))
	aft := allocIdx(nb, len(targets))
	frac := alloc2(nb, len(targets))
	for i := 0; i < nb; i++ {
		row := xvals[i]
		for j, t := range tt {
			bef[i][j], aft[i][j] = -1, -1

			// First oriented step at or past the target; index 0 means
			// the target precedes the whole trajectory.
			k := -1
			for s := 0; s < ns; s++ {
				if row[s] >= t {
					k = s
					break
				}
			}
			if k == 0 && row[0] == t && ns > 1 {
				// target exactly at the trajectory start still brackets
				k = 1
			}
			if k <= 0 {
				continue
			}
			lo, hi := orient(k-1), orient(k)
			if !ev.bracketValid(i, lo, hi, coalescingOnly) {
				continue
			}
			bef[i][j], aft[i][j] = lo, hi
			frac[i][j] = (t - row[k-1]) / (row[k] - row[k-1])
		}
	}

	out := &AtResult{}
	for _, f := range fields {
		if err := ev.interpField(out, f, bef, aft, frac); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func allocIdx(n, m int) [][]int {
	buf := make([]int, n*m)
	out := make([][]int, n)
	for i := range out {
		out[i] = buf[i*m : (i+1)*m : (i+1)*m]
	}
	return out
}

// checkOverlap rejects target sets that lie wholly outside the axis
// coverage of the population.
func (ev *Evolution) checkOverlap(axis Axis, tt []float64, xvals [][]float64) error {
	tlo, thi := gw.MinMax(tt)
	xlo, xhi := math.NaN(), math.NaN()
	for _, row := range xvals {
		lo, hi := gw.MinMax(row)
		if math.IsNaN(xlo) || lo < xlo {
			xlo = lo
		}
		if math.IsNaN(xhi) || hi > xhi {
			xhi = hi
		}
	}
	if math.IsNaN(tlo) || math.IsNaN(xlo) || thi < xlo || tlo > xhi {
		return RangeError{
			Axis:     axis,
			TargetLo: math.Pow(10, tlo), TargetHi: math.Pow(10, thi),
			AxisLo: math.Pow(10, xlo), AxisHi: math.Pow(10, xhi),
		}
	}
	return nil
}

func (ev *Evolution) bracketValid(bin, lo, hi int, coalescingOnly bool) bool {
	for _, s := range [2]int{lo, hi} {
		a := ev.Scafa[bin][s]
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return false
		}
		if coalescingOnly && (a <= 0 || a >= 1) {
			return false
		}
	}
	return true
}

func (ev *Evolution) interpField(out *AtResult, f Field, bef, aft [][]int, frac [][]float64) error {
	desc, ok := fieldDescs[f]
	if !ok {
		return ConfigurationError{Msg: "unknown field " + string(f)}
	}

	nb := ev.nbins
	nt := len(bef[0])

	if desc.paired {
		res := allocPair(nb, nt)
		for i := 0; i < nb; i++ {
			for j := 0; j < nt; j++ {
				if bef[i][j] < 0 {
					res[i][j] = [2]float64{math.NaN(), math.NaN()}
					continue
				}
				for c := 0; c < 2; c++ {
					v := interpOne(
						ev.Mass[i][bef[i][j]][c], ev.Mass[i][aft[i][j]][c],
						frac[i][j], desc.logInterp,
					)
					if math.IsNaN(v) || math.IsInf(v, 0) {
						return NumericalError{Field: string(f), Where: "after interpolation"}
					}
					res[i][j][c] = v
				}
			}
		}
		out.Mass = res
		return nil
	}

	data := ev.fieldData(f)
	if data == nil {
		// eccen/dedt on a circular population
		return nil
	}
	res := alloc2(nb, nt)
	for i := 0; i < nb; i++ {
		for j := 0; j < nt; j++ {
			if bef[i][j] < 0 {
				res[i][j] = math.NaN()
				continue
			}
			v := interpOne(data[i][bef[i][j]], data[i][aft[i][j]], frac[i][j], desc.logInterp)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return NumericalError{Field: string(f), Where: "after interpolation"}
			}
			res[i][j] = v
		}
	}

	switch f {
	case FieldSepa:
		out.Sepa = res
	case FieldEccen:
		out.Eccen = res
	case FieldScafa:
		out.Scafa = res
	case FieldDadt:
		out.Dadt = res
	case FieldTlbk:
		out.Tlbk = res
	case FieldDedt:
		out.Dedt = res
	}
	return nil
}

func (ev *Evolution) fieldData(f Field) [][]float64 {
	switch f {
	case FieldSepa:
		return ev.Sepa
	case FieldEccen:
		return ev.Eccen
	case FieldScafa:
		return ev.Scafa
	case FieldDadt:
		return ev.Dadt
	case FieldTlbk:
		return ev.Tlbk
	case FieldDedt:
		return ev.Dedt
	}
	return nil
}

// interpOne interpolates between lo and hi by frac, in log10 space when
// logInterp is set.
func interpOne(lo, hi, frac float64, logInterp bool) float64 {
	if !logInterp {
		return lo + (hi-lo)*frac
	}
	llo, lhi := math.Log10(lo), math.Log10(hi)
	return math.Pow(10.0, llo+(lhi-llo)*frac)
}
