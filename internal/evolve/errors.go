package evolve

import "fmt"

// ConfigurationError reports invalid shapes or counts at construction.
type ConfigurationError struct {
	Msg string
}

func (e ConfigurationError) Error() string {
	return "configuration: " + e.Msg
}

// RangeError reports interpolation targets that do not overlap the
// trajectory coverage; it usually indicates a unit mismatch upstream.
type RangeError struct {
	Axis     Axis
	TargetLo float64
	TargetHi float64
	AxisLo   float64
	AxisHi   float64
}

func (e RangeError) Error() string {
	return fmt.Sprintf("targets [%g, %g] outside %q coverage [%g, %g]; bad units?",
		e.TargetLo, e.TargetHi, e.Axis, e.AxisLo, e.AxisHi)
}

// NumericalError reports a non-finite value in a field that must be
// finite. It signals a broken physics model or a unit error, never a
// recoverable condition.
type NumericalError struct {
	Field string
	Where string
}

func (e NumericalError) Error() string {
	return fmt.Sprintf("non-finite %q found %s", e.Field, e.Where)
}

// NotEvolvedError reports a query against an evolution that has not been
// finalized.
type NotEvolvedError struct {
	Op string
}

func (e NotEvolvedError) Error() string {
	return fmt.Sprintf("%s called before Evolve completed", e.Op)
}
