// Package units defines physical constants in cgs units.
//
// All quantities in this codebase are cgs: separations in [cm], masses in
// [g], frequencies in [1/s], distances in [cm].
package units

const (
	// NWTG is Newton's gravitational constant [cm^3 g^-1 s^-2].
	NWTG = 6.67430e-8

	// SPLC is the speed of light [cm/s].
	SPLC = 2.99792458e10

	// MSOL is the solar mass [g].
	MSOL = 1.98847e33

	// PC is one parsec [cm].
	PC = 3.08567758e18

	// MPC is one megaparsec [cm].
	MPC = PC * 1.0e6

	// YR is the Julian year [s].
	YR = 3.15576e7

	// GYR is one gigayear [s].
	GYR = YR * 1.0e9
)
