package consts

const (
	KELVIN = 273.15 // Kelvin temperature (K)

	Gmin             = 1e-12 // Minimum conductance loaded on every node row
	PivotThreshold   = 1e-12 // Pivot magnitude below which a pivot is regularized
	RegularizedPivot = 1e-10 // Replacement value for a regularized pivot
	DefaultTemp      = 27.0  // Default analysis temperature (C)
	MinDecibel       = -300  // Floor for dB conversions of zero magnitudes

	MaxPoints           = 1_000_000 // Upper bound on transient steps, AC frequencies and DC sweep points
	MaxFFTSize          = 1 << 22   // Upper bound on the FFT transform size
	InitialStepFraction = 1e-9      // t=0 solve step as a fraction of the time step

	DefaultResistance  = 1000.0 // ohm
	DefaultCapacitance = 1e-6   // F
	DefaultInductance  = 1e-3   // H
	LEDResistance      = 100.0  // ohm, fixed LED approximation
	DefaultACMagnitude = 1.0    // V, voltage source small signal
)
