package util

import (
	"math"
	"math/cmplx"

	"github.com/edp1096/circuit-engine/internal/consts"
)

// Decibels converts a magnitude to dB, floored at consts.MinDecibel.
func Decibels(magnitude float64) float64 {
	if magnitude <= 0 {
		return consts.MinDecibel
	}
	return math.Max(20*math.Log10(magnitude), consts.MinDecibel)
}

// PhaseDegrees is the argument of z in degrees.
func PhaseDegrees(z complex128) float64 {
	return cmplx.Phase(z) * 180.0 / math.Pi
}
