package spectrum

import (
	"math"
	"strings"

	"github.com/edp1096/circuit-engine/pkg/netlist"
)

type Window string

const (
	Hann        Window = "hann"
	Hamming     Window = "hamming"
	Blackman    Window = "blackman"
	Rectangular Window = "rectangular"
)

// ParseWindow accepts the window names case-insensitively. "" is Hann.
func ParseWindow(name string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(name))); w {
	case "":
		return Hann, nil
	case "hanning":
		return Hann, nil
	case "none":
		return Rectangular, nil
	case Hann, Hamming, Blackman, Rectangular:
		return w, nil
	}
	return "", &netlist.ValidationError{Field: "window", Reason: "unknown window " + name}
}

// Coefficient is the window weight of sample i out of n.
func (w Window) Coefficient(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	x := 2 * math.Pi * float64(i) / float64(n-1)
	switch w {
	case Hann:
		return 0.5 * (1 - math.Cos(x))
	case Hamming:
		return 0.54 - 0.46*math.Cos(x)
	case Blackman:
		return 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return 1
}

// Apply returns the windowed copy of samples.
func (w Window) Apply(samples []float64) []float64 {
	out := make([]float64, len(samples))
	for i, x := range samples {
		out[i] = x * w.Coefficient(i, len(samples))
	}
	return out
}
