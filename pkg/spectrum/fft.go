package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/edp1096/circuit-engine/internal/consts"
	"github.com/edp1096/circuit-engine/pkg/netlist"
	"github.com/edp1096/circuit-engine/pkg/util"
)

const DefaultSize = 1024

type Options struct {
	Window     string  `json:"window,omitempty"`
	Size       int     `json:"size,omitempty"`
	SampleRate float64 `json:"sampleRate"`
}

type Bin struct {
	Frequency    float64 `json:"frequency"`
	Magnitude    float64 `json:"magnitude"`
	MagnitudeDb  float64 `json:"magnitudeDb"`
	PhaseDegrees float64 `json:"phaseDegrees"`
}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// FFT is the recursive radix-2 Cooley-Tukey transform. len(x) must be a
// power of two.
func FFT(x []complex128) ([]complex128, error) {
	if !IsPowerOfTwo(len(x)) {
		return nil, fmt.Errorf("fft length %d is not a power of two", len(x))
	}
	return fft(x), nil
}

func fft(x []complex128) []complex128 {
	n := len(x)
	if n == 1 {
		return []complex128{x[0]}
	}

	half := n / 2
	even := make([]complex128, half)
	odd := make([]complex128, half)
	for i := 0; i < half; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}
	evenFFT := fft(even)
	oddFFT := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < half; k++ {
		twiddle := cmplx.Rect(1, -2*math.Pi*float64(k)/float64(n))
		t := twiddle * oddFFT[k]
		result[k] = evenFFT[k] + t
		result[k+half] = evenFFT[k] - t
	}
	return result
}

// Analyze windows the samples, zero pads or truncates them to opts.Size and
// returns bins 0..Size/2 with magnitudes left unscaled.
func Analyze(samples []float64, opts Options) ([]Bin, error) {
	window, err := ParseWindow(opts.Window)
	if err != nil {
		return nil, err
	}
	size := opts.Size
	if size == 0 {
		size = DefaultSize
	}
	switch {
	case size > consts.MaxFFTSize:
		return nil, &netlist.ValidationError{Field: "size", Reason: fmt.Sprintf("transform size %d exceeds limit %d", size, consts.MaxFFTSize)}
	case !IsPowerOfTwo(size):
		return nil, &netlist.ValidationError{Field: "size", Reason: fmt.Sprintf("transform size %d is not a power of two", size)}
	case !(opts.SampleRate > 0):
		return nil, &netlist.ValidationError{Field: "sampleRate", Reason: fmt.Sprintf("sample rate must be positive, got %g", opts.SampleRate)}
	case len(samples) == 0:
		return nil, &netlist.ValidationError{Field: "samples", Reason: "no samples"}
	}

	if len(samples) > size {
		samples = samples[:size]
	}
	windowed := window.Apply(samples)

	input := make([]complex128, size)
	for i, x := range windowed {
		input[i] = complex(x, 0)
	}
	coeffs := fft(input)

	bins := make([]Bin, size/2+1)
	for k := range bins {
		magnitude := cmplx.Abs(coeffs[k])
		bins[k] = Bin{
			Frequency:    float64(k) * opts.SampleRate / float64(size),
			Magnitude:    magnitude,
			MagnitudeDb:  util.Decibels(magnitude),
			PhaseDegrees: util.PhaseDegrees(coeffs[k]),
		}
	}
	return bins, nil
}

// Peak returns the index of the largest magnitude bin, skipping DC.
func Peak(bins []Bin) int {
	peak := 0
	for k := 1; k < len(bins); k++ {
		if peak == 0 || bins[k].Magnitude > bins[peak].Magnitude {
			peak = k
		}
	}
	return peak
}
