package spectrum

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/edp1096/circuit-engine/pkg/netlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/dsp/fourier"
)

func sine(n int, f0, fs float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * f0 * float64(i) / fs)
	}
	return x
}

func TestFFTMatchesGonum(t *testing.T) {
	const n = 64
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(math.Sin(float64(i)*0.3)+0.2*float64(i%5), math.Cos(float64(i)*0.7))
	}

	got, err := FFT(x)
	require.NoError(t, err)

	want := fourier.NewCmplxFFT(n).Coefficients(nil, x)
	require.Len(t, got, n)
	for k := range want {
		assert.InDelta(t, 0, cmplx.Abs(got[k]-want[k]), 1e-9, "bin %d", k)
	}
}

func TestFFTRejectsNonPowerOfTwo(t *testing.T) {
	_, err := FFT(make([]complex128, 12))
	assert.Error(t, err)

	_, err = FFT(nil)
	assert.Error(t, err)
}

func TestAnalyzeMatchesGonumRealFFT(t *testing.T) {
	const n = 256
	x := sine(n, 512, 4096)
	for i := range x {
		x[i] += 0.5
	}

	bins, err := Analyze(x, Options{Window: "rectangular", Size: n, SampleRate: 4096})
	require.NoError(t, err)

	want := fourier.NewFFT(n).Coefficients(nil, x)
	require.Len(t, bins, len(want))
	for k, c := range want {
		assert.InDelta(t, cmplx.Abs(c), bins[k].Magnitude, 1e-9, "bin %d", k)
	}
	assert.InDelta(t, 0.5*n, bins[0].Magnitude, 1e-9)
}

func TestAnalyzePeakAtSignalFrequency(t *testing.T) {
	const (
		fs = 8192.0
		n  = 1024
		f0 = 1000.0
	)

	for _, window := range []string{"hann", "hamming", "blackman", "rectangular"} {
		t.Run(window, func(t *testing.T) {
			bins, err := Analyze(sine(n, f0, fs), Options{Window: window, Size: n, SampleRate: fs})
			require.NoError(t, err)
			require.Len(t, bins, n/2+1)

			peak := Peak(bins)
			resolution := fs / n
			assert.InDelta(t, f0, bins[peak].Frequency, resolution)
			assert.Equal(t, 125, peak)
			assert.Equal(t, fs/2, bins[n/2].Frequency)
		})
	}
}

func TestAnalyzePadsAndTruncates(t *testing.T) {
	short := sine(100, 50, 1000)
	bins, err := Analyze(short, Options{Size: 256, SampleRate: 1000})
	require.NoError(t, err)
	assert.Len(t, bins, 129)

	long := sine(1000, 50, 1000)
	bins, err = Analyze(long, Options{Size: 128, SampleRate: 1000})
	require.NoError(t, err)
	assert.Len(t, bins, 65)

	bins, err = Analyze(long, Options{SampleRate: 1000})
	require.NoError(t, err)
	assert.Len(t, bins, DefaultSize/2+1)
}

func TestAnalyzeValidation(t *testing.T) {
	tests := map[string]struct {
		samples []float64
		opts    Options
	}{
		"size":        {[]float64{1}, Options{Size: 100, SampleRate: 1}},
		"sample rate": {[]float64{1}, Options{Size: 8}},
		"window":      {[]float64{1}, Options{Size: 8, SampleRate: 1, Window: "kaiser"}},
		"no samples":  {nil, Options{Size: 8, SampleRate: 1}},
		"size limit":  {[]float64{1}, Options{Size: 1 << 40, SampleRate: 1}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Analyze(tt.samples, tt.opts)
			require.Error(t, err)
			assert.True(t, netlist.IsValidation(err))
		})
	}
}

func TestWindows(t *testing.T) {
	const n = 9
	assert.InDelta(t, 0, Hann.Coefficient(0, n), 1e-15)
	assert.InDelta(t, 1, Hann.Coefficient(4, n), 1e-15)
	assert.InDelta(t, 0.08, Hamming.Coefficient(0, n), 1e-15)
	assert.InDelta(t, 1, Hamming.Coefficient(4, n), 1e-15)
	assert.InDelta(t, 0, Blackman.Coefficient(0, n), 1e-15)
	assert.InDelta(t, 1, Blackman.Coefficient(4, n), 1e-15)
	assert.Equal(t, 1.0, Rectangular.Coefficient(3, n))
	assert.Equal(t, 1.0, Hann.Coefficient(0, 1))

	w, err := ParseWindow("HANN")
	require.NoError(t, err)
	assert.Equal(t, Hann, w)

	w, err = ParseWindow("")
	require.NoError(t, err)
	assert.Equal(t, Hann, w)

	assert.Equal(t, []float64{0, 2, 0}, Hann.Apply([]float64{5, 2, 5}))
}
