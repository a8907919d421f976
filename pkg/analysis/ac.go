package analysis

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/edp1096/circuit-engine/internal/consts"
	"github.com/edp1096/circuit-engine/pkg/circuit"
	"github.com/edp1096/circuit-engine/pkg/device"
	"github.com/edp1096/circuit-engine/pkg/util"
)

// Sweep variations.
const (
	Decade = "decade"
	Octave = "octave"
	Linear = "linear"
)

type ACOptions struct {
	StartFreq       float64 `json:"startFreq"`
	EndFreq         float64 `json:"endFreq"`
	PointsPerDecade int     `json:"pointsPerDecade"`
	Variation       string  `json:"variation,omitempty"` // decade, octave or linear
	InputNode       int     `json:"inputNode"`
	OutputNode      int     `json:"outputNode"`
}

// WithDefaults fills zero fields: 1 Hz to 1 MHz, 10 points per decade.
func (o ACOptions) WithDefaults() ACOptions {
	if o.StartFreq == 0 {
		o.StartFreq = 1
	}
	if o.EndFreq == 0 {
		o.EndFreq = 1e6
	}
	if o.PointsPerDecade == 0 {
		o.PointsPerDecade = 10
	}
	if o.Variation == "" {
		o.Variation = Decade
	}
	return o
}

type BodePoint struct {
	Frequency    float64 `json:"frequency"`
	Magnitude    float64 `json:"magnitude"`
	MagnitudeDb  float64 `json:"magnitudeDb"`
	PhaseDegrees float64 `json:"phaseDegrees"`
}

type ACAnalysis struct {
	BaseAnalysis
	opts        ACOptions
	frequencies []float64
	results     []BodePoint
}

func NewAC(acOpts ACOptions, opts Options) *ACAnalysis {
	return &ACAnalysis{
		BaseAnalysis: *NewBaseAnalysis(opts),
		opts:         acOpts.WithDefaults(),
	}
}

func (ac *ACAnalysis) Setup(ckt *circuit.Circuit) error {
	if err := ac.setup(ckt, device.ACAnalysis); err != nil {
		return err
	}

	o := ac.opts
	switch {
	case !(o.StartFreq > 0):
		return invalid("startFreq", "start frequency must be positive, got %g", o.StartFreq)
	case !(o.EndFreq >= o.StartFreq):
		return invalid("endFreq", "end frequency %g is below start frequency %g", o.EndFreq, o.StartFreq)
	case o.PointsPerDecade <= 0:
		return invalid("pointsPerDecade", "points must be positive, got %d", o.PointsPerDecade)
	case o.InputNode <= 0 || o.InputNode >= ckt.GetNumNodes():
		return invalid("inputNode", "input node %d out of range 1..%d", o.InputNode, ckt.GetNumNodes()-1)
	case o.OutputNode < 0 || o.OutputNode >= ckt.GetNumNodes():
		return invalid("outputNode", "output node %d out of range 0..%d", o.OutputNode, ckt.GetNumNodes()-1)
	}

	frequencies, err := FrequencyPoints(o.StartFreq, o.EndFreq, o.PointsPerDecade, o.Variation)
	if err != nil {
		return err
	}
	ac.frequencies = frequencies
	return nil
}

func (ac *ACAnalysis) Execute(ctx context.Context) error {
	if ac.Circuit == nil {
		return ErrCircuitNotSet
	}

	ac.results = make([]BodePoint, 0, len(ac.frequencies))
	for _, freq := range ac.frequencies {
		if err := checkContext(ctx, fmt.Sprintf("f=%g", freq)); err != nil {
			return err
		}

		status := ac.status(device.ACAnalysis)
		status.Frequency = freq
		if err := ac.solve(status); err != nil {
			return fmt.Errorf("ac analysis at f=%g: %w", freq, err)
		}

		voltages := ac.Circuit.ComplexNodeVoltages()
		vin, vout := voltages[ac.opts.InputNode], voltages[ac.opts.OutputNode]

		var gain complex128
		if vin != 0 {
			gain = vout / vin
		}
		magnitude := cmplx.Abs(gain)
		ac.results = append(ac.results, BodePoint{
			Frequency:    freq,
			Magnitude:    magnitude,
			MagnitudeDb:  util.Decibels(magnitude),
			PhaseDegrees: util.PhaseDegrees(gain),
		})
	}

	ac.logger.Debug("ac sweep finished", "points", len(ac.results), "size", ac.Circuit.GetMatrix().Size)
	return nil
}

func (ac *ACAnalysis) Results() []BodePoint {
	return ac.results
}

// FrequencyPoints generates the sweep. For decade and octave sweeps points
// is per decade (octave) and the sweep holds ceil(span·points)+1 frequencies
// evenly spaced in log. For a linear sweep points is the total count.
func FrequencyPoints(start, stop float64, points int, variation string) ([]float64, error) {
	if points <= 0 {
		return nil, invalid("pointsPerDecade", "points must be positive, got %d", points)
	}
	if start == stop {
		return []float64{start}, nil
	}

	switch strings.ToLower(variation) {
	case Decade, "dec":
		return logPoints(start, points, math.Log10(stop/start), 10)

	case Octave, "oct":
		return logPoints(start, points, math.Log2(stop/start), 2)

	case Linear, "lin":
		if points > consts.MaxPoints {
			return nil, invalid("pointsPerDecade", "%d frequencies requested, limit is %d", points, consts.MaxPoints)
		}
		if points == 1 {
			return []float64{start}, nil
		}
		frequencies := make([]float64, points)
		step := (stop - start) / float64(points-1)
		for i := range points {
			frequencies[i] = start + float64(i)*step
		}
		return frequencies, nil
	}

	return nil, invalid("variation", "unknown sweep variation %q", variation)
}

// logPoints spaces ceil(span·points) intervals evenly in log. A span too
// small for one interval still yields start and stop.
func logPoints(start float64, points int, span, base float64) ([]float64, error) {
	intervals := math.Ceil(span*float64(points) - 1e-9)
	if intervals+1 > consts.MaxPoints {
		return nil, invalid("pointsPerDecade", "sweep needs %g frequencies, limit is %d", intervals+1, consts.MaxPoints)
	}

	numPoints := max(int(intervals), 1)
	frequencies := make([]float64, numPoints+1)
	for i := 0; i <= numPoints; i++ {
		frequencies[i] = start * math.Pow(base, float64(i)*span/float64(numPoints))
	}
	return frequencies, nil
}
