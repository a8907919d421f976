package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/edp1096/circuit-engine/internal/consts"
	"github.com/edp1096/circuit-engine/pkg/circuit"
	"github.com/edp1096/circuit-engine/pkg/device"
)

// SweepSource steps one independent source from Start to Stop by Increment.
type SweepSource struct {
	Source    string  `json:"source"`
	Start     float64 `json:"start"`
	Stop      float64 `json:"stop"`
	Increment float64 `json:"increment"`
}

type DCSweepPoint struct {
	SourceValues  []float64                  `json:"sourceValues"`
	NodeVoltages  map[int]float64            `json:"nodeVoltages"`
	ComponentData map[string]ComponentResult `json:"componentData"`
}

// DCSweep reruns the operating point over one or two source sweeps. With
// two sources the first one is the inner loop.
type DCSweep struct {
	BaseAnalysis
	sweeps    []SweepSource
	sweepVals [][]float64
	sources   []device.Sweepable
	origVals  []float64
	results   []DCSweepPoint
}

func NewDCSweep(sweeps []SweepSource, opts Options) *DCSweep {
	return &DCSweep{
		BaseAnalysis: *NewBaseAnalysis(opts),
		sweeps:       sweeps,
	}
}

// sweepValues lists start, start+inc, ... up to stop inclusive.
func sweepValues(s SweepSource) ([]float64, error) {
	if s.Increment == 0 || math.IsNaN(s.Increment) {
		return nil, invalid("increment", "sweep of %s needs a non-zero increment", s.Source)
	}
	span := (s.Stop - s.Start) / s.Increment
	if !(span >= 0) {
		return nil, invalid("increment", "sweep of %s never reaches %g from %g", s.Source, s.Stop, s.Start)
	}
	points := math.Floor(span+1e-9) + 1
	if points > consts.MaxPoints {
		return nil, invalid("increment", "sweep of %s needs %g points, limit is %d", s.Source, points, consts.MaxPoints)
	}

	values := make([]float64, int(points))
	for i := range values {
		values[i] = s.Start + float64(i)*s.Increment
	}
	return values, nil
}

func (dc *DCSweep) Setup(ckt *circuit.Circuit) error {
	if err := dc.setup(ckt, device.DCSweep, device.OperatingPointAnalysis); err != nil {
		return err
	}
	if len(dc.sweeps) == 0 || len(dc.sweeps) > 2 {
		return invalid("sweeps", "unsupported number of sweep sources: %d", len(dc.sweeps))
	}

	dc.sweepVals = make([][]float64, len(dc.sweeps))
	dc.sources = make([]device.Sweepable, len(dc.sweeps))
	dc.origVals = make([]float64, len(dc.sweeps))
	for i, s := range dc.sweeps {
		dev, ok := ckt.Device(s.Source)
		if !ok {
			return invalid("source", "source %s not found", s.Source)
		}
		src, ok := dev.(device.Sweepable)
		if !ok {
			return invalid("source", "%s is not an independent source", s.Source)
		}

		values, err := sweepValues(s)
		if err != nil {
			return err
		}
		dc.sweepVals[i] = values
		dc.sources[i] = src
		dc.origVals[i] = src.GetValue()
	}

	total := 1
	for _, values := range dc.sweepVals {
		total *= len(values)
	}
	if total > consts.MaxPoints {
		return invalid("sweeps", "nested sweep needs %d points, limit is %d", total, consts.MaxPoints)
	}
	return nil
}

func (dc *DCSweep) Execute(ctx context.Context) error {
	if dc.Circuit == nil {
		return ErrCircuitNotSet
	}
	defer dc.restore()

	outer := []float64{math.NaN()}
	if len(dc.sources) == 2 {
		outer = dc.sweepVals[1]
	}

	for _, v2 := range outer {
		if len(dc.sources) == 2 {
			dc.sources[1].SetValue(v2)
		}
		for _, v1 := range dc.sweepVals[0] {
			if err := checkContext(ctx, fmt.Sprintf("%s=%g", dc.sweeps[0].Source, v1)); err != nil {
				return err
			}
			dc.sources[0].SetValue(v1)

			values := []float64{v1}
			if len(dc.sources) == 2 {
				values = append(values, v2)
			}
			if err := dc.solvePoint(values); err != nil {
				return fmt.Errorf("dc sweep at %v: %w", values, err)
			}
		}
	}

	dc.logger.Debug("dc sweep finished", "points", len(dc.results))
	return nil
}

func (dc *DCSweep) solvePoint(values []float64) error {
	status := dc.status(dc.Circuit.Mode())
	if err := dc.solve(status); err != nil {
		return err
	}

	point := DCSweepPoint{
		SourceValues:  values,
		NodeVoltages:  nodeVoltageMap(dc.Circuit.NodeVoltages()),
		ComponentData: componentData(dc.Circuit, status),
	}
	dc.results = append(dc.results, point)
	return nil
}

func (dc *DCSweep) restore() {
	for i, src := range dc.sources {
		src.SetValue(dc.origVals[i])
	}
}

func (dc *DCSweep) Results() []DCSweepPoint {
	return dc.results
}
