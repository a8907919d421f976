package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/edp1096/circuit-engine/internal/consts"
	"github.com/edp1096/circuit-engine/pkg/circuit"
	"github.com/edp1096/circuit-engine/pkg/device"
	"github.com/edp1096/circuit-engine/pkg/util"
)

type TransientOptions struct {
	Duration float64 `json:"duration"`
	TimeStep float64 `json:"timeStep"`
	Method   string  `json:"method,omitempty"` // trapezoidal or backward_euler
}

// WithDefaults fills zero fields: 1 ms in 1 µs trapezoidal steps.
func (o TransientOptions) WithDefaults() TransientOptions {
	if o.Duration == 0 {
		o.Duration = 1e-3
	}
	if o.TimeStep == 0 {
		o.TimeStep = 1e-6
	}
	if o.Method == "" {
		o.Method = util.TrapezoidalMethod.String()
	}
	return o
}

type TransientPoint struct {
	Time         float64         `json:"time"`
	NodeVoltages map[int]float64 `json:"nodeVoltages"`
}

// Transient integrates the circuit with a fixed time step from zero initial
// conditions. Samples are taken at t = k·dt for k = 0..ceil(duration/dt).
// The t=0 sample holds capacitors at 0 V and inductors at 0 A.
type Transient struct {
	BaseAnalysis
	opts     TransientOptions
	method   util.IntegrationMethod
	numSteps int
	results  []TransientPoint
}

func NewTransient(tranOpts TransientOptions, opts Options) *Transient {
	return &Transient{
		BaseAnalysis: *NewBaseAnalysis(opts),
		opts:         tranOpts.WithDefaults(),
	}
}

func (tr *Transient) Setup(ckt *circuit.Circuit) error {
	if err := tr.setup(ckt, device.TransientAnalysis); err != nil {
		return err
	}

	o := tr.opts
	if !(o.TimeStep > 0) {
		return invalid("timeStep", "time step must be positive, got %g", o.TimeStep)
	}
	if !(o.Duration > 0) {
		return invalid("duration", "duration must be positive, got %g", o.Duration)
	}
	method, err := util.ParseIntegrationMethod(o.Method)
	if err != nil {
		return invalid("method", "%v", err)
	}

	steps := math.Ceil(o.Duration/o.TimeStep - 1e-9)
	if steps > consts.MaxPoints {
		return invalid("timeStep", "%g s in steps of %g s needs %g steps, limit is %d", o.Duration, o.TimeStep, steps, consts.MaxPoints)
	}

	tr.method = method
	tr.numSteps = max(int(steps), 1)

	tr.Circuit.ResetState()
	return nil
}

func (tr *Transient) Execute(ctx context.Context) error {
	if tr.Circuit == nil {
		return ErrCircuitNotSet
	}

	tr.results = nil
	if err := tr.initialState(ctx); err != nil {
		return err
	}

	status := tr.status(device.TransientAnalysis)
	status.TimeStep = tr.opts.TimeStep
	status.Method = tr.method

	for step := 1; step <= tr.numSteps; step++ {
		status.Time = float64(step) * tr.opts.TimeStep
		if err := checkContext(ctx, fmt.Sprintf("t=%g", status.Time)); err != nil {
			return err
		}

		if err := tr.solve(status); err != nil {
			return fmt.Errorf("transient analysis at t=%g: %w", status.Time, err)
		}

		tr.results = append(tr.results, TransientPoint{
			Time:         status.Time,
			NodeVoltages: nodeVoltageMap(tr.Circuit.NodeVoltages()),
		})
		tr.Circuit.Update(status)
	}

	tr.logger.Debug("transient finished",
		"steps", tr.numSteps,
		"method", tr.method.String(),
		"size", tr.Circuit.GetMatrix().Size)
	return nil
}

// initialState solves t=0 with a vanishing backward Euler step so the zero
// history pins capacitor voltages and inductor currents. History is not
// updated from this solve.
func (tr *Transient) initialState(ctx context.Context) error {
	if err := checkContext(ctx, "t=0"); err != nil {
		return err
	}

	status := tr.status(device.TransientAnalysis)
	status.TimeStep = tr.opts.TimeStep * consts.InitialStepFraction
	status.Method = util.BackwardEulerMethod
	if err := tr.solve(status); err != nil {
		return fmt.Errorf("transient analysis at t=0: %w", err)
	}

	tr.results = append(tr.results, TransientPoint{
		Time:         0,
		NodeVoltages: nodeVoltageMap(tr.Circuit.NodeVoltages()),
	})
	return nil
}

func (tr *Transient) Results() []TransientPoint {
	return tr.results
}

// NodeSeries extracts one node's voltage over a transient run.
func NodeSeries(points []TransientPoint, node int) []float64 {
	series := make([]float64, len(points))
	for i, p := range points {
		series[i] = p.NodeVoltages[node]
	}
	return series
}
