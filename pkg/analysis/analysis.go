package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edp1096/circuit-engine/internal/consts"
	"github.com/edp1096/circuit-engine/pkg/circuit"
	"github.com/edp1096/circuit-engine/pkg/device"
	"github.com/edp1096/circuit-engine/pkg/netlist"
)

var ErrCircuitNotSet = errors.New("circuit not set")

type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute(ctx context.Context) error
}

// Options are shared by every analysis. Zero fields take the defaults in
// consts.
type Options struct {
	Gmin   float64
	Temp   float64 // Kelvin
	Logger *slog.Logger
}

type BaseAnalysis struct {
	Circuit     *circuit.Circuit
	options     Options
	logger      *slog.Logger
	regularized int
}

func NewBaseAnalysis(opts Options) *BaseAnalysis {
	if opts.Gmin <= 0 {
		opts.Gmin = consts.Gmin
	}
	if opts.Temp <= 0 {
		opts.Temp = consts.DefaultTemp + consts.KELVIN
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BaseAnalysis{options: opts, logger: logger}
}

func (a *BaseAnalysis) setup(ckt *circuit.Circuit, modes ...device.AnalysisMode) error {
	if ckt == nil {
		return ErrCircuitNotSet
	}
	for _, mode := range modes {
		if ckt.Mode() == mode {
			a.Circuit = ckt
			return nil
		}
	}
	return fmt.Errorf("circuit built for %s analysis, want %v", ckt.Mode(), modes)
}

func (a *BaseAnalysis) status(mode device.AnalysisMode) *device.CircuitStatus {
	return &device.CircuitStatus{
		Mode: mode,
		Gmin: a.options.Gmin,
		Temp: a.options.Temp,
	}
}

// solve stamps and solves the circuit once and accumulates the regularized
// pivot count.
func (a *BaseAnalysis) solve(status *device.CircuitStatus) error {
	if a.Circuit == nil {
		return ErrCircuitNotSet
	}
	if err := a.Circuit.Stamp(status); err != nil {
		return fmt.Errorf("stamping error: %w", err)
	}
	if err := a.Circuit.Solve(); err != nil {
		return fmt.Errorf("matrix solve error: %w", err)
	}
	a.regularized += a.Circuit.GetMatrix().RegularizedPivots()
	return nil
}

// RegularizedPivots totals the pivots regularized over the whole run.
func (a *BaseAnalysis) RegularizedPivots() int {
	return a.regularized
}

func checkContext(ctx context.Context, where string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("analysis stopped at %s: %w", where, err)
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return &netlist.ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func nodeVoltageMap(voltages []float64) map[int]float64 {
	m := make(map[int]float64, len(voltages))
	for n, v := range voltages {
		m[n] = v
	}
	m[0] = 0
	return m
}
