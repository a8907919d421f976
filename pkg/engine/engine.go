// Package engine is the boundary between callers and the analyses. Every
// entry point returns a Response; errors, validation failures included, are
// reported in it and never returned or panicked past this package.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edp1096/circuit-engine/internal/consts"
	"github.com/edp1096/circuit-engine/pkg/analysis"
	"github.com/edp1096/circuit-engine/pkg/circuit"
	"github.com/edp1096/circuit-engine/pkg/device"
	"github.com/edp1096/circuit-engine/pkg/matrix"
	"github.com/edp1096/circuit-engine/pkg/netlist"
)

// Error kinds reported in Response.Kind.
const (
	KindValidation = "validation"
	KindCanceled   = "canceled"
	KindAnalysis   = "analysis"
)

type Options struct {
	Gmin        float64      `json:"gmin,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"` // Celsius, default 27
	Solver      string       `json:"solver,omitempty"`      // dense or sparse
	Logger      *slog.Logger `json:"-"`
}

type Response[T any] struct {
	Success           bool             `json:"success"`
	Results           T                `json:"results,omitempty"`
	NodeMap           map[string][]int `json:"nodeMap,omitempty"`
	NumNodes          int              `json:"numNodes,omitempty"`
	RegularizedPivots int              `json:"regularizedPivots,omitempty"`
	Error             string           `json:"error,omitempty"`
	Kind              string           `json:"kind,omitempty"`
	Message           string           `json:"message,omitempty"`
}

type Engine struct {
	opts         analysis.Options
	matrixConfig matrix.Config
	logger       *slog.Logger
}

func New(opts Options) (*Engine, error) {
	backend, err := matrix.ParseBackend(opts.Solver)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	temp := consts.DefaultTemp
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	if temp+consts.KELVIN <= 0 {
		return nil, fmt.Errorf("temperature %g C is below absolute zero", temp)
	}

	return &Engine{
		opts: analysis.Options{
			Gmin:   opts.Gmin,
			Temp:   temp + consts.KELVIN,
			Logger: logger,
		},
		matrixConfig: matrix.Config{
			Backend: backend,
			Policy:  matrix.RegularizePivots,
			Logger:  logger,
		},
		logger: logger,
	}, nil
}

// Default is an engine with default options.
func Default() *Engine {
	e, _ := New(Options{})
	return e
}

type runner interface {
	analysis.Analysis
	RegularizedPivots() int
}

// execute builds a fresh circuit for mode, runs a on it and wraps the outcome.
func execute[T any](ctx context.Context, e *Engine, nl *netlist.Netlist, mode device.AnalysisMode, a runner, result func() T) (resp Response[T]) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			resp = fail[T](fmt.Errorf("internal error: %v", r))
		}
		e.logger.Debug("simulation finished",
			"mode", mode.String(),
			"success", resp.Success,
			"elapsed", time.Since(start))
	}()

	if nl == nil {
		return fail[T](&netlist.ValidationError{Field: "circuit", Reason: "no circuit given"})
	}

	ckt, err := circuit.Build(nl, mode, e.matrixConfig)
	if err != nil {
		return fail[T](err)
	}
	if err := a.Setup(ckt); err != nil {
		return fail[T](err)
	}
	if err := a.Execute(ctx); err != nil {
		return fail[T](err)
	}

	return Response[T]{
		Success:           true,
		Results:           result(),
		NodeMap:           ckt.GetNodeMap().Components(),
		NumNodes:          ckt.GetNumNodes(),
		RegularizedPivots: a.RegularizedPivots(),
		Message:           "simulation completed",
	}
}

func fail[T any](err error) Response[T] {
	kind := KindAnalysis
	switch {
	case netlist.IsValidation(err):
		kind = KindValidation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindCanceled
	}
	return Response[T]{
		Success: false,
		Error:   err.Error(),
		Kind:    kind,
		Message: "simulation failed",
	}
}

// Simulate runs the DC operating point.
func (e *Engine) Simulate(ctx context.Context, nl *netlist.Netlist) Response[*analysis.DCResult] {
	op := analysis.NewOP(e.opts)
	return execute(ctx, e, nl, device.OperatingPointAnalysis, op, op.Result)
}

// RunDCSweep steps one or two sources through their ranges.
func (e *Engine) RunDCSweep(ctx context.Context, nl *netlist.Netlist, sweeps []analysis.SweepSource) Response[[]analysis.DCSweepPoint] {
	dc := analysis.NewDCSweep(sweeps, e.opts)
	return execute(ctx, e, nl, device.DCSweep, dc, dc.Results)
}

// RunAC sweeps frequency and returns Bode data of outputNode over inputNode.
func (e *Engine) RunAC(ctx context.Context, nl *netlist.Netlist, opts analysis.ACOptions) Response[[]analysis.BodePoint] {
	ac := analysis.NewAC(opts, e.opts)
	return execute(ctx, e, nl, device.ACAnalysis, ac, ac.Results)
}

// RunTransient integrates from zero initial conditions.
func (e *Engine) RunTransient(ctx context.Context, nl *netlist.Netlist, opts analysis.TransientOptions) Response[[]analysis.TransientPoint] {
	tr := analysis.NewTransient(opts, e.opts)
	return execute(ctx, e, nl, device.TransientAnalysis, tr, tr.Results)
}
