package engine

import (
	"context"
	"fmt"

	"github.com/edp1096/circuit-engine/pkg/analysis"
	"github.com/edp1096/circuit-engine/pkg/netlist"
	"github.com/edp1096/circuit-engine/pkg/spectrum"
)

type SpectrumOptions struct {
	Transient analysis.TransientOptions `json:"transient"`
	Node      int                       `json:"node"`
	Window    string                    `json:"window,omitempty"`
	Size      int                       `json:"size,omitempty"`
}

type SpectrumResult struct {
	Node       int            `json:"node"`
	SampleRate float64        `json:"sampleRate"`
	Bins       []spectrum.Bin `json:"bins"`
}

// RunFFT transforms a sample sequence. It needs no circuit.
func (e *Engine) RunFFT(samples []float64, opts spectrum.Options) (resp Response[[]spectrum.Bin]) {
	defer func() {
		if r := recover(); r != nil {
			resp = fail[[]spectrum.Bin](fmt.Errorf("internal error: %v", r))
		}
	}()

	bins, err := spectrum.Analyze(samples, opts)
	if err != nil {
		return fail[[]spectrum.Bin](err)
	}
	return Response[[]spectrum.Bin]{
		Success: true,
		Results: bins,
		Message: "spectrum computed",
	}
}

// RunSpectrum runs a transient and transforms one node's waveform, sampled
// at 1/timeStep.
func (e *Engine) RunSpectrum(ctx context.Context, nl *netlist.Netlist, opts SpectrumOptions) Response[*SpectrumResult] {
	tran := e.RunTransient(ctx, nl, opts.Transient)
	if !tran.Success {
		return Response[*SpectrumResult]{
			Success: false,
			Error:   tran.Error,
			Kind:    tran.Kind,
			Message: tran.Message,
		}
	}
	if opts.Node < 0 || opts.Node >= tran.NumNodes {
		return fail[*SpectrumResult](&netlist.ValidationError{
			Field:  "node",
			Reason: fmt.Sprintf("node %d out of range 0..%d", opts.Node, tran.NumNodes-1),
		})
	}

	sampleRate := 1 / opts.Transient.WithDefaults().TimeStep
	fft := e.RunFFT(analysis.NodeSeries(tran.Results, opts.Node), spectrum.Options{
		Window:     opts.Window,
		Size:       opts.Size,
		SampleRate: sampleRate,
	})
	if !fft.Success {
		return Response[*SpectrumResult]{
			Success: false,
			Error:   fft.Error,
			Kind:    fft.Kind,
			Message: fft.Message,
		}
	}

	return Response[*SpectrumResult]{
		Success:           true,
		Results:           &SpectrumResult{Node: opts.Node, SampleRate: sampleRate, Bins: fft.Results},
		NodeMap:           tran.NodeMap,
		NumNodes:          tran.NumNodes,
		RegularizedPivots: tran.RegularizedPivots,
		Message:           "spectrum computed",
	}
}
