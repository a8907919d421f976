package analysis

import (
	"context"

	"github.com/edp1096/circuit-engine/pkg/circuit"
	"github.com/edp1096/circuit-engine/pkg/device"
	"github.com/edp1096/circuit-engine/pkg/netlist"
)

type ComponentResult struct {
	Type    netlist.ComponentType `json:"type"`
	Voltage float64               `json:"voltage"`
	Current float64               `json:"current"`
	Power   float64               `json:"power"`
	Nodes   []int                 `json:"nodes"`
}

type DCResult struct {
	NodeVoltages  map[int]float64            `json:"nodeVoltages"`
	ComponentData map[string]ComponentResult `json:"componentData"`
}

type OperatingPoint struct {
	BaseAnalysis
	result *DCResult
}

func NewOP(opts Options) *OperatingPoint {
	return &OperatingPoint{BaseAnalysis: *NewBaseAnalysis(opts)}
}

func (op *OperatingPoint) Setup(ckt *circuit.Circuit) error {
	return op.setup(ckt, device.OperatingPointAnalysis, device.DCSweep)
}

func (op *OperatingPoint) Execute(ctx context.Context) error {
	if op.Circuit == nil {
		return ErrCircuitNotSet
	}
	if err := checkContext(ctx, "operating point"); err != nil {
		return err
	}

	status := op.status(op.Circuit.Mode())
	if err := op.solve(status); err != nil {
		return err
	}

	op.result = op.extract(status)
	op.logger.Debug("operating point solved",
		"nodes", op.Circuit.GetNumNodes(),
		"size", op.Circuit.GetMatrix().Size,
		"regularizedPivots", op.regularized)
	return nil
}

func (op *OperatingPoint) extract(status *device.CircuitStatus) *DCResult {
	return &DCResult{
		NodeVoltages:  nodeVoltageMap(op.Circuit.NodeVoltages()),
		ComponentData: componentData(op.Circuit, status),
	}
}

func componentData(ckt *circuit.Circuit, status *device.CircuitStatus) map[string]ComponentResult {
	data := make(map[string]ComponentResult)
	for id, m := range ckt.Measure(status) {
		res := ComponentResult{
			Voltage: m.Voltage,
			Current: m.Current,
			Power:   m.Power,
			Nodes:   ckt.GetNodeMap().ComponentNodes(id),
		}
		if dev, ok := ckt.Device(id); ok {
			res.Type = dev.GetType()
		}
		data[id] = res
	}
	return data
}

func (op *OperatingPoint) Result() *DCResult {
	return op.result
}
