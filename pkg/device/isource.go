package device

import (
	"github.com/edp1096/circuit-engine/pkg/matrix"
	"github.com/edp1096/circuit-engine/pkg/netlist"
)

// CurrentSource drives its value from node1 to node2 through the source.
type CurrentSource struct {
	BaseDevice
	acMag   float64
	acPhase float64 // degrees
}

func NewCurrentSource(comp netlist.Component) *CurrentSource {
	var acMag float64
	if comp.ACMagnitude != nil {
		acMag = *comp.ACMagnitude
	}
	return &CurrentSource{
		BaseDevice: newBaseDevice(comp, comp.Value),
		acMag:      acMag,
		acPhase:    comp.ACPhase,
	}
}

// SetValue changes the DC value, used by source sweeps.
func (i *CurrentSource) SetValue(value float64) {
	i.Value = value
}

func (i *CurrentSource) StampDC(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := i.terminals()
	stampCurrent(matrix, n1, n2, i.Value)
	return nil
}

func (i *CurrentSource) StampAC(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := i.terminals()
	re, im := phasor(i.acMag, i.acPhase)
	stampComplexCurrent(matrix, n1, n2, re, im)
	return nil
}

func (i *CurrentSource) StampTransient(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	return i.StampDC(matrix, status)
}

func (i *CurrentSource) PostSolve(solution Solution, status *CircuitStatus) Measurement {
	return measure(i.voltageAcross(solution), i.Value)
}
