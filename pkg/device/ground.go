package device

import (
	"github.com/edp1096/circuit-engine/pkg/matrix"
	"github.com/edp1096/circuit-engine/pkg/netlist"
)

// Ground pins its terminal to node 0 and stamps nothing.
type Ground struct {
	BaseDevice
}

func NewGround(comp netlist.Component) *Ground {
	return &Ground{BaseDevice: newBaseDevice(comp, 0)}
}

func (g *Ground) StampDC(matrix.DeviceMatrix, *CircuitStatus) error        { return nil }
func (g *Ground) StampAC(matrix.DeviceMatrix, *CircuitStatus) error        { return nil }
func (g *Ground) StampTransient(matrix.DeviceMatrix, *CircuitStatus) error { return nil }

func (g *Ground) PostSolve(Solution, *CircuitStatus) Measurement {
	return Measurement{}
}
