package device

import (
	"fmt"

	"github.com/edp1096/circuit-engine/pkg/netlist"
)

// Sweepable is a source whose DC value can be stepped by a DC sweep.
type Sweepable interface {
	Device
	SetValue(value float64)
}

var (
	_ Sweepable = (*VoltageSource)(nil)
	_ Sweepable = (*CurrentSource)(nil)
)

// New creates the device for a component. Zero values of R, C and L take
// the defaults in consts.
func New(comp netlist.Component) (Device, error) {
	switch comp.Type {
	case netlist.Resistor:
		return NewResistor(comp), nil
	case netlist.LED:
		return NewLED(comp), nil
	case netlist.Capacitor:
		return NewCapacitor(comp), nil
	case netlist.Inductor:
		return NewInductor(comp), nil
	case netlist.VoltageSource:
		return NewVoltageSource(comp), nil
	case netlist.CurrentSource:
		return NewCurrentSource(comp), nil
	case netlist.Ground:
		return NewGround(comp), nil
	}
	return nil, fmt.Errorf("unsupported component type: %s", comp.Type)
}
