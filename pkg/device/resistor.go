package device

import (
	"fmt"

	"github.com/edp1096/circuit-engine/internal/consts"
	"github.com/edp1096/circuit-engine/pkg/matrix"
	"github.com/edp1096/circuit-engine/pkg/netlist"
)

// Resistor also serves as the LED model: a fixed resistance with no
// temperature coefficients.
type Resistor struct {
	BaseDevice
	Tc1  float64
	Tc2  float64
	Tnom float64
}

func NewResistor(comp netlist.Component) *Resistor {
	value := comp.Value
	if value == 0 {
		value = consts.DefaultResistance
	}
	return &Resistor{
		BaseDevice: newBaseDevice(comp, value),
		Tc1:        comp.TC1,
		Tc2:        comp.TC2,
		Tnom:       consts.DefaultTemp + consts.KELVIN,
	}
}

func NewLED(comp netlist.Component) *Resistor {
	return &Resistor{
		BaseDevice: newBaseDevice(comp, consts.LEDResistance),
		Tnom:       consts.DefaultTemp + consts.KELVIN,
	}
}

func (r *Resistor) conductance(status *CircuitStatus) (float64, error) {
	resistance := r.temperatureAdjustedValue(status.Temp)
	if resistance <= 0 {
		return 0, fmt.Errorf("resistor %s: non-positive resistance %g", r.Name, resistance)
	}
	return 1.0 / resistance, nil
}

func (r *Resistor) StampDC(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	g, err := r.conductance(status)
	if err != nil {
		return err
	}
	n1, n2 := r.terminals()
	stampConductance(matrix, n1, n2, g)
	return nil
}

func (r *Resistor) StampAC(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	g, err := r.conductance(status)
	if err != nil {
		return err
	}
	n1, n2 := r.terminals()
	stampAdmittance(matrix, n1, n2, g, 0)
	return nil
}

func (r *Resistor) StampTransient(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	return r.StampDC(matrix, status)
}

func (r *Resistor) PostSolve(solution Solution, status *CircuitStatus) Measurement {
	v := r.voltageAcross(solution)
	g, err := r.conductance(status)
	if err != nil {
		return measure(v, 0)
	}
	return measure(v, v*g)
}

// temperatureAdjustedValue applies R(T) = R·(1 + tc1·dT + tc2·dT²). A zero
// temperature means the nominal one.
func (r *Resistor) temperatureAdjustedValue(temp float64) float64 {
	if temp == 0 || (r.Tc1 == 0 && r.Tc2 == 0) {
		return r.Value
	}
	dt := temp - r.Tnom
	factor := 1.0 + r.Tc1*dt + r.Tc2*dt*dt
	return r.Value * factor
}
