package device

import (
	"fmt"
	"math"

	"github.com/edp1096/circuit-engine/internal/consts"
	"github.com/edp1096/circuit-engine/pkg/matrix"
	"github.com/edp1096/circuit-engine/pkg/netlist"
	"github.com/edp1096/circuit-engine/pkg/util"
)

type Capacitor struct {
	BaseDevice
	voltage1 float64 // Previous voltage
	current1 float64 // Previous current
	geq      float64 // Companion conductance of the current step
	ieq      float64 // Companion current of the current step
}

var _ TimeDependent = (*Capacitor)(nil)

func NewCapacitor(comp netlist.Component) *Capacitor {
	value := comp.Value
	if value == 0 {
		value = consts.DefaultCapacitance
	}
	return &Capacitor{BaseDevice: newBaseDevice(comp, value)}
}

// StampDC leaves the capacitor open.
func (c *Capacitor) StampDC(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	return nil
}

func (c *Capacitor) StampAC(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	omega := 2 * math.Pi * status.Frequency
	n1, n2 := c.terminals()
	stampAdmittance(matrix, n1, n2, 0, omega*c.Value) // C * jω
	return nil
}

// StampTransient stamps the companion model
//
//	TR: Geq = 2C/dt, Ieq = Geq·Vprev + Iprev
//	BE: Geq = C/dt,  Ieq = Geq·Vprev
//
// with the device current i = Geq·v - Ieq.
func (c *Capacitor) StampTransient(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if status.TimeStep <= 0 {
		return fmt.Errorf("capacitor %s: non-positive time step %g", c.Name, status.TimeStep)
	}

	c.geq = c.Value * util.CompanionFactor(status.Method, status.TimeStep)
	c.ieq = c.geq * c.voltage1
	if status.Method == util.TrapezoidalMethod {
		c.ieq += c.current1
	}

	n1, n2 := c.terminals()
	stampConductance(matrix, n1, n2, c.geq)
	if n1 != 0 {
		matrix.AddRHS(n1, c.ieq)
	}
	if n2 != 0 {
		matrix.AddRHS(n2, -c.ieq)
	}
	return nil
}

func (c *Capacitor) PostSolve(solution Solution, status *CircuitStatus) Measurement {
	v := c.voltageAcross(solution)
	if status.Mode != TransientAnalysis {
		return measure(v, 0)
	}
	return measure(v, c.geq*v-c.ieq)
}

func (c *Capacitor) ResetState() {
	c.voltage1, c.current1 = 0, 0
	c.geq, c.ieq = 0, 0
}

func (c *Capacitor) UpdateState(solution Solution, status *CircuitStatus) {
	v := c.voltageAcross(solution)
	c.current1 = c.geq*v - c.ieq
	c.voltage1 = v
}
