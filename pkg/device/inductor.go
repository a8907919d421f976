package device

import (
	"fmt"
	"math"

	"github.com/edp1096/circuit-engine/internal/consts"
	"github.com/edp1096/circuit-engine/pkg/matrix"
	"github.com/edp1096/circuit-engine/pkg/netlist"
	"github.com/edp1096/circuit-engine/pkg/util"
)

// Inductor is an exact short in DC, carried by one branch unknown like a
// zero-volt source. AC and transient stamps need no branch.
type Inductor struct {
	BaseDevice
	branchIdx int
	voltage1  float64 // Previous voltage
	current1  float64 // Previous current
	geq       float64
	ieq       float64
}

var (
	_ TimeDependent = (*Inductor)(nil)
	_ BranchDevice  = (*Inductor)(nil)
)

func NewInductor(comp netlist.Component) *Inductor {
	value := comp.Value
	if value == 0 {
		value = consts.DefaultInductance
	}
	return &Inductor{BaseDevice: newBaseDevice(comp, value)}
}

func (l *Inductor) BranchCount(mode AnalysisMode) int {
	if mode.IsDC() {
		return 1
	}
	return 0
}

func (l *Inductor) SetBranchIndex(idx int) {
	l.branchIdx = idx
}

func (l *Inductor) BranchIndex() int {
	return l.branchIdx
}

func (l *Inductor) StampDC(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if l.branchIdx <= 0 {
		return fmt.Errorf("inductor %s: branch index not assigned", l.Name)
	}
	n1, n2 := l.terminals()
	stampBranch(matrix, n1, n2, l.branchIdx, false)
	return nil
}

func (l *Inductor) StampAC(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	omega := 2 * math.Pi * status.Frequency
	if omega <= 0 {
		return fmt.Errorf("inductor %s: AC stamp needs a positive frequency", l.Name)
	}
	n1, n2 := l.terminals()
	stampAdmittance(matrix, n1, n2, 0, -1.0/(omega*l.Value)) // 1/(jωL)
	return nil
}

// StampTransient stamps the companion model
//
//	TR: Geq = dt/2L, Ieq = Iprev + Geq·Vprev
//	BE: Geq = dt/L,  Ieq = Iprev
//
// with the device current i = Geq·v + Ieq.
func (l *Inductor) StampTransient(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if status.TimeStep <= 0 {
		return fmt.Errorf("inductor %s: non-positive time step %g", l.Name, status.TimeStep)
	}

	l.geq = 1.0 / (l.Value * util.CompanionFactor(status.Method, status.TimeStep))
	l.ieq = l.current1
	if status.Method == util.TrapezoidalMethod {
		l.ieq += l.geq * l.voltage1
	}

	n1, n2 := l.terminals()
	stampConductance(matrix, n1, n2, l.geq)
	if n1 != 0 {
		matrix.AddRHS(n1, -l.ieq)
	}
	if n2 != 0 {
		matrix.AddRHS(n2, l.ieq)
	}
	return nil
}

func (l *Inductor) PostSolve(solution Solution, status *CircuitStatus) Measurement {
	v := l.voltageAcross(solution)
	switch {
	case status.Mode.IsDC():
		return measure(v, solution.Voltage(l.branchIdx))
	case status.Mode == TransientAnalysis:
		return measure(v, l.geq*v+l.ieq)
	}
	return measure(v, 0)
}

func (l *Inductor) ResetState() {
	l.voltage1, l.current1 = 0, 0
	l.geq, l.ieq = 0, 0
}

func (l *Inductor) UpdateState(solution Solution, status *CircuitStatus) {
	v := l.voltageAcross(solution)
	l.current1 = l.geq*v + l.ieq
	l.voltage1 = v
}
