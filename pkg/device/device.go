package device

import (
	"github.com/edp1096/circuit-engine/pkg/matrix"
	"github.com/edp1096/circuit-engine/pkg/netlist"
	"github.com/edp1096/circuit-engine/pkg/util"
)

// Device owns the stamp rules of one component kind.
type Device interface {
	GetName() string
	GetType() netlist.ComponentType
	GetNodes() []int
	SetNodes(nodes []int)
	GetValue() float64
	StampDC(matrix matrix.DeviceMatrix, status *CircuitStatus) error
	StampAC(matrix matrix.DeviceMatrix, status *CircuitStatus) error
	StampTransient(matrix matrix.DeviceMatrix, status *CircuitStatus) error
	PostSolve(solution Solution, status *CircuitStatus) Measurement
}

// BranchDevice is a device that adds auxiliary current unknowns to the
// system in some analysis modes.
type BranchDevice interface {
	Device
	BranchCount(mode AnalysisMode) int
	SetBranchIndex(idx int)
	BranchIndex() int
}

// TimeDependent devices carry history between transient steps.
type TimeDependent interface {
	ResetState()
	UpdateState(solution Solution, status *CircuitStatus)
}

type AnalysisMode int

const (
	OperatingPointAnalysis AnalysisMode = iota
	TransientAnalysis
	ACAnalysis
	DCSweep
)

func (m AnalysisMode) String() string {
	switch m {
	case TransientAnalysis:
		return "transient"
	case ACAnalysis:
		return "ac"
	case DCSweep:
		return "dc_sweep"
	default:
		return "op"
	}
}

// IsDC reports whether the mode solves a DC operating point.
func (m AnalysisMode) IsDC() bool {
	return m == OperatingPointAnalysis || m == DCSweep
}

type CircuitStatus struct {
	Time      float64
	TimeStep  float64
	Gmin      float64
	Mode      AnalysisMode
	Method    util.IntegrationMethod
	Temp      float64 // Kelvin
	Frequency float64 // AC frequency
}

// Solution is a real MNA solution vector, 1-based.
type Solution []float64

// Voltage returns the potential of node n. The reference node and
// indices outside the vector read as 0.
func (s Solution) Voltage(n int) float64 {
	if n <= 0 || n >= len(s) {
		return 0
	}
	return s[n]
}

// Measurement is a component's post-solve voltage, current and power.
type Measurement struct {
	Voltage float64
	Current float64
	Power   float64
}

func measure(v, i float64) Measurement {
	return Measurement{Voltage: v, Current: i, Power: v * i}
}

type BaseDevice struct {
	Name  string
	Type  netlist.ComponentType
	Nodes []int
	Value float64
}

func (d *BaseDevice) GetName() string {
	return d.Name
}

func (d *BaseDevice) GetType() netlist.ComponentType {
	return d.Type
}

func (d *BaseDevice) GetNodes() []int {
	return d.Nodes
}

func (d *BaseDevice) SetNodes(nodes []int) {
	d.Nodes = nodes
}

func (d *BaseDevice) GetValue() float64 {
	return d.Value
}

func (d *BaseDevice) terminals() (int, int) {
	switch len(d.Nodes) {
	case 0:
		return 0, 0
	case 1:
		return d.Nodes[0], 0
	}
	return d.Nodes[0], d.Nodes[1]
}

func (d *BaseDevice) voltageAcross(solution Solution) float64 {
	n1, n2 := d.terminals()
	return solution.Voltage(n1) - solution.Voltage(n2)
}

func newBaseDevice(comp netlist.Component, value float64) BaseDevice {
	return BaseDevice{
		Name:  comp.ID,
		Type:  comp.Type,
		Nodes: make([]int, comp.Type.TerminalCount()),
		Value: value,
	}
}

// stampConductance writes the symmetric 4-term stamp of g between n1 and n2.
func stampConductance(matrix matrix.DeviceMatrix, n1, n2 int, g float64) {
	if n1 != 0 {
		matrix.AddElement(n1, n1, g)
		if n2 != 0 {
			matrix.AddElement(n1, n2, -g)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			matrix.AddElement(n2, n1, -g)
		}
		matrix.AddElement(n2, n2, g)
	}
}

func stampAdmittance(matrix matrix.DeviceMatrix, n1, n2 int, re, im float64) {
	if n1 != 0 {
		matrix.AddComplexElement(n1, n1, re, im)
		if n2 != 0 {
			matrix.AddComplexElement(n1, n2, -re, -im)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			matrix.AddComplexElement(n2, n1, -re, -im)
		}
		matrix.AddComplexElement(n2, n2, re, im)
	}
}

// stampBranch couples branch unknown b to nodes n1 (+) and n2 (-). The
// branch current flows from n1 through the device to n2.
func stampBranch(matrix matrix.DeviceMatrix, n1, n2, b int, isComplex bool) {
	add := func(i, j int, v float64) {
		if isComplex {
			matrix.AddComplexElement(i, j, v, 0)
		} else {
			matrix.AddElement(i, j, v)
		}
	}
	if n1 != 0 {
		add(n1, b, 1)
		add(b, n1, 1)
	}
	if n2 != 0 {
		add(n2, b, -1)
		add(b, n2, -1)
	}
}

// stampCurrent injects a current flowing out of n1 and into n2.
func stampCurrent(matrix matrix.DeviceMatrix, n1, n2 int, value float64) {
	if n1 != 0 {
		matrix.AddRHS(n1, -value)
	}
	if n2 != 0 {
		matrix.AddRHS(n2, value)
	}
}

func stampComplexCurrent(matrix matrix.DeviceMatrix, n1, n2 int, re, im float64) {
	if n1 != 0 {
		matrix.AddComplexRHS(n1, -re, -im)
	}
	if n2 != 0 {
		matrix.AddComplexRHS(n2, re, im)
	}
}
