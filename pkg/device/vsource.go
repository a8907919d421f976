package device

import (
	"fmt"
	"math"

	"github.com/edp1096/circuit-engine/internal/consts"
	"github.com/edp1096/circuit-engine/pkg/matrix"
	"github.com/edp1096/circuit-engine/pkg/netlist"
)

type VoltageSource struct {
	BaseDevice
	// AC params
	acMag   float64
	acPhase float64 // degrees
	// Branch index for MNA
	branchIdx int
}

var _ BranchDevice = (*VoltageSource)(nil)

func NewVoltageSource(comp netlist.Component) *VoltageSource {
	acMag := consts.DefaultACMagnitude
	if comp.ACMagnitude != nil {
		acMag = *comp.ACMagnitude
	}
	return &VoltageSource{
		BaseDevice: newBaseDevice(comp, comp.Value),
		acMag:      acMag,
		acPhase:    comp.ACPhase,
	}
}

// SetValue changes the DC value, used by source sweeps.
func (v *VoltageSource) SetValue(value float64) {
	v.Value = value
}

func (v *VoltageSource) BranchCount(mode AnalysisMode) int {
	return 1
}

func (v *VoltageSource) SetBranchIndex(idx int) {
	v.branchIdx = idx
}

func (v *VoltageSource) BranchIndex() int {
	return v.branchIdx
}

func (v *VoltageSource) StampDC(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if v.branchIdx <= 0 {
		return fmt.Errorf("voltage source %s: branch index not assigned", v.Name)
	}
	n1, n2 := v.terminals()
	stampBranch(matrix, n1, n2, v.branchIdx, false)
	matrix.AddRHS(v.branchIdx, v.Value)
	return nil
}

func (v *VoltageSource) StampAC(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if v.branchIdx <= 0 {
		return fmt.Errorf("voltage source %s: branch index not assigned", v.Name)
	}
	n1, n2 := v.terminals()
	stampBranch(matrix, n1, n2, v.branchIdx, true)
	re, im := phasor(v.acMag, v.acPhase)
	matrix.AddComplexRHS(v.branchIdx, re, im)
	return nil
}

// StampTransient holds the DC value at every time point.
func (v *VoltageSource) StampTransient(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	return v.StampDC(matrix, status)
}

func (v *VoltageSource) PostSolve(solution Solution, status *CircuitStatus) Measurement {
	return measure(v.voltageAcross(solution), solution.Voltage(v.branchIdx))
}

func phasor(magnitude, phaseDeg float64) (float64, float64) {
	phaseRad := phaseDeg * math.Pi / 180.0
	return magnitude * math.Cos(phaseRad), magnitude * math.Sin(phaseRad)
}
