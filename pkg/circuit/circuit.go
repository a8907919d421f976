package circuit

import (
	"fmt"

	"github.com/edp1096/circuit-engine/pkg/device"
	"github.com/edp1096/circuit-engine/pkg/matrix"
	"github.com/edp1096/circuit-engine/pkg/netlist"
)

// Circuit is one analysis' view of a netlist: node map, branch unknowns,
// devices and the MNA system. A Circuit is built fresh for every analysis
// run and never shared between runs.
type Circuit struct {
	name      string
	mode      device.AnalysisMode
	nodeMap   *NodeMap
	branchMap map[string]int
	devices   []device.Device
	byID      map[string]device.Device
	numNodes  int
	matrix    *matrix.CircuitMatrix
}

func New(name string, mode device.AnalysisMode) *Circuit {
	return &Circuit{
		name:      name,
		mode:      mode,
		branchMap: make(map[string]int),
		devices:   make([]device.Device, 0),
		byID:      make(map[string]device.Device),
	}
}

// Build validates the netlist and assembles a circuit ready for stamping.
func Build(nl *netlist.Netlist, mode device.AnalysisMode, config matrix.Config) (*Circuit, error) {
	if err := nl.Validate(); err != nil {
		return nil, err
	}

	c := New(nl.Title, mode)
	if err := c.SetupDevices(nl.Components); err != nil {
		return nil, err
	}
	if err := c.AssignNodeBranchMaps(nl); err != nil {
		return nil, err
	}
	c.CreateMatrix(config)
	return c, nil
}

func (c *Circuit) SetupDevices(components []netlist.Component) error {
	for _, comp := range components {
		dev, err := device.New(comp)
		if err != nil {
			return fmt.Errorf("creating device %s: %w", comp.ID, err)
		}
		c.devices = append(c.devices, dev)
		c.byID[comp.ID] = dev
	}
	return nil
}

// AssignNodeBranchMaps resolves nodes and numbers the branch unknowns after
// the node unknowns, in device order.
func (c *Circuit) AssignNodeBranchMaps(nl *netlist.Netlist) error {
	c.nodeMap = MapNodes(nl)
	c.numNodes = c.nodeMap.NumNodes()

	for _, dev := range c.devices {
		nodes := c.nodeMap.ComponentNodes(dev.GetName())
		if len(nodes) != len(dev.GetNodes()) {
			return fmt.Errorf("device %s: %d terminals mapped, want %d", dev.GetName(), len(nodes), len(dev.GetNodes()))
		}
		dev.SetNodes(append([]int(nil), nodes...))
	}

	branchStart := c.numNodes // nodes 1..numNodes-1, then branches
	for _, dev := range c.devices {
		bd, ok := dev.(device.BranchDevice)
		if !ok || bd.BranchCount(c.mode) == 0 {
			continue
		}
		bd.SetBranchIndex(branchStart)
		c.branchMap[dev.GetName()] = branchStart
		branchStart++
	}
	return nil
}

// CreateMatrix sizes the system as (numNodes-1) + branch unknowns.
func (c *Circuit) CreateMatrix(config matrix.Config) {
	matrixSize := c.numNodes - 1 + len(c.branchMap)
	c.matrix = matrix.NewMatrix(matrixSize, c.mode == device.ACAnalysis, config)
}

// Stamp clears the system, loads gmin on the node rows and stamps every
// device for the circuit's mode.
func (c *Circuit) Stamp(status *device.CircuitStatus) error {
	c.matrix.Clear()
	c.matrix.LoadGmin(status.Gmin, c.numNodes-1)

	for _, dev := range c.devices {
		var err error
		switch c.mode {
		case device.ACAnalysis:
			err = dev.StampAC(c.matrix, status)
		case device.TransientAnalysis:
			err = dev.StampTransient(c.matrix, status)
		default:
			err = dev.StampDC(c.matrix, status)
		}
		if err != nil {
			return fmt.Errorf("stamping device %s: %w", dev.GetName(), err)
		}
	}
	return nil
}

func (c *Circuit) Solve() error {
	if err := c.matrix.Solve(); err != nil {
		return fmt.Errorf("solving %s system: %w", c.mode, err)
	}
	return nil
}

// ResetState zeroes the history of every time dependent device.
func (c *Circuit) ResetState() {
	for _, dev := range c.devices {
		if td, ok := dev.(device.TimeDependent); ok {
			td.ResetState()
		}
	}
}

// Update advances the history of time dependent devices to the last
// solution.
func (c *Circuit) Update(status *device.CircuitStatus) {
	solution := c.Solution()
	for _, dev := range c.devices {
		if td, ok := dev.(device.TimeDependent); ok {
			td.UpdateState(solution, status)
		}
	}
}

func (c *Circuit) Solution() device.Solution {
	return device.Solution(c.matrix.Solution())
}

// NodeVoltages returns the real node voltages indexed by node id; entry 0 is
// ground.
func (c *Circuit) NodeVoltages() []float64 {
	solution := c.Solution()
	voltages := make([]float64, c.numNodes)
	for n := 1; n < c.numNodes; n++ {
		voltages[n] = solution.Voltage(n)
	}
	return voltages
}

// ComplexNodeVoltages is NodeVoltages for AC systems.
func (c *Circuit) ComplexNodeVoltages() []complex128 {
	solution := c.matrix.ComplexSolution()
	voltages := make([]complex128, c.numNodes)
	for n := 1; n < c.numNodes && n < len(solution); n++ {
		voltages[n] = solution[n]
	}
	return voltages
}

// Measure runs PostSolve on every device.
func (c *Circuit) Measure(status *device.CircuitStatus) map[string]device.Measurement {
	solution := c.Solution()
	data := make(map[string]device.Measurement, len(c.devices))
	for _, dev := range c.devices {
		data[dev.GetName()] = dev.PostSolve(solution, status)
	}
	return data
}

func (c *Circuit) Name() string {
	return c.name
}

func (c *Circuit) Mode() device.AnalysisMode {
	return c.mode
}

func (c *Circuit) GetMatrix() *matrix.CircuitMatrix {
	return c.matrix
}

func (c *Circuit) GetNodeMap() *NodeMap {
	return c.nodeMap
}

func (c *Circuit) GetBranchMap() map[string]int {
	return c.branchMap
}

func (c *Circuit) GetDevices() []device.Device {
	return c.devices
}

// Device looks a device up by component id.
func (c *Circuit) Device(id string) (device.Device, bool) {
	dev, ok := c.byID[id]
	return dev, ok
}

// GetNumNodes counts the nodes including ground.
func (c *Circuit) GetNumNodes() int {
	return c.numNodes
}

func (c *Circuit) GetNodeVoltage(nodeIdx int) float64 {
	return c.Solution().Voltage(nodeIdx)
}
