package matrix

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// Backend selects the linear solver used by CircuitMatrix.
type Backend int

const (
	DenseBackend Backend = iota
	SparseBackend
)

func (b Backend) String() string {
	switch b {
	case SparseBackend:
		return "sparse"
	default:
		return "dense"
	}
}

// ParseBackend maps "dense" (or "") and "sparse" to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch name {
	case "", "dense":
		return DenseBackend, nil
	case "sparse":
		return SparseBackend, nil
	}
	return DenseBackend, fmt.Errorf("unknown solver backend: %s", name)
}

// Config carries the solver settings of a CircuitMatrix.
type Config struct {
	Backend Backend
	Policy  PivotPolicy
	Logger  *slog.Logger
}

type entry struct {
	row, col int
}

// CircuitMatrix accumulates MNA stamps and solves the resulting system.
// Rows and columns are 1-based, row 0 is the reference node.
type CircuitMatrix struct {
	Size      int
	elements  map[entry]complex128
	rhs       []complex128
	solution  []complex128
	isComplex bool
	config    Config
	logger    *slog.Logger

	regularized int
}

func NewMatrix(size int, isComplex bool, config Config) *CircuitMatrix {
	if config.Policy == (PivotPolicy{}) {
		config.Policy = RegularizePivots
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CircuitMatrix{
		Size:      size,
		elements:  make(map[entry]complex128),
		rhs:       make([]complex128, size+1), // 1-based indexing
		solution:  make([]complex128, size+1),
		isComplex: isComplex,
		config:    config,
		logger:    logger,
	}
}

func (m *CircuitMatrix) IsComplex() bool {
	return m.isComplex
}

func (m *CircuitMatrix) inBounds(i, j int) bool {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		m.logger.Warn("matrix index out of bounds", "i", i, "j", j, "size", m.Size)
		return false
	}
	return true
}

func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	if !m.inBounds(i, j) {
		return
	}
	m.elements[entry{i, j}] += complex(value, 0)
}

func (m *CircuitMatrix) AddComplexElement(i, j int, real, imag float64) {
	if !m.inBounds(i, j) {
		return
	}
	m.elements[entry{i, j}] += complex(real, imag)
}

func (m *CircuitMatrix) AddRHS(i int, value float64) {
	if !m.inBounds(i, i) {
		return
	}
	m.rhs[i] += complex(value, 0)
}

func (m *CircuitMatrix) AddComplexRHS(i int, real, imag float64) {
	if !m.inBounds(i, i) {
		return
	}
	m.rhs[i] += complex(real, imag)
}

// LoadGmin adds gmin to the diagonal of rows 1..nodeRows. Branch rows are
// left alone.
func (m *CircuitMatrix) LoadGmin(gmin float64, nodeRows int) {
	for i := 1; i <= nodeRows && i <= m.Size; i++ {
		m.elements[entry{i, i}] += complex(gmin, 0)
	}
}

// Element returns the accumulated value at (i, j).
func (m *CircuitMatrix) Element(i, j int) complex128 {
	return m.elements[entry{i, j}]
}

// RHSValue returns the accumulated right-hand side of row i.
func (m *CircuitMatrix) RHSValue(i int) complex128 {
	if i <= 0 || i > m.Size {
		return 0
	}
	return m.rhs[i]
}

func (m *CircuitMatrix) Clear() {
	clear(m.elements)
	clear(m.rhs)
	clear(m.solution)
	m.regularized = 0
}

func (m *CircuitMatrix) Solve() error {
	m.regularized = 0
	if m.Size == 0 {
		return nil
	}

	if m.config.Backend == SparseBackend {
		err := m.solveSparse()
		if err == nil {
			return nil
		}
		m.logger.Warn("sparse solve failed, falling back to dense elimination", "error", err, "complex", m.isComplex)
	}

	if m.isComplex {
		m.solveDenseComplex()
	} else {
		m.solveDenseReal()
	}
	return nil
}

func (m *CircuitMatrix) solveDenseReal() {
	a := make([][]float64, m.Size)
	for i := range a {
		a[i] = make([]float64, m.Size)
	}
	b := make([]float64, m.Size)
	for e, v := range m.elements {
		a[e.row-1][e.col-1] = real(v)
	}
	for i := 1; i <= m.Size; i++ {
		b[i-1] = real(m.rhs[i])
	}

	x, regularized := GaussianElimination(a, b, m.config.Policy)
	m.reportRegularized(regularized)
	for i, v := range x {
		m.solution[i+1] = complex(v, 0)
	}
}

func (m *CircuitMatrix) solveDenseComplex() {
	a := make([][]complex128, m.Size)
	for i := range a {
		a[i] = make([]complex128, m.Size)
	}
	b := make([]complex128, m.Size)
	for e, v := range m.elements {
		a[e.row-1][e.col-1] = v
	}
	copy(b, m.rhs[1:])

	x, regularized := GaussianElimination(a, b, m.config.Policy)
	m.reportRegularized(regularized)
	copy(m.solution[1:], x)
}

func (m *CircuitMatrix) reportRegularized(steps []int) {
	m.regularized = len(steps)
	for _, k := range steps {
		m.logger.Warn("near-singular pivot regularized",
			"step", k+1,
			"threshold", m.config.Policy.Threshold,
			"replacement", m.config.Policy.Replacement)
	}
}

// RegularizedPivots reports how many pivots the last Solve regularized.
func (m *CircuitMatrix) RegularizedPivots() int {
	return m.regularized
}

// Solution returns the real parts of the last solution, 1-based. Index 0 is
// the reference node and always holds 0.
func (m *CircuitMatrix) Solution() []float64 {
	out := make([]float64, len(m.solution))
	for i, v := range m.solution {
		out[i] = real(v)
	}
	return out
}

// ComplexSolution returns a copy of the last solution, 1-based.
func (m *CircuitMatrix) ComplexSolution() []complex128 {
	return slices.Clone(m.solution)
}

func (m *CircuitMatrix) sortedEntries() []entry {
	keys := make([]entry, 0, len(m.elements))
	for e := range m.elements {
		keys = append(keys, e)
	}
	slices.SortFunc(keys, func(a, b entry) int {
		if a.row != b.row {
			return a.row - b.row
		}
		return a.col - b.col
	})
	return keys
}

func (m *CircuitMatrix) PrintSystem(w io.Writer) {
	fmt.Fprintf(w, "\nCircuit Equations (%dx%d):\n", m.Size, m.Size)
	fmt.Fprintln(w, "Node equations 1..n, followed by branch equations")

	row := 0
	for _, e := range m.sortedEntries() {
		v := m.elements[e]
		if v == 0 {
			continue
		}
		if e.row != row {
			if row != 0 {
				fmt.Fprintf(w, " = %s\n", formatValue(m.rhs[row], m.isComplex))
			}
			row = e.row
			fmt.Fprintf(w, "Equation %d:\n", row)
		}
		if m.isComplex && imag(v) != 0 {
			fmt.Fprintf(w, "  (%g + j%g)*x%d ", real(v), imag(v), e.col)
		} else {
			fmt.Fprintf(w, "  %+g*x%d ", real(v), e.col)
		}
	}
	if row != 0 {
		fmt.Fprintf(w, " = %s\n", formatValue(m.rhs[row], m.isComplex))
	}

	fmt.Fprintf(w, "RHS:\n")
	for i := 1; i <= m.Size; i++ {
		fmt.Fprintf(w, "  x%d = %s\n", i, formatValue(m.rhs[i], m.isComplex))
	}
}

func formatValue(v complex128, isComplex bool) string {
	if !isComplex {
		return fmt.Sprintf("%g", real(v))
	}
	return fmt.Sprintf("%g + j%g", real(v), imag(v))
}
