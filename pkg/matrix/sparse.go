package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

func sparseConfig(isComplex bool) *sparse.Configuration {
	return &sparse.Configuration{
		Real:           true,
		Complex:        isComplex,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}
}

// solveSparse factors the system with the sparse LU package. Entries are
// loaded in row/column order so repeated solves pick the same ordering.
// Complex right-hand sides and solutions are interleaved: re at 2i, im at 2i+1.
func (m *CircuitMatrix) solveSparse() error {
	mat, err := sparse.Create(int64(m.Size), sparseConfig(m.isComplex))
	if err != nil {
		return fmt.Errorf("creating sparse matrix: %w", err)
	}
	defer mat.Destroy()

	// Diagonals first so every row has a pivot candidate
	for i := 1; i <= m.Size; i++ {
		mat.GetElement(int64(i), int64(i))
	}
	for _, e := range m.sortedEntries() {
		element := mat.GetElement(int64(e.row), int64(e.col))
		element.Real += real(m.elements[e])
		if m.isComplex {
			element.Imag += imag(m.elements[e])
		}
	}

	vectorSize := m.Size + 1
	if m.isComplex {
		vectorSize *= 2
	}
	rhs := make([]float64, vectorSize)
	for i := 1; i <= m.Size; i++ {
		if m.isComplex {
			rhs[2*i] = real(m.rhs[i])
			rhs[2*i+1] = imag(m.rhs[i])
		} else {
			rhs[i] = real(m.rhs[i])
		}
	}

	if err := mat.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %w", err)
	}

	var solution []float64
	if m.isComplex {
		solution, _, err = mat.SolveComplex(rhs, nil)
	} else {
		solution, err = mat.Solve(rhs)
	}
	if err != nil {
		return fmt.Errorf("matrix solve failed: %w", err)
	}
	if len(solution) < vectorSize {
		return fmt.Errorf("matrix solve returned %d values, want %d", len(solution), vectorSize)
	}

	for i := 1; i <= m.Size; i++ {
		if m.isComplex {
			m.solution[i] = complex(solution[2*i], solution[2*i+1])
		} else {
			m.solution[i] = complex(solution[i], 0)
		}
	}
	return nil
}
