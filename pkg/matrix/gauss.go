package matrix

import (
	"math"
	"math/cmplx"

	"github.com/edp1096/circuit-engine/internal/consts"
	"golang.org/x/exp/constraints"
)

// Scalar is the element type of a system: real for DC and transient,
// complex for AC.
type Scalar interface {
	constraints.Float | constraints.Complex
}

// PivotPolicy decides what happens to a pivot whose magnitude falls below
// Threshold. The pivot is overwritten with Replacement and elimination goes
// on, so a near-singular system still yields a (possibly inaccurate) answer.
type PivotPolicy struct {
	Threshold   float64
	Replacement float64
}

// RegularizePivots is the engine's policy for near-singular pivots.
var RegularizePivots = PivotPolicy{
	Threshold:   consts.PivotThreshold,
	Replacement: consts.RegularizedPivot,
}

func magnitude[T Scalar](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return math.Abs(float64(x))
	case float64:
		return math.Abs(x)
	case complex64:
		return cmplx.Abs(complex128(x))
	case complex128:
		return cmplx.Abs(x)
	}
	return 0
}

func fromReal[T Scalar](f float64) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(float32(f)).(T)
	case float64:
		return any(f).(T)
	case complex64:
		return any(complex64(complex(f, 0))).(T)
	case complex128:
		return any(complex(f, 0)).(T)
	}
	return zero
}

// GaussianElimination solves a·x = b with partial pivoting. a and b are
// overwritten. The second result lists the elimination steps whose pivot was
// regularized under policy.
func GaussianElimination[T Scalar](a [][]T, b []T, policy PivotPolicy) ([]T, []int) {
	n := len(b)
	x := make([]T, n)
	replacement := fromReal[T](policy.Replacement)
	var regularized []int

	for k := 0; k < n; k++ {
		// Find pivot
		maxRow := k
		maxVal := magnitude(a[k][k])
		for i := k + 1; i < n; i++ {
			if val := magnitude(a[i][k]); val > maxVal {
				maxVal = val
				maxRow = i
			}
		}

		if maxRow != k {
			a[k], a[maxRow] = a[maxRow], a[k]
			b[k], b[maxRow] = b[maxRow], b[k]
		}

		if magnitude(a[k][k]) < policy.Threshold {
			a[k][k] = replacement
			regularized = append(regularized, k)
		}

		pivot := a[k][k]
		for i := k + 1; i < n; i++ {
			factor := a[i][k] / pivot
			if factor == 0 {
				continue
			}
			for j := k; j < n; j++ {
				a[i][j] -= factor * a[k][j]
			}
			b[i] -= factor * b[k]
		}
	}

	// Back substitution
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= a[i][j] * x[j]
		}
		x[i] = sum / a[i][i]
	}

	return x, regularized
}
