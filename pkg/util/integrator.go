package util

import (
	"fmt"
	"strings"
)

type IntegrationMethod int

const (
	TrapezoidalMethod IntegrationMethod = iota
	BackwardEulerMethod
)

func (m IntegrationMethod) String() string {
	switch m {
	case BackwardEulerMethod:
		return "backward_euler"
	default:
		return "trapezoidal"
	}
}

// ParseIntegrationMethod accepts "trapezoidal" (or "tr", ""), and
// "backward_euler" (or "be", "euler").
func ParseIntegrationMethod(name string) (IntegrationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "trapezoidal", "tr", "trap":
		return TrapezoidalMethod, nil
	case "backward_euler", "be", "euler":
		return BackwardEulerMethod, nil
	}
	return TrapezoidalMethod, fmt.Errorf("unknown integration method %q", name)
}

// CompanionFactor is the derivative coefficient of the integration rule:
// 2/dt for trapezoidal, 1/dt for backward Euler. A capacitor's companion
// conductance is C times this factor, an inductor's is 1/(L times it).
func CompanionFactor(method IntegrationMethod, dt float64) float64 {
	if method == TrapezoidalMethod {
		return 2.0 / dt
	}
	return 1.0 / dt
}
