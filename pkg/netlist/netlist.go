package netlist

import (
	"fmt"
)

type ComponentType string

const (
	VoltageSource ComponentType = "voltage_source"
	CurrentSource ComponentType = "current_source"
	Resistor      ComponentType = "resistor"
	Capacitor     ComponentType = "capacitor"
	Inductor      ComponentType = "inductor"
	LED           ComponentType = "led"
	Ground        ComponentType = "ground"
)

// TerminalCount reports how many terminals a component type exposes, or 0
// for an unknown type.
func (t ComponentType) TerminalCount() int {
	switch t {
	case Ground:
		return 1
	case VoltageSource, CurrentSource, Resistor, Capacitor, Inductor, LED:
		return 2
	default:
		return 0
	}
}

func (t ComponentType) Known() bool { return t.TerminalCount() > 0 }

type Component struct {
	ID          string        `json:"id" yaml:"id"`
	Type        ComponentType `json:"type" yaml:"type"`
	Value       float64       `json:"value" yaml:"value"`
	ACMagnitude *float64      `json:"acMagnitude,omitempty" yaml:"acMagnitude,omitempty"` // Small signal magnitude for sources
	ACPhase     float64       `json:"acPhase,omitempty" yaml:"acPhase,omitempty"`         // Degree
	TC1         float64       `json:"tc1,omitempty" yaml:"tc1,omitempty"`                 // Linear temperature coefficient
	TC2         float64       `json:"tc2,omitempty" yaml:"tc2,omitempty"`                 // Quadratic temperature coefficient
}

type Endpoint struct {
	ComponentID string `json:"componentId" yaml:"componentId"`
	Terminal    int    `json:"terminal" yaml:"terminal"`
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s-%d", e.ComponentID, e.Terminal)
}

// Connection is an unordered pair of terminals that are electrically identical.
type Connection struct {
	From Endpoint `json:"from" yaml:"from"`
	To   Endpoint `json:"to" yaml:"to"`
}

type Netlist struct {
	Title       string       `json:"title,omitempty" yaml:"title,omitempty"`
	Components  []Component  `json:"components" yaml:"components"`
	Connections []Connection `json:"connections" yaml:"connections"`

	// Directives holds analysis cards of an imported SPICE text netlist.
	Directives Directives `json:"-" yaml:"-"`
}

func (n *Netlist) Component(id string) (Component, bool) {
	for _, c := range n.Components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}

// Validate checks the netlist before any analysis runs.
func (n *Netlist) Validate() error {
	if n == nil || len(n.Components) == 0 {
		return &ValidationError{Field: "components", Reason: "no components in circuit"}
	}

	types := make(map[string]ComponentType, len(n.Components))
	hasGround := false
	for i, c := range n.Components {
		field := fmt.Sprintf("components[%d]", i)
		if c.ID == "" {
			return &ValidationError{Field: field, Reason: "missing component id"}
		}
		if _, dup := types[c.ID]; dup {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("duplicate component id %q", c.ID)}
		}
		if !c.Type.Known() {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("unsupported component type %q", c.Type)}
		}
		if err := checkValue(c); err != nil {
			return &ValidationError{Field: field, Reason: err.Error()}
		}
		if c.Type == Ground {
			hasGround = true
		}
		types[c.ID] = c.Type
	}

	if !hasGround {
		return &ValidationError{Field: "components", Reason: "circuit must contain at least one ground component"}
	}

	for i, conn := range n.Connections {
		for _, ep := range []Endpoint{conn.From, conn.To} {
			t, ok := types[ep.ComponentID]
			if !ok {
				return &ValidationError{
					Field:  fmt.Sprintf("connections[%d]", i),
					Reason: fmt.Sprintf("unknown component %q", ep.ComponentID),
				}
			}
			if ep.Terminal < 0 || ep.Terminal >= t.TerminalCount() {
				return &ValidationError{
					Field:  fmt.Sprintf("connections[%d]", i),
					Reason: fmt.Sprintf("terminal %d out of range for %s %q", ep.Terminal, t, ep.ComponentID),
				}
			}
		}
	}

	return nil
}

func checkValue(c Component) error {
	switch c.Type {
	case Resistor:
		if c.Value < 0 {
			return fmt.Errorf("resistance must be positive, got %g", c.Value)
		}
	case Capacitor:
		if c.Value < 0 {
			return fmt.Errorf("capacitance must be positive, got %g", c.Value)
		}
	case Inductor:
		if c.Value < 0 {
			return fmt.Errorf("inductance must be positive, got %g", c.Value)
		}
	}
	return nil
}
