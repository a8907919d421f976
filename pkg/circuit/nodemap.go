package circuit

import (
	"github.com/edp1096/circuit-engine/pkg/netlist"
)

// disjointSet is a union-find over terminal indices with path compression
// and union by rank.
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	d := &disjointSet{parent: make([]int, n), rank: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
	}
	return d
}

func (d *disjointSet) find(x int) int {
	root := x
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[x] != root {
		d.parent[x], x = root, d.parent[x]
	}
	return root
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		d.parent[ra] = rb
	case d.rank[ra] > d.rank[rb]:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
}

// NodeMap assigns every component terminal to a node. Node 0 is ground.
type NodeMap struct {
	nodes      map[netlist.Endpoint]int
	components map[string][]int
	numNodes   int
}

// MapNodes resolves the terminal equivalence classes of a netlist. Ground
// terminals join node 0. The other classes are numbered in order of first
// appearance in the connection list, then unconnected terminals in component
// order, so a floating terminal always gets a node of its own.
func MapNodes(nl *netlist.Netlist) *NodeMap {
	index := make(map[netlist.Endpoint]int)
	var terminals []netlist.Endpoint
	for _, comp := range nl.Components {
		for t := 0; t < comp.Type.TerminalCount(); t++ {
			ep := netlist.Endpoint{ComponentID: comp.ID, Terminal: t}
			index[ep] = len(terminals)
			terminals = append(terminals, ep)
		}
	}

	groundSentinel := len(terminals)
	set := newDisjointSet(len(terminals) + 1)

	for _, comp := range nl.Components {
		if comp.Type != netlist.Ground {
			continue
		}
		for t := 0; t < comp.Type.TerminalCount(); t++ {
			set.union(groundSentinel, index[netlist.Endpoint{ComponentID: comp.ID, Terminal: t}])
		}
	}

	for _, conn := range nl.Connections {
		a, okA := index[conn.From]
		b, okB := index[conn.To]
		if okA && okB {
			set.union(a, b)
		}
	}

	ids := map[int]int{set.find(groundSentinel): 0}
	next := 1
	assign := func(ep netlist.Endpoint) {
		i, ok := index[ep]
		if !ok {
			return
		}
		root := set.find(i)
		if _, seen := ids[root]; !seen {
			ids[root] = next
			next++
		}
	}
	for _, conn := range nl.Connections {
		assign(conn.From)
		assign(conn.To)
	}
	for _, ep := range terminals {
		assign(ep)
	}

	m := &NodeMap{
		nodes:      make(map[netlist.Endpoint]int, len(terminals)),
		components: make(map[string][]int, len(nl.Components)),
		numNodes:   next,
	}
	for i, ep := range terminals {
		node := ids[set.find(i)]
		m.nodes[ep] = node
		m.components[ep.ComponentID] = append(m.components[ep.ComponentID], node)
	}
	return m
}

// Node returns the node of a terminal.
func (m *NodeMap) Node(ep netlist.Endpoint) (int, bool) {
	n, ok := m.nodes[ep]
	return n, ok
}

// ComponentNodes returns the nodes of a component's terminals in terminal
// order.
func (m *NodeMap) ComponentNodes(id string) []int {
	return m.components[id]
}

// Components returns the component id → nodes mapping.
func (m *NodeMap) Components() map[string][]int {
	return m.components
}

// NumNodes counts the nodes including ground.
func (m *NodeMap) NumNodes() int {
	return m.numNodes
}
