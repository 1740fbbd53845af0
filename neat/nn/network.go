// Package nn realizes the phenotype of a genome: a directed weighted graph of
// runtime nodes that maps an input vector to a fixed-length output vector.
package nn

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrInputUnset is returned when an input node is resolved before a value
// has been assigned to it.
var ErrInputUnset = errors.New("input node resolved before its value was assigned")

// Kind is the role of a runtime node.
type Kind uint8

const (
	Input Kind = iota
	Hidden
	Output
)

// NodeSpec describes one node to instantiate. Slot is only read for Input
// and Output nodes.
type NodeSpec struct {
	ID   int
	Kind Kind
	Slot int
}

// EdgeSpec describes one enabled connection.
type EdgeSpec struct {
	From   int
	To     int
	Weight float64
}

type mark uint8

const (
	unvisited mark = iota
	inProgress
	resolved
)

type incomingEdge struct {
	source int // arena index
	weight float64
}

// neuralNode is a runtime node stored in the network arena.
type neuralNode struct {
	id       int
	kind     Kind
	slot     int
	incoming []incomingEdge
}

// Network is an evaluable phenotype. Nodes live in an arena addressed by
// index; evaluation memoizes node values per Activate call. A Network is not
// safe for concurrent use.
type Network struct {
	nodes   []neuralNode
	index   map[int]int // node id -> arena index
	inputs  []int       // arena indices of input nodes
	outputs []int       // output slot -> arena index, -1 when unbound
	edges   int

	values []float64
	marks  []mark
}

// New builds a network from node and edge specs. Output nodes bind to their
// slot when it lies in [0, numOutputs); when two nodes claim the same slot
// the one listed last wins. Every edge endpoint must be a listed node.
func New(nodes []NodeSpec, edges []EdgeSpec, numOutputs int) (*Network, error) {
	if numOutputs < 0 {
		return nil, fmt.Errorf("negative output count %d", numOutputs)
	}
	n := &Network{
		nodes:   make([]neuralNode, 0, len(nodes)),
		index:   make(map[int]int, len(nodes)),
		outputs: make([]int, numOutputs),
		edges:   len(edges),
	}
	for i := range n.outputs {
		n.outputs[i] = -1
	}

	for _, spec := range nodes {
		if _, dup := n.index[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %d", spec.ID)
		}
		idx := len(n.nodes)
		n.index[spec.ID] = idx
		n.nodes = append(n.nodes, neuralNode{id: spec.ID, kind: spec.Kind, slot: spec.Slot})

		switch spec.Kind {
		case Input:
			n.inputs = append(n.inputs, idx)
		case Output:
			if spec.Slot >= 0 && spec.Slot < numOutputs {
				n.outputs[spec.Slot] = idx
			}
		}
	}

	for _, e := range edges {
		from, ok := n.index[e.From]
		if !ok {
			return nil, fmt.Errorf("edge %d->%d: unknown source node", e.From, e.To)
		}
		to, ok := n.index[e.To]
		if !ok {
			return nil, fmt.Errorf("edge %d->%d: unknown target node", e.From, e.To)
		}
		n.nodes[to].incoming = append(n.nodes[to].incoming, incomingEdge{source: from, weight: e.Weight})
	}

	n.values = make([]float64, len(n.nodes))
	n.marks = make([]mark, len(n.nodes))
	return n, nil
}

// NumOutputs returns the fixed length of the output vector.
func (n *Network) NumOutputs() int {
	return len(n.outputs)
}

// Size returns the number of nodes and edges in the network.
func (n *Network) Size() (nodes, edges int) {
	return len(n.nodes), n.edges
}

// Activate computes the output vector for inputs. Input nodes read
// inputs[slot], or 0 when slot is beyond the vector. Unbound output slots
// yield 0.
//
// Cycles are broken during resolution: a node reached again while its own
// value is still being computed contributes 0 along that edge.
func (n *Network) Activate(inputs []float64) ([]float64, error) {
	for i := range n.marks {
		n.marks[i] = unvisited
		n.values[i] = 0
	}
	for _, idx := range n.inputs {
		node := &n.nodes[idx]
		v := 0.0
		if node.slot >= 0 && node.slot < len(inputs) {
			v = inputs[node.slot]
		}
		n.values[idx] = v
		n.marks[idx] = resolved
	}

	out := make([]float64, len(n.outputs))
	for slot, idx := range n.outputs {
		if idx < 0 {
			continue
		}
		v, err := n.resolve(idx)
		if err != nil {
			return nil, err
		}
		out[slot] = v
	}
	return out, nil
}

func (n *Network) resolve(idx int) (float64, error) {
	switch n.marks[idx] {
	case resolved:
		return n.values[idx], nil
	case inProgress:
		return 0, nil
	}

	node := &n.nodes[idx]
	if node.kind == Input {
		return 0, fmt.Errorf("%w: node %d", ErrInputUnset, node.id)
	}

	n.marks[idx] = inProgress
	total := 0.0
	for _, e := range node.incoming {
		v, err := n.resolve(e.source)
		if err != nil {
			return 0, err
		}
		total += e.weight * v
	}
	v := Squash(total)
	n.values[idx] = v
	n.marks[idx] = resolved
	return v, nil
}

// Squash is the node nonlinearity 2/(1+e^-x) - 1, with range (-1, 1).
func Squash(x float64) float64 {
	return 2/(1+math.Exp(-x)) - 1
}

// Recurrent reports whether the network contains a directed cycle.
func (n *Network) Recurrent() bool {
	g := simple.NewDirectedGraph()
	for i := range n.nodes {
		g.AddNode(simple.Node(i))
	}
	for to, node := range n.nodes {
		for _, e := range node.incoming {
			if e.source == to {
				return true
			}
			g.SetEdge(g.NewEdge(simple.Node(e.source), simple.Node(to)))
		}
	}
	_, err := topo.Sort(g)
	return err != nil
}
