package neat

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/baldhumanity/neat-gen/neat/nn"
)

// Organism is one individual: a genome it owns exclusively and the
// phenotype built from it at birth. The phenotype is never restructured, so
// the output vector length is fixed for the organism's lifetime.
type Organism struct {
	ID     uuid.UUID
	Genome *Genome

	// MaxInputCount is the longest input vector this organism has seen.
	MaxInputCount int
	Fitness       float64
	Alive         bool
	Output        []float64

	network *nn.Network
}

// NewOrganism takes ownership of g and builds its phenotype with numOutputs
// output slots. Disabled connections are not part of the phenotype.
func NewOrganism(g *Genome, numOutputs int) (*Organism, error) {
	net, err := buildNetwork(g, numOutputs)
	if err != nil {
		return nil, fmt.Errorf("failed to build phenotype: %w", err)
	}
	return &Organism{
		ID:      uuid.New(),
		Genome:  g,
		Alive:   true,
		Output:  []float64{},
		network: net,
	}, nil
}

func buildNetwork(g *Genome, numOutputs int) (*nn.Network, error) {
	nodes := make([]nn.NodeSpec, 0, len(g.nodes))
	for _, ng := range g.nodes {
		spec := nn.NodeSpec{ID: ng.ID, Slot: ng.Slot}
		switch ng.Type {
		case InputNode:
			spec.Kind = nn.Input
		case OutputNode:
			spec.Kind = nn.Output
		default:
			spec.Kind = nn.Hidden
		}
		nodes = append(nodes, spec)
	}

	edges := make([]nn.EdgeSpec, 0, len(g.conns))
	for _, cg := range g.conns {
		if !cg.Enabled {
			continue
		}
		edges = append(edges, nn.EdgeSpec{From: cg.InNodeID, To: cg.OutNodeID, Weight: cg.Weight})
	}
	return nn.New(nodes, edges, numOutputs)
}

// Activate evaluates the phenotype for inputs and records the longest input
// vector seen. It does not touch Output or Fitness.
func (o *Organism) Activate(inputs []float64) ([]float64, error) {
	o.MaxInputCount = max(o.MaxInputCount, len(inputs))
	out, err := o.network.Activate(inputs)
	if err != nil {
		return nil, fmt.Errorf("%w: organism %s: %w", ErrState, o.ID, err)
	}
	return out, nil
}

// NumOutputs returns the fixed output vector length.
func (o *Organism) NumOutputs() int {
	return o.network.NumOutputs()
}

// Recurrent reports whether the phenotype contains a cycle.
func (o *Organism) Recurrent() bool {
	return o.network.Recurrent()
}
