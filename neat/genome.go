package neat

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Genome is the gene-level encoding of a network: ordered node genes,
// ordered connection genes and the set of every id and innovation number
// present. Genes are stored by value, so no two genomes share a gene.
type Genome struct {
	nodes []NodeGene
	conns []ConnectionGene

	ids       map[int]struct{}      // node ids and innovation numbers
	nodeIndex map[int]int           // node id -> position in nodes
	connIndex map[int]int           // innovation -> position in conns
	pairs     map[ConnectionKey]int // (in, out) -> innovation
}

// NewGenome creates an empty genome.
func NewGenome() *Genome {
	return &Genome{
		ids:       make(map[int]struct{}),
		nodeIndex: make(map[int]int),
		connIndex: make(map[int]int),
		pairs:     make(map[ConnectionKey]int),
	}
}

// AddNodeGene appends a copy of ng. A gene whose id is already present is
// ignored.
func (g *Genome) AddNodeGene(ng NodeGene) error {
	if err := ng.validate(); err != nil {
		return err
	}
	if _, exists := g.ids[ng.ID]; exists {
		return nil
	}
	g.ids[ng.ID] = struct{}{}
	g.nodeIndex[ng.ID] = len(g.nodes)
	g.nodes = append(g.nodes, ng)
	return nil
}

// AddConnectionGene appends a copy of cg. Both endpoints must already be
// node genes of g. A gene whose innovation number is already present is
// ignored.
func (g *Genome) AddConnectionGene(cg ConnectionGene) error {
	if cg.Innovation < 0 {
		return fmt.Errorf("%w: connection gene has negative innovation %d", ErrValidation, cg.Innovation)
	}
	if _, exists := g.ids[cg.Innovation]; exists {
		return nil
	}
	if _, ok := g.nodeIndex[cg.InNodeID]; !ok {
		return fmt.Errorf("%w: connection %d source node %d not in genome", ErrValidation, cg.Innovation, cg.InNodeID)
	}
	if _, ok := g.nodeIndex[cg.OutNodeID]; !ok {
		return fmt.Errorf("%w: connection %d target node %d not in genome", ErrValidation, cg.Innovation, cg.OutNodeID)
	}
	cg.Weight = clamp(cg.Weight, 0, 1)
	g.ids[cg.Innovation] = struct{}{}
	g.connIndex[cg.Innovation] = len(g.conns)
	g.pairs[cg.Key()] = cg.Innovation
	g.conns = append(g.conns, cg)
	return nil
}

// NodeGenes returns a copy of the node genes in insertion order.
func (g *Genome) NodeGenes() []NodeGene {
	out := make([]NodeGene, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// ConnectionGenes returns a copy of the connection genes in insertion order.
func (g *Genome) ConnectionGenes() []ConnectionGene {
	out := make([]ConnectionGene, len(g.conns))
	copy(out, g.conns)
	return out
}

// NumNodes returns the number of node genes.
func (g *Genome) NumNodes() int { return len(g.nodes) }

// NumConnections returns the number of connection genes.
func (g *Genome) NumConnections() int { return len(g.conns) }

// Node looks up a node gene by id.
func (g *Genome) Node(id int) (NodeGene, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return NodeGene{}, false
	}
	return g.nodes[i], true
}

// Connection looks up a connection gene by innovation number.
func (g *Genome) Connection(innovation int) (ConnectionGene, bool) {
	i, ok := g.connIndex[innovation]
	if !ok {
		return ConnectionGene{}, false
	}
	return g.conns[i], true
}

// HasID reports whether n is a node id or innovation number of g.
func (g *Genome) HasID(n int) bool {
	_, ok := g.ids[n]
	return ok
}

// HasConnection reports whether g has a connection from in to out.
func (g *Genome) HasConnection(in, out int) bool {
	_, ok := g.pairs[ConnectionKey{InNodeID: in, OutNodeID: out}]
	return ok
}

// InnovationRange returns the smallest and largest connection innovation
// numbers. ok is false when g has no connection genes.
func (g *Genome) InnovationRange() (lo, hi int, ok bool) {
	if len(g.conns) == 0 {
		return 0, 0, false
	}
	lo, hi = math.MaxInt, math.MinInt
	for _, c := range g.conns {
		lo = min(lo, c.Innovation)
		hi = max(hi, c.Innovation)
	}
	return lo, hi, true
}

// Copy returns an independent deep copy of g.
func (g *Genome) Copy() *Genome {
	c := NewGenome()
	c.nodes = make([]NodeGene, len(g.nodes))
	copy(c.nodes, g.nodes)
	c.conns = make([]ConnectionGene, len(g.conns))
	copy(c.conns, g.conns)
	for k := range g.ids {
		c.ids[k] = struct{}{}
	}
	for k, v := range g.nodeIndex {
		c.nodeIndex[k] = v
	}
	for k, v := range g.connIndex {
		c.connIndex[k] = v
	}
	for k, v := range g.pairs {
		c.pairs[k] = v
	}
	return c
}

// connectionAt gives the breeder in-place access to a gene of a genome it
// owns exclusively.
func (g *Genome) connectionAt(i int) *ConnectionGene {
	return &g.conns[i]
}

// String returns a compact multi-line description of the genome.
func (g *Genome) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Genome(Nodes: %d, Connections: %d)", len(g.nodes), len(g.conns))
	for _, n := range g.nodes {
		sb.WriteString("\n  ")
		sb.WriteString(n.String())
	}
	for _, c := range g.conns {
		sb.WriteString("\n  ")
		sb.WriteString(c.String())
	}
	return sb.String()
}

// --------------------------- Persistence ---------------------------

type genomeJSON struct {
	NodeGenes       []NodeGene       `json:"nodeGenes"`
	ConnectionGenes []ConnectionGene `json:"connectionGenes"`
}

// Save encodes g as {"nodeGenes": [...], "connectionGenes": [...]}.
func (g *Genome) Save() ([]byte, error) {
	w := genomeJSON{NodeGenes: g.nodes, ConnectionGenes: g.conns}
	if w.NodeGenes == nil {
		w.NodeGenes = []NodeGene{}
	}
	if w.ConnectionGenes == nil {
		w.ConnectionGenes = []ConnectionGene{}
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode genome: %w", err)
	}
	return data, nil
}

// Load merges the genes encoded in data into g. Genes whose id or innovation
// number is already present are ignored. On error g is left unchanged.
func (g *Genome) Load(data []byte) error {
	var w genomeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode genome: %w", err)
	}
	merged := g.Copy()
	for _, ng := range w.NodeGenes {
		if err := merged.AddNodeGene(ng); err != nil {
			return err
		}
	}
	for _, cg := range w.ConnectionGenes {
		if err := merged.AddConnectionGene(cg); err != nil {
			return err
		}
	}
	*g = *merged
	return nil
}

// MarshalJSON implements json.Marshaler using the Save format.
func (g *Genome) MarshalJSON() ([]byte, error) {
	return g.Save()
}

// UnmarshalJSON implements json.Unmarshaler, replacing g with the decoded
// genome.
func (g *Genome) UnmarshalJSON(data []byte) error {
	fresh := NewGenome()
	if err := fresh.Load(data); err != nil {
		return err
	}
	*g = *fresh
	return nil
}
