package neat

import (
	"encoding/json"
	"fmt"
)

// NodeType is the role a node gene plays in the network.
type NodeType int

const (
	InputNode NodeType = iota
	HiddenNode
	OutputNode
)

// NoSlot marks a node gene that is not bound to an input or output index.
const NoSlot = -1

// String returns the wire name used by the genome JSON format.
func (t NodeType) String() string {
	switch t {
	case InputNode:
		return "in"
	case HiddenNode:
		return "hidden"
	case OutputNode:
		return "out"
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// ParseNodeType maps a wire name back to its NodeType.
func ParseNodeType(s string) (NodeType, error) {
	switch s {
	case "in":
		return InputNode, nil
	case "hidden":
		return HiddenNode, nil
	case "out":
		return OutputNode, nil
	}
	return 0, fmt.Errorf("%w: unknown node type %q", ErrValidation, s)
}

// --------------------------- NodeGene ---------------------------

// NodeGene describes one neuron. Slot indexes the organism's input or output
// vector for Input/Output nodes and is NoSlot for hidden nodes.
type NodeGene struct {
	ID   int
	Type NodeType
	Slot int
}

// NewInputGene creates an input node gene bound to slot.
func NewInputGene(id, slot int) NodeGene {
	return NodeGene{ID: id, Type: InputNode, Slot: slot}
}

// NewOutputGene creates an output node gene bound to slot.
func NewOutputGene(id, slot int) NodeGene {
	return NodeGene{ID: id, Type: OutputNode, Slot: slot}
}

// NewHiddenGene creates a hidden node gene.
func NewHiddenGene(id int) NodeGene {
	return NodeGene{ID: id, Type: HiddenNode, Slot: NoSlot}
}

// String returns a string representation of the NodeGene.
func (ng NodeGene) String() string {
	if ng.Type == HiddenNode {
		return fmt.Sprintf("NodeGene(ID: %d, Type: %s)", ng.ID, ng.Type)
	}
	return fmt.Sprintf("NodeGene(ID: %d, Type: %s, Slot: %d)", ng.ID, ng.Type, ng.Slot)
}

func (ng NodeGene) validate() error {
	if ng.ID < 0 {
		return fmt.Errorf("%w: node gene has negative id %d", ErrValidation, ng.ID)
	}
	switch ng.Type {
	case InputNode, OutputNode:
		if ng.Slot < 0 {
			return fmt.Errorf("%w: %s node %d has no slot", ErrValidation, ng.Type, ng.ID)
		}
	case HiddenNode:
		if ng.Slot != NoSlot {
			return fmt.Errorf("%w: hidden node %d bound to slot %d", ErrValidation, ng.ID, ng.Slot)
		}
	default:
		return fmt.Errorf("%w: node %d has unknown type %d", ErrValidation, ng.ID, int(ng.Type))
	}
	return nil
}

type nodeGeneJSON struct {
	ID   *int   `json:"id"`
	Type string `json:"type"`
	Idx  *int   `json:"idx"`
}

// MarshalJSON encodes the gene as {"id", "type", "idx"} with a null idx for
// hidden nodes.
func (ng NodeGene) MarshalJSON() ([]byte, error) {
	id := ng.ID
	w := nodeGeneJSON{ID: &id, Type: ng.Type.String()}
	if ng.Type != HiddenNode {
		slot := ng.Slot
		w.Idx = &slot
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form, rejecting genes without an id.
func (ng *NodeGene) UnmarshalJSON(data []byte) error {
	var w nodeGeneJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == nil {
		return fmt.Errorf("%w: node gene missing id", ErrValidation)
	}
	t, err := ParseNodeType(w.Type)
	if err != nil {
		return err
	}
	slot := NoSlot
	if w.Idx != nil {
		slot = *w.Idx
	}
	*ng = NodeGene{ID: *w.ID, Type: t, Slot: slot}
	return nil
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionKey identifies the structural position of a connection.
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

// ConnectionGene is a directed weighted edge between two node genes.
// Weight always lies in [0, 1].
type ConnectionGene struct {
	InNodeID   int
	OutNodeID  int
	Weight     float64
	Enabled    bool
	Innovation int
}

// Key returns the (source, target) pair of the connection.
func (cg ConnectionGene) Key() ConnectionKey {
	return ConnectionKey{InNodeID: cg.InNodeID, OutNodeID: cg.OutNodeID}
}

// SetWeight stores w clamped into [0, 1].
func (cg *ConnectionGene) SetWeight(w float64) {
	cg.Weight = clamp(w, 0, 1)
}

// String returns a string representation of the ConnectionGene.
func (cg ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(Innov: %d, %d->%d, Weight: %.3f, Enabled: %t)",
		cg.Innovation, cg.InNodeID, cg.OutNodeID, cg.Weight, cg.Enabled)
}

type connectionGeneJSON struct {
	InID     *int    `json:"inId"`
	OutID    *int    `json:"outId"`
	Weight   float64 `json:"weight"`
	Enabled  bool    `json:"enabled"`
	InnovNum *int    `json:"innovNum"`
}

// MarshalJSON encodes the gene in the genome wire format.
func (cg ConnectionGene) MarshalJSON() ([]byte, error) {
	in, out, innov := cg.InNodeID, cg.OutNodeID, cg.Innovation
	return json.Marshal(connectionGeneJSON{
		InID:     &in,
		OutID:    &out,
		Weight:   cg.Weight,
		Enabled:  cg.Enabled,
		InnovNum: &innov,
	})
}

// UnmarshalJSON decodes the wire form, rejecting genes without endpoints or
// an innovation number.
func (cg *ConnectionGene) UnmarshalJSON(data []byte) error {
	var w connectionGeneJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.InnovNum == nil {
		return fmt.Errorf("%w: connection gene missing innovation number", ErrValidation)
	}
	if w.InID == nil || w.OutID == nil {
		return fmt.Errorf("%w: connection gene %d missing endpoint", ErrValidation, *w.InnovNum)
	}
	*cg = ConnectionGene{
		InNodeID:   *w.InID,
		OutNodeID:  *w.OutID,
		Weight:     clamp(w.Weight, 0, 1),
		Enabled:    w.Enabled,
		Innovation: *w.InnovNum,
	}
	return nil
}
