package neat

// Registry hands out historical markings. Structurally identical novelties
// (the same input slot, the same output slot, the same connection pair, or a
// split of the same connection pair) receive the same number every time they
// recur. Node ids and innovation numbers are drawn from one counter.
//
// A Registry is owned by a single GenerationManager and is not safe for
// concurrent use.
type Registry struct {
	rng     RandomSource
	counter int

	inputs      map[int]int           // input slot -> node id
	outputs     map[int]int           // output slot -> node id
	connections map[ConnectionKey]int // (in, out) -> innovation
	splits      map[ConnectionKey]int // split (in, out) -> hidden node id
}

// NewRegistry creates an empty registry drawing slots and weights from rng.
func NewRegistry(rng RandomSource) *Registry {
	r := &Registry{rng: rng}
	r.ResetEpoch()
	return r
}

// ResetEpoch forgets every memoized novelty. The counter keeps counting, so
// numbers minted after a reset never collide with earlier ones.
func (r *Registry) ResetEpoch() {
	r.inputs = make(map[int]int)
	r.outputs = make(map[int]int)
	r.connections = make(map[ConnectionKey]int)
	r.splits = make(map[ConnectionKey]int)
}

// Counter returns the next number the registry will allocate.
func (r *Registry) Counter() int {
	return r.counter
}

func (r *Registry) next() int {
	n := r.counter
	r.counter++
	return n
}

func (r *Registry) memo(m map[int]int, key int) int {
	if id, ok := m[key]; ok {
		return id
	}
	id := r.next()
	m[key] = id
	return id
}

func (r *Registry) memoPair(m map[ConnectionKey]int, key ConnectionKey) int {
	if id, ok := m[key]; ok {
		return id
	}
	id := r.next()
	m[key] = id
	return id
}

// MintInput returns an input node gene bound to a slot drawn uniformly from
// [0, maxSlots).
func (r *Registry) MintInput(maxSlots int) NodeGene {
	slot := r.rng.Int(0, max(maxSlots, 1)-1)
	return NewInputGene(r.memo(r.inputs, slot), slot)
}

// MintOutput returns an output node gene bound to a slot drawn uniformly from
// [0, maxSlots).
func (r *Registry) MintOutput(maxSlots int) NodeGene {
	slot := r.rng.Int(0, max(maxSlots, 1)-1)
	return NewOutputGene(r.memo(r.outputs, slot), slot)
}

// MintHidden returns the hidden node gene created by splitting split.
func (r *Registry) MintHidden(split ConnectionGene) NodeGene {
	return NewHiddenGene(r.memoPair(r.splits, split.Key()))
}

// MintConnection returns an enabled connection gene from in to out with a
// fresh weight drawn from [0, 1).
func (r *Registry) MintConnection(in, out int) ConnectionGene {
	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	return ConnectionGene{
		InNodeID:   in,
		OutNodeID:  out,
		Weight:     r.rng.Float(0, 1),
		Enabled:    true,
		Innovation: r.memoPair(r.connections, key),
	}
}

// NewGenome builds a minimal genome: one input, one output and the
// connection between them.
func (r *Registry) NewGenome(maxInputs, maxOutputs int) *Genome {
	in := r.MintInput(maxInputs)
	out := r.MintOutput(maxOutputs)
	conn := r.MintConnection(in.ID, out.ID)

	g := NewGenome()
	// Freshly minted genes always validate.
	_ = g.AddNodeGene(in)
	_ = g.AddNodeGene(out)
	_ = g.AddConnectionGene(conn)
	return g
}

// --------------------------- State ---------------------------

// PairMark is one memoized (in, out) -> number entry.
type PairMark struct {
	InNodeID  int `json:"in"`
	OutNodeID int `json:"out"`
	ID        int `json:"id"`
}

// RegistryState is a serializable snapshot of a Registry.
type RegistryState struct {
	Counter     int         `json:"counter"`
	Inputs      map[int]int `json:"inputs"`
	Outputs     map[int]int `json:"outputs"`
	Connections []PairMark  `json:"connections"`
	Splits      []PairMark  `json:"splits"`
}

// State snapshots the registry.
func (r *Registry) State() RegistryState {
	s := RegistryState{
		Counter: r.counter,
		Inputs:  make(map[int]int, len(r.inputs)),
		Outputs: make(map[int]int, len(r.outputs)),
	}
	for k, v := range r.inputs {
		s.Inputs[k] = v
	}
	for k, v := range r.outputs {
		s.Outputs[k] = v
	}
	for k, v := range r.connections {
		s.Connections = append(s.Connections, PairMark{InNodeID: k.InNodeID, OutNodeID: k.OutNodeID, ID: v})
	}
	for k, v := range r.splits {
		s.Splits = append(s.Splits, PairMark{InNodeID: k.InNodeID, OutNodeID: k.OutNodeID, ID: v})
	}
	return s
}

// RestoreRegistry rebuilds a registry from a snapshot.
func RestoreRegistry(s RegistryState, rng RandomSource) *Registry {
	r := NewRegistry(rng)
	r.counter = s.Counter
	for k, v := range s.Inputs {
		r.inputs[k] = v
	}
	for k, v := range s.Outputs {
		r.outputs[k] = v
	}
	for _, m := range s.Connections {
		r.connections[ConnectionKey{InNodeID: m.InNodeID, OutNodeID: m.OutNodeID}] = m.ID
	}
	for _, m := range s.Splits {
		r.splits[ConnectionKey{InNodeID: m.InNodeID, OutNodeID: m.OutNodeID}] = m.ID
	}
	return r
}
