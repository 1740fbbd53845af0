package neat

import "log/slog"

// Breeder produces new genomes from existing ones by mutation and crossover.
// It never modifies its arguments; every result is a fresh genome.
type Breeder struct {
	mutation  *MutationConfig
	crossover *CrossoverConfig
	registry  *Registry
	rng       RandomSource
	logger    *slog.Logger
}

// NewBreeder creates a breeder minting genes from registry.
func NewBreeder(config *Config, registry *Registry, rng RandomSource, logger *slog.Logger) *Breeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Breeder{
		mutation:  &config.Mutation,
		crossover: &config.Crossover,
		registry:  registry,
		rng:       rng,
		logger:    logger,
	}
}

// Mutate returns a mutated copy of g. maxInputs and maxOutputs bound the
// slots new input and output nodes may bind to. Operators run in a fixed
// order, each an independent trial:
// add-input, add-output, split-connection, add-connection, the per
// connection enable toggle, then the per connection weight perturbation.
func (b *Breeder) Mutate(g *Genome, maxInputs, maxOutputs int) *Genome {
	child := g.Copy()
	m := b.mutation

	if chance(b.rng, m.AddInputProb) {
		b.mutateAddInput(child, maxInputs)
	}
	if chance(b.rng, m.AddOutputProb) {
		b.mutateAddOutput(child, maxOutputs)
	}
	if chance(b.rng, m.SplitConnectionProb) {
		b.mutateSplitConnection(child)
	}
	if chance(b.rng, m.AddConnectionProb) {
		b.mutateAddConnection(child)
	}
	b.mutateEnabled(child)
	b.mutateWeights(child)
	return child
}

func (b *Breeder) randomNode(g *Genome) NodeGene {
	return g.nodes[b.rng.Int(0, len(g.nodes)-1)]
}

// mutateAddInput mints an input node and connects it to an existing node.
func (b *Breeder) mutateAddInput(g *Genome, maxInputs int) {
	if g.NumNodes() == 0 {
		return
	}
	in := b.registry.MintInput(maxInputs)
	target := b.randomNode(g)
	b.addNode(g, in)
	if in.ID == target.ID {
		return
	}
	b.addConnection(g, b.registry.MintConnection(in.ID, target.ID))
}

// mutateAddOutput mints an output node and connects an existing node to it.
func (b *Breeder) mutateAddOutput(g *Genome, maxOutputs int) {
	if g.NumNodes() == 0 {
		return
	}
	out := b.registry.MintOutput(maxOutputs)
	source := b.randomNode(g)
	b.addNode(g, out)
	if out.ID == source.ID {
		return
	}
	b.addConnection(g, b.registry.MintConnection(source.ID, out.ID))
}

// mutateSplitConnection disables a connection and routes it through a new
// hidden node: in->hidden with weight 1 and hidden->out with the old weight.
func (b *Breeder) mutateSplitConnection(g *Genome) {
	if g.NumConnections() == 0 {
		return
	}
	conn := g.connectionAt(b.rng.Int(0, g.NumConnections()-1))
	conn.Enabled = false
	split := *conn

	hidden := b.registry.MintHidden(split)
	b.addNode(g, hidden)

	toHidden := b.registry.MintConnection(split.InNodeID, hidden.ID)
	toHidden.Weight = 1
	fromHidden := b.registry.MintConnection(hidden.ID, split.OutNodeID)
	fromHidden.Weight = split.Weight
	b.addConnection(g, toHidden)
	b.addConnection(g, fromHidden)
}

// mutateAddConnection connects two existing nodes that are distinct and not
// yet connected, giving up after MaxConnectionAttempts draws.
func (b *Breeder) mutateAddConnection(g *Genome) {
	if g.NumNodes() < 2 {
		return
	}
	for attempt := 0; attempt < b.mutation.MaxConnectionAttempts; attempt++ {
		source := b.randomNode(g)
		target := b.randomNode(g)
		if source.ID == target.ID || g.HasConnection(source.ID, target.ID) {
			continue
		}
		b.addConnection(g, b.registry.MintConnection(source.ID, target.ID))
		return
	}
	b.logger.Debug("add-connection skipped", "attempts", b.mutation.MaxConnectionAttempts, "nodes", g.NumNodes())
}

// mutateEnabled toggles each connection with probability DisableProb.
func (b *Breeder) mutateEnabled(g *Genome) {
	for i := range g.conns {
		if chance(b.rng, b.mutation.DisableProb) {
			conn := g.connectionAt(i)
			conn.Enabled = !conn.Enabled
		}
	}
}

// mutateWeights perturbs each connection with probability WeightMutateProb by
// a magnitude drawn from [WeightChangeLower, WeightChangeUpper) with a random
// sign, clamped into [0, 1].
func (b *Breeder) mutateWeights(g *Genome) {
	m := b.mutation
	for i := range g.conns {
		if !chance(b.rng, m.WeightMutateProb) {
			continue
		}
		dir := 1.0
		if b.rng.Float(0, 1) >= 0.5 {
			dir = -1.0
		}
		delta := b.rng.Float(m.WeightChangeLower, m.WeightChangeUpper) * dir
		conn := g.connectionAt(i)
		conn.SetWeight(conn.Weight + delta)
	}
}

func (b *Breeder) addNode(g *Genome, ng NodeGene) {
	if err := g.AddNodeGene(ng); err != nil {
		b.logger.Debug("node gene rejected", "gene", ng.String(), "error", err)
	}
}

func (b *Breeder) addConnection(g *Genome, cg ConnectionGene) {
	if err := g.AddConnectionGene(cg); err != nil {
		b.logger.Debug("connection gene rejected", "gene", cg.String(), "error", err)
	}
}
