package neat

import "sort"

// Crossover mates two genomes into an unmutated child.
//
// The child receives the union of both parents' node genes. Connection genes
// are aligned by innovation number. With equal fitness, matching genes are
// always inherited (from A, replaced by B's variant when a draw exceeds
// CrossoverProb) and each unmatched gene is inherited only when its own draw
// exceeds CrossoverProb. With unequal fitness, every gene of the fitter
// parent is inherited, matching genes take either parent's variant with equal
// probability, and genes found only in the weaker parent are dropped.
func (b *Breeder) Crossover(a, c *Genome, fitnessA, fitnessB float64) *Genome {
	child := NewGenome()
	for _, ng := range a.nodes {
		b.addNode(child, ng)
	}
	for _, ng := range c.nodes {
		b.addNode(child, ng)
	}

	switch {
	case len(a.conns) == 0:
		b.inheritAll(child, c)
	case len(c.conns) == 0:
		b.inheritAll(child, a)
	case fitnessA == fitnessB:
		b.crossoverEqual(child, a, c)
	case fitnessA > fitnessB:
		b.crossoverDominant(child, a, c)
	default:
		b.crossoverDominant(child, c, a)
	}
	return child
}

func (b *Breeder) inheritAll(child, parent *Genome) {
	for _, cg := range parent.conns {
		b.addConnection(child, cg)
	}
}

func (b *Breeder) crossoverEqual(child, a, c *Genome) {
	p := b.crossover.CrossoverProb
	chosen := make(map[int]ConnectionGene, len(a.conns)+len(c.conns))

	for _, cg := range a.conns {
		if _, matching := c.Connection(cg.Innovation); matching {
			chosen[cg.Innovation] = cg
		} else if b.rng.Float(0, 1) > p {
			chosen[cg.Innovation] = cg
		}
	}
	for _, cg := range c.conns {
		if b.rng.Float(0, 1) > p {
			chosen[cg.Innovation] = cg
		}
	}

	innovations := make([]int, 0, len(chosen))
	for innov := range chosen {
		innovations = append(innovations, innov)
	}
	sort.Ints(innovations)
	for _, innov := range innovations {
		b.addConnection(child, chosen[innov])
	}
}

func (b *Breeder) crossoverDominant(child, strong, weak *Genome) {
	for _, cg := range strong.conns {
		if other, matching := weak.Connection(cg.Innovation); matching && b.rng.Float(0, 1) > 0.5 {
			cg = other
		}
		b.addConnection(child, cg)
	}
}
