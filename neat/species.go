package neat

import (
	"log/slog"
	"math"
	"sort"
)

// Species is a cluster of compatible organisms around a representative
// genome. The representative is a private copy, never an organism's live
// genome.
type Species struct {
	ID             int         // Unique identifier for the species.
	Created        int         // Generation number when the species was created.
	Representative *Genome     // Genome new organisms are compared against.
	Members        []*Organism // Members from the latest clustering pass.

	Fitness        float64   // Best raw member fitness of the latest pass.
	FitnessHistory []float64 // Fitness per generation, oldest first.
	LastImproved   int       // Generation Fitness last exceeded its history.
}

// Fitnesses returns the fitness of every member.
func (s *Species) Fitnesses() []float64 {
	out := make([]float64, len(s.Members))
	for i, o := range s.Members {
		out[i] = o.Fitness
	}
	return out
}

// --------------------------- Compatibility ---------------------------

// CompatibilityDistance measures how far apart two genomes are:
//
//	d = c_excess*E/N + c_disjoint*D/N + c_weight*W
//
// An unmatched gene is excess when its innovation number lies outside the
// other genome's innovation range and disjoint otherwise. W is the mean
// absolute weight difference of matching genes. The result does not depend
// on argument order.
func CompatibilityDistance(a, b *Genome, config *SpeciationConfig) float64 {
	loA, hiA, okA := a.InnovationRange()
	loB, hiB, okB := b.InnovationRange()

	excess, disjoint := 0, 0
	matching := make([]int, 0, min(len(a.conns), len(b.conns)))
	for _, cg := range a.conns {
		if _, ok := b.Connection(cg.Innovation); ok {
			matching = append(matching, cg.Innovation)
		} else if !okB || cg.Innovation < loB || cg.Innovation > hiB {
			excess++
		} else {
			disjoint++
		}
	}
	for _, cg := range b.conns {
		if _, ok := a.Connection(cg.Innovation); ok {
			continue
		}
		if !okA || cg.Innovation < loA || cg.Innovation > hiA {
			excess++
		} else {
			disjoint++
		}
	}

	// Summing in innovation order keeps the result bit-identical when the
	// arguments are swapped.
	sort.Ints(matching)
	weightDiff := 0.0
	for _, innov := range matching {
		ca, _ := a.Connection(innov)
		cb, _ := b.Connection(innov)
		weightDiff += math.Abs(ca.Weight - cb.Weight)
	}
	if len(matching) > 0 {
		weightDiff /= float64(len(matching))
	}

	n := normalizingFactor(a, b, config)
	return config.ExcessCoefficient*float64(excess)/n +
		config.DisjointCoefficient*float64(disjoint)/n +
		config.WeightCoefficient*weightDiff
}

func normalizingFactor(a, b *Genome, config *SpeciationConfig) float64 {
	if config.Normalization == NormalizeGenomeSize {
		return math.Max(1, float64(max(len(a.conns), len(b.conns))))
	}
	return config.NormalizingFactor
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet clusters organisms into species and applies fitness sharing.
// Species persist across generations through their representatives.
type SpeciesSet struct {
	Config  *SpeciationConfig
	Species []*Species // in creation order
	Indexer int        // next species ID

	rng       RandomSource
	logger    *slog.Logger
	distances []float64 // distances measured by the latest pass
}

// NewSpeciesSet creates an empty species set.
func NewSpeciesSet(config *SpeciationConfig, rng RandomSource, logger *slog.Logger) *SpeciesSet {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeciesSet{
		Config:  config,
		Indexer: 1,
		rng:     rng,
		logger:  logger,
	}
}

// Speciate partitions organisms. Every species that had members picks a new
// representative at random from them and is emptied; species without
// members are dropped. Each organism then joins the first species, in
// creation order, whose representative is closer than the compatibility
// threshold, or founds a new one. Species left without members are pruned.
func (ss *SpeciesSet) Speciate(organisms []*Organism, generation int) {
	species := make([]*Species, 0, len(ss.Species))
	for _, s := range ss.Species {
		if len(s.Members) == 0 {
			ss.logger.Debug("species dropped", "species", s.ID)
			continue
		}
		s.Representative = s.Members[ss.rng.Int(0, len(s.Members)-1)].Genome.Copy()
		s.Members = nil
		species = append(species, s)
	}

	ss.distances = ss.distances[:0]
	for _, o := range organisms {
		var home *Species
		for _, s := range species {
			d := CompatibilityDistance(s.Representative, o.Genome, ss.Config)
			ss.distances = append(ss.distances, d)
			if d < ss.Config.CompatibilityThreshold {
				home = s
				break
			}
		}
		if home == nil {
			home = &Species{ID: ss.Indexer, Created: generation, LastImproved: generation, Representative: o.Genome.Copy()}
			ss.Indexer++
			species = append(species, home)
			ss.logger.Debug("species created", "species", home.ID, "generation", generation)
		}
		home.Members = append(home.Members, o)
	}

	ss.Species = species[:0]
	for _, s := range species {
		if len(s.Members) == 0 {
			ss.logger.Debug("species pruned", "species", s.ID)
			continue
		}
		ss.Species = append(ss.Species, s)
	}

	if d := ss.DistanceSummary(); d.Count > 0 {
		ss.logger.Debug("speciation complete",
			"generation", generation,
			"species", len(ss.Species),
			"distance_mean", d.Mean,
			"distance_stdev", d.Stdev)
	}
}

// ShareFitness divides every member's fitness by its species' size.
func (ss *SpeciesSet) ShareFitness() {
	for _, s := range ss.Species {
		n := float64(len(s.Members))
		for _, o := range s.Members {
			o.Fitness /= n
		}
	}
}

// SpeciesOf returns the species o was placed in by the latest pass.
func (ss *SpeciesSet) SpeciesOf(o *Organism) (*Species, bool) {
	for _, s := range ss.Species {
		for _, m := range s.Members {
			if m == o {
				return s, true
			}
		}
	}
	return nil, false
}

// DistanceSummary summarizes the distances measured by the latest pass.
func (ss *SpeciesSet) DistanceSummary() Summary {
	return Summarize(ss.distances)
}

// SizeSummary summarizes the member counts of the current species.
func (ss *SpeciesSet) SizeSummary() Summary {
	sizes := make([]float64, len(ss.Species))
	for i, s := range ss.Species {
		sizes[i] = float64(len(s.Members))
	}
	return Summarize(sizes)
}
