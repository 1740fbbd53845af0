package neat

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// Elite is a snapshot of an organism admitted to the elite pool. The genome
// is a private copy and the fitness is the value at admission, so later
// evaluations of the source organism never change it.
type Elite struct {
	Genome     *Genome
	Fitness    float64
	Generation int
}

// Reproduction handles the creation of new organisms, either from scratch or
// through crossover and mutation.
type Reproduction struct {
	Config  *GenerationConfig
	Breeder *Breeder
	// Ancestors maps an organism ID to the IDs of its parents for the latest
	// generation. Elite carry-overs and bootstrap organisms have none.
	Ancestors map[uuid.UUID][]uuid.UUID

	logger *slog.Logger
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *GenerationConfig, breeder *Breeder, logger *slog.Logger) *Reproduction {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reproduction{
		Config:    config,
		Breeder:   breeder,
		Ancestors: make(map[uuid.UUID][]uuid.UUID),
		logger:    logger,
	}
}

// CreateNewPopulation creates size organisms, each with a minimal genome
// minted by the registry.
func (r *Reproduction) CreateNewPopulation(registry *Registry, size, startingInputs, numOutputs int) ([]*Organism, error) {
	organisms := make([]*Organism, 0, size)
	r.Ancestors = make(map[uuid.UUID][]uuid.UUID, size)
	for i := 0; i < size; i++ {
		o, err := NewOrganism(registry.NewGenome(startingInputs, numOutputs), numOutputs)
		if err != nil {
			return nil, fmt.Errorf("failed to create organism %d: %w", i, err)
		}
		organisms = append(organisms, o)
		r.Ancestors[o.ID] = nil
	}
	return organisms, nil
}

// SortByFitness orders organisms by fitness, highest first. Ties keep their
// relative order.
func SortByFitness(organisms []*Organism) {
	sort.SliceStable(organisms, func(i, j int) bool {
		return organisms[i].Fitness > organisms[j].Fitness
	})
}

// UpdateElite admits organisms from sorted (highest fitness first) while
// their fitness exceeds the worst elite, re-sorting and truncating the pool
// to elitism entries after each admission. The best entry never gets worse.
func UpdateElite(pool []Elite, sorted []*Organism, elitism, generation int) []Elite {
	for _, o := range sorted {
		if len(pool) >= elitism && o.Fitness <= pool[len(pool)-1].Fitness {
			break
		}
		pool = append(pool, Elite{Genome: o.Genome.Copy(), Fitness: o.Fitness, Generation: generation})
		sort.SliceStable(pool, func(i, j int) bool { return pool[i].Fitness > pool[j].Fitness })
		if len(pool) > elitism {
			pool = pool[:elitism]
		}
	}
	return pool
}

// matingSchedule cycles parent index pairs (i, j) through the top bound
// organisms: j advances first, and when it runs off the pool i advances and
// j restarts just after it.
type matingSchedule struct {
	i, j, bound int
}

func newMatingSchedule(matingNum, poolSize int) *matingSchedule {
	bound := max(min(matingNum, poolSize), 1)
	return &matingSchedule{i: 0, j: 1 % bound, bound: bound}
}

func (s *matingSchedule) next() (int, int) {
	i, j := s.i, s.j
	s.j++
	if s.j >= s.bound {
		s.i = (s.i + 1) % s.bound
		s.j = (s.i + 1) % s.bound
	}
	return i, j
}

// Reproduce builds the next generation: fresh organisms from the elite pool
// first, then offspring of mate pairs drawn from sorted (highest fitness
// first) until size organisms exist. Children may bind input slots up to the
// larger of their parents' observed input counts and startingInputs.
func (r *Reproduction) Reproduce(elite []Elite, sorted []*Organism, size, startingInputs, numOutputs int) ([]*Organism, error) {
	if len(sorted) == 0 {
		return nil, fmt.Errorf("%w: no organisms to mate", ErrState)
	}
	organisms := make([]*Organism, 0, size)
	ancestors := make(map[uuid.UUID][]uuid.UUID, size)

	for _, e := range elite {
		if len(organisms) >= size {
			break
		}
		o, err := NewOrganism(e.Genome.Copy(), numOutputs)
		if err != nil {
			return nil, fmt.Errorf("failed to seed elite organism: %w", err)
		}
		organisms = append(organisms, o)
		ancestors[o.ID] = nil
	}

	schedule := newMatingSchedule(r.Config.MatingNum, len(sorted))
	for len(organisms) < size {
		i, j := schedule.next()
		a, b := sorted[i], sorted[j]

		child := r.Breeder.Crossover(a.Genome, b.Genome, a.Fitness, b.Fitness)
		maxInputs := max(a.MaxInputCount, b.MaxInputCount, startingInputs)
		child = r.Breeder.Mutate(child, maxInputs, numOutputs)

		o, err := NewOrganism(child, numOutputs)
		if err != nil {
			return nil, fmt.Errorf("failed to birth offspring of %d and %d: %w", i, j, err)
		}
		organisms = append(organisms, o)
		ancestors[o.ID] = []uuid.UUID{a.ID, b.ID}
	}

	r.Ancestors = ancestors
	r.logger.Debug("population bred",
		"elite", min(len(elite), size),
		"offspring", size-min(len(elite), size),
		"mating_pool", schedule.bound)
	return organisms, nil
}
