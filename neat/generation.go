package neat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/baldhumanity/neat-gen/neat/archive"
)

// FitnessFunc scores one organism after its outputs for the current inputs
// have been recorded. index is the organism's position in the population.
type FitnessFunc func(o *Organism, index int) float64

// Result is the last recorded fitness and output of one organism.
type Result struct {
	Fitness float64
	Output  []float64
}

// EvaluationError records one organism whose evaluation failed. The organism
// is left with zero fitness and an empty output; the rest of the population
// is still evaluated.
type EvaluationError struct {
	Generation int
	Index      int
	OrganismID uuid.UUID
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("generation %d: organism %d (%s): %v", e.Generation, e.Index, e.OrganismID, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Option configures a GenerationManager.
type Option func(*GenerationManager)

// WithLogger sets the logger used by the manager and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(m *GenerationManager) {
		m.logger = logger
	}
}

// WithRandomSource sets the random source every operator draws from.
func WithRandomSource(rng RandomSource) Option {
	return func(m *GenerationManager) {
		m.rng = rng
	}
}

// WithArchive makes AdvanceGeneration store the elite pool in a.
func WithArchive(a archive.Archive) Option {
	return func(m *GenerationManager) {
		m.archive = a
	}
}

// WithRunID sets the run identifier used for archived records.
func WithRunID(runID string) Option {
	return func(m *GenerationManager) {
		m.runID = runID
	}
}

// GenerationManager drives the evolutionary loop. The caller alternates
// AdvanceGeneration with one or more Evaluate calls. A manager and the
// registry it owns are not safe for concurrent use.
type GenerationManager struct {
	Config *Config

	fitness      FitnessFunc
	registry     *Registry
	breeder      *Breeder
	species      *SpeciesSet
	stagnation   *Stagnation
	reproduction *Reproduction

	generation     int
	size           int
	startingInputs int
	numOutputs     int
	organisms      []*Organism
	elite          []Elite
	errors         []*EvaluationError

	rng     RandomSource
	logger  *slog.Logger
	archive archive.Archive
	runID   string
}

// NewGenerationManager validates config and creates a manager with an empty
// population.
func NewGenerationManager(config *Config, fitness FitnessFunc, opts ...Option) (*GenerationManager, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is required", ErrConfig)
	}
	if fitness == nil {
		return nil, fmt.Errorf("%w: fitness function is required", ErrConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	m := &GenerationManager{
		Config:  config,
		fitness: fitness,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.rng == nil {
		m.rng = NewRandomSource(time.Now().UnixNano())
	}
	if m.runID == "" {
		m.runID = uuid.NewString()
	}
	m.setRegistry(NewRegistry(m.rng))
	return m, nil
}

func (m *GenerationManager) setRegistry(registry *Registry) {
	m.registry = registry
	m.breeder = NewBreeder(m.Config, registry, m.rng, m.logger)
	m.species = NewSpeciesSet(&m.Config.Speciation, m.rng, m.logger)
	m.stagnation = NewStagnation(&m.Config.Speciation)
	m.reproduction = NewReproduction(&m.Config.Generation, m.breeder, m.logger)
}

// InitializePopulation replaces the population with size minimal genomes and
// seeds the elite pool by sampling organisms with replacement.
func (m *GenerationManager) InitializePopulation(size, startingInputs, numOutputs int) error {
	if size <= 0 || startingInputs <= 0 || numOutputs <= 0 {
		return fmt.Errorf("%w: population size, inputs and outputs must be positive", ErrConfig)
	}
	organisms, err := m.reproduction.CreateNewPopulation(m.registry, size, startingInputs, numOutputs)
	if err != nil {
		return fmt.Errorf("failed to initialize population: %w", err)
	}

	elite := make([]Elite, 0, m.Config.Generation.Elitism)
	for len(elite) < m.Config.Generation.Elitism {
		o := organisms[m.rng.Int(0, len(organisms)-1)]
		elite = append(elite, Elite{Genome: o.Genome.Copy(), Fitness: o.Fitness})
	}

	m.organisms = organisms
	m.elite = elite
	m.errors = nil
	m.size = size
	m.startingInputs = startingInputs
	m.numOutputs = numOutputs
	m.generation = 1
	return nil
}

// AdvanceGeneration moves to the next generation. The first call bootstraps
// the population from the configured sizes. Later calls speciate the
// current population, share fitness, update the elite pool and breed a new
// population from it.
func (m *GenerationManager) AdvanceGeneration() error {
	gen := m.Config.Generation
	if m.generation == 0 {
		if err := m.InitializePopulation(gen.NumInGeneration, gen.StartingNumInputs, gen.NumOutputs); err != nil {
			return err
		}
		m.logger.Info("population initialized",
			"generation", m.generation,
			"population", len(m.organisms),
			"run", m.runID)
		return nil
	}

	prior := append([]*Organism(nil), m.organisms...)
	m.species.Speciate(prior, m.generation)
	for _, info := range m.stagnation.Update(m.species, m.generation) {
		if info.IsStagnant {
			m.logger.Debug("species stagnant",
				"species", info.SpeciesID,
				"fitness", info.Fitness,
				"generations", info.StagnantTime)
		}
	}
	m.species.ShareFitness()
	SortByFitness(prior)

	m.elite = UpdateElite(m.elite, prior, gen.Elitism, m.generation)
	m.archiveElite()

	organisms, err := m.reproduction.Reproduce(m.elite, prior, m.size, m.startingInputs, m.numOutputs)
	if err != nil {
		return fmt.Errorf("reproduction failed in generation %d: %w", m.generation, err)
	}

	m.organisms = organisms
	m.errors = nil
	m.generation++

	m.logger.Info("generation advanced",
		"generation", m.generation,
		"population", len(m.organisms),
		"species", len(m.species.Species),
		"best_elite_fitness", m.BestFitness())
	return nil
}

func (m *GenerationManager) archiveElite() {
	if m.archive == nil {
		return
	}
	ctx := context.Background()
	for rank, e := range m.elite {
		payload, err := json.Marshal(e.Genome)
		if err != nil {
			m.logger.Warn("failed to encode elite genome", "rank", rank, "error", err)
			continue
		}
		record := archive.Record{
			ID:         fmt.Sprintf("%s/%d/%d", m.runID, m.generation, rank),
			RunID:      m.runID,
			Generation: m.generation,
			Rank:       rank,
			Fitness:    e.Fitness,
			Genome:     payload,
		}
		if err := m.archive.Put(ctx, record); err != nil {
			m.logger.Warn("failed to archive elite genome", "id", record.ID, "error", err)
		}
	}
}

// Evaluate activates every alive organism on its own input vector, records
// the outputs and scores it with the fitness function. Dead organisms keep
// their last fitness and output. A failing organism is isolated: it gets
// zero fitness and an empty output and the failure is appended to Errors.
// It returns the recorded output of every organism.
func (m *GenerationManager) Evaluate(inputs [][]float64) ([][]float64, error) {
	if len(inputs) != len(m.organisms) {
		return nil, fmt.Errorf("%w: got %d input vectors for %d organisms", ErrState, len(inputs), len(m.organisms))
	}

	outputs := make([][]float64, len(m.organisms))
	for i, o := range m.organisms {
		if o.Alive {
			if err := m.evaluateOrganism(o, i, inputs[i]); err != nil {
				o.Output = []float64{}
				o.Fitness = 0
				evalErr := &EvaluationError{Generation: m.generation, Index: i, OrganismID: o.ID, Err: err}
				m.errors = append(m.errors, evalErr)
				m.logger.Warn("organism evaluation failed",
					"generation", m.generation,
					"index", i,
					"organism", o.ID,
					"error", err)
			}
		}
		outputs[i] = o.Output
	}
	return outputs, nil
}

func (m *GenerationManager) evaluateOrganism(o *Organism, index int, inputs []float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic during evaluation: %v", ErrState, r)
		}
	}()

	out, err := o.Activate(inputs)
	if err != nil {
		return err
	}
	o.Output = out
	o.Fitness = m.fitness(o, index)
	return nil
}

// KillOrganism stops future Evaluate calls from updating the organism at
// index.
func (m *GenerationManager) KillOrganism(index int) error {
	if index < 0 || index >= len(m.organisms) {
		return fmt.Errorf("%w: organism index %d out of range [0, %d)", ErrState, index, len(m.organisms))
	}
	m.organisms[index].Alive = false
	return nil
}

// Results returns the last recorded fitness and output of every organism.
func (m *GenerationManager) Results() []Result {
	results := make([]Result, len(m.organisms))
	for i, o := range m.organisms {
		results[i] = Result{
			Fitness: o.Fitness,
			Output:  append([]float64(nil), o.Output...),
		}
	}
	return results
}

// Errors returns the evaluation failures of the current generation.
func (m *GenerationManager) Errors() []*EvaluationError {
	return append([]*EvaluationError(nil), m.errors...)
}

// Generation returns the number of generations created so far.
func (m *GenerationManager) Generation() int {
	return m.generation
}

// Organisms returns the current population.
func (m *GenerationManager) Organisms() []*Organism {
	return m.organisms
}

// Elite returns the elite pool, best first.
func (m *GenerationManager) Elite() []Elite {
	return append([]Elite(nil), m.elite...)
}

// BestFitness returns the fitness of the best elite, or 0 before the first
// generation.
func (m *GenerationManager) BestFitness() float64 {
	if len(m.elite) == 0 {
		return 0
	}
	return m.elite[0].Fitness
}

// Species returns the species of the latest clustering pass.
func (m *GenerationManager) Species() []*Species {
	return m.species.Species
}

// SpeciesSet returns the clustering engine, for summaries.
func (m *GenerationManager) SpeciesSet() *SpeciesSet {
	return m.species
}

// Registry returns the innovation registry owned by this manager.
func (m *GenerationManager) Registry() *Registry {
	return m.registry
}

// Ancestors returns the parent IDs of each organism in the current
// population. Elite carry-overs and bootstrap organisms have none.
func (m *GenerationManager) Ancestors() map[uuid.UUID][]uuid.UUID {
	return m.reproduction.Ancestors
}

// RunID returns the identifier used for archived records.
func (m *GenerationManager) RunID() string {
	return m.runID
}
