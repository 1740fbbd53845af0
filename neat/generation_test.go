package neat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-gen/neat/archive"
)

func outputFitness(o *Organism, _ int) float64 {
	total := 1.0
	for _, v := range o.Output {
		total += v
	}
	return total + float64(o.Genome.NumConnections())/10
}

func newTestManager(t *testing.T, fitness FitnessFunc, opts ...Option) *GenerationManager {
	t.Helper()
	opts = append([]Option{WithRandomSource(NewRandomSource(42)), WithLogger(discardLogger())}, opts...)
	m, err := NewGenerationManager(DefaultConfig(), fitness, opts...)
	require.NoError(t, err)
	return m
}

func sameInputs(n int, v []float64) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestNewGenerationManagerValidates(t *testing.T) {
	_, err := NewGenerationManager(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewGenerationManager(nil, outputFitness)
	assert.ErrorIs(t, err, ErrConfig)

	cfg := DefaultConfig()
	cfg.Generation.MatingNum = 0
	_, err = NewGenerationManager(cfg, outputFitness)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestAdvanceGenerationBootstraps(t *testing.T) {
	m := newTestManager(t, outputFitness)
	assert.Equal(t, 0, m.Generation())
	assert.Empty(t, m.Organisms())

	require.NoError(t, m.AdvanceGeneration())

	cfg := m.Config.Generation
	assert.Equal(t, 1, m.Generation())
	require.Len(t, m.Organisms(), cfg.NumInGeneration)
	require.Len(t, m.Elite(), cfg.Elitism)
	for _, o := range m.Organisms() {
		assert.Equal(t, 2, o.Genome.NumNodes())
		assert.Equal(t, 1, o.Genome.NumConnections())
		assert.Equal(t, cfg.NumOutputs, o.NumOutputs())
		assert.True(t, o.Alive)
		assert.NotSame(t, o.Genome, m.Elite()[0].Genome)
	}
	assert.Zero(t, m.Elite()[0].Fitness)
}

func TestInitializePopulation(t *testing.T) {
	m := newTestManager(t, outputFitness)
	require.NoError(t, m.InitializePopulation(3, 2, 5))

	require.Len(t, m.Organisms(), 3)
	assert.Equal(t, 5, m.Organisms()[0].NumOutputs())
	assert.ErrorIs(t, m.InitializePopulation(0, 2, 5), ErrConfig)

	require.NoError(t, m.AdvanceGeneration())
	assert.Len(t, m.Organisms(), 3)
	assert.Equal(t, 2, m.Generation())
}

func TestEvaluate(t *testing.T) {
	calls := make(map[int]int)
	m := newTestManager(t, func(o *Organism, index int) float64 {
		calls[index]++
		return float64(index) + 0.5
	})
	require.NoError(t, m.AdvanceGeneration())
	n := len(m.Organisms())

	_, err := m.Evaluate(sameInputs(n-1, []float64{1}))
	assert.ErrorIs(t, err, ErrState)

	outputs, err := m.Evaluate(sameInputs(n, []float64{1, 0.5, 0.25, 0}))
	require.NoError(t, err)
	require.Len(t, outputs, n)

	results := m.Results()
	require.Len(t, results, n)
	for i, r := range results {
		assert.Equal(t, 1, calls[i])
		assert.Equal(t, float64(i)+0.5, r.Fitness)
		assert.Len(t, r.Output, m.Config.Generation.NumOutputs)
		assert.Equal(t, outputs[i], r.Output)
	}
	assert.Empty(t, m.Errors())
}

func TestEvaluateIsDeterministic(t *testing.T) {
	m := newTestManager(t, outputFitness)
	require.NoError(t, m.AdvanceGeneration())
	inputs := sameInputs(len(m.Organisms()), []float64{0.3, 0.6, 0.9, 0.1})

	first, err := m.Evaluate(inputs)
	require.NoError(t, err)
	second, err := m.Evaluate(inputs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestKillOrganism(t *testing.T) {
	fitness := 1.0
	m := newTestManager(t, func(*Organism, int) float64 { return fitness })
	require.NoError(t, m.AdvanceGeneration())
	n := len(m.Organisms())
	inputs := sameInputs(n, []float64{1, 1, 1, 1})

	_, err := m.Evaluate(inputs)
	require.NoError(t, err)
	require.NoError(t, m.KillOrganism(2))

	fitness = 7
	_, err = m.Evaluate(inputs)
	require.NoError(t, err)

	results := m.Results()
	assert.Equal(t, 1.0, results[2].Fitness)
	assert.Equal(t, 7.0, results[0].Fitness)
	assert.False(t, m.Organisms()[2].Alive)

	assert.ErrorIs(t, m.KillOrganism(-1), ErrState)
	assert.ErrorIs(t, m.KillOrganism(n), ErrState)
}

func TestEvaluateIsolatesFailures(t *testing.T) {
	m := newTestManager(t, func(o *Organism, index int) float64 {
		if index == 1 {
			panic("bad organism")
		}
		return 2
	})
	require.NoError(t, m.AdvanceGeneration())
	n := len(m.Organisms())

	outputs, err := m.Evaluate(sameInputs(n, []float64{1, 1, 1, 1}))
	require.NoError(t, err)

	errs := m.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Index)
	assert.Equal(t, 1, errs[0].Generation)
	assert.Equal(t, m.Organisms()[1].ID, errs[0].OrganismID)
	assert.ErrorIs(t, errs[0], ErrState)

	var evalErr *EvaluationError
	assert.True(t, errors.As(error(errs[0]), &evalErr))

	results := m.Results()
	assert.Zero(t, results[1].Fitness)
	assert.Empty(t, results[1].Output)
	assert.Empty(t, outputs[1])
	for i, r := range results {
		if i != 1 {
			assert.Equal(t, 2.0, r.Fitness)
		}
	}

	require.NoError(t, m.AdvanceGeneration())
	assert.Empty(t, m.Errors())
}

func TestElitismIsMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generation.NumInGeneration = 20
	cfg.Generation.Elitism = 3
	m, err := NewGenerationManager(cfg, outputFitness,
		WithRandomSource(NewRandomSource(9)), WithLogger(discardLogger()))
	require.NoError(t, err)

	best := 0.0
	for gen := 0; gen < 25; gen++ {
		require.NoError(t, m.AdvanceGeneration())
		require.Len(t, m.Organisms(), cfg.Generation.NumInGeneration)

		elite := m.Elite()
		require.LessOrEqual(t, len(elite), cfg.Generation.Elitism)
		for i := 1; i < len(elite); i++ {
			require.GreaterOrEqual(t, elite[i-1].Fitness, elite[i].Fitness)
		}
		require.GreaterOrEqual(t, m.BestFitness(), best)
		best = m.BestFitness()

		_, err := m.Evaluate(sameInputs(len(m.Organisms()), []float64{0.5, 1, 0.25, 0.75}))
		require.NoError(t, err)
	}
	assert.Positive(t, best)
	assert.NotEmpty(t, m.Species())
}

func TestAdvanceGenerationArchivesElite(t *testing.T) {
	ctx := context.Background()
	store := archive.NewMemoryArchive()
	require.NoError(t, store.Init(ctx))

	m := newTestManager(t, outputFitness, WithArchive(store), WithRunID("run-test"))
	require.NoError(t, m.AdvanceGeneration())
	_, err := m.Evaluate(sameInputs(len(m.Organisms()), []float64{1, 1, 1, 1}))
	require.NoError(t, err)
	require.NoError(t, m.AdvanceGeneration())

	records, err := store.ListGeneration(ctx, "run-test", 1)
	require.NoError(t, err)
	require.Len(t, records, m.Config.Generation.Elitism)
	assert.Equal(t, m.Elite()[0].Fitness, records[0].Fitness)

	var g Genome
	require.NoError(t, json.Unmarshal(records[0].Genome, &g))
	assert.Equal(t, m.Elite()[0].Genome.ConnectionGenes(), g.ConnectionGenes())
}

func TestAdvanceGenerationTracksAncestry(t *testing.T) {
	m := newTestManager(t, outputFitness)
	require.NoError(t, m.AdvanceGeneration())
	_, err := m.Evaluate(sameInputs(len(m.Organisms()), []float64{1, 1, 1, 1}))
	require.NoError(t, err)
	prior := make(map[any]bool)
	for _, o := range m.Organisms() {
		prior[o.ID] = true
	}

	require.NoError(t, m.AdvanceGeneration())

	ancestors := m.Ancestors()
	bred := 0
	for _, o := range m.Organisms() {
		parents := ancestors[o.ID]
		if len(parents) == 0 {
			continue
		}
		bred++
		require.Len(t, parents, 2)
		assert.True(t, prior[parents[0]])
		assert.True(t, prior[parents[1]])
	}
	assert.Equal(t, len(m.Organisms())-m.Config.Generation.Elitism, bred)
}
