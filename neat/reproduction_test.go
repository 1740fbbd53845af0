package neat

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatingSchedule(t *testing.T) {
	s := newMatingSchedule(4, 10)
	var got [][2]int
	for i := 0; i < 11; i++ {
		a, b := s.next()
		got = append(got, [2]int{a, b})
	}
	assert.Equal(t, [][2]int{
		{0, 1}, {0, 2}, {0, 3},
		{1, 2}, {1, 3},
		{2, 3},
		{3, 0}, {3, 1}, {3, 2}, {3, 3},
		{0, 1},
	}, got)
}

func TestMatingScheduleBoundedByPool(t *testing.T) {
	s := newMatingSchedule(4, 2)
	var got [][2]int
	for i := 0; i < 4; i++ {
		a, b := s.next()
		got = append(got, [2]int{a, b})
	}
	assert.Equal(t, [][2]int{{0, 1}, {1, 0}, {1, 1}, {0, 1}}, got)

	single := newMatingSchedule(4, 1)
	for i := 0; i < 3; i++ {
		a, b := single.next()
		assert.Equal(t, 0, a)
		assert.Equal(t, 0, b)
	}
}

func fitOrganisms(t *testing.T, fitness ...float64) []*Organism {
	r := NewRegistry(NewRandomSource(1))
	out := make([]*Organism, len(fitness))
	for i, f := range fitness {
		out[i] = newOrganism(t, r.NewGenome(2, 1))
		out[i].Fitness = f
	}
	return out
}

func TestSortByFitnessIsStable(t *testing.T) {
	organisms := fitOrganisms(t, 1, 3, 2, 3)
	first, second := organisms[1], organisms[3]

	SortByFitness(organisms)

	assert.Equal(t, []float64{3, 3, 2, 1}, []float64{
		organisms[0].Fitness, organisms[1].Fitness, organisms[2].Fitness, organisms[3].Fitness,
	})
	assert.Same(t, first, organisms[0])
	assert.Same(t, second, organisms[1])
}

func TestUpdateElite(t *testing.T) {
	sorted := fitOrganisms(t, 5, 3, 0.5)
	pool := []Elite{{Genome: NewGenome(), Fitness: 1}}

	pool = UpdateElite(pool, sorted, 2, 4)

	require.Len(t, pool, 2)
	assert.Equal(t, 5.0, pool[0].Fitness)
	assert.Equal(t, 3.0, pool[1].Fitness)
	assert.Equal(t, 4, pool[0].Generation)
	assert.NotSame(t, sorted[0].Genome, pool[0].Genome)

	sorted[0].Fitness = 0
	require.NoError(t, sorted[0].Genome.AddNodeGene(NewHiddenGene(99)))
	assert.Equal(t, 5.0, pool[0].Fitness)
	assert.False(t, pool[0].Genome.HasID(99))
}

func TestUpdateEliteKeepsBetterEntries(t *testing.T) {
	pool := []Elite{{Genome: NewGenome(), Fitness: 9}, {Genome: NewGenome(), Fitness: 7}}
	pool = UpdateElite(pool, fitOrganisms(t, 7, 6), 2, 2)

	assert.Equal(t, []float64{9, 7}, []float64{pool[0].Fitness, pool[1].Fitness})
}

func TestReproduce(t *testing.T) {
	cfg := DefaultConfig()
	rng := NewRandomSource(4)
	registry := NewRegistry(rng)
	breeder := NewBreeder(cfg, registry, rng, discardLogger())
	rep := NewReproduction(&cfg.Generation, breeder, discardLogger())

	prior, err := rep.CreateNewPopulation(registry, 6, 2, 1)
	require.NoError(t, err)
	for i, o := range prior {
		o.Fitness = float64(len(prior) - i)
	}
	elite := UpdateElite(nil, prior, 1, 1)

	next, err := rep.Reproduce(elite, prior, 6, 2, 1)
	require.NoError(t, err)
	require.Len(t, next, 6)

	assert.NotSame(t, elite[0].Genome, next[0].Genome)
	assert.Equal(t, elite[0].Genome.ConnectionGenes(), next[0].Genome.ConnectionGenes())
	assert.Empty(t, rep.Ancestors[next[0].ID])
	assert.Equal(t, []uuid.UUID{prior[0].ID, prior[1].ID}, rep.Ancestors[next[1].ID])
	for _, o := range next {
		assert.True(t, o.Alive)
		assert.Equal(t, 1, o.NumOutputs())
	}

	_, err = rep.Reproduce(elite, nil, 6, 2, 1)
	assert.ErrorIs(t, err, ErrState)
}
