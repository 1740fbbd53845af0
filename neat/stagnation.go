package neat

import (
	"math"
	"sort"
)

// Stagnation tracks how long each species has gone without improving its
// best raw fitness. It only reports: species are removed solely when they
// lose every member.
type Stagnation struct {
	Config *SpeciationConfig
}

// NewStagnation creates a new stagnation tracker.
func NewStagnation(config *SpeciationConfig) *Stagnation {
	return &Stagnation{Config: config}
}

// StagnationInfo holds the results of the stagnation update for a single species.
type StagnationInfo struct {
	SpeciesID    int
	Fitness      float64
	StagnantTime int
	IsStagnant   bool
}

// Update records each species' best member fitness for generation and
// reports which species have not improved for MaxStagnation generations.
// The SpeciesElitism fittest species are never reported. Call it after
// clustering and before fitness sharing. The result is ordered by species
// fitness, least fit first.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) []StagnationInfo {
	species := append([]*Species(nil), speciesSet.Species...)
	for _, sp := range species {
		previousMax := math.Inf(-1)
		for _, f := range sp.FitnessHistory {
			previousMax = math.Max(previousMax, f)
		}

		sp.Fitness = math.Inf(-1)
		for _, f := range sp.Fitnesses() {
			sp.Fitness = math.Max(sp.Fitness, f)
		}
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		if sp.Fitness > previousMax {
			sp.LastImproved = generation
		}
	}

	sort.SliceStable(species, func(i, j int) bool {
		return species[i].Fitness < species[j].Fitness
	})

	result := make([]StagnationInfo, len(species))
	for i, sp := range species {
		stagnantTime := generation - sp.LastImproved
		elite := len(species)-i <= s.Config.SpeciesElitism
		result[i] = StagnationInfo{
			SpeciesID:    sp.ID,
			Fitness:      sp.Fitness,
			StagnantTime: stagnantTime,
			IsStagnant:   !elite && stagnantTime >= s.Config.MaxStagnation,
		}
	}
	return result
}
