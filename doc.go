// Package neat provides a Go implementation of the NeuroEvolution of Augmenting Topologies (NEAT) algorithm.
//
// NEAT evolves both the weights and the structure of neural networks. Genomes
// carry historical innovation numbers so independently evolved networks can
// be aligned for crossover and compared for speciation.
//
// The implementation lives in the neat subpackage. Phenotype evaluation is in
// neat/nn and elite genome storage in neat/archive.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	manager, err := neat.NewGenerationManager(config, func(o *neat.Organism, i int) float64 {
//		return score(o.Output)
//	})
//	if err != nil {
//		log.Fatalf("Error creating generation manager: %v", err)
//	}
//
//	for i := 0; i < 100; i++ {
//		if err := manager.AdvanceGeneration(); err != nil {
//			log.Fatalf("Error advancing generation: %v", err)
//		}
//		if _, err := manager.Evaluate(inputsFor(manager.Organisms())); err != nil {
//			log.Fatalf("Error evaluating generation: %v", err)
//		}
//	}
package neat
