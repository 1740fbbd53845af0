package neat

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// checkpointData holds the parts of a GenerationManager needed to resume a
// run. The config and fitness function are supplied again at load time and
// phenotypes are rebuilt from the genomes.
type checkpointData struct {
	RunID          string               `json:"runId"`
	Generation     int                  `json:"generation"`
	Size           int                  `json:"size"`
	StartingInputs int                  `json:"startingInputs"`
	NumOutputs     int                  `json:"numOutputs"`
	Registry       RegistryState        `json:"registry"`
	Organisms      []organismCheckpoint `json:"organisms"`
	Elite          []eliteCheckpoint    `json:"elite"`
}

type organismCheckpoint struct {
	ID            uuid.UUID `json:"id"`
	Genome        *Genome   `json:"genome"`
	MaxInputCount int       `json:"maxInputCount"`
	Fitness       float64   `json:"fitness"`
	Alive         bool      `json:"alive"`
	Output        []float64 `json:"output"`
}

type eliteCheckpoint struct {
	Genome     *Genome `json:"genome"`
	Fitness    float64 `json:"fitness"`
	Generation int     `json:"generation"`
}

// SaveCheckpoint writes the manager state to filePath as gzip-compressed
// JSON. Species are not saved; the first generation after a load founds
// them afresh.
func (m *GenerationManager) SaveCheckpoint(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)

	data := checkpointData{
		RunID:          m.runID,
		Generation:     m.generation,
		Size:           m.size,
		StartingInputs: m.startingInputs,
		NumOutputs:     m.numOutputs,
		Registry:       m.registry.State(),
		Organisms:      make([]organismCheckpoint, 0, len(m.organisms)),
		Elite:          make([]eliteCheckpoint, 0, len(m.elite)),
	}
	for _, o := range m.organisms {
		data.Organisms = append(data.Organisms, organismCheckpoint{
			ID:            o.ID,
			Genome:        o.Genome,
			MaxInputCount: o.MaxInputCount,
			Fitness:       o.Fitness,
			Alive:         o.Alive,
			Output:        o.Output,
		})
	}
	for _, e := range m.elite {
		data.Elite = append(data.Elite, eliteCheckpoint{Genome: e.Genome, Fitness: e.Fitness, Generation: e.Generation})
	}

	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}

	m.logger.Info("checkpoint saved", "path", filePath, "generation", m.generation)
	return nil
}

// LoadCheckpoint rebuilds a GenerationManager from a file written by
// SaveCheckpoint. The run ID stored in the checkpoint wins over WithRunID.
func LoadCheckpoint(filePath string, config *Config, fitness FitnessFunc, opts ...Option) (*GenerationManager, error) {
	m, err := NewGenerationManager(config, fitness, opts...)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	var data checkpointData
	if err := json.NewDecoder(gzReader).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	organisms := make([]*Organism, 0, len(data.Organisms))
	for i, oc := range data.Organisms {
		if oc.Genome == nil {
			return nil, fmt.Errorf("%w: checkpoint organism %d has no genome", ErrValidation, i)
		}
		o, err := NewOrganism(oc.Genome, data.NumOutputs)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild organism %d: %w", i, err)
		}
		o.ID = oc.ID
		o.MaxInputCount = oc.MaxInputCount
		o.Fitness = oc.Fitness
		o.Alive = oc.Alive
		if oc.Output != nil {
			o.Output = oc.Output
		}
		organisms = append(organisms, o)
	}

	elite := make([]Elite, 0, len(data.Elite))
	for i, ec := range data.Elite {
		if ec.Genome == nil {
			return nil, fmt.Errorf("%w: checkpoint elite %d has no genome", ErrValidation, i)
		}
		elite = append(elite, Elite{Genome: ec.Genome, Fitness: ec.Fitness, Generation: ec.Generation})
	}

	m.setRegistry(RestoreRegistry(data.Registry, m.rng))
	if data.RunID != "" {
		m.runID = data.RunID
	}
	m.generation = data.Generation
	m.size = data.Size
	m.startingInputs = data.StartingInputs
	m.numOutputs = data.NumOutputs
	m.organisms = organisms
	m.elite = elite

	m.logger.Info("checkpoint loaded", "path", filePath, "generation", m.generation)
	return m, nil
}
