package neat

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for a generation run.
type Config struct {
	Generation GenerationConfig
	Mutation   MutationConfig
	Crossover  CrossoverConfig
	Speciation SpeciationConfig
}

// GenerationConfig holds population lifecycle parameters.
type GenerationConfig struct {
	NumInGeneration   int `ini:"num_in_generation"`
	MatingNum         int `ini:"mating_num"` // top N of the sorted prior generation that mate
	StartingNumInputs int `ini:"starting_num_inputs"`
	NumOutputs        int `ini:"num_outputs"`
	Elitism           int `ini:"elitism"`
}

// MutationConfig holds the operator probabilities, applied in field order.
type MutationConfig struct {
	AddInputProb          float64 `ini:"add_input_prob"`
	AddOutputProb         float64 `ini:"add_output_prob"`
	SplitConnectionProb   float64 `ini:"split_connection_prob"`
	AddConnectionProb     float64 `ini:"add_connection_prob"`
	DisableProb           float64 `ini:"disable_prob"` // per connection toggle
	WeightMutateProb      float64 `ini:"weight_mutate_prob"`
	WeightChangeLower     float64 `ini:"weight_change_lower"`
	WeightChangeUpper     float64 `ini:"weight_change_upper"`
	MaxConnectionAttempts int     `ini:"max_connection_attempts"`
}

// CrossoverConfig holds mating parameters.
type CrossoverConfig struct {
	// CrossoverProb is the p in "gene included when random() > p" for
	// equal-fitness parents.
	CrossoverProb float64 `ini:"crossover_prob"`
}

// Normalization modes for the compatibility distance.
const (
	NormalizeConstant   = "constant"
	NormalizeGenomeSize = "genome_size"
)

// SpeciationConfig holds compatibility distance and clustering parameters.
type SpeciationConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold"`
	ExcessCoefficient      float64 `ini:"excess_coefficient"`
	DisjointCoefficient    float64 `ini:"disjoint_coefficient"`
	WeightCoefficient      float64 `ini:"weight_coefficient"`
	Normalization          string  `ini:"normalization"`
	NormalizingFactor      float64 `ini:"normalizing_factor"`
	MaxStagnation          int     `ini:"max_stagnation"`  // generations without improvement before a species is reported
	SpeciesElitism         int     `ini:"species_elitism"` // fittest species never reported as stagnant
}

// DefaultConfig returns the stock parameter set.
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			NumInGeneration:   10,
			MatingNum:         4,
			StartingNumInputs: 4,
			NumOutputs:        4,
			Elitism:           1,
		},
		Mutation: MutationConfig{
			AddInputProb:          0.3,
			AddOutputProb:         0.3,
			SplitConnectionProb:   0.3,
			AddConnectionProb:     0.1,
			DisableProb:           0.01,
			WeightMutateProb:      0.3,
			WeightChangeLower:     0.05,
			WeightChangeUpper:     0.25,
			MaxConnectionAttempts: 20,
		},
		Crossover: CrossoverConfig{
			CrossoverProb: 0.5,
		},
		Speciation: SpeciationConfig{
			CompatibilityThreshold: 3,
			ExcessCoefficient:      1,
			DisjointCoefficient:    1,
			WeightCoefficient:      0.4,
			Normalization:          NormalizeConstant,
			NormalizingFactor:      1,
			MaxStagnation:          15,
			SpeciesElitism:         1,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file. Keys absent
// from the file keep their DefaultConfig values.
func LoadConfig(filePath string) (*Config, error) {
	config, err := loadConfigSource(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return config, nil
}

// ParseConfig parses INI-formatted configuration from memory.
func ParseConfig(data []byte) (*Config, error) {
	config, err := loadConfigSource(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

func loadConfigSource(source interface{}) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, source)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()

	if err := cfg.Section("Generation").MapTo(&config.Generation); err != nil {
		return nil, fmt.Errorf("failed to map [Generation] section: %w", err)
	}
	if err := cfg.Section("Mutation").MapTo(&config.Mutation); err != nil {
		return nil, fmt.Errorf("failed to map [Mutation] section: %w", err)
	}
	if err := cfg.Section("Crossover").MapTo(&config.Crossover); err != nil {
		return nil, fmt.Errorf("failed to map [Crossover] section: %w", err)
	}
	if err := cfg.Section("Speciation").MapTo(&config.Speciation); err != nil {
		return nil, fmt.Errorf("failed to map [Speciation] section: %w", err)
	}

	config.Speciation.Normalization = strings.ToLower(cleanIniString(config.Speciation.Normalization))
	if config.Speciation.Normalization == "" {
		config.Speciation.Normalization = NormalizeConstant
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every parameter, returning an error wrapping ErrConfig for
// the first invalid one.
func (c *Config) Validate() error {
	gen := c.Generation
	positive := []struct {
		name string
		v    int
	}{
		{"num_in_generation", gen.NumInGeneration},
		{"mating_num", gen.MatingNum},
		{"starting_num_inputs", gen.StartingNumInputs},
		{"num_outputs", gen.NumOutputs},
		{"elitism", gen.Elitism},
		{"max_connection_attempts", c.Mutation.MaxConnectionAttempts},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrConfig, p.name, p.v)
		}
	}
	if gen.Elitism > gen.NumInGeneration {
		return fmt.Errorf("%w: elitism (%d) cannot exceed num_in_generation (%d)", ErrConfig, gen.Elitism, gen.NumInGeneration)
	}

	m := c.Mutation
	probabilities := []struct {
		name string
		v    float64
	}{
		{"add_input_prob", m.AddInputProb},
		{"add_output_prob", m.AddOutputProb},
		{"split_connection_prob", m.SplitConnectionProb},
		{"add_connection_prob", m.AddConnectionProb},
		{"disable_prob", m.DisableProb},
		{"weight_mutate_prob", m.WeightMutateProb},
		{"crossover_prob", c.Crossover.CrossoverProb},
	}
	for _, p := range probabilities {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1, got %g", ErrConfig, p.name, p.v)
		}
	}
	if m.WeightChangeLower < 0 {
		return fmt.Errorf("%w: weight_change_lower cannot be negative", ErrConfig)
	}
	if m.WeightChangeUpper < m.WeightChangeLower {
		return fmt.Errorf("%w: weight_change_upper cannot be less than weight_change_lower", ErrConfig)
	}

	s := c.Speciation
	if s.CompatibilityThreshold < 0 {
		return fmt.Errorf("%w: compatibility_threshold cannot be negative", ErrConfig)
	}
	if s.ExcessCoefficient < 0 || s.DisjointCoefficient < 0 || s.WeightCoefficient < 0 {
		return fmt.Errorf("%w: compatibility coefficients cannot be negative", ErrConfig)
	}
	if s.MaxStagnation <= 0 {
		return fmt.Errorf("%w: max_stagnation must be positive, got %d", ErrConfig, s.MaxStagnation)
	}
	if s.SpeciesElitism < 0 {
		return fmt.Errorf("%w: species_elitism cannot be negative", ErrConfig)
	}
	switch s.Normalization {
	case NormalizeConstant:
		if s.NormalizingFactor <= 0 {
			return fmt.Errorf("%w: normalizing_factor must be positive", ErrConfig)
		}
	case NormalizeGenomeSize:
	default:
		return fmt.Errorf("%w: invalid normalization '%s', must be one of '%s', '%s'",
			ErrConfig, s.Normalization, NormalizeConstant, NormalizeGenomeSize)
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
