package epidemic

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Params holds the rule constants and population proportions.
type Params struct {
	DiseaseStrength     float64 `yaml:"disease_strength"`
	IsolationChance     float64 `yaml:"isolation_chance"`
	IncubationSteps     int     `yaml:"incubation_steps"`
	IsolationDelaySteps int     `yaml:"isolation_delay_steps"`
	OutcomeSteps        int     `yaml:"outcome_steps"`

	ChildSusceptibility int `yaml:"child_susceptibility"`
	AdultSusceptibility int `yaml:"adult_susceptibility"`
	ElderSusceptibility int `yaml:"elder_susceptibility"`
	RiskBonus           int `yaml:"risk_bonus"`

	// Death chances are percentage points.
	ChildDeathChance float64 `yaml:"child_death_chance"`
	AdultDeathChance float64 `yaml:"adult_death_chance"`
	ElderDeathChance float64 `yaml:"elder_death_chance"`
	VaccineReduction float64 `yaml:"vaccine_reduction"`

	EmptyChance       float64 `yaml:"empty_chance"`
	ChildShare        float64 `yaml:"child_share"`
	ElderShare        float64 `yaml:"elder_share"`
	RiskDiseaseChance float64 `yaml:"risk_disease_chance"`
	RiskJobChance     float64 `yaml:"risk_job_chance"`
	VaccinatedChance  float64 `yaml:"vaccinated_chance"`
	SeedExposedChance float64 `yaml:"seed_exposed_chance"`
}

// SeedMode selects how random sources are assigned to cell updates.
type SeedMode string

const (
	// SeedPerCell derives a stream from (seed, step, cell); results do not
	// depend on the number of workers.
	SeedPerCell SeedMode = "cell"
	// SeedPerRank gives each rank its own generator seeded seed+rank.
	SeedPerRank SeedMode = "rank"
)

// Config controls the simulation dimensions, duration and rules.
type Config struct {
	Rows     int      `yaml:"rows"`
	Cols     int      `yaml:"cols"`
	Steps    int      `yaml:"steps"`
	Seed     int64    `yaml:"seed"`
	SeedMode SeedMode `yaml:"seed_mode"`

	Params Params `yaml:"params"`
}

// DefaultParams returns the standard rule constants.
func DefaultParams() Params {
	return Params{
		DiseaseStrength:     2.4,
		IsolationChance:     0.9,
		IncubationSteps:     4,
		IsolationDelaySteps: 2,
		OutcomeSteps:        14,
		ChildSusceptibility: 30,
		AdultSusceptibility: 50,
		ElderSusceptibility: 90,
		RiskBonus:           15,
		ChildDeathChance:    1,
		AdultDeathChance:    1.3,
		ElderDeathChance:    14.8,
		VaccineReduction:    0.5,
		EmptyChance:         0.5,
		ChildShare:          0.30,
		ElderShare:          0.16,
		RiskDiseaseChance:   0.10,
		RiskJobChance:       0.10,
		VaccinatedChance:    0.70,
		SeedExposedChance:   0.002,
	}
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Rows:     60,
		Cols:     60,
		Steps:    120,
		Seed:     1337,
		SeedMode: SeedPerCell,
		Params:   DefaultParams(),
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Unparseable or out-of-range values keep their defaults.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	positiveInt(cfg, "rows", &c.Rows)
	positiveInt(cfg, "cols", &c.Cols)
	nonNegativeInt(cfg, "steps", &c.Steps)
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["seed_mode"]; ok {
		if mode := SeedMode(v); mode == SeedPerCell || mode == SeedPerRank {
			c.SeedMode = mode
		}
	}

	p := &c.Params
	nonNegativeFloat(cfg, "disease_strength", &p.DiseaseStrength)
	probability(cfg, "isolation_chance", &p.IsolationChance)
	positiveInt(cfg, "incubation_steps", &p.IncubationSteps)
	positiveInt(cfg, "isolation_delay_steps", &p.IsolationDelaySteps)
	positiveInt(cfg, "outcome_steps", &p.OutcomeSteps)
	nonNegativeInt(cfg, "child_susceptibility", &p.ChildSusceptibility)
	nonNegativeInt(cfg, "adult_susceptibility", &p.AdultSusceptibility)
	nonNegativeInt(cfg, "elder_susceptibility", &p.ElderSusceptibility)
	nonNegativeInt(cfg, "risk_bonus", &p.RiskBonus)
	nonNegativeFloat(cfg, "child_death_chance", &p.ChildDeathChance)
	nonNegativeFloat(cfg, "adult_death_chance", &p.AdultDeathChance)
	nonNegativeFloat(cfg, "elder_death_chance", &p.ElderDeathChance)
	nonNegativeFloat(cfg, "vaccine_reduction", &p.VaccineReduction)
	probability(cfg, "empty_chance", &p.EmptyChance)
	probability(cfg, "child_share", &p.ChildShare)
	probability(cfg, "elder_share", &p.ElderShare)
	if p.ChildShare+p.ElderShare > 1 {
		p.ElderShare = 1 - p.ChildShare
	}
	probability(cfg, "risk_disease_chance", &p.RiskDiseaseChance)
	probability(cfg, "risk_job_chance", &p.RiskJobChance)
	probability(cfg, "vaccinated_chance", &p.VaccinatedChance)
	probability(cfg, "seed_exposed_chance", &p.SeedExposedChance)
	return c
}

// EncodeConfig renders the config as YAML.
func EncodeConfig(c Config) ([]byte, error) {
	return yaml.Marshal(c)
}

// DecodeConfig parses YAML produced by EncodeConfig. Missing fields keep
// their defaults.
func DecodeConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func positiveInt(cfg map[string]string, key string, dst *int) {
	if v, ok := cfg[key]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			*dst = parsed
		}
	}
}

func nonNegativeInt(cfg map[string]string, key string, dst *int) {
	if v, ok := cfg[key]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			*dst = parsed
		}
	}
}

func nonNegativeFloat(cfg map[string]string, key string, dst *float64) {
	if v, ok := cfg[key]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			*dst = parsed
		}
	}
}

func probability(cfg map[string]string, key string, dst *float64) {
	if v, ok := cfg[key]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			*dst = parsed
		}
	}
}
