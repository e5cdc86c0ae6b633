package epidemic

import (
	"strconv"

	"epi-ca/internal/core"
)

// Parameters describes the configuration for display and logging.
func (c Config) Parameters() core.ParameterSnapshot {
	p := c.Params
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				intParam("rows", "Rows", c.Rows),
				intParam("cols", "Cols", c.Cols),
				intParam("steps", "Steps", c.Steps),
				int64Param("seed", "Seed", c.Seed),
				{Key: "seed_mode", Label: "Seed mode", Type: core.ParamTypeString, Value: string(c.SeedMode)},
			},
		},
		{
			Name: "Disease",
			Params: []core.Parameter{
				floatParam("disease_strength", "Disease strength", p.DiseaseStrength),
				floatParam("isolation_chance", "Isolation chance", p.IsolationChance),
				intParam("incubation_steps", "Incubation steps", p.IncubationSteps),
				intParam("isolation_delay_steps", "Isolation delay", p.IsolationDelaySteps),
				intParam("outcome_steps", "Outcome steps", p.OutcomeSteps),
			},
		},
		{
			Name: "Susceptibility",
			Params: []core.Parameter{
				intParam("child_susceptibility", "Child", p.ChildSusceptibility),
				intParam("adult_susceptibility", "Adult", p.AdultSusceptibility),
				intParam("elder_susceptibility", "Elder", p.ElderSusceptibility),
				intParam("risk_bonus", "Risk bonus", p.RiskBonus),
			},
		},
		{
			Name: "Mortality (%)",
			Params: []core.Parameter{
				floatParam("child_death_chance", "Child", p.ChildDeathChance),
				floatParam("adult_death_chance", "Adult", p.AdultDeathChance),
				floatParam("elder_death_chance", "Elder", p.ElderDeathChance),
				floatParam("vaccine_reduction", "Vaccine reduction", p.VaccineReduction),
			},
		},
		{
			Name: "Population",
			Params: []core.Parameter{
				floatParam("empty_chance", "Empty chance", p.EmptyChance),
				floatParam("child_share", "Child share", p.ChildShare),
				floatParam("elder_share", "Elder share", p.ElderShare),
				floatParam("risk_disease_chance", "Disease risk", p.RiskDiseaseChance),
				floatParam("risk_job_chance", "Job risk", p.RiskJobChance),
				floatParam("vaccinated_chance", "Vaccinated", p.VaccinatedChance),
				floatParam("seed_exposed_chance", "Seed exposed", p.SeedExposedChance),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}
