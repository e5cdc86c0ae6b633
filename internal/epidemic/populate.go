package epidemic

import "epi-ca/internal/core"

// NewCell draws an occupied cell: age class, risk factors, vaccination,
// gender and an initial status that is occasionally a pre-seeded exposure.
func NewCell(r core.Rand, p Params) Cell {
	c := Cell{Status: Susceptible}
	switch a := r.Float64(); {
	case a < p.ChildShare:
		c.Age = Child
	case a < 1-p.ElderShare:
		c.Age = Adult
	default:
		c.Age = Elder
	}
	c.RiskDisease = r.Float64() < p.RiskDiseaseChance
	c.RiskJob = r.Float64() < p.RiskJobChance
	c.Vaccinated = r.Float64() < p.VaccinatedChance
	c.Gender = Gender(r.IntN(2))
	if r.Float64() < p.SeedExposedChance {
		c.Status = Exposed
	}
	return c
}

// Populate fills cells with a fresh population. Each cell is independently
// left empty with EmptyChance, otherwise drawn with NewCell. All draws come
// from r in row-major order, so one seed reproduces the whole grid.
func Populate(cells []Cell, r core.Rand, p Params) {
	for i := range cells {
		if r.Float64() < p.EmptyChance {
			cells[i] = Cell{Status: Empty}
			continue
		}
		cells[i] = NewCell(r, p)
	}
}
