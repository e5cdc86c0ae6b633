package epidemic

import "epi-ca/internal/core"

// Susceptibility scores how easily a cell catches the disease on a 0-100
// scale: an age-class base plus a bonus for any risk factor.
func Susceptibility(c Cell, p Params) int {
	base := 0
	switch c.Age {
	case Child:
		base = p.ChildSusceptibility
	case Adult:
		base = p.AdultSusceptibility
	case Elder:
		base = p.ElderSusceptibility
	}
	if c.RiskDisease || c.RiskJob {
		base += p.RiskBonus
	}
	return base
}

// DeathChance returns the chance, in percentage points, that a sick cell dies
// when its outcome is decided. It never goes below zero.
func DeathChance(c Cell, p Params) float64 {
	chance := 0.0
	switch c.Age {
	case Child:
		chance = p.ChildDeathChance
	case Adult:
		chance = p.AdultDeathChance
	case Elder:
		chance = p.ElderDeathChance
	}
	if c.Vaccinated {
		chance -= p.VaccineReduction
	}
	if chance < 0 {
		return 0
	}
	return chance
}

// ContagiousCount counts neighbours that currently spread the disease.
func ContagiousCount(nb Neighbors) int {
	n := 0
	for i := range nb {
		if nb[i].Status == Contagious {
			n++
		}
	}
	return n
}

// InfectionChance is the per-step probability that a susceptible cell becomes
// exposed. It is zero without contagious neighbours, whatever the score.
func InfectionChance(c Cell, nb Neighbors, p Params) float64 {
	n := ContagiousCount(nb)
	if n == 0 {
		return 0
	}
	return float64(n)/float64(len(nb))*p.DiseaseStrength + float64(Susceptibility(c, p))/100
}

// Expose moves a susceptible cell to Exposed with InfectionChance, recording
// step as its infection time. No draw is taken when no neighbour is contagious.
func Expose(next *Cell, nb Neighbors, step int, r core.Rand, p Params) {
	if next.Status != Susceptible {
		return
	}
	chance := InfectionChance(*next, nb, p)
	if chance <= 0 {
		return
	}
	if r.Float64() < chance {
		next.Status = Exposed
		next.InfectionTime = int32(step)
	}
}

// Incubate makes an exposed cell contagious exactly IncubationSteps after
// exposure.
func Incubate(next *Cell, step int, p Params) {
	if next.Status != Exposed {
		return
	}
	if elapsed(next, step) == p.IncubationSteps {
		next.Status = Contagious
	}
}

// Isolate gives a contagious cell one chance to isolate, IsolationDelaySteps
// after it became contagious.
func Isolate(next *Cell, step int, r core.Rand, p Params) {
	if next.Status != Contagious {
		return
	}
	if elapsed(next, step) != p.IncubationSteps+p.IsolationDelaySteps {
		return
	}
	if r.Float64() < p.IsolationChance {
		next.Status = Isolated
	}
}

// Resolve decides between Cured and Dead for a sick cell.
func Resolve(next *Cell, r core.Rand, p Params) {
	if !next.Status.Sick() {
		return
	}
	if r.Float64()*100 < DeathChance(*next, p) {
		next.Status = Dead
		return
	}
	next.Status = Cured
}

// Advance applies every rule that can fire for the cell at this step. next
// starts as a copy of the cell's current state; nb are the current-step
// neighbours. Only next.Status and next.InfectionTime are ever written.
func Advance(next *Cell, nb Neighbors, step int, r core.Rand, p Params) {
	switch next.Status {
	case Susceptible:
		Expose(next, nb, step, r, p)
	case Exposed:
		Incubate(next, step, p)
	case Contagious:
		Isolate(next, step, r, p)
	}
	if next.Status.Sick() && elapsed(next, step) == p.OutcomeSteps {
		Resolve(next, r, p)
	}
}

func elapsed(c *Cell, step int) int {
	return step - int(c.InfectionTime)
}
