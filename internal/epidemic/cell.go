package epidemic

// AgeClass groups individuals by age for susceptibility and mortality.
type AgeClass uint8

// Gender is carried for completeness; no rule reads it.
type Gender uint8

// Status is the epidemic state of a cell.
type Status uint8

const (
	Child AgeClass = iota
	Adult
	Elder
)

const (
	Male Gender = iota
	Female
)

const (
	Empty Status = iota
	Susceptible
	Exposed
	Contagious
	Isolated
	Cured
	Dead

	// NumStatuses is the number of distinct statuses.
	NumStatuses = int(Dead) + 1
)

var statusNames = [NumStatuses]string{
	"empty", "susceptible", "exposed", "contagious", "isolated", "cured", "dead",
}

func (s Status) String() string {
	if int(s) < NumStatuses {
		return statusNames[s]
	}
	return "unknown"
}

// Sick reports whether the status carries a meaningful infection time.
func (s Status) Sick() bool {
	return s == Exposed || s == Contagious || s == Isolated
}

// Inert reports whether no rule will ever change a cell in this status.
func (s Status) Inert() bool {
	return s == Empty || s == Cured || s == Dead
}

func (a AgeClass) String() string {
	switch a {
	case Child:
		return "child"
	case Adult:
		return "adult"
	case Elder:
		return "elder"
	}
	return "unknown"
}

// Cell is one individual (or an empty lot) on the grid.
type Cell struct {
	Age         AgeClass
	RiskDisease bool
	RiskJob     bool
	Vaccinated  bool
	Gender      Gender
	Status      Status
	// InfectionTime is the step at which the cell became Exposed. It is only
	// meaningful while Status.Sick() holds.
	InfectionTime int32
}

// Neighbor positions within Neighbors.
const (
	TopLeft = iota
	Top
	TopRight
	Left
	Right
	BottomLeft
	Bottom
	BottomRight
)

// Neighbors holds the current-step snapshots of the eight Moore neighbours,
// ordered TopLeft through BottomRight.
type Neighbors [8]Cell
