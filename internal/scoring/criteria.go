package scoring

import (
	"fmt"
	"math"
	"sort"
)

// Role selects which criterion weight table applies.
type Role string

const (
	RoleTechnical   Role = "technical"
	RoleExecutive   Role = "executive"
	RoleOperational Role = "operational"
)

// Criterion names one scored dimension of a candidate.
type Criterion string

const (
	SkillMatch     Criterion = "skill_match"
	CultureFit     Criterion = "culture_fit"
	ExecutionSpeed Criterion = "execution_speed"
	CostEfficiency Criterion = "cost_efficiency"
	Adaptability   Criterion = "adaptability"
)

// Raw inputs use a 1-5 scale; a missing criterion defaults to the
// neutral midpoint and costs one confidence level.
const (
	RawMin     = 1.0
	RawMax     = 5.0
	RawNeutral = 3.0

	// rawScale maps the 1-5 raw scale onto 0-100 composite points.
	rawScale = 20.0

	// weightTolerance is the allowed deviation of a role's weight sum from 1.
	weightTolerance = 1e-6
)

// Inputs maps criterion names to raw 1-5 values. Keys outside the
// criterion set are rejected; absent keys take the neutral default.
type Inputs map[Criterion]float64

var criteria = []Criterion{
	SkillMatch,
	CultureFit,
	ExecutionSpeed,
	CostEfficiency,
	Adaptability,
}

var weightTables = map[Role]map[Criterion]float64{
	RoleTechnical: {
		SkillMatch:     0.35,
		CultureFit:     0.15,
		ExecutionSpeed: 0.20,
		CostEfficiency: 0.15,
		Adaptability:   0.15,
	},
	RoleExecutive: {
		SkillMatch:     0.20,
		CultureFit:     0.30,
		ExecutionSpeed: 0.15,
		CostEfficiency: 0.15,
		Adaptability:   0.20,
	},
	RoleOperational: {
		SkillMatch:     0.30,
		CultureFit:     0.20,
		ExecutionSpeed: 0.25,
		CostEfficiency: 0.15,
		Adaptability:   0.10,
	},
}

// Criteria returns the criterion names in their canonical order.
func Criteria() []Criterion {
	out := make([]Criterion, len(criteria))
	copy(out, criteria)
	return out
}

// Roles returns the known roles sorted by name.
func Roles() []Role {
	roles := make([]Role, 0, len(weightTables))
	for role := range weightTables {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Weights returns the weight table for a role, or false for an unknown role.
func Weights(role Role) (map[Criterion]float64, bool) {
	table, ok := weightTables[role]
	return table, ok
}

// ValidateTables checks every built-in weight table. Call it once at
// startup; a failure is a configuration error and must abort.
func ValidateTables() error {
	return validateTables(weightTables)
}

func validateTables(tables map[Role]map[Criterion]float64) error {
	for role, table := range tables {
		sum := 0.0
		for _, criterion := range criteria {
			weight, ok := table[criterion]
			if !ok {
				return fmt.Errorf("weight table for role %q: missing criterion %q", role, criterion)
			}
			if weight < 0 || weight > 1 {
				return fmt.Errorf("weight table for role %q: criterion %q weight %v out of [0,1]", role, criterion, weight)
			}
			sum += weight
		}
		if math.Abs(sum-1) > weightTolerance {
			return fmt.Errorf("weight table for role %q: weights sum to %v, want 1 within %v", role, sum, weightTolerance)
		}
	}
	return nil
}
