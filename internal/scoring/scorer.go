package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/fairlens/fairlens/internal/validation"
)

// Confidence is the qualitative reliability band of a composite score,
// derived from how complete the raw inputs were.
type Confidence int

const (
	ConfidenceLow Confidence = iota + 1
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "unknown"
	}
}

// CandidateScore is the result of scoring one candidate. Computed fresh
// per request; never persisted.
type CandidateScore struct {
	CandidateID string                `json:"candidate_id"`
	Role        Role                  `json:"role"`
	Raw         map[Criterion]float64 `json:"raw"`
	Missing     []Criterion           `json:"missing,omitempty"`
	Composite   float64               `json:"composite"`
	Confidence  Confidence            `json:"confidence"`
	Margin      int                   `json:"margin"`
	TopStrength Criterion             `json:"top_strength"`
	TopRisk     Criterion             `json:"top_risk"`
	Rank        int                   `json:"rank,omitempty"`
}

// Candidate pairs an identifier with its raw criterion inputs for batch scoring.
type Candidate struct {
	ID     string
	Inputs Inputs
}

// Score computes the weighted composite for one candidate.
//
// An unknown role, an unknown criterion name or an out-of-range value is
// a validation error. A missing criterion is not: it takes the neutral
// default and costs one confidence level, so partial inputs always score.
func Score(role Role, candidateID string, inputs Inputs) (*CandidateScore, error) {
	weights, ok := Weights(role)
	if !ok {
		return nil, validation.Errorf("role", "unknown role %q, want one of %v", role, Roles())
	}

	if strings.TrimSpace(candidateID) == "" {
		return nil, validation.Errorf("candidate_id", "must not be empty")
	}

	known := make(map[Criterion]bool, len(criteria))
	for _, criterion := range criteria {
		known[criterion] = true
	}
	for name, value := range inputs {
		if !known[name] {
			return nil, validation.Errorf("criteria."+string(name), "unknown criterion for role %q", role)
		}
		if value < RawMin || value > RawMax {
			return nil, validation.Errorf("criteria."+string(name), "value %v out of range [%v,%v]", value, RawMin, RawMax)
		}
	}

	raw := make(map[Criterion]float64, len(criteria))
	var missing []Criterion
	composite := 0.0
	for _, criterion := range criteria {
		value, present := inputs[criterion]
		if !present {
			value = RawNeutral
			missing = append(missing, criterion)
		}
		raw[criterion] = value
		composite += value * rawScale * weights[criterion]
	}

	composite = clamp(composite, 0, 100)

	score := &CandidateScore{
		CandidateID: candidateID,
		Role:        role,
		Raw:         raw,
		Missing:     missing,
		Composite:   composite,
		Confidence:  confidenceFor(len(missing)),
		Margin:      marginFor(len(missing)),
	}
	score.TopStrength, score.TopRisk = extremes(raw)

	return score, nil
}

// ScoreBatch scores every candidate for one role and assigns 1-based
// ranks by descending composite, ties broken by candidate id so the
// ordering never depends on insertion order.
func ScoreBatch(role Role, candidates []Candidate) ([]*CandidateScore, error) {
	scores := make([]*CandidateScore, 0, len(candidates))
	for _, candidate := range candidates {
		score, err := Score(role, candidate.ID, candidate.Inputs)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Composite != scores[j].Composite {
			return scores[i].Composite > scores[j].Composite
		}
		return scores[i].CandidateID < scores[j].CandidateID
	})

	for i, score := range scores {
		score.Rank = i + 1
	}

	return scores, nil
}

func confidenceFor(missing int) Confidence {
	switch {
	case missing == 0:
		return ConfidenceHigh
	case missing == 1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// marginFor mirrors the ± band shown next to the composite: 3 points of
// uncertainty per defaulted criterion.
func marginFor(missing int) int {
	return int(math.Round(float64(missing) / float64(len(criteria)) * 15))
}

// extremes returns the strongest and weakest criterion, ties resolved by
// canonical criterion order for determinism.
func extremes(raw map[Criterion]float64) (strength, risk Criterion) {
	strength, risk = criteria[0], criteria[0]
	for _, criterion := range criteria[1:] {
		if raw[criterion] > raw[strength] {
			strength = criterion
		}
		if raw[criterion] < raw[risk] {
			risk = criterion
		}
	}
	return strength, risk
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
