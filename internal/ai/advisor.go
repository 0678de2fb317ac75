package ai

import (
	"context"
	"errors"
)

// ErrUnavailable marks advisor failures the core recovers from locally:
// the caller falls back to rule-only output instead of surfacing it.
var ErrUnavailable = errors.New("advisor unavailable")

// Advisor is the external LLM capability. Implementations must honour
// context cancellation; callers bound every Consult with a timeout.
type Advisor interface {
	Consult(ctx context.Context, prompt string) (string, error)
}

// ProblemAnalysis is the structured extraction of a free-text HR problem.
type ProblemAnalysis struct {
	Urgency      string   `json:"urgency"`
	BusinessNeed string   `json:"business_need"`
	ProblemType  string   `json:"problem_type"`
	Constraints  []string `json:"constraints"`
	SuccessGoals []string `json:"success_goals"`
	HiddenRisks  []string `json:"hidden_risks"`
	Raw          string   `json:"-"`
}

// Analyst extracts a ProblemAnalysis from plain English. Unlike the
// decision path there is no rule-only fallback for extraction, so an
// unavailable advisor surfaces as ErrUnavailable.
type Analyst interface {
	Analyse(ctx context.Context, problem string) (*ProblemAnalysis, error)
}
