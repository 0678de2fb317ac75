package decision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fairlens/fairlens/internal/ai"
	"github.com/fairlens/fairlens/internal/bias"
	"github.com/fairlens/fairlens/internal/scoring"
	"github.com/fairlens/fairlens/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultAdvisorTimeout = 15 * time.Second

// Decision is the immutable outcome record the audit aggregator consumes.
// Rationale is rule-based and deterministic; only Advisory comes from the
// external advisor, and only when it was reachable.
type Decision struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Outcome   Outcome   `json:"outcome"`
	Rationale []string  `json:"rationale"`
	NextStep  string    `json:"next_step"`
	Advisory  string    `json:"advisory,omitempty"`
	Degraded  bool      `json:"degraded"`
	Timestamp time.Time `json:"timestamp"`
}

// Engine combines a candidate score and bias flags with policy
// thresholds. The advisor is optional; without it the engine runs in
// degraded, rule-only mode.
type Engine struct {
	advisor ai.Advisor
	timeout time.Duration
	logger  *zap.Logger
}

func NewEngine(advisor ai.Advisor, timeout time.Duration, logger *zap.Logger) *Engine {
	if timeout <= 0 {
		timeout = defaultAdvisorTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		advisor: advisor,
		timeout: timeout,
		logger:  logger,
	}
}

// Decide emits an outcome with a deterministic rationale. Any
// high-severity flag forces the policy's override outcome regardless of
// score. Advisor failure never blocks emission: the decision is marked
// degraded and carries the rule-based rationale only.
func (e *Engine) Decide(ctx context.Context, score *scoring.CandidateScore, flags []bias.Flag, policy Policy) (*Decision, error) {
	if score == nil {
		return nil, validation.Errorf("score", "a candidate score is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	high := highSeverityFlags(flags)
	outcome := outcomeFor(score, high, policy)
	rationale := buildRationale(score, high, policy, outcome)

	d := &Decision{
		ID:        uuid.NewString(),
		Subject:   score.CandidateID,
		Outcome:   outcome,
		Rationale: rationale,
		NextStep:  nextStepFor(outcome, score.Confidence, len(high) > 0),
		Degraded:  true,
		Timestamp: time.Now().UTC(),
	}

	if e.advisor != nil {
		e.consult(ctx, d, score, high)
	}

	e.logger.Info("decision emitted",
		zap.String("decision_id", d.ID),
		zap.String("subject", d.Subject),
		zap.String("outcome", string(d.Outcome)),
		zap.Bool("degraded", d.Degraded),
		zap.Int("high_severity_flags", len(high)),
	)

	return d, nil
}

func (e *Engine) consult(ctx context.Context, d *Decision, score *scoring.CandidateScore, high []bias.Flag) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	note, err := e.advisor.Consult(ctx, advisorPrompt(d, score, high))
	if err != nil {
		e.logger.Warn("advisor unavailable, continuing in rule-only mode",
			zap.String("decision_id", d.ID),
			zap.Error(err),
		)
		return
	}

	d.Advisory = strings.TrimSpace(note)
	d.Degraded = false
}

func highSeverityFlags(flags []bias.Flag) []bias.Flag {
	var high []bias.Flag
	for _, flag := range flags {
		if flag.Severity == bias.SeverityHigh {
			high = append(high, flag)
		}
	}
	return high
}

func outcomeFor(score *scoring.CandidateScore, high []bias.Flag, policy Policy) Outcome {
	if len(high) > 0 {
		return policy.OnHighSeverity
	}
	if score.Composite >= policy.ApproveThreshold {
		return OutcomeApprove
	}
	return OutcomeReject
}

// buildRationale produces the ordered reason list: threshold comparison
// first, then the confidence band, then every overriding flag. The list
// is reproducible independent of any advisor call.
func buildRationale(score *scoring.CandidateScore, high []bias.Flag, policy Policy, outcome Outcome) []string {
	reasons := make([]string, 0, 2+len(high))

	comparison := "meets or exceeds"
	if score.Composite < policy.ApproveThreshold {
		comparison = "falls below"
	}
	reasons = append(reasons, fmt.Sprintf("composite score %.1f %s the approval threshold %.1f",
		score.Composite, comparison, policy.ApproveThreshold))

	if len(score.Missing) == 0 {
		reasons = append(reasons, fmt.Sprintf("confidence band %s: all criteria provided", strings.ToUpper(score.Confidence.String())))
	} else {
		reasons = append(reasons, fmt.Sprintf("confidence band %s: %d criterion input(s) defaulted (%s)",
			strings.ToUpper(score.Confidence.String()), len(score.Missing), joinCriteria(score.Missing)))
	}

	for _, flag := range high {
		reasons = append(reasons, fmt.Sprintf("high-severity bias flag %q (%s) forces %s: %s",
			flag.Trigger, flag.Label, outcome, flag.Legal))
	}

	return reasons
}

func nextStepFor(outcome Outcome, confidence scoring.Confidence, biasOverride bool) string {
	switch outcome {
	case OutcomeApprove:
		if confidence == scoring.ConfidenceHigh {
			return "Proceed to offer preparation."
		}
		return "Proceed, but collect the defaulted criterion inputs before extending an offer."
	case OutcomeEscalate:
		return "Route to HR compliance for review of the flagged materials before any outcome is communicated."
	case OutcomeReject:
		if biasOverride {
			return "Remove the flagged language from the materials and re-run the evaluation before communicating any outcome."
		}
		return "Send a decline with structured feedback and retain the evaluation for the audit trail."
	default:
		return ""
	}
}

func advisorPrompt(d *Decision, score *scoring.CandidateScore, high []bias.Flag) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Outcome: %s\n", d.Outcome)
	fmt.Fprintf(&b, "Candidate: %s (role %s)\n", score.CandidateID, score.Role)
	fmt.Fprintf(&b, "Composite score: %.1f (confidence %s)\n", score.Composite, score.Confidence)
	fmt.Fprintf(&b, "Top strength: %s, top risk: %s\n", score.TopStrength, score.TopRisk)
	if len(high) > 0 {
		b.WriteString("High-severity bias flags:\n")
		for _, flag := range high {
			fmt.Fprintf(&b, "- %s: %q\n", flag.Label, flag.Trigger)
		}
	}
	b.WriteString("Rule-based rationale:\n")
	for _, reason := range d.Rationale {
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	return b.String()
}

func joinCriteria(criteria []scoring.Criterion) string {
	names := make([]string, len(criteria))
	for i, criterion := range criteria {
		names[i] = string(criterion)
	}
	return strings.Join(names, ", ")
}

// AuditText flattens the decision into the text the audit aggregator
// scans: the subject, every rationale entry, and the next step.
func (d *Decision) AuditText() string {
	parts := make([]string, 0, len(d.Rationale)+2)
	parts = append(parts, d.Subject)
	parts = append(parts, d.Rationale...)
	if d.NextStep != "" {
		parts = append(parts, d.NextStep)
	}
	if d.Advisory != "" {
		parts = append(parts, d.Advisory)
	}
	return strings.Join(parts, ". ")
}
