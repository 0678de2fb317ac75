package decision

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fairlens/fairlens/internal/ai"
	"github.com/fairlens/fairlens/internal/bias"
	"github.com/fairlens/fairlens/internal/scoring"
	"github.com/fairlens/fairlens/internal/validation"
	"go.uber.org/zap"
)

type stubAdvisor struct {
	note       string
	err        error
	delay      time.Duration
	lastPrompt string
}

func (s *stubAdvisor) Consult(ctx context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.note, nil
}

func testScore(composite float64, confidence scoring.Confidence) *scoring.CandidateScore {
	return &scoring.CandidateScore{
		CandidateID: "sarah",
		Role:        scoring.RoleTechnical,
		Composite:   composite,
		Confidence:  confidence,
		TopStrength: scoring.SkillMatch,
		TopRisk:     scoring.CultureFit,
	}
}

func highFlag() bias.Flag {
	return bias.Flag{
		Category: "age",
		Label:    "Age Discrimination",
		Trigger:  "young energetic",
		Severity: bias.SeverityHigh,
		Legal:    "ADEA, 29 U.S.C. §623",
	}
}

func TestDecideApprovesAboveThreshold(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, 0, zap.NewNop())
	d, err := engine.Decide(context.Background(), testScore(85, scoring.ConfidenceHigh), nil, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Outcome != OutcomeApprove {
		t.Fatalf("expected APPROVE, got %s", d.Outcome)
	}
	if len(d.Rationale) < 2 {
		t.Fatalf("expected threshold and confidence reasons, got %v", d.Rationale)
	}
	if !strings.Contains(d.Rationale[0], "meets or exceeds") {
		t.Fatalf("expected threshold comparison first, got %q", d.Rationale[0])
	}
	if !d.Degraded {
		t.Fatalf("expected degraded mode without an advisor")
	}
	if d.ID == "" || d.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp to be set")
	}
}

func TestDecideRejectsBelowThreshold(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, 0, zap.NewNop())
	d, err := engine.Decide(context.Background(), testScore(40, scoring.ConfidenceMedium), nil, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Outcome != OutcomeReject {
		t.Fatalf("expected REJECT, got %s", d.Outcome)
	}
	if !strings.Contains(d.Rationale[0], "falls below") {
		t.Fatalf("unexpected threshold reason: %q", d.Rationale[0])
	}
}

func TestDecideHighSeverityFlagForcesRejectRegardlessOfScore(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, 0, zap.NewNop())
	d, err := engine.Decide(context.Background(), testScore(99, scoring.ConfidenceHigh), []bias.Flag{highFlag()}, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Outcome != OutcomeReject {
		t.Fatalf("expected REJECT, got %s", d.Outcome)
	}

	found := false
	for _, reason := range d.Rationale {
		if strings.Contains(reason, "young energetic") && strings.Contains(reason, "Age Discrimination") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected rationale to cite the specific flag, got %v", d.Rationale)
	}
}

func TestDecideHighSeverityFlagCanEscalate(t *testing.T) {
	t.Parallel()

	policy := Policy{ApproveThreshold: 70, OnHighSeverity: OutcomeEscalate}
	engine := NewEngine(nil, 0, zap.NewNop())

	d, err := engine.Decide(context.Background(), testScore(99, scoring.ConfidenceHigh), []bias.Flag{highFlag()}, policy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Outcome != OutcomeEscalate {
		t.Fatalf("expected ESCALATE, got %s", d.Outcome)
	}
	if !strings.Contains(d.NextStep, "compliance") {
		t.Fatalf("unexpected next step: %q", d.NextStep)
	}
}

func TestDecideMediumFlagsDoNotOverride(t *testing.T) {
	t.Parallel()

	medium := bias.Flag{Category: "culture_fit", Label: "Culture Fit Vagueness", Trigger: "culture fit", Severity: bias.SeverityMedium}
	engine := NewEngine(nil, 0, zap.NewNop())

	d, err := engine.Decide(context.Background(), testScore(85, scoring.ConfidenceHigh), []bias.Flag{medium}, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Outcome != OutcomeApprove {
		t.Fatalf("expected APPROVE with only medium flags, got %s", d.Outcome)
	}
}

func TestDecideAdvisorNoteAppended(t *testing.T) {
	t.Parallel()

	advisor := &stubAdvisor{note: "Strong delivery record supports approval."}
	engine := NewEngine(advisor, time.Second, zap.NewNop())

	d, err := engine.Decide(context.Background(), testScore(85, scoring.ConfidenceHigh), nil, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Advisory != "Strong delivery record supports approval." {
		t.Fatalf("unexpected advisory: %q", d.Advisory)
	}
	if d.Degraded {
		t.Fatalf("expected degraded=false when advisor succeeded")
	}
	if !strings.Contains(advisor.lastPrompt, "Outcome: APPROVE") {
		t.Fatalf("expected outcome in advisor prompt, got %q", advisor.lastPrompt)
	}
}

func TestDecideAdvisorFailureFallsBackToRuleOnly(t *testing.T) {
	t.Parallel()

	advisor := &stubAdvisor{err: ai.ErrUnavailable}
	engine := NewEngine(advisor, time.Second, zap.NewNop())

	d, err := engine.Decide(context.Background(), testScore(85, scoring.ConfidenceHigh), nil, DefaultPolicy())
	if err != nil {
		t.Fatalf("advisor failure must not block the decision: %v", err)
	}

	if d.Advisory != "" {
		t.Fatalf("expected no advisory, got %q", d.Advisory)
	}
	if !d.Degraded {
		t.Fatalf("expected degraded mode to be visible in the output")
	}
	if d.Outcome != OutcomeApprove {
		t.Fatalf("rule-based outcome must stand, got %s", d.Outcome)
	}
}

func TestDecideAdvisorTimeoutIsBounded(t *testing.T) {
	t.Parallel()

	advisor := &stubAdvisor{note: "late", delay: time.Second}
	engine := NewEngine(advisor, 10*time.Millisecond, zap.NewNop())

	start := time.Now()
	d, err := engine.Decide(context.Background(), testScore(85, scoring.ConfidenceHigh), nil, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("advisor call not bounded by timeout, took %v", elapsed)
	}
	if !d.Degraded {
		t.Fatalf("expected degraded mode after advisor timeout")
	}
}

func TestDecideValidation(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, 0, zap.NewNop())

	if _, err := engine.Decide(context.Background(), nil, nil, DefaultPolicy()); !validation.IsValidation(err) {
		t.Fatalf("expected validation error for nil score, got %v", err)
	}

	badPolicy := Policy{ApproveThreshold: 170}
	if _, err := engine.Decide(context.Background(), testScore(85, scoring.ConfidenceHigh), nil, badPolicy); !validation.IsValidation(err) {
		t.Fatalf("expected validation error for bad threshold, got %v", err)
	}

	badOverride := Policy{ApproveThreshold: 70, OnHighSeverity: "IGNORE"}
	if _, err := engine.Decide(context.Background(), testScore(85, scoring.ConfidenceHigh), nil, badOverride); !validation.IsValidation(err) {
		t.Fatalf("expected validation error for bad override, got %v", err)
	}
}

func TestPolicyValidateDefaultsOverride(t *testing.T) {
	t.Parallel()

	p := Policy{ApproveThreshold: 50}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.OnHighSeverity != OutcomeReject {
		t.Fatalf("expected REJECT default, got %s", p.OnHighSeverity)
	}
}

func TestDecisionAuditText(t *testing.T) {
	t.Parallel()

	d := &Decision{
		Subject:   "sarah",
		Rationale: []string{"composite score 85.0 meets or exceeds the approval threshold 70.0"},
		NextStep:  "Proceed to offer preparation.",
	}

	text := d.AuditText()
	if !strings.Contains(text, "sarah") || !strings.Contains(text, "Proceed to offer") {
		t.Fatalf("unexpected audit text: %q", text)
	}
}
