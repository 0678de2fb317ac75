package report

import (
	"strings"
	"testing"
	"time"

	"github.com/fairlens/fairlens/internal/audit"
	"github.com/fairlens/fairlens/internal/bias"
	"github.com/fairlens/fairlens/internal/decision"
	"github.com/fairlens/fairlens/internal/scoring"
)

func TestRenderEmptyArtifacts(t *testing.T) {
	t.Parallel()

	out := Render(Artifacts{})
	if !strings.Contains(out, "HR Decision Report") {
		t.Fatalf("expected report header, got %q", out)
	}
	if strings.Contains(out, "## Decision") {
		t.Fatalf("expected no decision section, got %q", out)
	}
}

func TestRenderFullArtifacts(t *testing.T) {
	t.Parallel()

	out := Render(Artifacts{
		Ranking: []*scoring.CandidateScore{
			{
				CandidateID: "sarah",
				Role:        scoring.RoleTechnical,
				Composite:   84,
				Confidence:  scoring.ConfidenceHigh,
				TopStrength: scoring.SkillMatch,
				TopRisk:     scoring.CultureFit,
				Rank:        1,
			},
		},
		Flags: []bias.Flag{
			{
				Category: "age",
				Label:    "Age Discrimination",
				Trigger:  "young energetic",
				Severity: bias.SeverityHigh,
				Legal:    "ADEA",
				Rewrite:  "Describe the pace of the work.",
			},
		},
		Decision: &decision.Decision{
			ID:        "d-1",
			Subject:   "sarah",
			Outcome:   decision.OutcomeReject,
			Rationale: []string{"a high-severity flag forces REJECT"},
			NextStep:  "Remove the flagged language.",
			Degraded:  true,
			Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		Systemic: &audit.SystemicReport{
			Items:     2,
			Scanned:   2,
			Threshold: 0.3,
			Categories: []audit.CategoryStat{
				{Category: "age", Label: "Age Discrimination", Severity: bias.SeverityHigh, Count: 2, Frequency: 1, Systemic: true},
			},
		},
	})

	for _, expected := range []string{
		"## Candidate Ranking",
		"sarah",
		"## Bias Flags (1)",
		"young energetic",
		"ADEA",
		"## Decision",
		"REJECT",
		"rule-only",
		"## Systemic Audit",
		"100%",
	} {
		if !strings.Contains(out, expected) {
			t.Fatalf("expected %q in report:\n%s", expected, out)
		}
	}
}
