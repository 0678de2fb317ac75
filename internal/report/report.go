package report

import (
	"fmt"
	"strings"

	"github.com/fairlens/fairlens/internal/ai"
	"github.com/fairlens/fairlens/internal/audit"
	"github.com/fairlens/fairlens/internal/bias"
	"github.com/fairlens/fairlens/internal/decision"
	"github.com/fairlens/fairlens/internal/scoring"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Artifacts collects whatever the pipeline produced; every section is
// optional and the report renders only what is present.
type Artifacts struct {
	ProblemText string
	Analysis    *ai.ProblemAnalysis
	Ranking     []*scoring.CandidateScore
	Flags       []bias.Flag
	Decision    *decision.Decision
	Systemic    *audit.SystemicReport
}

// Render produces the audit-ready plain-text report.
func Render(a Artifacts) string {
	var b strings.Builder

	b.WriteString("# HR Decision Report\n")

	if a.Analysis != nil {
		renderAnalysis(&b, a.ProblemText, a.Analysis)
	}
	if len(a.Ranking) > 0 {
		renderRanking(&b, a.Ranking)
	}
	if len(a.Flags) > 0 {
		renderFlags(&b, a.Flags)
	}
	if a.Decision != nil {
		renderDecision(&b, a.Decision)
	}
	if a.Systemic != nil {
		renderSystemic(&b, a.Systemic)
	}

	return b.String()
}

func renderAnalysis(b *strings.Builder, problem string, analysis *ai.ProblemAnalysis) {
	b.WriteString("\n## Problem Analysis\n\n")
	if problem != "" {
		fmt.Fprintf(b, "Problem: %s\n\n", problem)
	}
	fmt.Fprintf(b, "Urgency: %s\n", strings.ToUpper(analysis.Urgency))
	fmt.Fprintf(b, "Type: %s\n", analysis.ProblemType)
	fmt.Fprintf(b, "Business need: %s\n", analysis.BusinessNeed)
	renderList(b, "Constraints", analysis.Constraints)
	renderList(b, "Success goals", analysis.SuccessGoals)
	renderList(b, "Hidden risks", analysis.HiddenRisks)
}

func renderRanking(b *strings.Builder, ranking []*scoring.CandidateScore) {
	b.WriteString("\n## Candidate Ranking\n\n")

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Rank", "Candidate", "Score", "Confidence", "Strength", "Risk"})
	for _, score := range ranking {
		t.AppendRow(table.Row{
			score.Rank,
			score.CandidateID,
			fmt.Sprintf("%.1f ± %d", score.Composite, score.Margin),
			strings.ToUpper(score.Confidence.String()),
			prettyCriterion(score.TopStrength),
			prettyCriterion(score.TopRisk),
		})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
}

func renderFlags(b *strings.Builder, flags []bias.Flag) {
	fmt.Fprintf(b, "\n## Bias Flags (%d)\n\n", len(flags))

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Severity", "Category", "Trigger", "Position"})
	for _, flag := range flags {
		t.AppendRow(table.Row{
			strings.ToUpper(flag.Severity.String()),
			flag.Label,
			fmt.Sprintf("%q", flag.Trigger),
			flag.Position,
		})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	for _, flag := range flags {
		fmt.Fprintf(b, "\n- %s %q\n  Legal basis: %s\n  Suggested rewrite: %s\n",
			flag.Label, flag.Trigger, flag.Legal, flag.Rewrite)
	}
}

func renderDecision(b *strings.Builder, d *decision.Decision) {
	b.WriteString("\n## Decision\n\n")
	fmt.Fprintf(b, "Subject: %s\n", d.Subject)
	fmt.Fprintf(b, "Outcome: %s\n", d.Outcome)
	if d.Degraded {
		b.WriteString("Mode: rule-only (advisor unavailable or disabled)\n")
	}
	renderList(b, "Rationale", d.Rationale)
	fmt.Fprintf(b, "Next step: %s\n", d.NextStep)
	if d.Advisory != "" {
		fmt.Fprintf(b, "Advisor note: %s\n", d.Advisory)
	}
	fmt.Fprintf(b, "Recorded: %s (id %s)\n", d.Timestamp.Format("2006-01-02 15:04:05 UTC"), d.ID)
}

func renderSystemic(b *strings.Builder, r *audit.SystemicReport) {
	b.WriteString("\n## Systemic Audit\n\n")
	fmt.Fprintf(b, "Items: %d (scanned %d, skipped %d), flags: %d, systemic threshold: %.0f%%\n\n",
		r.Items, r.Scanned, r.Skipped, r.TotalFlags, r.Threshold*100)

	if len(r.Categories) == 0 {
		b.WriteString("No bias categories detected across the batch.\n")
		return
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Category", "Severity", "Count", "Frequency", "Systemic", "Exemplars"})
	for _, stat := range r.Categories {
		t.AppendRow(table.Row{
			stat.Label,
			strings.ToUpper(stat.Severity.String()),
			stat.Count,
			fmt.Sprintf("%.0f%%", stat.Frequency*100),
			yesNo(stat.Systemic),
			strings.Join(stat.Exemplars, ", "),
		})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
}

func renderList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func prettyCriterion(c scoring.Criterion) string {
	return strings.ReplaceAll(string(c), "_", " ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
