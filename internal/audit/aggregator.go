package audit

import (
	"context"
	"sort"
	"strings"

	"github.com/fairlens/fairlens/internal/bias"
	"github.com/fairlens/fairlens/internal/decision"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultSystemicThreshold = 0.3
	defaultWorkers           = 4
	maxExemplars             = 3
)

// CategoryStat is the per-category tally across one audited batch.
type CategoryStat struct {
	Category  string        `json:"category"`
	Label     string        `json:"label"`
	Severity  bias.Severity `json:"severity"`
	Count     int           `json:"count"`
	Frequency float64       `json:"frequency"`
	Exemplars []string      `json:"exemplars,omitempty"`
	Systemic  bool          `json:"systemic"`
}

// SystemicReport summarises recurring bias patterns across a batch.
type SystemicReport struct {
	Items      int            `json:"items"`
	Scanned    int            `json:"scanned"`
	Skipped    int            `json:"skipped"`
	TotalFlags int            `json:"total_flags"`
	Threshold  float64        `json:"threshold"`
	Categories []CategoryStat `json:"categories"`
}

// Aggregator runs the scanner across batches to surface systemic
// patterns a single scan cannot show.
type Aggregator struct {
	scanner   *bias.Scanner
	threshold float64
	workers   int
	logger    *zap.Logger
}

// NewAggregator builds an aggregator. threshold is the batch fraction
// above which a category counts as systemic; workers bounds concurrent
// scans.
func NewAggregator(scanner *bias.Scanner, threshold float64, workers int, logger *zap.Logger) *Aggregator {
	if threshold <= 0 || threshold > 1 {
		threshold = defaultSystemicThreshold
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		scanner:   scanner,
		threshold: threshold,
		workers:   workers,
		logger:    logger,
	}
}

// Audit scans every item concurrently and tallies flags per category.
// Results are merged by input index, so the report is identical however
// the scans interleave. Blank items are counted as skipped rather than
// failing the batch; an empty batch yields an empty, valid report.
func (a *Aggregator) Audit(ctx context.Context, items []string) (*SystemicReport, error) {
	report := &SystemicReport{
		Items:      len(items),
		Threshold:  a.threshold,
		Categories: []CategoryStat{},
	}

	if len(items) == 0 {
		return report, nil
	}

	results := make([][]bias.Flag, len(items))
	skipped := make([]bool, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			flags, err := a.scanner.Scan(item)
			if err != nil {
				skipped[i] = true
				return nil
			}
			results[i] = flags
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tally := make(map[string]*CategoryStat)
	exemplarSeen := make(map[string]map[string]bool)

	for i := range items {
		if skipped[i] {
			report.Skipped++
			continue
		}
		report.Scanned++
		report.TotalFlags += len(results[i])

		counted := make(map[string]bool)
		for _, flag := range results[i] {
			stat, ok := tally[flag.Category]
			if !ok {
				stat = &CategoryStat{
					Category: flag.Category,
					Label:    flag.Label,
					Severity: flag.Severity,
				}
				tally[flag.Category] = stat
				exemplarSeen[flag.Category] = make(map[string]bool)
			}

			if !counted[flag.Category] {
				counted[flag.Category] = true
				stat.Count++
			}

			trigger := strings.ToLower(flag.Trigger)
			if len(stat.Exemplars) < maxExemplars && !exemplarSeen[flag.Category][trigger] {
				exemplarSeen[flag.Category][trigger] = true
				stat.Exemplars = append(stat.Exemplars, flag.Trigger)
			}
		}
	}

	for _, stat := range tally {
		if report.Scanned > 0 {
			stat.Frequency = float64(stat.Count) / float64(report.Scanned)
		}
		stat.Systemic = stat.Frequency > a.threshold
		report.Categories = append(report.Categories, *stat)
	}

	sort.Slice(report.Categories, func(i, j int) bool {
		if report.Categories[i].Frequency != report.Categories[j].Frequency {
			return report.Categories[i].Frequency > report.Categories[j].Frequency
		}
		return report.Categories[i].Category < report.Categories[j].Category
	})

	a.logger.Info("audit completed",
		zap.Int("items", report.Items),
		zap.Int("scanned", report.Scanned),
		zap.Int("skipped", report.Skipped),
		zap.Int("total_flags", report.TotalFlags),
		zap.Int("categories", len(report.Categories)),
	)

	return report, nil
}

// AuditDecisions flattens each decision into its auditable text and
// runs the same batch scan over it.
func (a *Aggregator) AuditDecisions(ctx context.Context, decisions []*decision.Decision) (*SystemicReport, error) {
	items := make([]string, len(decisions))
	for i, d := range decisions {
		items[i] = d.AuditText()
	}
	return a.Audit(ctx, items)
}

// SystemicCategories returns only the categories above the threshold.
func (r *SystemicReport) SystemicCategories() []CategoryStat {
	var systemic []CategoryStat
	for _, stat := range r.Categories {
		if stat.Systemic {
			systemic = append(systemic, stat)
		}
	}
	return systemic
}
