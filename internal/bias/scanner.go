package bias

import (
	"sort"
	"strings"

	"github.com/fairlens/fairlens/internal/validation"
	"go.uber.org/zap"
)

// Flag is one detected bias trigger. Flags are created per scan and
// never mutated; the audit aggregator and report rendering consume them.
type Flag struct {
	Category string   `json:"category"`
	Label    string   `json:"label"`
	Trigger  string   `json:"trigger"`
	Position int      `json:"position"`
	Severity Severity `json:"severity"`
	Legal    string   `json:"legal"`
	Rewrite  string   `json:"rewrite"`
}

// Scanner applies the catalogue against input text. It is stateless and
// safe for concurrent use.
type Scanner struct {
	catalog *Catalog
	logger  *zap.Logger
}

func NewScanner(catalog *Catalog, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{catalog: catalog, logger: logger}
}

// Scan matches every catalogue trigger against text, case-insensitively.
// Overlapping matches within one category collapse to the earliest,
// longest span; overlaps across categories are reported independently.
// Flags come back ordered by severity (high first), then position, then
// category id, so repeated scans of the same text are identical.
//
// An empty result means clean text. Empty or whitespace-only input is a
// validation error, never an empty result.
func (s *Scanner) Scan(text string) ([]Flag, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validation.Errorf("text", "must not be empty or whitespace-only")
	}

	lowered := strings.ToLower(text)
	flags := []Flag{}

	for i := range s.catalog.Categories {
		cat := &s.catalog.Categories[i]
		for _, sp := range matchSpans(lowered, cat.Triggers) {
			flags = append(flags, Flag{
				Category: cat.ID,
				Label:    cat.Label,
				Trigger:  matchedText(text, lowered, sp),
				Position: sp.start,
				Severity: cat.Severity,
				Legal:    cat.Legal,
				Rewrite:  cat.Rewrite,
			})
		}
	}

	sort.SliceStable(flags, func(i, j int) bool {
		if flags[i].Severity != flags[j].Severity {
			return flags[i].Severity > flags[j].Severity
		}
		if flags[i].Position != flags[j].Position {
			return flags[i].Position < flags[j].Position
		}
		return flags[i].Category < flags[j].Category
	})

	s.logger.Debug("scan completed",
		zap.Int("input_length", len(text)),
		zap.Int("flags", len(flags)),
	)

	return flags, nil
}

type span struct {
	start int
	end   int
}

// matchSpans returns the merged match spans for one category's triggers.
// Spans that overlap collapse to the earliest-starting one; at equal
// start the longest wins.
func matchSpans(lowered string, triggers []string) []span {
	var spans []span
	for _, trigger := range triggers {
		needle := strings.ToLower(strings.TrimSpace(trigger))
		if needle == "" {
			continue
		}
		for from := 0; ; {
			idx := strings.Index(lowered[from:], needle)
			if idx < 0 {
				break
			}
			start := from + idx
			spans = append(spans, span{start: start, end: start + len(needle)})
			from = start + 1
		}
	}

	if len(spans) == 0 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	merged := spans[:1]
	for _, sp := range spans[1:] {
		if sp.start < merged[len(merged)-1].end {
			continue
		}
		merged = append(merged, sp)
	}

	return merged
}

// matchedText slices the trigger occurrence out of the original input so
// the flag preserves the author's casing. Lowercasing can shift byte
// offsets for a handful of unicode characters; fall back to the lowered
// form when the span no longer fits the original.
func matchedText(text, lowered string, sp span) string {
	if sp.end <= len(text) && len(text) == len(lowered) {
		return text[sp.start:sp.end]
	}
	return lowered[sp.start:sp.end]
}
