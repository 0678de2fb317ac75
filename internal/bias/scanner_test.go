package bias

import (
	"strings"
	"testing"

	"github.com/fairlens/fairlens/internal/validation"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()

	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	return NewScanner(catalog, zap.NewNop())
}

func TestScanCleanText(t *testing.T) {
	t.Parallel()

	scanner := newTestScanner(t)
	flags, err := scanner.Scan("We are looking for a backend engineer with Go and PostgreSQL experience.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(flags) != 0 {
		t.Fatalf("expected no flags, got %+v", flags)
	}
}

func TestScanEmptyInputIsValidationError(t *testing.T) {
	t.Parallel()

	scanner := newTestScanner(t)
	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := scanner.Scan(input); !validation.IsValidation(err) {
			t.Fatalf("expected validation error for %q, got %v", input, err)
		}
	}
}

func TestScanYoungEnergeticIsHighSeverityAge(t *testing.T) {
	t.Parallel()

	scanner := newTestScanner(t)
	flags, err := scanner.Scan("Looking for a young energetic developer.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(flags) == 0 {
		t.Fatalf("expected at least one flag")
	}

	flag := flags[0]
	if flag.Category != "age" {
		t.Fatalf("expected age category, got %q", flag.Category)
	}
	if flag.Severity != SeverityHigh {
		t.Fatalf("expected high severity, got %s", flag.Severity)
	}
	if !strings.Contains(strings.ToLower(flag.Trigger), "young") {
		t.Fatalf("expected trigger to contain 'young', got %q", flag.Trigger)
	}
	if flag.Legal == "" || flag.Rewrite == "" {
		t.Fatalf("expected legal citation and rewrite to be populated")
	}
}

func TestScanJobPostingScenario(t *testing.T) {
	t.Parallel()

	const posting = "We need a young energetic rockstar developer who fits our culture. " +
		"Recent CS grad from top university preferred."

	scanner := newTestScanner(t)
	flags, err := scanner.Scan(posting)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(flags) < 3 {
		t.Fatalf("expected at least 3 flags, got %d: %+v", len(flags), flags)
	}

	byCategory := make(map[string]Flag, len(flags))
	for _, flag := range flags {
		if _, ok := byCategory[flag.Category]; !ok {
			byCategory[flag.Category] = flag
		}
	}

	age, ok := byCategory["age"]
	if !ok {
		t.Fatalf("expected an age flag, got %+v", flags)
	}
	if age.Severity != SeverityHigh || !strings.Contains(strings.ToLower(age.Trigger), "young") {
		t.Fatalf("unexpected age flag: %+v", age)
	}

	education, ok := byCategory["education_elitism"]
	if !ok {
		t.Fatalf("expected an education flag, got %+v", flags)
	}
	if education.Severity != SeverityMedium || !strings.EqualFold(education.Trigger, "top university") {
		t.Fatalf("unexpected education flag: %+v", education)
	}

	culture, ok := byCategory["culture_fit"]
	if !ok {
		t.Fatalf("expected a culture fit flag, got %+v", flags)
	}
	if culture.Severity != SeverityMedium {
		t.Fatalf("unexpected culture fit severity: %s", culture.Severity)
	}
}

func TestScanOrderingAndIdempotence(t *testing.T) {
	t.Parallel()

	const text = "Prefer a candidate from a top university. Must be a young self-starter. " +
		"Ideally a native english speaker with a polished appearance."

	scanner := newTestScanner(t)
	first, err := scanner.Scan(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := scanner.Scan(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("scan is not idempotent (-first +second):\n%s", diff)
	}

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if prev.Severity < cur.Severity {
			t.Fatalf("flags not ordered by descending severity: %+v", first)
		}
		if prev.Severity == cur.Severity && prev.Position > cur.Position {
			t.Fatalf("flags with equal severity not ordered by position: %+v", first)
		}
	}
}

func TestScanMergesOverlappingMatchesWithinCategory(t *testing.T) {
	t.Parallel()

	// "young energetic" and "young" overlap on the same span; only the
	// longest match may surface.
	scanner := newTestScanner(t)
	flags, err := scanner.Scan("young energetic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ageFlags []Flag
	for _, flag := range flags {
		if flag.Category == "age" {
			ageFlags = append(ageFlags, flag)
		}
	}

	if len(ageFlags) != 1 {
		t.Fatalf("expected exactly one age flag, got %+v", ageFlags)
	}
	if ageFlags[0].Trigger != "young energetic" {
		t.Fatalf("expected longest match to win, got %q", ageFlags[0].Trigger)
	}
}

func TestScanReportsCrossCategoryOverlapIndependently(t *testing.T) {
	t.Parallel()

	catalog := &Catalog{
		Categories: []Category{
			{ID: "a", Label: "A", Severity: SeverityHigh, Legal: "x", Triggers: []string{"young energetic"}},
			{ID: "b", Label: "B", Severity: SeverityMedium, Legal: "x", Triggers: []string{"energetic rockstar"}},
		},
	}

	scanner := NewScanner(catalog, zap.NewNop())
	flags, err := scanner.Scan("a young energetic rockstar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(flags) != 2 {
		t.Fatalf("expected both categories to report, got %+v", flags)
	}
	if flags[0].Category != "a" || flags[1].Category != "b" {
		t.Fatalf("unexpected ordering: %+v", flags)
	}
}

func TestScanCaseInsensitiveKeepsOriginalCasing(t *testing.T) {
	t.Parallel()

	scanner := newTestScanner(t)
	flags, err := scanner.Scan("Candidates from an IVY LEAGUE school only.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(flags) != 1 {
		t.Fatalf("expected one flag, got %+v", flags)
	}
	if flags[0].Trigger != "IVY LEAGUE" {
		t.Fatalf("expected original casing preserved, got %q", flags[0].Trigger)
	}
}
