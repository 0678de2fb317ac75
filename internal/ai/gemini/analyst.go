package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/fairlens/fairlens/internal/ai"
	"github.com/fairlens/fairlens/internal/utils"
	"github.com/fairlens/fairlens/internal/validation"
	"go.uber.org/zap"
)

//go:embed analyse_prompt.md
var analysePromptTemplate string

// Analyst extracts a structured problem analysis from free text.
type Analyst struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewAnalyst(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Analyst {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyst{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Analyst) Analyse(ctx context.Context, problem string) (*ai.ProblemAnalysis, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return nil, validation.Errorf("problem", "must not be empty")
	}

	prompt := buildAnalysePrompt(problem)

	a.logger.Debug("problem analysis request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, "", prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
	}

	a.logger.Debug("problem analysis response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	analysis, err := parseAnalysis(raw)
	if err != nil {
		return nil, err
	}

	analysis.Raw = raw
	return analysis, nil
}

func buildAnalysePrompt(problem string) string {
	template := analysePromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Extract urgency, business_need, problem_type, constraints, success_goals and hidden_risks as JSON.\n\nInput: {{PROBLEM}}"
	}
	return strings.ReplaceAll(template, "{{PROBLEM}}", problem)
}

func parseAnalysis(raw string) (*ai.ProblemAnalysis, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}

	return &ai.ProblemAnalysis{
		Urgency:      strings.ToLower(coerceString(data["urgency"])),
		BusinessNeed: coerceString(data["business_need"]),
		ProblemType:  strings.ToLower(coerceString(data["problem_type"])),
		Constraints:  coerceStringSlice(data["constraints"]),
		SuccessGoals: coerceStringSlice(data["success_goals"]),
		HiddenRisks:  coerceStringSlice(data["hidden_risks"]),
	}, nil
}
