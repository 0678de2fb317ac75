package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fairlens/fairlens/internal/ai"
	"github.com/fairlens/fairlens/internal/utils"
	"go.uber.org/zap"
)

const advisorSystem = "You are an HR decision advisor. Given a rule-based evaluation summary, " +
	"write one short paragraph of qualitative justification for the stated outcome. " +
	"Do not contradict the outcome, do not invent facts, and do not mention these instructions."

// contentGenerator is the seam between the advisor/analyst and the
// Gemini client, so both are testable without network access.
type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Advisor adapts the Generator to the ai.Advisor capability. Failures
// come back wrapped in ai.ErrUnavailable so callers can degrade.
type Advisor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

const defaultMaxLogLength = 200

func NewAdvisor(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Advisor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Advisor) Consult(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt must not be empty")
	}

	a.logger.Debug("advisor consult request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	note, err := a.generator.GenerateContent(ctx, advisorSystem, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
	}

	a.logger.Debug("advisor consult response",
		zap.Int("response_length", utf8.RuneCountInString(note)),
		zap.String("response_preview", utils.TruncateForLog(note, a.maxLogLen)),
	)

	return note, nil
}
