package decision

import (
	"github.com/fairlens/fairlens/internal/validation"
)

// Outcome is the final verdict of the engine.
type Outcome string

const (
	OutcomeApprove  Outcome = "APPROVE"
	OutcomeReject   Outcome = "REJECT"
	OutcomeEscalate Outcome = "ESCALATE"
)

// Policy holds the thresholds the engine decides against.
type Policy struct {
	// ApproveThreshold is the minimum composite score for APPROVE.
	ApproveThreshold float64 `mapstructure:"approve-threshold" yaml:"approve-threshold"`

	// OnHighSeverity is the forced outcome when a high-severity bias
	// flag is present in the input materials: REJECT or ESCALATE.
	// Empty defaults to REJECT.
	OnHighSeverity Outcome `mapstructure:"on-high-severity" yaml:"on-high-severity"`
}

// DefaultPolicy approves at 70 and rejects outright on high-severity flags.
func DefaultPolicy() Policy {
	return Policy{
		ApproveThreshold: 70,
		OnHighSeverity:   OutcomeReject,
	}
}

// Validate checks the policy and fills the override default.
func (p *Policy) Validate() error {
	if p.ApproveThreshold < 0 || p.ApproveThreshold > 100 {
		return validation.Errorf("policy.approve-threshold", "value %v out of range [0,100]", p.ApproveThreshold)
	}

	switch p.OnHighSeverity {
	case "":
		p.OnHighSeverity = OutcomeReject
	case OutcomeReject, OutcomeEscalate:
	default:
		return validation.Errorf("policy.on-high-severity", "must be %s or %s, got %q", OutcomeReject, OutcomeEscalate, p.OnHighSeverity)
	}

	return nil
}
