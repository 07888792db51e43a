package core

import (
	"context"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// CheckResultBuilder builds the check result using a builder pattern.
type CheckResultBuilder struct {
	cfg        *contract.Config
	src        contract.ActivitySource
	scorer     Scorer
	ctx        context.Context
	users      []string
	results    []schema.ScoreResult
	failures   []schema.MemberFailure
	violations []schema.CheckViolation
	result     *schema.CheckResult
}

// NewCheckResultBuilder creates a new builder for check results.
func NewCheckResultBuilder(ctx context.Context, cfg *contract.Config, src contract.ActivitySource, scorer Scorer) *CheckResultBuilder {
	return &CheckResultBuilder{
		cfg:    cfg,
		src:    src,
		scorer: scorer,
		ctx:    ctx,
	}
}

// ValidatePrerequisites validates the threshold and resolves the users to check.
func (b *CheckResultBuilder) ValidatePrerequisites() (*CheckResultBuilder, error) {
	if b.cfg.CheckThreshold < schema.MinScore || b.cfg.CheckThreshold > schema.MaxScore {
		return nil, contract.NewInvalidInputf("check threshold must be between %.1f and %.1f, got %.2f", schema.MinScore, schema.MaxScore, b.cfg.CheckThreshold)
	}

	users, err := resolveUsers(b.ctx, b.cfg.Users, b.src)
	if err != nil {
		return nil, err
	}
	b.users = users

	if len(b.users) == 0 {
		// Nothing to gate
		b.result = &schema.CheckResult{
			Threshold:  b.cfg.CheckThreshold,
			WindowDays: b.cfg.WindowDays,
			Passed:     true,
		}
	}
	return b, nil
}

// RunScoring scores every user over the configured window.
func (b *CheckResultBuilder) RunScoring() (*CheckResultBuilder, error) {
	results, failures, err := ScoreUsers(b.ctx, b.cfg, b.src, b.scorer, b.users)
	if err != nil {
		return nil, err
	}
	b.results = results
	b.failures = failures
	return b, nil
}

// ComputeViolations identifies users at or above the threshold.
func (b *CheckResultBuilder) ComputeViolations() *CheckResultBuilder {
	b.violations = []schema.CheckViolation{}
	for _, r := range b.results {
		if r.FragmentationScore.Float() >= b.cfg.CheckThreshold {
			b.violations = append(b.violations, schema.CheckViolation{
				UserID:    r.UserID,
				Score:     r.FragmentationScore,
				RiskLevel: r.RiskLevel,
			})
		}
	}
	return b
}

// BuildResult constructs the final CheckResult. Users that could not be scored fail the gate.
func (b *CheckResultBuilder) BuildResult() *CheckResultBuilder {
	b.result = &schema.CheckResult{
		Threshold:  b.cfg.CheckThreshold,
		WindowDays: b.cfg.WindowDays,
		Results:    b.results,
		Violations: b.violations,
		Failures:   b.failures,
		Passed:     len(b.violations) == 0 && len(b.failures) == 0,
	}
	return b
}

// GetResult returns the built CheckResult.
func (b *CheckResultBuilder) GetResult() *schema.CheckResult {
	return b.result
}

// RunCheck gates the configured users against cfg.CheckThreshold.
func RunCheck(ctx context.Context, cfg *contract.Config, src contract.ActivitySource, scorer Scorer) (*schema.CheckResult, error) {
	builder := NewCheckResultBuilder(ctx, cfg, src, scorer)
	if _, err := builder.ValidatePrerequisites(); err != nil {
		return nil, err
	}
	if result := builder.GetResult(); result != nil {
		// Early success case
		return result, nil
	}
	if _, err := builder.RunScoring(); err != nil {
		return nil, err
	}
	return builder.ComputeViolations().BuildResult().GetResult(), nil
}
