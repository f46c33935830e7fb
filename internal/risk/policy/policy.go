// Package policy holds the tunable parameters of the risk scoring function.
//
// The weighting scheme, horizon, staleness window, and level thresholds are
// product policy, not derived constants: tune them here, not at call sites.
package policy

import (
	"fmt"

	"cetrack/internal/risk/models"
)

// Policy parameterizes the composite risk score.
type Policy struct {
	// Factor weights. Normalized by their sum, so they need not add to 1.
	HoursWeight    float64
	DeadlineWeight float64
	ActivityWeight float64

	// DeadlineHorizonDays is where deadline pressure reaches zero: deadlines
	// at least this far out contribute nothing, past-due contributes 1.0.
	DeadlineHorizonDays int

	// ActivityStalenessDays is where the activity factor saturates at 1.0;
	// activity today contributes 0.0, no recorded activity ever is 1.0.
	ActivityStalenessDays int

	// Level thresholds, inclusive on the lower end of each band:
	// [0, Medium) low, [Medium, High) medium, [High, Critical) high,
	// [Critical, 100] critical.
	MediumThreshold   int
	HighThreshold     int
	CriticalThreshold int
}

// DefaultPolicy returns the shipped scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		HoursWeight:           0.45,
		DeadlineWeight:        0.35,
		ActivityWeight:        0.20,
		DeadlineHorizonDays:   180,
		ActivityStalenessDays: 30,
		MediumThreshold:       25,
		HighThreshold:         50,
		CriticalThreshold:     75,
	}
}

// Validate rejects policies the scoring function cannot interpret.
func (p Policy) Validate() error {
	if p.HoursWeight < 0 || p.DeadlineWeight < 0 || p.ActivityWeight < 0 {
		return fmt.Errorf("factor weights must be non-negative")
	}
	if p.HoursWeight+p.DeadlineWeight+p.ActivityWeight <= 0 {
		return fmt.Errorf("at least one factor weight must be positive")
	}
	if p.DeadlineHorizonDays <= 0 || p.ActivityStalenessDays <= 0 {
		return fmt.Errorf("horizon and staleness windows must be positive")
	}
	if !(0 <= p.MediumThreshold && p.MediumThreshold <= p.HighThreshold && p.HighThreshold <= p.CriticalThreshold && p.CriticalThreshold <= 100) {
		return fmt.Errorf("level thresholds must be ordered within [0,100]")
	}
	return nil
}

// WeightSum returns the normalization denominator.
func (p Policy) WeightSum() float64 {
	return p.HoursWeight + p.DeadlineWeight + p.ActivityWeight
}

// LevelFor buckets a score into its risk level.
func (p Policy) LevelFor(score int) models.RiskLevel {
	switch {
	case score >= p.CriticalThreshold:
		return models.RiskCritical
	case score >= p.HighThreshold:
		return models.RiskHigh
	case score >= p.MediumThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
