package analytics

import (
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/shopspring/decimal"
)

// Percent is a percentage rounded to 2 decimal places at the JSON
// boundary, so accumulated float drift (and stray "-0.00") never
// reaches the overlay.
type Percent struct{ decimal.Decimal }

// NewPercent builds a Percent from a float64, rounding to 2 d.p.
func NewPercent(v float64) Percent {
	return Percent{decimal.NewFromFloat(v).Round(2)}
}

// MarshalJSON renders the value as a plain JSON number, e.g. 12.34.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.StringFixed(2)), nil
}

// Amount is an SGD amount rounded to 2 decimal places at the JSON
// boundary.
type Amount struct{ decimal.Decimal }

// NewAmount builds an Amount from a float64, rounding to 2 d.p.
func NewAmount(v float64) Amount {
	return Amount{decimal.NewFromFloat(v).Round(2)}
}

// MarshalJSON renders the value as a plain JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.StringFixed(2)), nil
}

// GoalTypeSummary is one (bucket, goal type)'s rolled-up view for the
// summary screen.
type GoalTypeSummary struct {
	GoalType      domain.GoalType `json:"goalType"`
	EndingBalance Amount          `json:"endingBalance"`
	GrowthPercent Percent         `json:"growthPercent"`
	RemainingPct  Percent         `json:"remainingPct"`
	RemainingFlag bool            `json:"remainingFlagged"`
	DriftSumAbs   *Percent        `json:"driftSumAbs,omitempty"`
}

// BucketSummary is one bucket's rolled-up view.
type BucketSummary struct {
	Bucket        string            `json:"bucket"`
	EndingBalance Amount            `json:"endingBalance"`
	GrowthPercent Percent           `json:"growthPercent"`
	GoalTypes     []GoalTypeSummary `json:"goalTypes"`
}

// SummaryViewModel is the overlay's top-level summary screen data.
type SummaryViewModel struct {
	TotalEndingBalance Amount          `json:"totalEndingBalance"`
	Buckets            []BucketSummary `json:"buckets"`
}

// GoalDetail is one goal's row in the bucket-detail view.
type GoalDetail struct {
	GoalID        domain.GoalId `json:"goalId"`
	GoalName      string        `json:"goalName"`
	EndingBalance Amount        `json:"endingBalance"`
	GrowthPercent Percent       `json:"growthPercent"`
	TargetPct     *Percent      `json:"targetPct,omitempty"`
	Fixed         bool          `json:"fixed"`
}

// BucketDetailViewModel is the drill-down view for a single bucket.
type BucketDetailViewModel struct {
	Bucket        string       `json:"bucket"`
	EndingBalance Amount       `json:"endingBalance"`
	Goals         []GoalDetail `json:"goals"`
}
