package analytics

// GoalDrift is one goal's allocation drift ratio, the relative
// over/under-allocation actualAmount/targetAmount − 1.
type GoalDrift struct {
	GoalID    string
	DriftRatio float64
}

// DriftInput is the minimal per-goal shape drift math needs.
type DriftInput struct {
	GoalID       string
	ActualAmount float64
	TargetPct    float64 // 0-100
}

// GoalTypeDrift computes per-goal drift ratios for one goal type, plus
// the sum of their absolute values. Per-goal computation: drift_i =
// actualAmount_i / targetAmount_i − 1, where targetAmount_i = totalInvested
// × targetPct_i / 100. Goals with targetAmount_i ≤ 0 are excluded; a
// zero-balance goal with a positive target is included with drift −1.
func GoalTypeDrift(inputs []DriftInput, totalInvested float64) (perGoal []GoalDrift, sumAbsDrift float64, anyIncluded bool) {
	for _, in := range inputs {
		targetAmount := totalInvested * in.TargetPct / 100
		if targetAmount <= 0 {
			continue
		}

		var ratio float64
		if in.ActualAmount == 0 {
			ratio = -1
		} else {
			ratio = in.ActualAmount/targetAmount - 1
		}

		perGoal = append(perGoal, GoalDrift{GoalID: in.GoalID, DriftRatio: ratio})
		sumAbsDrift += absFloat(ratio)
		anyIncluded = true
	}
	return perGoal, sumAbsDrift, anyIncluded
}

// GoalTypeDriftEmitted reports whether a goal type's aggregate drift
// should be surfaced at all: only when targets are configured (there
// is at least one included goal) and the type's remaining % is
// non-negative.
func GoalTypeDriftEmitted(anyIncluded bool, remaining float64) bool {
	return anyIncluded && remaining >= 0
}
