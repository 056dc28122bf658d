package normalizer

import "math"

// GrowthPercent computes:
//
//	growth% = cumulativeReturn / (endingBalance - cumulativeReturn) * 100
//
// because endingBalance is a post-return value by the platforms'
// definition (principal + return). Division by zero, NaN, or negative
// invested principal yields exactly 0, never NaN/Inf.
func GrowthPercent(endingBalance, cumulativeReturn float64) float64 {
	investedPrincipal := endingBalance - cumulativeReturn
	if investedPrincipal <= 0 || math.IsNaN(investedPrincipal) || math.IsInf(investedPrincipal, 0) {
		return 0
	}
	growth := cumulativeReturn / investedPrincipal * 100
	if math.IsNaN(growth) || math.IsInf(growth, 0) {
		return 0
	}
	return growth
}
