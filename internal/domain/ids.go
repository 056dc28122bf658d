// Package domain holds the core portfolio data model shared by the
// normalizer, performance engine, and analytics layer: GoalId and
// InstrumentCode identity, bucket/goal-type naming rules, and the
// BucketMap aggregate.
package domain

import "strings"

// GoalId is Platform A's opaque goal identifier. Primary key for all
// Platform-A data.
type GoalId string

// InstrumentCode is Platform B's opaque holding-row identifier.
// Primary key for Platform-B configuration.
type InstrumentCode string

// GoalType is the normalized investment/cash category of a goal.
type GoalType string

// UnknownGoalType is the fallback for blank/absent goal types.
const UnknownGoalType GoalType = "UNKNOWN"

// goalNameSeparator is the literal separator that splits a goal's
// display name into bucket name and goal description.
const goalNameSeparator = " - "

// UncategorizedBucket is the fallback bucket name for goal names that
// trim to empty.
const UncategorizedBucket = "Uncategorized"

// SplitGoalName applies the bucket-extraction rule: the first
// occurrence of " - " splits the name into (bucket, description).
// Absent separator: the trimmed name is the bucket. Empty: the bucket
// is "Uncategorized".
func SplitGoalName(goalName string) (bucket, description string) {
	trimmed := strings.TrimSpace(goalName)
	if trimmed == "" {
		return UncategorizedBucket, ""
	}

	if idx := strings.Index(trimmed, goalNameSeparator); idx >= 0 {
		bucket = strings.TrimSpace(trimmed[:idx])
		description = strings.TrimSpace(trimmed[idx+len(goalNameSeparator):])
		if bucket == "" {
			bucket = UncategorizedBucket
		}
		return bucket, description
	}

	return trimmed, ""
}

// NormalizeGoalType maps a raw, possibly blank goal-type string to its
// canonical form, falling back to UNKNOWN.
func NormalizeGoalType(raw string) GoalType {
	trimmed := strings.TrimSpace(strings.ToUpper(raw))
	if trimmed == "" {
		return UnknownGoalType
	}
	return GoalType(trimmed)
}

// DisplayName returns the human-facing label for a GoalType, applying
// the "Unknown" display rule.
func (t GoalType) DisplayName() string {
	if t == "" || t == UnknownGoalType {
		return "Unknown"
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
