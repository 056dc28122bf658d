package domain

import "sort"

// Goal is a single target account (Platform A) or, when built from
// Platform B, a synthetic single-holding goal. EndingBalanceAmount,
// TotalCumulativeReturn, and SimpleRateOfReturnPercent are nullable: a
// missing upstream value must not silently become a zero.
type Goal struct {
	GoalID                     GoalId
	GoalName                   string
	GoalBucket                 string
	GoalType                   GoalType
	EndingBalanceAmount        *float64
	TotalCumulativeReturn      *float64
	SimpleRateOfReturnPercent  *float64
}

// GoalGroup is the set of goals sharing a (bucket, goal-type) pair.
type GoalGroup struct {
	Goals                 []Goal
	EndingBalanceAmount    float64
	TotalCumulativeReturn  float64
}

// Bucket holds every GoalGroup for one bucket name.
type Bucket struct {
	Groups map[GoalType]*GoalGroup
}

// Meta carries aggregate totals that sit outside any single bucket.
type Meta struct {
	EndingBalanceTotal float64
}

// BucketMap is the stable bucket-name -> Bucket aggregate the
// normalizer produces as its output.
type BucketMap struct {
	Buckets map[string]*Bucket
	Meta    Meta
}

// NewBucketMap returns an empty, ready-to-populate BucketMap.
func NewBucketMap() *BucketMap {
	return &BucketMap{Buckets: make(map[string]*Bucket)}
}

// Insert adds a Goal to the map, creating its bucket/group as needed,
// and updates the group's, and the map's, running totals. Nullness of
// EndingBalanceAmount/TotalCumulativeReturn is coerced to 0 *only* for
// these aggregate accumulations — the Goal's own fields are left
// untouched.
func (m *BucketMap) Insert(g Goal) {
	bucket, ok := m.Buckets[g.GoalBucket]
	if !ok {
		bucket = &Bucket{Groups: make(map[GoalType]*GoalGroup)}
		m.Buckets[g.GoalBucket] = bucket
	}

	group, ok := bucket.Groups[g.GoalType]
	if !ok {
		group = &GoalGroup{}
		bucket.Groups[g.GoalType] = group
	}

	group.Goals = append(group.Goals, g)

	var ending, cumulative float64
	if g.EndingBalanceAmount != nil {
		ending = *g.EndingBalanceAmount
	}
	if g.TotalCumulativeReturn != nil {
		cumulative = *g.TotalCumulativeReturn
	}

	group.EndingBalanceAmount += ending
	group.TotalCumulativeReturn += cumulative
	m.Meta.EndingBalanceTotal += ending
}

// SortGoals orders every group's goals ascending by GoalName, the
// stable render order view models require.
func (m *BucketMap) SortGoals() {
	for _, bucket := range m.Buckets {
		for _, group := range bucket.Groups {
			sort.SliceStable(group.Goals, func(i, j int) bool {
				return group.Goals[i].GoalName < group.Goals[j].GoalName
			})
		}
	}
}

// BucketNames returns every bucket name, sorted, for deterministic
// iteration in tests and view-model rendering.
func (m *BucketMap) BucketNames() []string {
	names := make([]string, 0, len(m.Buckets))
	for name := range m.Buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllGoals returns every goal across every bucket/group, useful for
// invariant checks: totals must equal the sum of non-null
// EndingBalanceAmount across all goals.
func (m *BucketMap) AllGoals() []Goal {
	var goals []Goal
	for _, bucket := range m.Buckets {
		for _, group := range bucket.Groups {
			goals = append(goals, group.Goals...)
		}
	}
	return goals
}
