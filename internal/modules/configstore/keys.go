package configstore

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
)

// Key prefixes recognized by the sync serializer.
const (
	PrefixGoalTargetPct  = "goal_target_pct_"
	PrefixGoalFixed      = "goal_fixed_"
	PrefixFSMTarget      = "fsm_target_"
	PrefixFSMFixed       = "fsm_fixed_"
	PrefixFSMTag         = "fsm_tag_"
	PrefixFSMAssignment  = "fsm_assignment_"
	KeyFSMTagCatalog     = "fsm_tag_catalog"
	KeyFSMDriftSettings  = "fsm_drift_settings"
	KeyFSMPortfolios     = "fsm_portfolios"
)

// Non-synced cache prefixes, excluded from the sync envelope. IsSynced
// below is the single predicate both the sync collector and its
// regression test rely on.
const (
	PrefixAPICache        = "api_"
	PrefixPerformanceCache = "gpv_performance_"
)

// sync-only bookkeeping keys — never part of the envelope, never
// considered "cache", just out of namespace entirely.
const (
	KeySyncEnabled          = "sync_enabled"
	KeySyncServerURL        = "sync_server_url"
	KeySyncUserID           = "sync_user_id"
	KeySyncDeviceID         = "sync_device_id"
	KeySyncAccessToken      = "sync_access_token"
	KeySyncRefreshToken     = "sync_refresh_token"
	KeySyncAccessExpiry     = "sync_access_token_expiry"
	KeySyncRefreshExpiry    = "sync_refresh_token_expiry"
	KeySyncLastSync         = "sync_last_sync"
	KeySyncRememberKey      = "sync_remember_key"
	KeySyncMasterKey        = "sync_master_key"
)

// GoalTargetKey returns the config-store key for a Platform-A goal's
// target percent.
func GoalTargetKey(id domain.GoalId) string { return PrefixGoalTargetPct + string(id) }

// GoalFixedKey returns the config-store key for a Platform-A goal's
// fixed flag.
func GoalFixedKey(id domain.GoalId) string { return PrefixGoalFixed + string(id) }

// FSMTargetKey returns the config-store key for a Platform-B
// instrument's target percent.
func FSMTargetKey(code domain.InstrumentCode) string { return PrefixFSMTarget + string(code) }

// FSMFixedKey returns the config-store key for a Platform-B
// instrument's fixed flag.
func FSMFixedKey(code domain.InstrumentCode) string { return PrefixFSMFixed + string(code) }

// FSMTagKey returns the config-store key for a Platform-B instrument's
// free-text tag.
func FSMTagKey(code domain.InstrumentCode) string { return PrefixFSMTag + string(code) }

// FSMAssignmentKey returns the config-store key for a Platform-B
// instrument's portfolio assignment.
func FSMAssignmentKey(code domain.InstrumentCode) string { return PrefixFSMAssignment + string(code) }

// ProjectedInvestmentKey builds a URL-safe compound key for a
// bucket/goal-type pair's session-scoped projected investment amount,
// tolerating separator characters in bucket/type names.
func ProjectedInvestmentKey(bucket string, goalType domain.GoalType) string {
	return fmt.Sprintf("proj_invest_%s_%s", url.QueryEscape(bucket), url.QueryEscape(string(goalType)))
}

// IsSynced reports whether key participates in the sync envelope.
// Cache/API keys and the sync-bookkeeping keys above are explicitly
// excluded as a single, testable predicate rather than an implicit
// absence from a whitelist.
func IsSynced(key string) bool {
	switch {
	case strings.HasPrefix(key, PrefixAPICache),
		strings.HasPrefix(key, PrefixPerformanceCache),
		strings.HasPrefix(key, "proj_invest_"),
		strings.HasPrefix(key, "sync_"),
		strings.HasPrefix(key, "performance:"):
		return false
	case strings.HasPrefix(key, PrefixGoalTargetPct),
		strings.HasPrefix(key, PrefixGoalFixed),
		strings.HasPrefix(key, PrefixFSMTarget),
		strings.HasPrefix(key, PrefixFSMFixed),
		strings.HasPrefix(key, PrefixFSMTag),
		strings.HasPrefix(key, PrefixFSMAssignment),
		key == KeyFSMTagCatalog,
		key == KeyFSMDriftSettings,
		key == KeyFSMPortfolios:
		return true
	default:
		return false
	}
}
