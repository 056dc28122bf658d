package syncclient

import (
	"context"
	"fmt"
)

// WizardStep names the conflict wizard's five steps plus its resting
// state: summary, platform definitions, assignment changes, target
// changes, decision, idle.
type WizardStep int

const (
	StepIdle WizardStep = iota
	StepSummary
	StepPlatformDefinitions
	StepAssignmentChanges
	StepTargetChanges
	StepDecision
)

// PortfolioChange describes a Platform-B portfolio create/rename/archive
// detected between the local and remote envelopes.
type PortfolioChange struct {
	ID       string
	Local    *Portfolio // nil if only present remotely (created remotely)
	Remote   *Portfolio // nil if only present locally (created locally)
}

// AssignmentChange describes a code whose portfolio assignment differs.
type AssignmentChange struct {
	Code            string
	LocalPortfolio  string
	RemotePortfolio string
}

// TargetChange describes a goal or instrument whose target percentage
// or fixed flag differs between local and remote.
type TargetChange struct {
	Platform    string // "A" or "B"
	ID          string
	LocalPct    *float64
	RemotePct   *float64
	LocalFixed  *bool
	RemoteFixed *bool
}

// Summary is the step-1 counts-by-category view.
type Summary struct {
	PlatformDefinitionChanges int
	AssignmentChanges         int
	TargetChanges             int
}

// Diff is the full set of differences the wizard walks the user
// through, computed once when a conflict is detected.
type Diff struct {
	Summary           Summary
	PortfolioChanges  []PortfolioChange
	AssignmentChanges []AssignmentChange
	TargetChanges     []TargetChange
}

// ComputeDiff compares the local and remote envelopes and produces the
// wizard's Diff. It never mutates either envelope.
func ComputeDiff(local, remote EnvelopeV2) Diff {
	var d Diff

	localPortfolios := indexPortfolios(local.Platforms.PlatformB.Portfolios)
	remotePortfolios := indexPortfolios(remote.Platforms.PlatformB.Portfolios)
	seen := make(map[string]bool)
	for id, lp := range localPortfolios {
		rp := remotePortfolios[id]
		if rp == nil || !portfoliosEqual(lp, rp) {
			d.PortfolioChanges = append(d.PortfolioChanges, PortfolioChange{ID: id, Local: lp, Remote: rp})
		}
		seen[id] = true
	}
	for id, rp := range remotePortfolios {
		if seen[id] {
			continue
		}
		d.PortfolioChanges = append(d.PortfolioChanges, PortfolioChange{ID: id, Local: nil, Remote: rp})
	}

	for code, localID := range local.Platforms.PlatformB.AssignmentByCode {
		remoteID := remote.Platforms.PlatformB.AssignmentOrUnassigned(code)
		if localID != remoteID {
			d.AssignmentChanges = append(d.AssignmentChanges, AssignmentChange{
				Code: code, LocalPortfolio: localID, RemotePortfolio: remoteID,
			})
		}
	}
	for code, remoteID := range remote.Platforms.PlatformB.AssignmentByCode {
		if _, ok := local.Platforms.PlatformB.AssignmentByCode[code]; ok {
			continue
		}
		localID := local.Platforms.PlatformB.AssignmentOrUnassigned(code)
		if localID != remoteID {
			d.AssignmentChanges = append(d.AssignmentChanges, AssignmentChange{
				Code: code, LocalPortfolio: localID, RemotePortfolio: remoteID,
			})
		}
	}

	d.TargetChanges = append(d.TargetChanges, diffGoalTargets(local, remote)...)
	d.TargetChanges = append(d.TargetChanges, diffInstrumentTargets(local, remote)...)

	d.Summary = Summary{
		PlatformDefinitionChanges: len(d.PortfolioChanges),
		AssignmentChanges:         len(d.AssignmentChanges),
		TargetChanges:             len(d.TargetChanges),
	}
	return d
}

func indexPortfolios(portfolios []Portfolio) map[string]*Portfolio {
	out := make(map[string]*Portfolio, len(portfolios))
	for i := range portfolios {
		out[portfolios[i].ID] = &portfolios[i]
	}
	return out
}

func portfoliosEqual(a, b *Portfolio) bool {
	return a.Name == b.Name && a.Archived == b.Archived
}

func diffGoalTargets(local, remote EnvelopeV2) []TargetChange {
	var out []TargetChange
	ids := make(map[string]bool)
	for id := range local.Platforms.PlatformA.GoalTargets {
		ids[id] = true
	}
	for id := range local.Platforms.PlatformA.GoalFixed {
		ids[id] = true
	}
	for id := range remote.Platforms.PlatformA.GoalTargets {
		ids[id] = true
	}
	for id := range remote.Platforms.PlatformA.GoalFixed {
		ids[id] = true
	}

	for id := range ids {
		lp, lOK := local.Platforms.PlatformA.GoalTargets[id]
		rp, rOK := remote.Platforms.PlatformA.GoalTargets[id]
		lf, lfOK := local.Platforms.PlatformA.GoalFixed[id]
		rf, rfOK := remote.Platforms.PlatformA.GoalFixed[id]

		pctChanged := lOK != rOK || (lOK && rOK && lp != rp)
		fixedChanged := lfOK != rfOK || (lfOK && rfOK && lf != rf)
		if !pctChanged && !fixedChanged {
			continue
		}

		tc := TargetChange{Platform: "A", ID: id}
		if lOK {
			v := lp
			tc.LocalPct = &v
		}
		if rOK {
			v := rp
			tc.RemotePct = &v
		}
		if lfOK {
			v := lf
			tc.LocalFixed = &v
		}
		if rfOK {
			v := rf
			tc.RemoteFixed = &v
		}
		out = append(out, tc)
	}
	return out
}

func diffInstrumentTargets(local, remote EnvelopeV2) []TargetChange {
	var out []TargetChange
	codes := make(map[string]bool)
	for code := range local.Platforms.PlatformB.TargetsByCode {
		codes[code] = true
	}
	for code := range local.Platforms.PlatformB.FixedByCode {
		codes[code] = true
	}
	for code := range remote.Platforms.PlatformB.TargetsByCode {
		codes[code] = true
	}
	for code := range remote.Platforms.PlatformB.FixedByCode {
		codes[code] = true
	}

	for code := range codes {
		lp, lOK := local.Platforms.PlatformB.TargetsByCode[code]
		rp, rOK := remote.Platforms.PlatformB.TargetsByCode[code]
		lf, lfOK := local.Platforms.PlatformB.FixedByCode[code]
		rf, rfOK := remote.Platforms.PlatformB.FixedByCode[code]

		pctChanged := lOK != rOK || (lOK && rOK && lp != rp)
		fixedChanged := lfOK != rfOK || (lfOK && rfOK && lf != rf)
		if !pctChanged && !fixedChanged {
			continue
		}

		tc := TargetChange{Platform: "B", ID: code}
		if lOK {
			v := lp
			tc.LocalPct = &v
		}
		if rOK {
			v := rp
			tc.RemotePct = &v
		}
		if lfOK {
			v := lf
			tc.LocalFixed = &v
		}
		if rfOK {
			v := rf
			tc.RemoteFixed = &v
		}
		out = append(out, tc)
	}
	return out
}

// Wizard drives the five-step conflict resolution flow. It holds the
// diff computed at conflict time and the local/remote envelopes
// needed to carry out whichever resolution the user picks.
type Wizard struct {
	step   WizardStep
	Diff   Diff
	local  EnvelopeV2
	remote EnvelopeV2
}

// OpenWizard starts a new wizard at the Summary step.
func OpenWizard(local, remote EnvelopeV2) *Wizard {
	return &Wizard{
		step:   StepSummary,
		Diff:   ComputeDiff(local, remote),
		local:  local,
		remote: remote,
	}
}

// Step returns the wizard's current step.
func (w *Wizard) Step() WizardStep { return w.step }

// Next advances to the following step. It is a no-op past Decision.
func (w *Wizard) Next() {
	if w.step < StepDecision {
		w.step++
	}
}

// Back returns to the previous step without losing any accumulated
// state.
func (w *Wizard) Back() {
	if w.step > StepSummary {
		w.step--
	}
}

// ErrNotAtDecision is returned by Resolve when called outside the
// Decision step.
var ErrNotAtDecision = fmt.Errorf("syncclient: wizard is not at the decision step")

// Resolution is the user's final choice at the Decision step.
type Resolution int

const (
	ResolutionUseServer Resolution = iota
	ResolutionKeepDevice
)

// Resolve carries out the chosen resolution against client and
// returns the wizard to Idle.
//
// ResolutionUseServer applies the decrypted remote envelope locally,
// then issues a normal (non-forced) upload to align timestamps.
//
// ResolutionKeepDevice re-uploads local state with force:true; the
// service overwrites regardless of server timestamp and the returned
// outcome's LastSyncAt must be adopted as the new lastSyncAt so
// subsequent conflict detection remains monotonic.
func (w *Wizard) Resolve(ctx context.Context, client *Client, userID, deviceID string, nowMs int64, resolution Resolution) (UploadOutcome, error) {
	if w.step != StepDecision {
		return UploadOutcome{}, ErrNotAtDecision
	}

	switch resolution {
	case ResolutionUseServer:
		if err := Apply(client.Store, w.remote); err != nil {
			return UploadOutcome{}, err
		}
		outcome, err := client.Upload(ctx, userID, deviceID, false, nowMs)
		if err != nil {
			return UploadOutcome{}, err
		}
		w.step = StepIdle
		return outcome, nil

	case ResolutionKeepDevice:
		outcome, err := client.Upload(ctx, userID, deviceID, true, nowMs)
		if err != nil {
			return UploadOutcome{}, err
		}
		w.step = StepIdle
		return outcome, nil

	default:
		return UploadOutcome{}, fmt.Errorf("syncclient: unknown resolution %v", resolution)
	}
}

// Close cancels the pending resolution, leaving local state untouched.
func (w *Wizard) Close() {
	w.step = StepIdle
}
