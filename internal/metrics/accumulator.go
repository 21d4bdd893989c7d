// Package metrics implements the fifteen commit-stream accumulators of
// spec.md §4.2, each a pure function of the commits it has seen so far.
package metrics

import (
	"errors"

	"github.com/panbanda/devpulse/internal/classify"
	"github.com/panbanda/devpulse/internal/vcs"
)

// State is the lifecycle stage of an accumulator (spec.md §4.2 "Accumulator
// state machine"): ProcessCommit is legal only in Fresh or Accumulating;
// Snapshot moves an accumulator to Snapshotted and is idempotent; Merge is
// a static function over already-Snapshotted values, never a method that
// mutates a live accumulator.
type State int

const (
	StateFresh State = iota
	StateAccumulating
	StateSnapshotted
)

// ErrSnapshotted is returned by ProcessCommit once an accumulator has been
// snapshotted: a snapshot is a value, and feeding it more commits afterward
// would silently invalidate any copy already handed to a caller.
var ErrSnapshotted = errors.New("metrics: accumulator already snapshotted")

// base is embedded by every accumulator to provide the shared state-machine
// bookkeeping; it holds no metric-specific data.
type base struct {
	state State
}

func (b *base) State() State { return b.state }

// beginProcess transitions Fresh -> Accumulating on first use and rejects
// any call once the accumulator has been snapshotted.
func (b *base) beginProcess() error {
	if b.state == StateSnapshotted {
		return ErrSnapshotted
	}
	b.state = StateAccumulating
	return nil
}

// markSnapshotted transitions to Snapshotted; repeated calls are no-ops so
// Snapshot() stays idempotent.
func (b *base) markSnapshotted() {
	b.state = StateSnapshotted
}

// CommitView is what every accumulator's ProcessCommit receives: the
// commit itself plus its classified per-file events (computed once by
// classify.Commit and shared across all fifteen accumulators, per
// SPEC_FULL.md's "classify once, fan out" data flow).
type CommitView struct {
	Commit vcs.Commit
	Files  []classify.FileEvents
}
