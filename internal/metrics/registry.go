package metrics

import (
	"github.com/panbanda/devpulse/internal/classify"
	"github.com/panbanda/devpulse/internal/vcs"
)

// Snapshot is the full metrics snapshot for one bucket (overall, or one
// week), composing all fifteen accumulators' outputs (§4.2). Grounded on
// the teacher's `pkg/analyzer.RepoAnalyzer[T]` generic dispatch shape,
// generalized from "one analyzer, one result type" to "fifteen
// accumulators fanned out from a single commit".
type Snapshot struct {
	ChangeSet      ChangeSetSnapshot
	CommitsCount   CommitsCountSnapshot
	Contributors   ContributorsSnapshot
	Hunks          HunksSnapshot
	Lines          LinesSnapshot
	Churn          ChurnSnapshot
	Bugs           BugsSnapshot
	Movement       CodeMovementSnapshot
	Quality        QualitySnapshot
	Meaningful     MeaningfulCodeSnapshot
	DiffDelta      map[string]DiffDeltaSnapshot
	Provenance     CodeProvenanceSnapshot
	DeveloperHours map[string]DeveloperHoursSnapshot
	Domain         map[string]CodeDomainSnapshot
	TimeAnalysis   map[string]TimeAnalysisSnapshot
}

// Registry composes all fifteen accumulators and fans each commit out to
// them, per SPEC_FULL.md §4.2's "Registry.ProcessCommit fans a commit out
// to every accumulator".
type Registry struct {
	changeSet      *ChangeSet
	commitsCount   *CommitsCount
	contributors   *Contributors
	hunks          *Hunks
	lines          *Lines
	churn          *CodeChurn
	bugs           *Bugs
	movement       *CodeMovement
	quality        *QualityCornerstones
	meaningful     *MeaningfulCode
	diffDelta      *DiffDelta
	provenance     *CodeProvenance
	developerHours *DeveloperHours
	domain         *CodeDomain
	timeAnalysis   *TimeAnalysis
}

// NewRegistry constructs a fresh set of accumulators. Never a package
// singleton: the traversal driver builds one Registry per overall bucket
// and one per week bucket, so tests can always start from a clean state.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		changeSet:      NewChangeSet(),
		commitsCount:   NewCommitsCount(),
		contributors:   NewContributors(),
		hunks:          NewHunks(),
		lines:          NewLines(),
		churn:          NewCodeChurn(),
		bugs:           NewBugs(),
		movement:       NewCodeMovement(),
		quality:        NewQualityCornerstones(),
		meaningful:     NewMeaningfulCode(),
		diffDelta:      NewDiffDelta(cfg),
		provenance:     NewCodeProvenance(cfg),
		developerHours: NewDeveloperHours(),
		domain:         NewCodeDomain(),
		timeAnalysis:   NewTimeAnalysis(),
	}
}

// ProcessCommit classifies the commit's files once and fans the resulting
// CommitView out to every accumulator.
func (r *Registry) ProcessCommit(c vcs.Commit) error {
	events := classify.Commit(c.ModifiedFiles)
	view := CommitView{Commit: c, Files: events}

	accumulators := []interface{ ProcessCommit(CommitView) error }{
		r.changeSet, r.commitsCount, r.contributors, r.hunks, r.lines,
		r.churn, r.bugs, r.movement, r.quality, r.meaningful,
		r.diffDelta, r.provenance, r.developerHours, r.domain, r.timeAnalysis,
	}
	for _, acc := range accumulators {
		if err := acc.ProcessCommit(view); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot materialises every accumulator's snapshot. Each accumulator
// transitions to Snapshotted; calling Snapshot again is safe (idempotent)
// but ProcessCommit must not be called afterward.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		ChangeSet:      r.changeSet.Snapshot(),
		CommitsCount:   r.commitsCount.Snapshot(),
		Contributors:   r.contributors.Snapshot(),
		Hunks:          r.hunks.Snapshot(),
		Lines:          r.lines.Snapshot(),
		Churn:          r.churn.Snapshot(),
		Bugs:           r.bugs.Snapshot(),
		Movement:       r.movement.Snapshot(),
		Quality:        r.quality.Snapshot(),
		Meaningful:     r.meaningful.Snapshot(),
		DiffDelta:      r.diffDelta.SnapshotAll(),
		Provenance:     r.provenance.Snapshot(),
		DeveloperHours: r.developerHours.SnapshotAll(),
		Domain:         r.domain.SnapshotAll(),
		TimeAnalysis:   r.timeAnalysis.SnapshotAll(),
	}
}

// MergeSnapshots combines per-chunk snapshots (§4.5) into one, dispatching
// to every accumulator's Merge function.
func MergeSnapshots(snaps ...Snapshot) Snapshot {
	out := Snapshot{
		DiffDelta:      make(map[string]DiffDeltaSnapshot),
		DeveloperHours: make(map[string]DeveloperHoursSnapshot),
		Domain:         make(map[string]CodeDomainSnapshot),
		TimeAnalysis:   make(map[string]TimeAnalysisSnapshot),
	}

	changeSets := make([]ChangeSetSnapshot, 0, len(snaps))
	commitsCounts := make([]CommitsCountSnapshot, 0, len(snaps))
	contributors := make([]ContributorsSnapshot, 0, len(snaps))
	hunks := make([]HunksSnapshot, 0, len(snaps))
	lines := make([]LinesSnapshot, 0, len(snaps))
	churns := make([]ChurnSnapshot, 0, len(snaps))
	bugs := make([]BugsSnapshot, 0, len(snaps))
	movements := make([]CodeMovementSnapshot, 0, len(snaps))
	qualities := make([]QualitySnapshot, 0, len(snaps))
	meaningfuls := make([]MeaningfulCodeSnapshot, 0, len(snaps))

	diffDeltaByDev := make(map[string][]DiffDeltaSnapshot)
	hoursByDev := make(map[string][]DeveloperHoursSnapshot)
	domainByDev := make(map[string][]CodeDomainSnapshot)
	provenanceByDev := make([]CodeProvenanceSnapshot, 0, len(snaps))

	for _, s := range snaps {
		changeSets = append(changeSets, s.ChangeSet)
		commitsCounts = append(commitsCounts, s.CommitsCount)
		contributors = append(contributors, s.Contributors)
		hunks = append(hunks, s.Hunks)
		lines = append(lines, s.Lines)
		churns = append(churns, s.Churn)
		bugs = append(bugs, s.Bugs)
		movements = append(movements, s.Movement)
		qualities = append(qualities, s.Quality)
		meaningfuls = append(meaningfuls, s.Meaningful)
		provenanceByDev = append(provenanceByDev, s.Provenance)

		for dev, dd := range s.DiffDelta {
			diffDeltaByDev[dev] = append(diffDeltaByDev[dev], dd)
		}
		for dev, dh := range s.DeveloperHours {
			hoursByDev[dev] = append(hoursByDev[dev], dh)
		}
		for dev, cd := range s.Domain {
			domainByDev[dev] = append(domainByDev[dev], cd)
		}
	}

	out.ChangeSet = MergeChangeSet(changeSets...)
	out.CommitsCount = MergeCommitsCount(commitsCounts...)
	out.Contributors = MergeContributors(contributors...)
	out.Hunks = MergeHunks(hunks...)
	out.Lines = MergeLines(lines...)
	out.Churn = MergeChurn(churns...)
	out.Bugs = MergeBugs(bugs...)
	out.Movement = MergeCodeMovement(movements...)
	out.Quality = MergeQuality(qualities...)
	out.Meaningful = MergeMeaningfulCode(meaningfuls...)
	out.Provenance = MergeCodeProvenance(provenanceByDev...)

	for dev, snapsForDev := range diffDeltaByDev {
		out.DiffDelta[dev] = MergeDiffDelta(snapsForDev...)
	}
	for dev, snapsForDev := range hoursByDev {
		out.DeveloperHours[dev] = MergeDeveloperHours(snapsForDev...)
	}
	for dev, snapsForDev := range domainByDev {
		out.Domain[dev] = MergeCodeDomain(snapsForDev...)
	}
	// TimeAnalysis is intentionally left for internal/aggregate to derive
	// from the union of raw timestamps across chunks/repos (see
	// timeanalysis.go's MergeTimeAnalysis doc note): a session-level merge
	// here would double-count downtime across chunk boundaries.

	return out
}
