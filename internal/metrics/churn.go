package metrics

import "github.com/panbanda/devpulse/internal/classify"

// ChurnPair is a contribution/self-rewrite ("churn") count pair, kept per
// author and per file by the true-churn sub-metric (§4.2.6).
type ChurnPair struct {
	Contribution int `json:"contribution"`
	Churn        int `json:"churn"`
}

// ChurnSnapshot is the §4.2.6 snapshot.
type ChurnSnapshot struct {
	TotalChurn   LineSeriesSnapshot      `json:"total_churn"`
	NetChurn     LineSeriesSnapshot      `json:"net_churn"`
	AddedRemoved LineSeriesSnapshot      `json:"added_removed"`
	Added        int                     `json:"added"`
	Removed      int                     `json:"removed"`
	PerAuthor    map[string]ChurnPair    `json:"per_author"`
	PerFile      map[string]ChurnPair    `json:"per_file"`
}

// CodeChurn tracks total/net churn per commit and maintains a line-ownership
// table to detect self-rewrites: when an added line's (file, line_no) slot
// was last written by the same author, it is churn rather than new
// contribution. This mirrors the teacher's pkg/analyzer/churn.go
// chunk-walking, generalized with an ownership table (the teacher's churn
// analyzer had no concept of per-line authorship).
type CodeChurn struct {
	base
	total, net, addedRemoved lineSeries
	added, removed           int
	lineOwner                map[string]map[int]string // file -> line_no -> author email
	perAuthor                map[string]ChurnPair
	perFile                  map[string]ChurnPair
}

func NewCodeChurn() *CodeChurn {
	return &CodeChurn{
		lineOwner: make(map[string]map[int]string),
		perAuthor: make(map[string]ChurnPair),
		perFile:   make(map[string]ChurnPair),
	}
}

func (a *CodeChurn) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	author := v.Commit.Author.Email
	var commitAdded, commitDeleted int
	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		commitAdded += fe.File.AddedLines
		commitDeleted += fe.File.DeletedLines

		owners, ok := a.lineOwner[path]
		if !ok {
			owners = make(map[int]string)
			a.lineOwner[path] = owners
		}
		for _, e := range fe.Events {
			if e.Kind != classify.EventAdded {
				continue
			}
			prevOwner, existed := owners[e.LineNo]
			authorPair := a.perAuthor[author]
			filePair := a.perFile[path]
			if existed && prevOwner == author {
				authorPair.Churn++
				filePair.Churn++
			} else {
				authorPair.Contribution++
				filePair.Contribution++
			}
			a.perAuthor[author] = authorPair
			a.perFile[path] = filePair
			owners[e.LineNo] = author
		}
	}

	total := commitAdded + commitDeleted
	net := commitAdded - commitDeleted
	a.total.add(total)
	a.net.add(net)
	a.addedRemoved.add(total)
	a.added += commitAdded
	a.removed += commitDeleted
	return nil
}

func (a *CodeChurn) Snapshot() ChurnSnapshot {
	a.markSnapshotted()
	perAuthor := make(map[string]ChurnPair, len(a.perAuthor))
	for k, v := range a.perAuthor {
		perAuthor[k] = v
	}
	perFile := make(map[string]ChurnPair, len(a.perFile))
	for k, v := range a.perFile {
		perFile[k] = v
	}
	return ChurnSnapshot{
		TotalChurn:   a.total.snapshot(),
		NetChurn:     a.net.snapshot(),
		AddedRemoved: a.addedRemoved.snapshot(),
		Added:        a.added,
		Removed:      a.removed,
		PerAuthor:    perAuthor,
		PerFile:      perFile,
	}
}

// MergeChurn sums the pair tables and re-derives the {count,max,avg}
// series the same way MergeLines does.
func MergeChurn(snaps ...ChurnSnapshot) ChurnSnapshot {
	out := ChurnSnapshot{PerAuthor: make(map[string]ChurnPair), PerFile: make(map[string]ChurnPair)}
	addedMap := make(map[string]LineSeriesSnapshot)
	netMap := make(map[string]LineSeriesSnapshot)
	arMap := make(map[string]LineSeriesSnapshot)
	for _, s := range snaps {
		addedMap["_"] = mergeOne(addedMap["_"], s.TotalChurn)
		netMap["_"] = mergeOne(netMap["_"], s.NetChurn)
		arMap["_"] = mergeOne(arMap["_"], s.AddedRemoved)
		out.Added += s.Added
		out.Removed += s.Removed
		for author, pair := range s.PerAuthor {
			p := out.PerAuthor[author]
			p.Contribution += pair.Contribution
			p.Churn += pair.Churn
			out.PerAuthor[author] = p
		}
		for file, pair := range s.PerFile {
			p := out.PerFile[file]
			p.Contribution += pair.Contribution
			p.Churn += pair.Churn
			out.PerFile[file] = p
		}
	}
	out.TotalChurn = addedMap["_"]
	out.NetChurn = netMap["_"]
	out.AddedRemoved = arMap["_"]
	return out
}

func mergeOne(existing, next LineSeriesSnapshot) LineSeriesSnapshot {
	weighted := existing.Avg*float64(existing.Count) + next.Avg*float64(next.Count)
	existing.Total += next.Total
	if existing.Count == 0 || next.Max > existing.Max {
		existing.Max = next.Max
	}
	existing.Count += next.Count
	if existing.Count > 0 {
		existing.Avg = weighted / float64(existing.Count)
	}
	return existing
}
