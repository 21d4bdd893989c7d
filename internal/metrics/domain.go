package metrics

import (
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/panbanda/devpulse/internal/weekly"
)

// Domain is one of the §4.2.14 enumerated file-ownership domains.
type Domain string

const (
	DomainFrontend      Domain = "frontend"
	DomainBackend       Domain = "backend"
	DomainDatabase      Domain = "database"
	DomainTest          Domain = "test"
	DomainDocs          Domain = "docs"
	DomainConfig        Domain = "config"
	DomainMobile        Domain = "mobile"
	DomainDevops        Domain = "devops"
	DomainDataScience   Domain = "data_science"
	DomainMachineLearn  Domain = "machine_learning"
	DomainGameDev       Domain = "game_dev"
	DomainOther         Domain = "other"
)

type domainRule struct {
	domain   Domain
	globs    []string
	regexes  []*regexp.Regexp
}

// domainRules is evaluated in order; the first matching rule wins, per
// spec.md §4.2.14.
var domainRules = []domainRule{
	{domain: DomainTest, globs: testPathPatterns},
	{domain: DomainDocs, globs: docPathPatterns},
	{domain: DomainDevops, globs: []string{
		"Dockerfile*", "*.dockerfile", "docker-compose*.yml", "docker-compose*.yaml",
		".github/workflows/**", "Jenkinsfile", "*.tf", "*.tfvars", "helm/**", "k8s/**",
		".gitlab-ci.yml", "ansible/**",
	}},
	{domain: DomainConfig, globs: []string{
		"*.yaml", "*.yml", "*.toml", "*.ini", "*.env", "*.properties",
		"*.config.js", "*.config.ts", ".editorconfig",
	}},
	{domain: DomainDatabase, globs: []string{
		"*.sql", "migrations/**", "**/migrations/**", "schema.rb", "*.prisma",
	}},
	{domain: DomainMobile, globs: []string{
		"*.swift", "*.kt", "*.m", "*.mm", "android/**", "ios/**", "*.xcodeproj/**",
	}},
	{domain: DomainDataScience, globs: []string{"*.ipynb", "*.parquet", "notebooks/**"}},
	{domain: DomainMachineLearn, globs: []string{"*.onnx", "*.pt", "*.h5", "models/**"}},
	{domain: DomainGameDev, globs: []string{"*.unity", "*.uasset", "Assets/**", "*.tscn", "*.gd"}},
	{domain: DomainFrontend, globs: []string{
		"*.html", "*.css", "*.scss", "*.less", "*.jsx", "*.tsx", "*.vue",
		"src/components/**", "public/**",
	}},
	{domain: DomainBackend, globs: []string{
		"*.go", "*.py", "*.rb", "*.java", "*.cs", "*.php", "*.rs", "server/**", "api/**",
	}},
}

// ClassifyDomain returns the first matching domain for path, or
// DomainOther if nothing matches.
func ClassifyDomain(path string) Domain {
	base := basename(path)
	for _, rule := range domainRules {
		for _, g := range rule.globs {
			if ok, _ := doublestar.Match(g, path); ok {
				return rule.domain
			}
			if ok, _ := doublestar.Match(g, base); ok {
				return rule.domain
			}
		}
		for _, re := range rule.regexes {
			if re.MatchString(path) {
				return rule.domain
			}
		}
	}
	return DomainOther
}

// DomainWeek is a per-week domain breakdown: line counts and their
// percentage share of that week's total.
type DomainWeek struct {
	Counts      map[Domain]int     `json:"counts"`
	Percentages map[Domain]float64 `json:"percentages"`
}

// CodeDomainSnapshot is the §4.2.14 snapshot for one developer.
type CodeDomainSnapshot struct {
	Totals map[Domain]int        `json:"totals"`
	Weekly map[string]DomainWeek `json:"weekly"`
}

// CodeDomain classifies every modified file into a domain and attributes
// added+deleted lines to the committing developer's domain counters.
type CodeDomain struct {
	base
	totals map[string]map[Domain]int
	weekly map[string]map[string]map[Domain]int
}

func NewCodeDomain() *CodeDomain {
	return &CodeDomain{
		totals: make(map[string]map[Domain]int),
		weekly: make(map[string]map[string]map[Domain]int),
	}
}

func (a *CodeDomain) ProcessCommit(v CommitView) error {
	if err := a.beginProcess(); err != nil {
		return err
	}
	author := v.Commit.Author.Email
	week := weekly.MondayKey(v.Commit.Author.When)

	if a.totals[author] == nil {
		a.totals[author] = make(map[Domain]int)
	}
	if a.weekly[author] == nil {
		a.weekly[author] = make(map[string]map[Domain]int)
	}
	if a.weekly[author][week] == nil {
		a.weekly[author][week] = make(map[Domain]int)
	}

	for _, fe := range v.Files {
		path := fe.File.NewPath
		if path == "" {
			path = fe.File.OldPath
		}
		lines := fe.File.AddedLines + fe.File.DeletedLines
		if lines == 0 {
			continue
		}
		domain := ClassifyDomain(path)
		a.totals[author][domain] += lines
		a.weekly[author][week][domain] += lines
	}
	return nil
}

func (a *CodeDomain) SnapshotAll() map[string]CodeDomainSnapshot {
	a.markSnapshotted()
	out := make(map[string]CodeDomainSnapshot, len(a.totals))
	for author, totals := range a.totals {
		snap := CodeDomainSnapshot{Totals: copyDomainMap(totals), Weekly: make(map[string]DomainWeek)}
		for week, counts := range a.weekly[author] {
			snap.Weekly[week] = domainWeekFrom(counts)
		}
		out[author] = snap
	}
	return out
}

func copyDomainMap(m map[Domain]int) map[Domain]int {
	out := make(map[Domain]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func domainWeekFrom(counts map[Domain]int) DomainWeek {
	var total int
	for _, n := range counts {
		total += n
	}
	wk := DomainWeek{Counts: copyDomainMap(counts), Percentages: make(map[Domain]float64, len(counts))}
	if total > 0 {
		for d, n := range counts {
			wk.Percentages[d] = 100 * float64(n) / float64(total)
		}
	}
	return wk
}

// MergeCodeDomain sums per-developer, per-domain totals and recomputes
// weekly percentages against the merged total, per spec.md §4.2.14.
func MergeCodeDomain(snaps ...CodeDomainSnapshot) CodeDomainSnapshot {
	totals := make(map[Domain]int)
	weekly := make(map[string]map[Domain]int)
	for _, s := range snaps {
		for d, n := range s.Totals {
			totals[d] += n
		}
		for week, wk := range s.Weekly {
			if weekly[week] == nil {
				weekly[week] = make(map[Domain]int)
			}
			for d, n := range wk.Counts {
				weekly[week][d] += n
			}
		}
	}
	out := CodeDomainSnapshot{Totals: totals, Weekly: make(map[string]DomainWeek, len(weekly))}
	for week, counts := range weekly {
		out.Weekly[week] = domainWeekFrom(counts)
	}
	return out
}
