package metrics

// Config holds the metric constants spec.md leaves as named heuristics
// rather than hard-coded literals, per SPEC_FULL.md §9's Open Question
// resolution: keep them as documented, overridable values instead of
// burying them in accumulator code.
type Config struct {
	// DiffDeltaUpdateWeight is the fraction of an add/delete overlap
	// attributed to "update" rather than churn in DiffDelta (§4.2.11).
	DiffDeltaUpdateWeight float64
	// ProvenanceBootstrapAge is how old (in days) CodeProvenance stamps a
	// file's pre-existing meaningful lines the first time it sees the file
	// (§4.2.12 and SPEC_FULL.md §9); a line slot with no occupant at all
	// still counts as new.
	ProvenanceBootstrapAge int
}

// DefaultConfig returns spec.md's documented heuristic constants.
func DefaultConfig() Config {
	return Config{
		DiffDeltaUpdateWeight: 0.8,
		ProvenanceBootstrapAge: 60,
	}
}

// diffDeltaWeights are the per-category weights of DiffDelta (§4.2.11),
// fixed by the spec rather than configurable.
var diffDeltaWeights = struct {
	add, update, delete, move float64
}{add: 1.0, update: 0.75, delete: 0.25, move: 0.1}

// skipPatterns (doublestar glob) excludes generated/vendored/binary assets
// from DiffDelta, per spec.md §4.2.11.
var skipPatterns = []string{
	"*.min.*", "*.map", "package-lock.json", "yarn.lock",
	"node_modules/**", "vendor/**", "*.svg", "*.png", "*.jpg", "*.jpeg",
	"*.gif", "*.ico", "*.woff", "*.woff2", "*.ttf", "*.eot",
}

// testPathPatterns and docPathPatterns feed QualityCornerstones (§4.2.9).
var testPathPatterns = []string{
	"test_*", "*_test.*", "tests/**", "__tests__/**", "*Spec.*", "*_spec.*",
	"spec/**", "*Test.*",
}

var docPathPatterns = []string{
	"*.md", "*.rst", "README*", "CHANGELOG*", "LICENSE*", "docs/**", "doc/**",
}

// codeExtensions is the whitelist of source-file extensions CodeProvenance
// (§4.2.12) tracks line-history for; non-code assets never enter the
// provenance table.
var codeExtensions = map[string]struct{}{
	"go": {}, "py": {}, "js": {}, "jsx": {}, "ts": {}, "tsx": {}, "java": {},
	"c": {}, "h": {}, "cpp": {}, "hpp": {}, "cc": {}, "cs": {}, "rb": {},
	"rs": {}, "swift": {}, "kt": {}, "php": {}, "scala": {}, "lua": {},
}
