// Package classify turns one vcs.ModifiedFile into the typed line events
// and per-file tags the metric accumulators subscribe to.
package classify

import (
	"regexp"
	"strings"

	"github.com/panbanda/devpulse/internal/vcs"
)

// EventKind distinguishes the four event shapes an accumulator can receive.
type EventKind int

const (
	EventAdded EventKind = iota
	EventDeleted
	EventMoved
	EventHunk
)

// Event is one classified diff line (or hunk boundary) handed to an
// accumulator's ProcessCommit.
type Event struct {
	Kind   EventKind
	LineNo int
	Text   string
}

// FileEvents is the full classification of one ModifiedFile: its ordered
// events plus the hunk count the Hunks accumulator (§4.2.4) needs.
type FileEvents struct {
	File   vcs.ModifiedFile
	Events []Event
}

// HunkCount returns the number of maximal contiguous +/- runs in the file's
// diff: a run starts at the first Deleted or Added line and wherever a
// line's number is not one past the previous line of the same list (File()
// marks each run start with a Hunk event). Deleted and Added lines form
// separate runs.
func (fe FileEvents) HunkCount() int {
	n := 0
	for _, e := range fe.Events {
		if e.Kind == EventHunk {
			n++
		}
	}
	return n
}

// commentPrefixes maps a lowercase file extension (without the dot) to its
// line-comment and block-comment markers, per spec.md's enumerated table.
var commentPrefixes = map[string]struct {
	line       string
	blockOpen  string
	blockClose string
}{
	"py":     {line: "#"},
	"rb":     {line: "#"},
	"pl":     {line: "#"},
	"js":     {line: "//", blockOpen: "/*", blockClose: "*/"},
	"jsx":    {line: "//", blockOpen: "/*", blockClose: "*/"},
	"ts":     {line: "//", blockOpen: "/*", blockClose: "*/"},
	"tsx":    {line: "//", blockOpen: "/*", blockClose: "*/"},
	"c":      {line: "//", blockOpen: "/*", blockClose: "*/"},
	"h":      {line: "//", blockOpen: "/*", blockClose: "*/"},
	"cpp":    {line: "//", blockOpen: "/*", blockClose: "*/"},
	"hpp":    {line: "//", blockOpen: "/*", blockClose: "*/"},
	"cc":     {line: "//", blockOpen: "/*", blockClose: "*/"},
	"java":   {line: "//", blockOpen: "/*", blockClose: "*/"},
	"cs":     {line: "//", blockOpen: "/*", blockClose: "*/"},
	"go":     {line: "//", blockOpen: "/*", blockClose: "*/"},
	"rs":     {line: "//", blockOpen: "/*", blockClose: "*/"},
	"swift":  {line: "//", blockOpen: "/*", blockClose: "*/"},
	"kt":     {line: "//", blockOpen: "/*", blockClose: "*/"},
	"php":    {line: "//", blockOpen: "/*", blockClose: "*/"},
	"scala":  {line: "//", blockOpen: "/*", blockClose: "*/"},
	"html":   {blockOpen: "<!--", blockClose: "-->"},
	"htm":    {blockOpen: "<!--", blockClose: "-->"},
	"xml":    {blockOpen: "<!--", blockClose: "-->"},
	"md":     {blockOpen: "<!--", blockClose: "-->"},
	"sql":    {line: "--"},
	"hs":     {line: "--"},
	"lhs":    {line: "--"},
	"lua":    {line: "--"},
}

// importPrefixes are line-leading tokens (after stripping whitespace and
// comment markers don't apply here) that mark an import/dependency
// declaration, excluded from Meaningful regardless of language.
var importPrefixes = []string{
	"import ", "include ", "#include", "require ", "require(", "using ",
	"package ", "from ", "use ",
}

var (
	alnumRunRe  = regexp.MustCompile(`[A-Za-z0-9]{20,}`)
	repeatCharRe = regexp.MustCompile(`([=_-])\1{4,}`)
)

// extOf returns the lowercase extension of filename without its leading dot.
func extOf(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// Noop reports whether text is empty or whitespace-only.
func Noop(text string) bool {
	return strings.TrimSpace(text) == ""
}

// AutoGenerated reports whether text looks machine-generated: a long
// alphanumeric run dominating the line, a run of 5+ separator characters,
// or a long line with too little character variety to be handwritten prose
// or code (spec.md §4.1).
func AutoGenerated(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if m := alnumRunRe.FindString(trimmed); m != "" && len(m) >= len(trimmed)/2 {
		return true
	}
	if repeatCharRe.MatchString(trimmed) {
		return true
	}
	if len(trimmed) > 200 {
		distinct := make(map[rune]struct{})
		for _, r := range trimmed {
			if r != ' ' {
				distinct[r] = struct{}{}
			}
		}
		if len(distinct) < 10 {
			return true
		}
	}
	return false
}

// isImportLine reports whether the trimmed text opens with a recognised
// import/include/require/using/package keyword.
func isImportLine(trimmed string) bool {
	for _, p := range importPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// isCommentLine reports whether trimmed text is a full-line comment for the
// given file extension: a line-comment prefix, or a block-comment that
// opens and (optionally) closes entirely on this one line.
func isCommentLine(trimmed, ext string) bool {
	markers, ok := commentPrefixes[ext]
	if !ok {
		return false
	}
	if markers.line != "" && strings.HasPrefix(trimmed, markers.line) {
		return true
	}
	if markers.blockOpen != "" && strings.HasPrefix(trimmed, markers.blockOpen) {
		return true
	}
	return false
}

// IsComment reports whether trimmed text is a full-line comment for the
// given file extension, exposed for QualityCornerstones' doc-comment-line
// count (§4.2.9).
func IsComment(text, ext string) bool {
	return isCommentLine(strings.TrimSpace(text), ext)
}

// Meaningful reports whether a line of text should count toward the
// meaningful-code metrics: non-empty, more than one character after
// trimming, not a comment for the given extension, and not an
// import/include declaration.
func Meaningful(text, ext string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= 1 {
		return false
	}
	if isCommentLine(trimmed, ext) {
		return false
	}
	if isImportLine(trimmed) {
		return false
	}
	return true
}

// File classifies one ModifiedFile into its ordered Added/Deleted/Hunk
// events. Move tagging needs commit-wide context (spec.md §4.1: a line's
// text must appear in both Added and Deleted "within the same commit", not
// just within this one file), so it is applied afterwards by Commit.
func File(mf vcs.ModifiedFile) FileEvents {
	fe := FileEvents{File: mf}
	if mf.Oversize {
		return fe
	}

	appendRun := func(kind EventKind, lines []vcs.DiffLine) {
		for i, l := range lines {
			if i == 0 || l.LineNo != lines[i-1].LineNo+1 {
				fe.Events = append(fe.Events, Event{Kind: EventHunk, LineNo: l.LineNo})
			}
			fe.Events = append(fe.Events, Event{Kind: kind, LineNo: l.LineNo, Text: l.Text})
		}
	}
	appendRun(EventDeleted, mf.Deleted)
	appendRun(EventAdded, mf.Added)

	return fe
}

// Commit classifies every modified file of one commit and tags Moved lines:
// a stripped line text that shows up in the Deleted set of ANY file in the
// commit and the Added set of ANY file in the commit is Moved wherever it
// was added, per spec.md §4.1 ("within the same commit"). Moved events are
// appended alongside (not instead of) the originating Added event so
// accumulators can still see the raw add/delete counts and separately
// exclude moved text from meaningful-add/-delete totals.
func Commit(mfs []vcs.ModifiedFile) []FileEvents {
	deletedStripped := make(map[string]struct{})
	for _, mf := range mfs {
		for _, d := range mf.Deleted {
			deletedStripped[strings.TrimSpace(d.Text)] = struct{}{}
		}
	}

	result := make([]FileEvents, 0, len(mfs))
	for _, mf := range mfs {
		fe := File(mf)
		for _, a := range mf.Added {
			if _, ok := deletedStripped[strings.TrimSpace(a.Text)]; ok {
				fe.Events = append(fe.Events, Event{Kind: EventMoved, LineNo: a.LineNo, Text: a.Text})
			}
		}
		result = append(result, fe)
	}
	return result
}

// Ext exposes extOf for accumulators that need the same extension key File
// used internally (e.g. CodeProvenance's code-file whitelist).
func Ext(filename string) string {
	return extOf(filename)
}
