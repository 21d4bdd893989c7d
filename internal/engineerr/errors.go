// Package engineerr implements the error taxonomy from spec.md §7: every
// failure the engine produces is tagged with a Kind describing how far up
// the call stack it must propagate before it can be safely swallowed.
// Grounded on the teacher's internal/fileproc.ProcessingError (a typed
// struct wrapping the path and the underlying error, with Error/Unwrap),
// generalized from "one file-processing failure shape" to five kinds
// spanning file/commit/repo/process scope.
package engineerr

import "fmt"

// Kind is one of spec.md §7's five error categories.
type Kind int

const (
	// KindTransient covers memory pressure, clone retries, and temp-dir
	// I/O errors. The scheduler retries these up to 2 times.
	KindTransient Kind = iota
	// KindSkippableFile covers oversize source/blobs and known-bad
	// auto-generated compiler output: the file is dropped from
	// modified_files but line counters still use the diff-summary numbers.
	KindSkippableFile
	// KindSkippableCommit covers submodule config errors and recursion-
	// limit exhaustion: a degraded commit record replaces the full one.
	KindSkippableCommit
	// KindSkippableRepo covers inaccessible remotes, clone failure, and
	// empty history: the repo is recorded in failed_repositories and the
	// run proceeds.
	KindSkippableRepo
	// KindFatal covers an unwritable output root or a missing catalog
	// file: the process stops with a nonzero exit.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindSkippableFile:
		return "skippable_file"
	case KindSkippableCommit:
		return "skippable_commit"
	case KindSkippableRepo:
		return "skippable_repo"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MaxRetries is spec.md §7's "retried up to 2 times by the scheduler",
// scoped to KindTransient; every other kind is not retried — the
// propagation policy is to recover locally or surface once, not to retry.
func (k Kind) MaxRetries() int {
	if k == KindTransient {
		return 2
	}
	return 0
}

// Error is an engine failure scoped to one unit (a file path, a commit
// hash, a repository name) at a given Kind.
type Error struct {
	Kind Kind
	Unit string
	Err  error
}

// New wraps err as an Error of the given kind, scoped to unit (a file
// path, commit hash, or repo name — whatever identifies the failing unit
// for that kind).
func New(kind Kind, unit string, err error) *Error {
	return &Error{Kind: kind, Unit: unit, Err: err}
}

// Transient wraps err as a KindTransient error.
func Transient(unit string, err error) *Error { return New(KindTransient, unit, err) }

// SkippableFile wraps err as a KindSkippableFile error.
func SkippableFile(unit string, err error) *Error { return New(KindSkippableFile, unit, err) }

// SkippableCommit wraps err as a KindSkippableCommit error.
func SkippableCommit(unit string, err error) *Error { return New(KindSkippableCommit, unit, err) }

// SkippableRepo wraps err as a KindSkippableRepo error.
func SkippableRepo(unit string, err error) *Error { return New(KindSkippableRepo, unit, err) }

// Fatal wraps err as a KindFatal error.
func Fatal(unit string, err error) *Error { return New(KindFatal, unit, err) }

func (e *Error) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %v", e.Kind, e.Unit, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error whose Kind matches e's — this
// lets callers write `errors.Is(err, engineerr.KindFatal)`-style checks
// via a zero-Unit, zero-Err sentinel, e.g.
// `errors.Is(err, &engineerr.Error{Kind: engineerr.KindFatal})`.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
