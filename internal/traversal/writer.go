package traversal

import (
	"encoding/json"
	"fmt"
	"io"
)

// streamWriter writes the commit_stream JSON array incrementally: a batch
// at a time, each element comma-separated, with no leading comma before the
// very first element (spec.md §4.4 step 3d). It never holds more than one
// flushed batch in memory at once.
type streamWriter struct {
	w        io.Writer
	wroteAny bool
}

func newStreamWriter(w io.Writer) *streamWriter {
	return &streamWriter{w: w}
}

// marshalHeaderFields renders h as a JSON object and returns it with its
// closing brace stripped and an opening brace prepended, so the driver can
// keep writing further top-level document keys (the commits array, and
// later process_metrics etc.) into the same object without re-parsing it.
func marshalHeaderFields(h Header) ([]byte, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	// b is `{"project_name":...,"analysis_period":{...}}`; drop the final
	// '}' so the caller can append ",\"commits\":[...]" before closing it.
	return b[:len(b)-1], nil
}

// MarshalHeaderPrefix is marshalHeaderFields exported for internal/chunking,
// which assembles its own document prefix around a merged commits array
// instead of calling Traverse directly.
func MarshalHeaderPrefix(h Header) ([]byte, error) {
	return marshalHeaderFields(h)
}

// WriteBatch appends commits as JSON array elements, inserting a comma
// before every element except the stream's very first.
func (s *streamWriter) WriteBatch(commits []CommitSummary) error {
	for _, c := range commits {
		if s.wroteAny {
			if _, err := io.WriteString(s.w, ","); err != nil {
				return err
			}
		}
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal commit %s: %w", c.Hash, err)
		}
		if _, err := s.w.Write(b); err != nil {
			return err
		}
		s.wroteAny = true
	}
	return nil
}
