package report

import (
	"encoding/json"
	"io"

	"github.com/panbanda/devpulse/internal/traversal"
)

// Writer appends the trailing fields of spec.md §6's output document
// (process_metrics, metrics_type, processing) and closes the document's
// outer JSON object. internal/traversal.Traverse (or internal/chunking.Run
// for a large repo) has already written everything up through the commits
// array's closing bracket; Writer only ever sees an already-open object,
// never the whole document at once — the teacher's internal/output.Formatter
// pattern generalized from "encode one Renderable in one call" to
// "append the bounded trailing keys of a document whose array the caller
// streamed separately".
type Writer struct {
	w io.Writer
}

// NewWriter wraps w. w must be positioned right after the commits array's
// closing `]`.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteTail appends process_metrics, metrics_type, and processing as the
// document's final keys and closes its outer brace.
func (wr *Writer) WriteTail(pm ProcessMetrics, metricsType MetricsType, processing traversal.Processing) error {
	pmBytes, err := json.Marshal(pm)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(wr.w, `,"process_metrics":`); err != nil {
		return err
	}
	if _, err := wr.w.Write(pmBytes); err != nil {
		return err
	}

	procBytes, err := json.Marshal(processing)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(wr.w, `,"metrics_type":"`+string(metricsType)+`","processing":`); err != nil {
		return err
	}
	if _, err := wr.w.Write(procBytes); err != nil {
		return err
	}
	_, err = io.WriteString(wr.w, "}")
	return err
}
