// Package catalog reads the repository input list (spec.md §6 "Input
// catalog"): a CSV of username,repo_name,url rows, one per repository to
// mine. This is an external collaborator, not part of the metrics engine
// proper, so it stays a thin stdlib reader rather than reaching for an
// ecosystem CSV library (see DESIGN.md's standard-library justification).
package catalog

import (
	"encoding/csv"
	"io"

	"github.com/sirupsen/logrus"
)

// Entry is one row of the catalog.
type Entry struct {
	Username string
	RepoName string
	URL      string
}

// Read parses r as a username,repo_name,url CSV. The first row is treated
// as a header and skipped if its first cell is "username" (see
// looksLikeHeader). Rows missing any of the three fields are skipped with a warning
// rather than aborting the read, per spec.md §6: "Rows lacking any of the
// three are skipped with a warning."
func Read(r io.Reader, logger *logrus.Logger) ([]Entry, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithField("component", "catalog")

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for i, row := range rows {
		if i == 0 && looksLikeHeader(row) {
			continue
		}
		if len(row) < 3 || row[0] == "" || row[1] == "" || row[2] == "" {
			log.WithField("row", i+1).Warn("skipping catalog row with missing field")
			continue
		}
		entries = append(entries, Entry{Username: row[0], RepoName: row[1], URL: row[2]})
	}
	return entries, nil
}

// looksLikeHeader reports whether row is the column-name header rather
// than a data row, by checking its first cell against the expected
// column name instead of guessing from URL shape (a username column is
// free-form text and can't reliably be told apart from a header token any
// other way).
func looksLikeHeader(row []string) bool {
	return len(row) > 0 && row[0] == "username"
}
