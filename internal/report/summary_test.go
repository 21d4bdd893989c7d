package report

import (
	"bytes"
	"testing"

	"github.com/panbanda/devpulse/internal/aggregate"
	"github.com/panbanda/devpulse/internal/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary_RenderText_IncludesDeveloperAndFailures(t *testing.T) {
	s := Summary{
		RepositoryName: "devpulse",
		Processing:     traversal.Processing{TotalCommits: 3, TotalLinesAdded: 12, TotalLinesRemoved: 4},
		Developers: map[string]aggregate.DeveloperRecord{
			"ada@example.com": {Summary: aggregate.DeveloperSummary{TotalLinesAdded: 12, WorkPatternType: "consistent"}},
		},
		FailedRepos: []string{"broken-repo"},
	}

	var buf bytes.Buffer
	require.NoError(t, s.RenderText(&buf, false))

	out := buf.String()
	assert.Contains(t, out, "devpulse")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "broken-repo")
	assert.Contains(t, out, "consistent")
}
