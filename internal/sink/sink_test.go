package sink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JakeFAU/index-inspector/internal/inspection"
)

func TestArtifactName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		slug string
		at   time.Time
		want string
	}{
		{"wordsolverx", time.Date(2026, time.January, 28, 9, 0, 0, 0, time.UTC), "wordsolverx-28jan-2026"},
		{"WordSolverX", time.Date(2025, time.December, 3, 0, 0, 0, 0, time.UTC), "wordsolverx-03dec-2025"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ArtifactName(tc.slug, tc.at))
	}
}

func sampleRows(n int) []inspection.Row {
	at := time.Date(2026, time.January, 28, 10, 30, 0, 0, time.UTC)
	rows := make([]inspection.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, inspection.Row{
			InspectedAt:     at.Add(time.Duration(i) * time.Second),
			URL:             "https://example.com/p" + string(rune('a'+i)),
			Verdict:         "PASS",
			CoverageState:   "Submitted and indexed",
			RobotsTxtState:  "ALLOWED",
			IndexingState:   "INDEXING_ALLOWED",
			LastCrawlTime:   "2026-01-27T08:00:00Z",
			PageFetchState:  "SUCCESSFUL",
			GoogleCanonical: inspection.NotAvailable,
			UserCanonical:   inspection.NotAvailable,
		})
	}
	return rows
}
