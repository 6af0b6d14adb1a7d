// Package inspection turns one URL into one fixed-shape result row by asking
// the webmaster API for its index status.
package inspection

import "time"

const (
	// NotAvailable marks a field the API omitted from an otherwise successful response.
	NotAvailable = "N/A"
	// VerdictError marks a row whose inspection call failed.
	VerdictError = "ERROR"
	// TimestampLayout formats Row.InspectedAt in every sink.
	TimestampLayout = "2006-01-02 15:04:05"
)

var header = []string{
	"Inspection Date",
	"URL",
	"Verdict",
	"Coverage State",
	"Robots Txt State",
	"Indexing State",
	"Last Crawl Time",
	"Page Fetch State",
	"Google Canonical",
	"User Canonical",
}

// Header returns the column names matching Row.Values.
func Header() []string {
	out := make([]string, len(header))
	copy(out, header)
	return out
}

// Row is the result of inspecting a single URL. Rows are built once and
// only ever copied afterwards.
type Row struct {
	InspectedAt     time.Time
	URL             string
	Verdict         string
	CoverageState   string
	RobotsTxtState  string
	IndexingState   string
	LastCrawlTime   string
	PageFetchState  string
	GoogleCanonical string
	UserCanonical   string
}

// Values renders the row in Header order.
func (r Row) Values() []string {
	return []string{
		r.InspectedAt.Format(TimestampLayout),
		r.URL,
		r.Verdict,
		r.CoverageState,
		r.RobotsTxtState,
		r.IndexingState,
		r.LastCrawlTime,
		r.PageFetchState,
		r.GoogleCanonical,
		r.UserCanonical,
	}
}

// Failed reports whether the row records a failed inspection call.
func (r Row) Failed() bool {
	return r.Verdict == VerdictError
}

// Values renders rows for tabular sinks.
func Values(rows []Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Values())
	}
	return out
}

// successRow fills every absent status field with NotAvailable.
func successRow(at time.Time, url string, status *IndexStatus) Row {
	if status == nil {
		status = &IndexStatus{}
	}
	return Row{
		InspectedAt:     at,
		URL:             url,
		Verdict:         orNA(status.Verdict),
		CoverageState:   orNA(status.CoverageState),
		RobotsTxtState:  orNA(status.RobotsTxtState),
		IndexingState:   orNA(status.IndexingState),
		LastCrawlTime:   orNA(status.LastCrawlTime),
		PageFetchState:  orNA(status.PageFetchState),
		GoogleCanonical: orNA(status.GoogleCanonical),
		UserCanonical:   orNA(status.UserCanonical),
	}
}

// errorRow leaves the remaining fields empty: not attempted, as opposed to unknown.
func errorRow(at time.Time, url string, err error) Row {
	return Row{
		InspectedAt:   at,
		URL:           url,
		Verdict:       VerdictError,
		CoverageState: err.Error(),
	}
}

func orNA(v string) string {
	if v == "" {
		return NotAvailable
	}
	return v
}
