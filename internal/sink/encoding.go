package sink

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/JakeFAU/index-inspector/internal/inspection"
)

// Encoder serializes a header and rows into a single artifact.
type Encoder interface {
	Encode(w io.Writer, header []string, rows []inspection.Row) error
	Extension() string
	ContentType() string
}

// EncoderFor maps output.format to an Encoder.
func EncoderFor(format string) (Encoder, error) {
	switch format {
	case "", "csv":
		return CSVEncoder{}, nil
	case "parquet":
		return ParquetEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// CSVEncoder writes RFC 4180 CSV with the header as the first record.
type CSVEncoder struct{}

// Encode implements Encoder.
func (CSVEncoder) Encode(w io.Writer, header []string, rows []inspection.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("write csv row %s: %w", row.URL, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Extension implements Encoder.
func (CSVEncoder) Extension() string { return ".csv" }

// ContentType implements Encoder.
func (CSVEncoder) ContentType() string { return "text/csv; charset=utf-8" }

// ParquetRow is the parquet schema of an inspection row. Column order follows
// the CSV header; the header itself is carried by the schema.
type ParquetRow struct {
	InspectionDate  string `parquet:"inspection_date"`
	URL             string `parquet:"url"`
	Verdict         string `parquet:"verdict"`
	CoverageState   string `parquet:"coverage_state"`
	RobotsTxtState  string `parquet:"robots_txt_state"`
	IndexingState   string `parquet:"indexing_state"`
	LastCrawlTime   string `parquet:"last_crawl_time"`
	PageFetchState  string `parquet:"page_fetch_state"`
	GoogleCanonical string `parquet:"google_canonical"`
	UserCanonical   string `parquet:"user_canonical"`
}

// ParquetEncoder writes a single parquet file.
type ParquetEncoder struct{}

// Encode implements Encoder.
func (ParquetEncoder) Encode(w io.Writer, _ []string, rows []inspection.Row) error {
	out := make([]ParquetRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ParquetRow{
			InspectionDate:  row.InspectedAt.Format(inspection.TimestampLayout),
			URL:             row.URL,
			Verdict:         row.Verdict,
			CoverageState:   row.CoverageState,
			RobotsTxtState:  row.RobotsTxtState,
			IndexingState:   row.IndexingState,
			LastCrawlTime:   row.LastCrawlTime,
			PageFetchState:  row.PageFetchState,
			GoogleCanonical: row.GoogleCanonical,
			UserCanonical:   row.UserCanonical,
		})
	}
	if err := parquet.Write(w, out); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}

// Extension implements Encoder.
func (ParquetEncoder) Extension() string { return ".parquet" }

// ContentType implements Encoder.
func (ParquetEncoder) ContentType() string { return "application/vnd.apache.parquet" }
