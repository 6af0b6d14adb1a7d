// Package sheets adapts the Sheets and Drive APIs to the remote sink.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/JakeFAU/index-inspector/internal/sink"
)

// valueInputRaw stores cell values exactly as given, without parsing.
const valueInputRaw = "RAW"

// Service implements sink.SpreadsheetService and sink.Sharer.
type Service struct {
	sheets *gsheets.Service
	drive  *drive.Service
}

// New creates Sheets and Drive clients sharing opts.
func New(ctx context.Context, opts ...option.ClientOption) (*Service, error) {
	sheetsSvc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Service{sheets: sheetsSvc, drive: driveSvc}, nil
}

// Create creates an empty spreadsheet titled title.
func (s *Service) Create(ctx context.Context, title string) (sink.Spreadsheet, error) {
	created, err := s.sheets.Spreadsheets.Create(&gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: title},
	}).Fields("spreadsheetId", "spreadsheetUrl").Context(ctx).Do()
	if err != nil {
		return sink.Spreadsheet{}, classify(err)
	}
	url := created.SpreadsheetUrl
	if url == "" {
		url = fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", created.SpreadsheetId)
	}
	return sink.Spreadsheet{ID: created.SpreadsheetId, URL: url}, nil
}

// AppendRows appends rows to the table found at cellRange.
func (s *Service) AppendRows(ctx context.Context, spreadsheetID, cellRange string, rows [][]string) error {
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		values = append(values, cells)
	}
	_, err := s.sheets.Spreadsheets.Values.Append(spreadsheetID, cellRange, &gsheets.ValueRange{Values: values}).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return classify(err)
	}
	return nil
}

// Share grants email writer access to fileID without sending a notification.
func (s *Service) Share(ctx context.Context, fileID, email string) error {
	_, err := s.drive.Permissions.Create(fileID, &drive.Permission{
		Type:         "user",
		Role:         "writer",
		EmailAddress: email,
	}).SendNotificationEmail(false).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("share %s with %s: %w", fileID, email, classify(err))
	}
	return nil
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		return fmt.Errorf("%w: %w", sink.ErrPermissionDenied, err)
	}
	return err
}
