package sink

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/index-inspector/internal/inspection"
)

// Spreadsheet identifies a created spreadsheet.
type Spreadsheet struct {
	ID  string
	URL string
}

// SpreadsheetService is the slice of the Sheets API the remote sink needs.
type SpreadsheetService interface {
	Create(ctx context.Context, title string) (Spreadsheet, error)
	AppendRows(ctx context.Context, spreadsheetID, cellRange string, rows [][]string) error
}

// Sharer grants a user access to a created file.
type Sharer interface {
	Share(ctx context.Context, fileID, email string) error
}

// RemoteConfig names the spreadsheet and who gets to see it.
type RemoteConfig struct {
	Title     string
	SheetName string
	ShareWith []string
}

// RemoteSink appends each batch to a freshly created spreadsheet.
type RemoteSink struct {
	api       SpreadsheetService
	sheet     Spreadsheet
	dataRange string
	logger    *zap.Logger
}

// OpenRemote creates the spreadsheet and writes the header row. Sharing is
// best effort; a failure to share is logged and does not fail the sink.
func OpenRemote(ctx context.Context, api SpreadsheetService, sharer Sharer, cfg RemoteConfig, logger *zap.Logger) (*RemoteSink, error) {
	if api == nil {
		return nil, errors.New("spreadsheet service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Sheet1"
	}

	sheet, err := api.Create(ctx, cfg.Title)
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet %q: %w", cfg.Title, err)
	}
	logger.Info("Created spreadsheet",
		zap.String("title", cfg.Title),
		zap.String("spreadsheet_id", sheet.ID),
		zap.String("url", sheet.URL),
	)

	if err := api.AppendRows(ctx, sheet.ID, sheetName+"!A1", [][]string{inspection.Header()}); err != nil {
		return nil, fmt.Errorf("write header to %s: %w", sheet.ID, err)
	}

	if sharer != nil {
		for _, email := range cfg.ShareWith {
			if err := sharer.Share(ctx, sheet.ID, email); err != nil {
				logger.Warn("Failed to share spreadsheet", zap.String("email", email), zap.Error(err))
			}
		}
	}

	return &RemoteSink{
		api:       api,
		sheet:     sheet,
		dataRange: sheetName + "!A2",
		logger:    logger,
	}, nil
}

// Kind implements Sink.
func (s *RemoteSink) Kind() Kind { return KindRemote }

// Append writes rows after the last populated row of the sheet.
func (s *RemoteSink) Append(ctx context.Context, rows []inspection.Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.api.AppendRows(ctx, s.sheet.ID, s.dataRange, inspection.Values(rows)); err != nil {
		return fmt.Errorf("append %d rows to %s: %w", len(rows), s.sheet.ID, err)
	}
	s.logger.Info("Appended rows to spreadsheet", zap.Int("rows", len(rows)))
	return nil
}

// Finalize returns the spreadsheet URL; appends are already durable.
func (s *RemoteSink) Finalize(context.Context) (string, error) {
	return s.sheet.URL, nil
}

// Spreadsheet returns the handle of the created spreadsheet.
func (s *RemoteSink) Spreadsheet() Spreadsheet {
	return s.sheet
}
