package inspection

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// IndexStatus is the subset of the API's index status result kept per row.
// Empty strings mean the API did not return the field.
type IndexStatus struct {
	Verdict         string
	CoverageState   string
	RobotsTxtState  string
	IndexingState   string
	LastCrawlTime   string
	PageFetchState  string
	GoogleCanonical string
	UserCanonical   string
}

// Inspector performs one remote inspection. A nil status with a nil error
// means the response carried no index status at all.
type Inspector interface {
	Inspect(ctx context.Context, inspectionURL, siteURL string) (*IndexStatus, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

var errNilInspector = errors.New("inspector is not configured")

// Client inspects URLs against a single verified property.
type Client struct {
	inspector Inspector
	siteURL   string
	clock     Clock
	logger    *zap.Logger
}

// NewClient returns a Client bound to siteURL.
func NewClient(inspector Inspector, siteURL string, clock Clock, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		inspector: inspector,
		siteURL:   siteURL,
		clock:     clock,
		logger:    logger,
	}
}

// Inspect always returns a complete row; failures are encoded in it.
func (c *Client) Inspect(ctx context.Context, url string) Row {
	if c.inspector == nil {
		return c.fail(url, errNilInspector)
	}
	status, err := c.inspector.Inspect(ctx, url, c.siteURL)
	if err != nil {
		return c.fail(url, err)
	}
	row := successRow(c.clock.Now(), url, status)
	c.logger.Debug("Inspected URL", zap.String("url", url), zap.String("verdict", row.Verdict))
	return row
}

func (c *Client) fail(url string, err error) Row {
	c.logger.Warn("Error inspecting URL", zap.String("url", url), zap.Error(err))
	return errorRow(c.clock.Now(), url, err)
}
