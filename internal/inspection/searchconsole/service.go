// Package searchconsole adapts the Search Console API to the inspection package.
package searchconsole

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sc "google.golang.org/api/searchconsole/v1"

	"github.com/JakeFAU/index-inspector/internal/inspection"
)

// Service implements inspection.Inspector and inspection.PropertyLister.
type Service struct {
	svc *sc.Service
}

// New creates a Service. Credentials and endpoints come from opts.
func New(ctx context.Context, opts ...option.ClientOption) (*Service, error) {
	svc, err := sc.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create searchconsole service: %w", err)
	}
	return &Service{svc: svc}, nil
}

// Inspect calls urlInspection.index.inspect for one URL.
func (s *Service) Inspect(ctx context.Context, inspectionURL, siteURL string) (*inspection.IndexStatus, error) {
	resp, err := s.svc.UrlInspection.Index.Inspect(&sc.InspectUrlIndexRequest{
		InspectionUrl: inspectionURL,
		SiteUrl:       siteURL,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", inspectionURL, err)
	}
	if resp.InspectionResult == nil || resp.InspectionResult.IndexStatusResult == nil {
		return nil, nil
	}
	r := resp.InspectionResult.IndexStatusResult
	return &inspection.IndexStatus{
		Verdict:         r.Verdict,
		CoverageState:   r.CoverageState,
		RobotsTxtState:  r.RobotsTxtState,
		IndexingState:   r.IndexingState,
		LastCrawlTime:   r.LastCrawlTime,
		PageFetchState:  r.PageFetchState,
		GoogleCanonical: r.GoogleCanonical,
		UserCanonical:   r.UserCanonical,
	}, nil
}

// ListSites calls sites.list.
func (s *Service) ListSites(ctx context.Context) ([]inspection.Site, error) {
	resp, err := s.svc.Sites.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	sites := make([]inspection.Site, 0, len(resp.SiteEntry))
	for _, entry := range resp.SiteEntry {
		if entry == nil {
			continue
		}
		sites = append(sites, inspection.Site{URL: entry.SiteUrl, PermissionLevel: entry.PermissionLevel})
	}
	return sites, nil
}
