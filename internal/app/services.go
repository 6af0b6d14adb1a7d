package app

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/JakeFAU/index-inspector/internal/config"
	"github.com/JakeFAU/index-inspector/internal/inspection"
	"github.com/JakeFAU/index-inspector/internal/inspection/searchconsole"
	"github.com/JakeFAU/index-inspector/internal/publisher/pubsub"
	"github.com/JakeFAU/index-inspector/internal/sink"
	"github.com/JakeFAU/index-inspector/internal/sink/sheets"
	"github.com/JakeFAU/index-inspector/internal/storage/gcs"
)

// Publisher sends run notifications.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) (string, error)
	Close() error
}

// Services groups the remote collaborators of a run. Optional members are nil
// when their feature is disabled.
type Services struct {
	Properties inspection.PropertyLister
	Inspector  inspection.Inspector
	Sheets     sink.SpreadsheetService
	Sharer     sink.Sharer
	Mirror     sink.BlobStore
	Publisher  Publisher

	closers []func() error
}

// Close releases every client the services hold.
func (s *Services) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ServiceFactory builds Services for a run.
type ServiceFactory func(ctx context.Context, cfg config.Config, creds *Credentials) (*Services, error)

// GoogleServices is the production ServiceFactory.
func GoogleServices(ctx context.Context, cfg config.Config, creds *Credentials) (*Services, error) {
	opts := []option.ClientOption{option.WithCredentials(creds.Credentials)}
	svc := &Services{}

	sc, err := searchconsole.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	svc.Properties = sc
	svc.Inspector = sc

	if cfg.Sheets.Enabled {
		sh, err := sheets.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		svc.Sheets = sh
		svc.Sharer = sh
	}

	if cfg.Storage.GCSBucket != "" {
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		svc.closers = append(svc.closers, client.Close)
		mirror, err := gcs.New(client, gcs.Config{Bucket: cfg.Storage.GCSBucket, Prefix: cfg.Storage.Prefix})
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		svc.Mirror = mirror
	}

	if cfg.PubSubEnabled() {
		pub, err := pubsub.New(ctx, pubsub.Config{
			ProjectID: cfg.PubSub.ProjectID,
			TopicName: cfg.PubSub.TopicName,
		}, opts...)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		svc.Publisher = pub
		svc.closers = append(svc.closers, pub.Close)
	}
	return svc, nil
}
