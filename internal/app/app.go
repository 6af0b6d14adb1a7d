// Package app wires configuration, credentials and remote services into a
// single inspection run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/index-inspector/internal/clock/system"
	"github.com/JakeFAU/index-inspector/internal/config"
	"github.com/JakeFAU/index-inspector/internal/hash/sha256"
	"github.com/JakeFAU/index-inspector/internal/id/uuid"
	"github.com/JakeFAU/index-inspector/internal/inspection"
	"github.com/JakeFAU/index-inspector/internal/metrics"
	"github.com/JakeFAU/index-inspector/internal/orchestrator"
	"github.com/JakeFAU/index-inspector/internal/sink"
	"github.com/JakeFAU/index-inspector/internal/storage/local"
	"github.com/JakeFAU/index-inspector/internal/urlset"
)

// Run summary event types.
const (
	EventRunCompleted = "inspection.run.completed"
	EventRunFailed    = "inspection.run.failed"
)

// App holds the long-lived pieces of one invocation.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	clock       orchestrator.Clock
	ids         orchestrator.IDGenerator
	registry    *prometheus.Registry
	newServices ServiceFactory
	loadCreds   func(ctx context.Context) (*Credentials, error)
	pause       orchestrator.PauseFunc
}

// Option customizes an App.
type Option func(*App)

// WithServiceFactory replaces the Google service factory.
func WithServiceFactory(f ServiceFactory) Option {
	return func(a *App) { a.newServices = f }
}

// WithCredentialsLoader replaces credential loading.
func WithCredentialsLoader(f func(ctx context.Context) (*Credentials, error)) Option {
	return func(a *App) { a.loadCreds = f }
}

// WithClock replaces the wall clock.
func WithClock(c orchestrator.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithPause replaces the pause between inspection calls.
func WithPause(p orchestrator.PauseFunc) Option {
	return func(a *App) { a.pause = p }
}

// New creates an App for cfg.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:         cfg,
		logger:      logger,
		clock:       system.NewInLocation(loc),
		ids:         uuid.New(),
		registry:    prometheus.NewRegistry(),
		newServices: GoogleServices,
	}
	a.loadCreds = func(ctx context.Context) (*Credentials, error) {
		return LoadCredentials(ctx, cfg.Auth, logger)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Registry exposes the metrics registry of the run.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// BuildURLs returns the URL set for today.
func (a *App) BuildURLs() ([]string, error) {
	builder := urlset.NewBuilder(urlset.Config{
		BaseURL:    a.cfg.Site.URL,
		Games:      a.cfg.Site.Games,
		Days:       a.cfg.Site.DynamicDays,
		StaticFile: a.cfg.URLs.StaticFile,
	}, a.clock, a.logger.Named("urlset"))
	urls, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build url set: %w", err)
	}
	return urls, nil
}

// DryRun prints the URL set to w without contacting any remote service.
func (a *App) DryRun(w io.Writer) error {
	urls, err := a.BuildURLs()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "DRY RUN ENABLED. The following URLs would be inspected:"); err != nil {
		return err
	}
	for _, u := range urls {
		if _, err := fmt.Fprintf(w, " - %s\n", u); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "Total URLs: %d\nDry run complete. No API calls made.\n", len(urls))
	return err
}

// Run performs one full inspection run. The returned error is non-nil only
// for startup failures, a failed final flush, or interruption.
func (a *App) Run(ctx context.Context) (orchestrator.Summary, error) {
	logger := a.logger

	creds, err := a.loadCreds(ctx)
	if err != nil {
		return orchestrator.Summary{}, err
	}
	svc, err := a.newServices(ctx, a.cfg, creds)
	if err != nil {
		return orchestrator.Summary{}, fmt.Errorf("initialize google services: %w", err)
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.Warn("Failed to close services", zap.Error(cerr))
		}
	}()

	logger.Info("Verifying search console access")
	siteURL, err := inspection.FindVerifiedProperty(ctx, svc.Properties, a.cfg.Site.Domain, logger.Named("inspection"))
	if err != nil {
		logger.Error("No usable property; add the service account as an Owner or Full User in Search Console",
			zap.String("domain", a.cfg.Site.Domain),
			zap.String("service_account", creds.ClientEmail),
		)
		return orchestrator.Summary{}, err
	}
	logger.Info("Using search console property", zap.String("site_url", siteURL))

	urls, err := a.BuildURLs()
	if err != nil {
		return orchestrator.Summary{}, err
	}
	logger.Info("Built URL set", zap.Int("urls", len(urls)))

	artifact := sink.ArtifactName(a.cfg.Site.Slug, a.clock.Now())
	localSink, err := a.localSink(artifact, svc.Mirror)
	if err != nil {
		return orchestrator.Summary{}, err
	}

	recorder := metrics.NewRecorder(a.registry)
	client := inspection.NewClient(svc.Inspector, siteURL, a.clock, logger.Named("inspection"))
	orch := orchestrator.New(
		orchestrator.Config{BatchSize: a.cfg.Inspection.BatchSize, Delay: a.cfg.Inspection.Delay},
		client,
		a.remoteOpener(artifact, svc, creds.ClientEmail),
		localSink,
		a.clock,
		a.ids,
		recorder,
		logger.Named("orchestrator"),
	).WithPause(a.pause)

	summary, runErr := orch.Run(ctx, urls)
	recorder.ObserveRun(summary.FinishedAt.Sub(summary.StartedAt), summary.FinishedAt, summary.Total, summary.Errors)

	// Reporting happens even after an interrupt.
	reportCtx := context.WithoutCancel(ctx)
	a.publishSummary(reportCtx, svc.Publisher, summary, runErr)
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path, a.registry); err != nil {
			logger.Warn("Failed to export metrics", zap.Error(err))
		}
	}
	return summary, runErr
}

func (a *App) localSink(name string, mirror sink.BlobStore) (*sink.LocalSink, error) {
	store, err := local.New(local.Config{BaseDir: a.cfg.Output.Dir})
	if err != nil {
		return nil, fmt.Errorf("open output dir: %w", err)
	}
	encoder, err := sink.EncoderFor(a.cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	var mirrors []sink.BlobStore
	if mirror != nil {
		mirrors = append(mirrors, mirror)
	}
	return sink.NewLocal(store, sink.LocalConfig{
		Name:    name,
		Encoder: encoder,
		Hasher:  sha256.New(),
	}, a.logger.Named("sink"), mirrors...)
}

func (a *App) remoteOpener(title string, svc *Services, serviceAccount string) orchestrator.RemoteOpener {
	if !a.cfg.Sheets.Enabled || svc.Sheets == nil {
		return nil
	}
	logger := a.logger.Named("sink")
	return func(ctx context.Context) (sink.Sink, error) {
		remote, err := sink.OpenRemote(ctx, svc.Sheets, svc.Sharer, sink.RemoteConfig{
			Title:     title,
			SheetName: a.cfg.Sheets.SheetName,
			ShareWith: a.cfg.Sheets.ShareWith,
		}, logger)
		if err != nil {
			if errors.Is(err, sink.ErrPermissionDenied) {
				logger.Warn("Service account cannot create spreadsheets; enable the Sheets and Drive APIs and check its Drive quota",
					zap.String("service_account", serviceAccount),
				)
			}
			return nil, err
		}
		return remote, nil
	}
}

func (a *App) publishSummary(ctx context.Context, pub Publisher, summary orchestrator.Summary, runErr error) {
	if pub == nil {
		return
	}
	event := EventRunCompleted
	if runErr != nil {
		event = EventRunFailed
	}
	id, err := pub.Publish(ctx, event, summary)
	if err != nil {
		a.logger.Warn("Failed to publish run summary", zap.Error(err))
		return
	}
	a.logger.Info("Published run summary", zap.String("message_id", id), zap.String("event", event))
}
