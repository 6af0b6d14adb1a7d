// Package config loads and validates inspector configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata" // run.timezone must resolve in minimal containers

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config captures all run configuration knobs loaded via Viper.
type Config struct {
	Site       SiteConfig       `mapstructure:"site"`
	URLs       URLsConfig       `mapstructure:"urls"`
	Inspection InspectionConfig `mapstructure:"inspection"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Sheets     SheetsConfig     `mapstructure:"sheets"`
	Output     OutputConfig     `mapstructure:"output"`
	Storage    StorageConfig    `mapstructure:"storage"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Run        RunConfig        `mapstructure:"run"`
}

// SiteConfig describes the inspected property and its generated answer pages.
type SiteConfig struct {
	URL         string   `mapstructure:"url" validate:"required,url"`
	Domain      string   `mapstructure:"domain" validate:"required"`
	Slug        string   `mapstructure:"slug" validate:"required"`
	Games       []string `mapstructure:"games" validate:"dive,required"`
	DynamicDays int      `mapstructure:"dynamic_days" validate:"min=0"`
}

// URLsConfig points at the static URL list.
type URLsConfig struct {
	StaticFile string `mapstructure:"static_file"`
}

// InspectionConfig governs batching and pacing of inspection calls.
type InspectionConfig struct {
	BatchSize int           `mapstructure:"batch_size" validate:"min=1"`
	Delay     time.Duration `mapstructure:"delay" validate:"min=0"`
}

// AuthConfig locates the service-account key.
type AuthConfig struct {
	CredentialsJSON string `mapstructure:"credentials_json"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// SheetsConfig controls the spreadsheet sink.
type SheetsConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	SheetName string   `mapstructure:"sheet_name" validate:"required_if=Enabled true"`
	ShareWith []string `mapstructure:"share_with" validate:"dive,email"`
}

// OutputConfig controls the local fallback artifact.
type OutputConfig struct {
	Dir    string `mapstructure:"dir" validate:"required"`
	Format string `mapstructure:"format" validate:"oneof=csv parquet"`
}

// StorageConfig enables mirroring the local artifact to GCS.
type StorageConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for the run summary notification.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id" validate:"required_with=TopicName"`
	TopicName string `mapstructure:"topic_name" validate:"required_with=ProjectID"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// LoggingConfig toggles zap development features and file rotation.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" validate:"min=1"`
	MaxBackups  int    `mapstructure:"max_backups" validate:"min=0"`
}

// RunConfig holds per-invocation switches.
type RunConfig struct {
	Timezone string `mapstructure:"timezone"`
	DryRun   bool   `mapstructure:"dry_run"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INSPECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindLegacyEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if !strings.HasSuffix(cfg.Site.URL, "/") {
		cfg.Site.URL += "/"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.url", "https://wordsolverx.com/")
	v.SetDefault("site.domain", "wordsolverx.com")
	v.SetDefault("site.slug", "wordsolverx")
	v.SetDefault("site.games", []string{"wordle", "quordle", "colordle", "semantle", "phoodle"})
	v.SetDefault("site.dynamic_days", 7)
	v.SetDefault("urls.static_file", "pages.txt")
	v.SetDefault("inspection.batch_size", 5)
	v.SetDefault("inspection.delay", "1s")
	v.SetDefault("auth.credentials_json", "")
	v.SetDefault("auth.credentials_file", "credentials.json")
	v.SetDefault("sheets.enabled", true)
	v.SetDefault("sheets.sheet_name", "Sheet1")
	v.SetDefault("sheets.share_with", []string{})
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.format", "csv")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "inspections")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("run.timezone", "UTC")
	v.SetDefault("run.dry_run", false)
}

// bindLegacyEnv keeps the variable names used by existing scheduler jobs.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("auth.credentials_json", "INSPECTOR_AUTH_CREDENTIALS_JSON", "GOOGLE_CREDENTIALS")
	_ = v.BindEnv("run.dry_run", "INSPECTOR_RUN_DRY_RUN", "DRY_RUN")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			key := strings.TrimPrefix(fe.Namespace(), "Config.")
			return fmt.Errorf("%s failed %q validation (value %v)", key, fe.Tag(), fe.Value())
		}
		return fmt.Errorf("validate config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("run.timezone: %w", err)
	}
	return nil
}

// Location resolves run.timezone. An empty value means UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Run.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Run.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", c.Run.Timezone, err)
	}
	return loc, nil
}

// PubSubEnabled reports whether a run summary should be published.
func (c Config) PubSubEnabled() bool {
	return c.PubSub.ProjectID != "" && c.PubSub.TopicName != ""
}
