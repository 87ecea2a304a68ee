package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServiceEnvironment string `envconfig:"SERVICE_ENVIRONMENT" default:"production"`

	// GA4
	PropertyID           string `envconfig:"GA4_PROPERTY_ID" required:"true"`
	StartDate            string `envconfig:"GA4_START_DATE" default:"2024-01-01"`
	CredentialsJSON      string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS_JSON"`
	CredentialsParameter string `envconfig:"GOOGLE_CREDENTIALS_SSM_PARAMETER"`

	// Storage
	SinkProvider     string `envconfig:"SINK_PROVIDER" default:"azure"`
	ConnectionString string `envconfig:"BLOB_CONNECTION_STRING"`
	ContainerName    string `envconfig:"BLOB_CONTAINER_NAME" required:"true"`

	// Optional
	RunsTable     string `envconfig:"EXPORT_RUNS_TABLE"`
	AlertTopicARN string `envconfig:"EXPORT_ALERT_TOPIC_ARN"`

	// Parquet snapshots, queried through Athena
	ArchiveBucket   string `envconfig:"ARCHIVE_BUCKET"`
	ArchivePrefix   string `envconfig:"ARCHIVE_PREFIX" default:"ga4_snapshots/"`
	AthenaDatabase  string `envconfig:"ATHENA_DATABASE"`
	AthenaTable     string `envconfig:"ATHENA_TABLE"`
	AthenaWorkgroup string `envconfig:"ATHENA_WORKGROUP" default:"primary"`
	AthenaOutput    string `envconfig:"ATHENA_OUTPUT"`

	RunOnStartup bool   `envconfig:"RUN_ON_STARTUP" default:"true"`
	HandlerPort  string `envconfig:"FUNCTIONS_CUSTOMHANDLER_PORT" default:"8080"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.PropertyID = strings.TrimSpace(c.PropertyID)
	c.ContainerName = strings.TrimSpace(c.ContainerName)
	c.SinkProvider = strings.ToLower(strings.TrimSpace(c.SinkProvider))

	if c.PropertyID == "" {
		return fmt.Errorf("missing env GA4_PROPERTY_ID")
	}
	if c.ContainerName == "" {
		return fmt.Errorf("missing env BLOB_CONTAINER_NAME")
	}
	if _, err := time.Parse("2006-01-02", c.StartDate); err != nil {
		return fmt.Errorf("invalid GA4_START_DATE %q: want YYYY-MM-DD", c.StartDate)
	}
	if strings.TrimSpace(c.CredentialsJSON) == "" && strings.TrimSpace(c.CredentialsParameter) == "" {
		return fmt.Errorf("missing env GOOGLE_APPLICATION_CREDENTIALS_JSON (or GOOGLE_CREDENTIALS_SSM_PARAMETER)")
	}

	switch c.SinkProvider {
	case "azure":
		if strings.TrimSpace(c.ConnectionString) == "" {
			return fmt.Errorf("missing env BLOB_CONNECTION_STRING")
		}
	case "s3":
	default:
		return fmt.Errorf("invalid SINK_PROVIDER %q: want azure or s3", c.SinkProvider)
	}

	if c.CatalogEnabled() {
		if strings.TrimSpace(c.ArchiveBucket) == "" {
			return fmt.Errorf("ATHENA_TABLE is set but ARCHIVE_BUCKET is empty")
		}
		if strings.TrimSpace(c.AthenaDatabase) == "" {
			return fmt.Errorf("missing env ATHENA_DATABASE")
		}
		if !strings.HasPrefix(strings.TrimSpace(c.AthenaOutput), "s3://") {
			return fmt.Errorf("ATHENA_OUTPUT must start with s3://")
		}
	}
	return nil
}

// CatalogEnabled reports whether snapshot partitions are kept in Glue.
func (c *Config) CatalogEnabled() bool {
	return strings.TrimSpace(c.AthenaTable) != ""
}

// NeedsAWS reports whether any configured component talks to AWS.
func (c *Config) NeedsAWS() bool {
	return c.SinkProvider == "s3" ||
		(strings.TrimSpace(c.CredentialsJSON) == "" && strings.TrimSpace(c.CredentialsParameter) != "") ||
		strings.TrimSpace(c.RunsTable) != "" ||
		strings.TrimSpace(c.AlertTopicARN) != "" ||
		strings.TrimSpace(c.ArchiveBucket) != ""
}
