package etl

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"ga4export/internal/archive"
	"ga4export/internal/config"
	"ga4export/internal/ga4"
	"ga4export/internal/notify"
	"ga4export/internal/runlog"
	"ga4export/internal/secrets"
	"ga4export/internal/sink"
)

// NewClients is the production ClientFactory. It re-reads credentials and
// reconnects on every call; nothing is cached between runs.
func NewClients(ctx context.Context, cfg *config.Config) (*Clients, error) {
	var awsCfg aws.Config
	if cfg.NeedsAWS() {
		c, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = c
	}

	var ssmClient secrets.SSMClient
	if strings.TrimSpace(cfg.CredentialsJSON) == "" {
		ssmClient = ssm.NewFromConfig(awsCfg)
	}
	creds, err := secrets.ServiceAccountJSON(ctx, ssmClient, cfg.CredentialsJSON, cfg.CredentialsParameter)
	if err != nil {
		return nil, err
	}

	src, err := ga4.NewClient(ctx, cfg.PropertyID, creds)
	if err != nil {
		return nil, err
	}

	opt := sink.Options{
		Provider:         cfg.SinkProvider,
		ConnectionString: cfg.ConnectionString,
	}
	if cfg.SinkProvider == sink.ProviderS3 {
		opt.S3Client = s3.NewFromConfig(awsCfg)
	}
	snk, err := sink.New(opt)
	if err != nil {
		return nil, err
	}

	clients := &Clients{Source: src, Sink: snk}
	if strings.TrimSpace(cfg.RunsTable) != "" {
		clients.Runs = runlog.New(dynamodb.NewFromConfig(awsCfg), cfg.RunsTable)
	}
	if strings.TrimSpace(cfg.AlertTopicARN) != "" {
		clients.Alerts = notify.New(sns.NewFromConfig(awsCfg), cfg.AlertTopicARN)
	}
	if strings.TrimSpace(cfg.ArchiveBucket) != "" {
		clients.Archive = newArchiver(awsCfg, cfg)
	}
	return clients, nil
}

func newArchiver(awsCfg aws.Config, cfg *config.Config) *archive.Archiver {
	var catalog *archive.Catalog
	if cfg.CatalogEnabled() {
		catalog = &archive.Catalog{
			Glue:      glue.NewFromConfig(awsCfg),
			Athena:    athena.NewFromConfig(awsCfg),
			Database:  cfg.AthenaDatabase,
			Table:     cfg.AthenaTable,
			Workgroup: cfg.AthenaWorkgroup,
			Output:    cfg.AthenaOutput,
		}
	}
	return archive.New(s3.NewFromConfig(awsCfg), cfg.ArchiveBucket, cfg.ArchivePrefix, catalog)
}

func newAlerter(ctx context.Context, cfg *config.Config) (Alerter, error) {
	if strings.TrimSpace(cfg.AlertTopicARN) == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return notify.New(sns.NewFromConfig(awsCfg), cfg.AlertTopicARN), nil
}
