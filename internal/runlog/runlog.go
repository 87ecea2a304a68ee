package runlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// keep run items for 30 days (DynamoDB TTL on ExpiresAt)
const retention = 30 * 24 * time.Hour

type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Run is one export attempt.
type Run struct {
	PK         string `dynamodbav:"PK"` // EXPORT#<blob>
	SK         string `dynamodbav:"SK"` // started at, RFC3339Nano
	Trigger    string `dynamodbav:"Trigger"`
	Status     string `dynamodbav:"Status"`
	Container  string `dynamodbav:"Container"`
	Blob       string `dynamodbav:"Blob"`
	Records    int    `dynamodbav:"Records"`
	Bytes      int    `dynamodbav:"Bytes"`
	Error      string `dynamodbav:"Error,omitempty"`
	DurationMs int64  `dynamodbav:"DurationMs"`
	ExpiresAt  int64  `dynamodbav:"ExpiresAt"`
}

type Recorder struct {
	ddb   DDBClient
	table string
}

// New returns nil when table is empty; a nil *Recorder records nothing.
func New(ddb DDBClient, table string) *Recorder {
	table = strings.TrimSpace(table)
	if table == "" || ddb == nil {
		return nil
	}
	return &Recorder{ddb: ddb, table: table}
}

// Record stores one run. Keys and TTL are derived from the start time.
func (r *Recorder) Record(ctx context.Context, started time.Time, run Run) error {
	if r == nil {
		return nil
	}
	run.PK = "EXPORT#" + run.Blob
	run.SK = started.UTC().Format(time.RFC3339Nano)
	run.ExpiresAt = started.UTC().Add(retention).Unix()

	item, err := attributevalue.MarshalMap(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if _, err := r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("runlog PutItem: %w", err)
	}
	return nil
}
