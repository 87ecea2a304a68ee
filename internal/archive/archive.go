package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"ga4export/internal/report"
)

const DefaultPrefix = "ga4_snapshots/"

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver keeps a Parquet copy of every export under
//
//	<prefix>dt=YYYY-MM-DD/part-<HHMMSS>-<rand>.parquet
//
// so the history can be queried with Athena. The blob document itself is
// overwritten on every run.
type Archiver struct {
	s3      S3API
	bucket  string
	prefix  string
	catalog *Catalog
}

// New returns nil when bucket is empty. catalog may be nil.
func New(client S3API, bucket, prefix string, catalog *Catalog) *Archiver {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil
	}
	return &Archiver{s3: client, bucket: bucket, prefix: ensureTrailingSlash(prefix), catalog: catalog}
}

// Key is the object key of a snapshot taken at the given time.
func (a *Archiver) Key(at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("%s%s=%s/part-%s-%s.parquet",
		a.prefix, PartitionKey, at.Format("2006-01-02"), at.Format("150405"), randHex(4))
}

// Write stores one snapshot and returns its s3:// location. When a catalog
// is set the table schema is checked first and partitions are repaired
// after the upload. An empty record set writes nothing.
func (a *Archiver) Write(ctx context.Context, at time.Time, records []*report.Record) (string, error) {
	if a == nil || len(records) == 0 {
		return "", nil
	}

	if a.catalog != nil {
		if err := a.catalog.Verify(ctx); err != nil {
			return "", err
		}
	}

	rows, err := Rows(records, at)
	if err != nil {
		return "", err
	}
	data, err := EncodeParquet(rows)
	if err != nil {
		return "", err
	}

	key := a.Key(at)
	_, err = a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		ACL:         s3types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("s3 putobject %s/%s: %w", a.bucket, key, err)
	}
	location := "s3://" + a.bucket + "/" + key

	if a.catalog != nil {
		if _, err := a.catalog.Repair(ctx); err != nil {
			return location, err
		}
	}
	return location, nil
}

func ensureTrailingSlash(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
