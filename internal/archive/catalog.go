package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/glue"
)

type GlueAPI interface {
	GetTable(ctx context.Context, params *glue.GetTableInput, optFns ...func(*glue.Options)) (*glue.GetTableOutput, error)
}

type AthenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

// Catalog is the Glue table over the snapshot prefix.
type Catalog struct {
	Glue      GlueAPI
	Athena    AthenaAPI
	Database  string
	Table     string
	Workgroup string // default "primary"
	Output    string // s3://bucket/prefix/ for query results

	PollInterval time.Duration // default 2s
	Timeout      time.Duration // default 60s
}

// Verify checks that the table has every snapshot column and is
// partitioned by dt.
func (c *Catalog) Verify(ctx context.Context) error {
	out, err := c.Glue.GetTable(ctx, &glue.GetTableInput{
		DatabaseName: aws.String(c.Database),
		Name:         aws.String(c.Table),
	})
	if err != nil {
		return fmt.Errorf("glue GetTable %s.%s: %w", c.Database, c.Table, err)
	}
	if out.Table == nil || out.Table.StorageDescriptor == nil {
		return fmt.Errorf("glue table %s.%s has no storage descriptor", c.Database, c.Table)
	}

	have := map[string]bool{}
	for _, col := range out.Table.StorageDescriptor.Columns {
		have[strings.ToLower(aws.ToString(col.Name))] = true
	}
	var missing []string
	for _, name := range Columns {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("glue table %s.%s is missing columns: %s", c.Database, c.Table, strings.Join(missing, ", "))
	}

	for _, pk := range out.Table.PartitionKeys {
		if strings.EqualFold(aws.ToString(pk.Name), PartitionKey) {
			return nil
		}
	}
	return fmt.Errorf("glue table %s.%s is not partitioned by %s", c.Database, c.Table, PartitionKey)
}

// Repair runs MSCK REPAIR TABLE and waits for it. It returns the query id.
func (c *Catalog) Repair(ctx context.Context) (string, error) {
	workgroup := c.Workgroup
	if workgroup == "" {
		workgroup = "primary"
	}
	poll := c.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	startOut, err := c.Athena.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(fmt.Sprintf("MSCK REPAIR TABLE %s;", c.Table)),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(c.Database),
		},
		WorkGroup: aws.String(workgroup),
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: aws.String(c.Output),
		},
	})
	if err != nil {
		return "", fmt.Errorf("athena StartQueryExecution: %w", err)
	}
	qid := aws.ToString(startOut.QueryExecutionId)

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		st, err := c.Athena.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(qid),
		})
		if err != nil {
			return qid, fmt.Errorf("athena GetQueryExecution: %w", err)
		}
		switch st.QueryExecution.Status.State {
		case athenatypes.QueryExecutionStateSucceeded:
			return qid, nil
		case athenatypes.QueryExecutionStateFailed, athenatypes.QueryExecutionStateCancelled:
			reason := aws.ToString(st.QueryExecution.Status.StateChangeReason)
			return qid, fmt.Errorf("repair %s: %s", st.QueryExecution.Status.State, reason)
		}

		select {
		case <-ctx.Done():
			return qid, ctx.Err()
		case <-time.After(poll):
		}
	}
	return qid, fmt.Errorf("repair timed out waiting for qid=%s", qid)
}
