package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type SNSClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Alerts publishes export failures to an SNS topic.
type Alerts struct {
	sns      SNSClient
	topicArn string
}

// New returns nil when topicArn is empty; a nil *Alerts sends nothing.
func New(c SNSClient, topicArn string) *Alerts {
	topicArn = strings.TrimSpace(topicArn)
	if topicArn == "" || c == nil {
		return nil
	}
	return &Alerts{sns: c, topicArn: topicArn}
}

func (a *Alerts) ExportFailed(ctx context.Context, at time.Time, trigger string, cause error) error {
	if a == nil || cause == nil {
		return nil
	}
	msg := fmt.Sprintf("GA4 export failed\n\ntrigger: %s\ntime: %s\nerror: %v\n",
		trigger, at.UTC().Format(time.RFC3339), cause)

	_, err := a.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicArn),
		Subject:  aws.String("ga4 export failed"),
		Message:  aws.String(msg),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
