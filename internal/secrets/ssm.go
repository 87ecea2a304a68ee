package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// GetParameter reads a (SecureString) parameter, decrypted.
func GetParameter(ctx context.Context, c SSMClient, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty ssm parameter name")
	}
	out, err := c.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm GetParameter %s: %w", name, err)
	}
	if out.Parameter == nil || strings.TrimSpace(aws.ToString(out.Parameter.Value)) == "" {
		return "", fmt.Errorf("ssm parameter %s is empty", name)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// ServiceAccountJSON returns the inline credentials when present, otherwise
// the value of the SSM parameter.
func ServiceAccountJSON(ctx context.Context, c SSMClient, inline, parameter string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if c == nil {
		return nil, fmt.Errorf("no ssm client for parameter %s", parameter)
	}
	v, err := GetParameter(ctx, c, parameter)
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}
