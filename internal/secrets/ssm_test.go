package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	in    *ssm.GetParameterInput
	value *string
	err   error
	calls int
}

func (f *fakeSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	f.in = params
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: f.value}}, nil
}

func TestServiceAccountJSON_InlineWins(t *testing.T) {
	f := &fakeSSM{value: aws.String(`{"from":"ssm"}`)}

	b, err := ServiceAccountJSON(context.Background(), f, `{"from":"env"}`, "/p")
	require.NoError(t, err)
	assert.Equal(t, `{"from":"env"}`, string(b))
	assert.Equal(t, 0, f.calls)
}

func TestServiceAccountJSON_FromParameter(t *testing.T) {
	f := &fakeSSM{value: aws.String(`{"from":"ssm"}`)}

	b, err := ServiceAccountJSON(context.Background(), f, "", "/ga4export/sa")
	require.NoError(t, err)
	assert.Equal(t, `{"from":"ssm"}`, string(b))
	assert.Equal(t, "/ga4export/sa", aws.ToString(f.in.Name))
	assert.True(t, aws.ToBool(f.in.WithDecryption))
}

func TestServiceAccountJSON_Errors(t *testing.T) {
	_, err := ServiceAccountJSON(context.Background(), nil, "", "/p")
	assert.Error(t, err)

	_, err = ServiceAccountJSON(context.Background(), &fakeSSM{err: errors.New("ParameterNotFound")}, "", "/p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ParameterNotFound")

	_, err = ServiceAccountJSON(context.Background(), &fakeSSM{value: aws.String(" ")}, "", "/p")
	assert.Error(t, err)

	_, err = GetParameter(context.Background(), &fakeSSM{}, "")
	assert.Error(t, err)
}
