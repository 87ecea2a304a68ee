package sink

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAzure struct {
	container string
	blob      string
	data      []byte
	opts      *azblob.UploadBufferOptions
	err       error
}

func (f *fakeAzure) UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	f.container, f.blob, f.data, f.opts = containerName, blobName, buffer, o
	return azblob.UploadBufferResponse{}, f.err
}

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestAzureBlob_UploadOverwrite(t *testing.T) {
	fake := &fakeAzure{}
	s := NewAzureBlob(fake)

	err := s.Upload(context.Background(), "reports", BlobName, []byte(`[]`), true)
	require.NoError(t, err)

	assert.Equal(t, "reports", fake.container)
	assert.Equal(t, "ga4_data.json", fake.blob)
	assert.Equal(t, `[]`, string(fake.data))
	require.NotNil(t, fake.opts.HTTPHeaders)
	assert.Equal(t, "application/json", *fake.opts.HTTPHeaders.BlobContentType)
	assert.Nil(t, fake.opts.AccessConditions)
}

func TestAzureBlob_UploadNoOverwrite(t *testing.T) {
	fake := &fakeAzure{}
	s := NewAzureBlob(fake)

	require.NoError(t, s.Upload(context.Background(), "reports", BlobName, []byte(`[]`), false))

	require.NotNil(t, fake.opts.AccessConditions)
	require.NotNil(t, fake.opts.AccessConditions.ModifiedAccessConditions)
	assert.Equal(t, azcore.ETagAny, *fake.opts.AccessConditions.ModifiedAccessConditions.IfNoneMatch)
}

func TestAzureBlob_UploadError(t *testing.T) {
	s := NewAzureBlob(&fakeAzure{err: errors.New("403 AuthorizationFailure")})

	err := s.Upload(context.Background(), "reports", BlobName, []byte(`[]`), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reports/ga4_data.json")
	assert.Contains(t, err.Error(), "AuthorizationFailure")
}

func TestNewAzureBlobFromConnectionString(t *testing.T) {
	_, err := NewAzureBlobFromConnectionString("  ")
	assert.Error(t, err)

	s, err := NewAzureBlobFromConnectionString("DefaultEndpointsProtocol=https;AccountName=testaccount;AccountKey=dGVzdGtleQ==;EndpointSuffix=core.windows.net")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestS3_Upload(t *testing.T) {
	fake := &fakeS3{}
	s := NewS3(fake)

	require.NoError(t, s.Upload(context.Background(), "bucket", BlobName, []byte(`[{"campaignId":"c1"}]`), true))

	assert.Equal(t, "bucket", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "ga4_data.json", aws.ToString(fake.in.Key))
	assert.Equal(t, "application/json", aws.ToString(fake.in.ContentType))
	assert.Nil(t, fake.in.IfNoneMatch)
	assert.Equal(t, `[{"campaignId":"c1"}]`, string(fake.body))
}

func TestS3_UploadNoOverwrite(t *testing.T) {
	fake := &fakeS3{}
	require.NoError(t, NewS3(fake).Upload(context.Background(), "bucket", BlobName, []byte(`[]`), false))
	assert.Equal(t, "*", aws.ToString(fake.in.IfNoneMatch))
}

func TestS3_UploadError(t *testing.T) {
	err := NewS3(&fakeS3{err: errors.New("NoSuchBucket")}).Upload(context.Background(), "bucket", BlobName, nil, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 putobject bucket/ga4_data.json")
}

func TestNew(t *testing.T) {
	u, err := New(Options{Provider: "S3", S3Client: &fakeS3{}})
	require.NoError(t, err)
	assert.IsType(t, &S3{}, u)

	_, err = New(Options{Provider: "s3"})
	assert.Error(t, err)

	_, err = New(Options{Provider: "gcs"})
	assert.Error(t, err)

	_, err = New(Options{Provider: "azure"})
	assert.Error(t, err)
}
