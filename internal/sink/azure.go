package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureBlobAPI is the part of *azblob.Client the sink uses.
type AzureBlobAPI interface {
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

type AzureBlob struct {
	client AzureBlobAPI
}

func NewAzureBlob(client AzureBlobAPI) *AzureBlob {
	return &AzureBlob{client: client}
}

// NewAzureBlobFromConnectionString parses a storage account connection
// string (AccountName=...;AccountKey=...;EndpointSuffix=...). No network call
// is made here.
func NewAzureBlobFromConnectionString(connectionString string) (*AzureBlob, error) {
	connectionString = strings.TrimSpace(connectionString)
	if connectionString == "" {
		return nil, fmt.Errorf("azure sink: missing connection string")
	}
	c, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("azure sink: parse connection string: %w", err)
	}
	return NewAzureBlob(c), nil
}

func (s *AzureBlob) Upload(ctx context.Context, container, blobName string, data []byte, overwrite bool) error {
	contentType := contentTypeJSON
	opts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}
	if !overwrite {
		etag := azcore.ETagAny
		opts.AccessConditions = &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{IfNoneMatch: &etag},
		}
	}

	if _, err := s.client.UploadBuffer(ctx, container, blobName, data, opts); err != nil {
		return fmt.Errorf("azure upload %s/%s: %w", container, blobName, err)
	}
	return nil
}
