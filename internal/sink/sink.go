package sink

import (
	"context"
	"fmt"
	"strings"
)

// BlobName is the fixed object name of the exported document.
const BlobName = "ga4_data.json"

const (
	ProviderAzure = "azure"
	ProviderS3    = "s3"
)

const contentTypeJSON = "application/json"

// Uploader writes one named object into a container (bucket).
type Uploader interface {
	Upload(ctx context.Context, container, blob string, data []byte, overwrite bool) error
}

// Options selects and configures the storage provider.
type Options struct {
	Provider         string
	ConnectionString string // azure only

	// S3Client is required when Provider is s3.
	S3Client S3API
}

func New(opt Options) (Uploader, error) {
	switch strings.ToLower(strings.TrimSpace(opt.Provider)) {
	case "", ProviderAzure:
		az, err := NewAzureBlobFromConnectionString(opt.ConnectionString)
		if err != nil {
			return nil, err
		}
		return az, nil
	case ProviderS3:
		if opt.S3Client == nil {
			return nil, fmt.Errorf("s3 sink: missing client")
		}
		return NewS3(opt.S3Client), nil
	default:
		return nil, fmt.Errorf("unknown sink provider %q", opt.Provider)
	}
}
