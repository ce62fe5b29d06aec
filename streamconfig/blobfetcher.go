package streamconfig

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// BlobClient abstracts the Azure blob download operation to enable testing
// with fakes
type BlobClient interface {
	DownloadStream(ctx context.Context, options *blob.DownloadStreamOptions) (blob.DownloadStreamResponse, error)
}

// BlobFetcher loads a stream config snapshot JSON blob from Azure blob
// storage. Snapshots always contain the full document, so the requested
// stream names are ignored; every fetch downloads the current snapshot.
type BlobFetcher struct {
	client   BlobClient
	blobName string
}

// NewBlobFetcher creates a BlobFetcher for a snapshot blob using shared key
// credentials
func NewBlobFetcher(accountName, accessKey, containerName, blobName string) (*BlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	blobClient := client.ServiceClient().NewContainerClient(containerName).NewBlobClient(blobName)
	return NewBlobFetcherWithClient(blobClient, blobName), nil
}

// NewBlobFetcherWithClient creates a BlobFetcher with an injected blob
// client, used by tests and callers that manage their own Azure clients
func NewBlobFetcherWithClient(client BlobClient, blobName string) *BlobFetcher {
	return &BlobFetcher{
		client:   client,
		blobName: blobName,
	}
}

// Fetch downloads and parses the current stream config snapshot
func (f *BlobFetcher) Fetch(ctx context.Context, streamNames []string) (Document, error) {
	response, err := f.client.DownloadStream(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download stream config blob %s: %w", f.blobName, err)
	}
	defer response.Body.Close()

	return decodeDocument(response.Body, f.blobName)
}
