package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	apperrors "github.com/anime-shed/channel-engine/internal/errors"
)

// BlobScheme is the source scheme served by the Azure fetcher
const BlobScheme = "azblob"

type azureStorage struct {
	client *azblob.Client
}

// NewAzureStorage creates a blob-backed ImageFetcher for azblob://container/blob sources
func NewAzureStorage(accountName string, accountKey string) (ImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &azureStorage{client: client}, nil
}

// ParseBlobSource splits azblob://container/path/to/blob into container and blob names
func ParseBlobSource(source string) (container, blob string, err error) {
	parsed, err := url.Parse(source)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob source: %w", err)
	}
	if parsed.Scheme != BlobScheme {
		return "", "", fmt.Errorf("blob source must use %s:// (got %q)", BlobScheme, parsed.Scheme)
	}
	container = parsed.Host
	blob = strings.TrimPrefix(parsed.Path, "/")
	if container == "" || blob == "" {
		return "", "", fmt.Errorf("blob source must name a container and a blob: %q", source)
	}
	return container, blob, nil
}

func (s *azureStorage) FetchImage(ctx context.Context, source string) (image.Image, error) {
	containerName, blobName, err := ParseBlobSource(source)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid blob source", err)
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, apperrors.NewNotFoundError("blob not found", err)
		}
		return nil, apperrors.NewNetworkError("blob download failed", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	img, _, err := image.Decode(retryReader)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to decode blob image", err)
	}
	return img, nil
}
