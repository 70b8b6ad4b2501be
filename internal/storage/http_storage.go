package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	apperrors "github.com/anime-shed/channel-engine/internal/errors"
)

// ImageFetcher retrieves a decoded image from a source location
type ImageFetcher interface {
	FetchImage(ctx context.Context, source string) (image.Image, error)
}

// HTTPImageFetcher implements ImageFetcher for http(s) sources
type HTTPImageFetcher struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
}

// NewHTTPImageFetcher creates an HTTP image fetcher with the given overall timeout
func NewHTTPImageFetcher(timeout time.Duration) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Masters are large single downloads; keep the idle pool small
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		attempts: 3,
		backoff:  time.Second,
	}
}

// WithBackoff sets the base delay between retries; attempt n waits n*backoff
func (h *HTTPImageFetcher) WithBackoff(backoff time.Duration) *HTTPImageFetcher {
	h.backoff = backoff
	return h
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, source string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid source URL", err)
	}

	req.Header.Set("Accept", "image/tiff, image/png, image/jpeg, image/gif, */*")
	req.Header.Set("User-Agent", "Channel-Engine/1.0")

	// Retry only transient failures: transport errors and 5xx
	var resp *http.Response
	var lastErr error
	var lastStatus int

	for attempt := 0; attempt < h.attempts; attempt++ {
		resp, err = h.client.Do(req)
		if err != nil {
			lastErr = err
			resp = nil
		} else if resp.StatusCode == http.StatusOK {
			break
		} else {
			resp.Body.Close()
			lastStatus = resp.StatusCode
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				lastErr = fmt.Errorf("client error: status code %d", resp.StatusCode)
				resp = nil
				break
			}
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
			resp = nil
		}

		if attempt < h.attempts-1 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("source fetch cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt+1) * h.backoff):
			}
		}
	}

	if resp == nil {
		message := fmt.Sprintf("failed to fetch source after %d attempts", h.attempts)
		switch {
		case lastStatus == http.StatusNotFound:
			return nil, apperrors.NewNotFoundError("source not found", lastErr)
		case errors.Is(lastErr, context.DeadlineExceeded):
			return nil, apperrors.NewTimeoutError(message, lastErr)
		case lastErr == nil:
			return nil, apperrors.NewNetworkError(message, errors.New("unknown error"))
		default:
			return nil, apperrors.NewNetworkError(message, lastErr)
		}
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to decode image", err)
	}
	return img, nil
}
