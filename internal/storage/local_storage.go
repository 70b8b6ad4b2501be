package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/anime-shed/channel-engine/internal/errors"
)

// LocalImageFetcher reads images from a directory tree. Sources are
// file://path or bare paths relative to the root.
type LocalImageFetcher struct {
	root string
}

// NewLocalImageFetcher confines reads to root
func NewLocalImageFetcher(root string) (*LocalImageFetcher, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local source root is not configured")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid local source root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("local source root unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local source root is not a directory: %s", abs)
	}
	return &LocalImageFetcher{root: abs}, nil
}

// Resolve maps a source onto a path under the root
func (l *LocalImageFetcher) Resolve(source string) (string, error) {
	rel := strings.TrimPrefix(source, "file://")
	rel = strings.TrimLeft(filepath.FromSlash(rel), string(filepath.Separator))
	if rel == "" {
		return "", fmt.Errorf("empty local source")
	}

	path := filepath.Join(l.root, rel)
	within, err := filepath.Rel(l.root, path)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("local source escapes root: %q", source)
	}
	return path, nil
}

func (l *LocalImageFetcher) FetchImage(ctx context.Context, source string) (image.Image, error) {
	path, err := l.Resolve(source)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid local source", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("source fetch cancelled", err)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("local source not found", err)
		}
		return nil, apperrors.NewInternalError("failed to open local source", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to decode image", err)
	}
	return img, nil
}
