package repository

import (
	"context"

	"github.com/anime-shed/channel-engine/pkg/models"
)

// ChannelRepository defines the interface for channel data access operations
type ChannelRepository interface {
	// LoadChannel resolves a channel input into pixel data and/or statistics fields
	LoadChannel(ctx context.Context, input models.ChannelInput) (models.ChannelData, error)

	// ValidateSource validates if the provided source is acceptable
	ValidateSource(source string) error
}
