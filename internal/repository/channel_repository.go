package repository

import (
	"context"
	"fmt"

	apperrors "github.com/anime-shed/channel-engine/internal/errors"
	"github.com/anime-shed/channel-engine/internal/logger"
	"github.com/anime-shed/channel-engine/internal/storage"
	"github.com/anime-shed/channel-engine/pkg/models"
	"github.com/anime-shed/channel-engine/pkg/validation"
	"github.com/sirupsen/logrus"
)

// SourceChannelRepository implements ChannelRepository over the configured fetchers
type SourceChannelRepository struct {
	fetchers  map[validation.SourceKind]storage.ImageFetcher
	validator *validation.SourceValidator
}

// NewSourceChannelRepository creates a repository; kinds without a fetcher are rejected
func NewSourceChannelRepository(fetchers map[validation.SourceKind]storage.ImageFetcher, validator *validation.SourceValidator) ChannelRepository {
	if validator == nil {
		validator = validation.NewSourceValidator()
	}
	return &SourceChannelRepository{
		fetchers:  fetchers,
		validator: validator,
	}
}

// LoadChannel prefers inline samples, then the source; statistics fields are
// carried alongside either.
func (r *SourceChannelRepository) LoadChannel(ctx context.Context, input models.ChannelInput) (models.ChannelData, error) {
	data := models.ChannelData{
		ID:     input.ID,
		Source: input.Source,
		Fields: input.Statistics,
	}

	switch {
	case len(input.Samples) > 0:
		plane := &models.Plane{Width: input.Width, Height: input.Height, Samples: input.Samples}
		if !plane.Consistent() {
			return models.ChannelData{}, apperrors.NewInvalidInputError(
				fmt.Sprintf("channel %s: %d samples for %dx%d", input.ID, len(input.Samples), input.Width, input.Height),
				ErrInconsistentSamples)
		}
		data.Plane = plane
	case input.Source != "":
		plane, err := r.fetchPlane(ctx, input)
		if err != nil {
			return models.ChannelData{}, err
		}
		data.Plane = plane
	case len(input.Statistics) == 0:
		return models.ChannelData{}, apperrors.NewInvalidInputError(
			fmt.Sprintf("channel %s has no samples, source or statistics", input.ID), ErrNoChannelData)
	}

	return data, nil
}

func (r *SourceChannelRepository) fetchPlane(ctx context.Context, input models.ChannelInput) (*models.Plane, error) {
	kind, err := r.validator.ValidateSource(input.Source)
	if err != nil {
		return nil, err
	}
	fetcher, ok := r.fetchers[kind]
	if !ok || fetcher == nil {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("%s sources are not enabled", kind), ErrSourceBackendDisabled)
	}

	img, err := fetcher.FetchImage(ctx, input.Source)
	if err != nil {
		return nil, err
	}

	plane, err := storage.ExtractPlane(img, input.ChannelIndex)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("channel %s", input.ID), err)
	}

	logger.WithComponent("repository").WithFields(logrus.Fields{
		"channel": input.ID,
		"source":  input.Source,
		"kind":    kind,
		"width":   plane.Width,
		"height":  plane.Height,
	}).Debug("Channel plane loaded")
	return plane, nil
}

// ValidateSource validates if the provided source is acceptable
func (r *SourceChannelRepository) ValidateSource(source string) error {
	_, err := r.validator.ValidateSource(source)
	return err
}
