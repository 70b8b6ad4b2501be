package analyzer

import (
	"errors"

	"github.com/anime-shed/channel-engine/pkg/models"
)

// Aliases to the shared models so callers of this package need not import both.
type (
	RobustStatistics = models.RobustStatistics
	ChannelRecord    = models.ChannelRecord
	Region           = models.Region
)

var (
	// ErrInvalidInput marks missing or structurally malformed channel data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidRegionSize marks a search region that does not fit the image.
	ErrInvalidRegionSize = errors.New("invalid region size")
	// ErrNoEligibleChannel marks a reference selection with no finite delta.
	ErrNoEligibleChannel = errors.New("no eligible channel")
)

// robustSpread holds the center and spread of a buffer
type robustSpread struct {
	median, mad float64
	ok          bool
}
