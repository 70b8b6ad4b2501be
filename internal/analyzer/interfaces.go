package analyzer

import "github.com/anime-shed/channel-engine/pkg/models"

// Engine is the decision engine facade composing all components
type Engine interface {
	// Statistics
	ComputeStatistics(samples []float64) models.RobustStatistics
	ComputeAll(buffers map[string][]float64) map[string]models.RobustStatistics
	StatisticsFromFields(fields map[string]float64) models.RobustStatistics

	// Background region search
	FindBackgroundRegion(plane models.Plane, regionWidth, regionHeight int) (models.Region, error)
	LocateBackground(plane models.Plane, regionWidth, regionHeight int) (models.BackgroundResult, error)

	// Reference selection
	RankChannels(records []models.ChannelRecord) (models.ReferenceRanking, error)
	SelectReference(records []models.ChannelRecord, policy models.ReferencePolicy) (models.ChannelRecord, error)

	// Channel mix and stretch
	SynthesizeMix(mapping models.ChannelMapping, strengths map[string]float64) models.MixExpressions
	ComputeStretch(stats []models.RobustStatistics, linked bool) models.StretchParameters

	Options() EngineOptions
	PoolStats() WorkerPoolStats

	// Lifecycle management
	Close() error
}

// StatisticsCalculator computes robust statistics of sample buffers
type StatisticsCalculator interface {
	Compute(samples []float64) models.RobustStatistics
	FromFields(fields map[string]float64) models.RobustStatistics
}

// BackgroundLocator grid-searches a plane for its most background-like region
type BackgroundLocator interface {
	Locate(plane models.Plane, regionWidth, regionHeight int) (models.BackgroundResult, error)
}

// ReferenceSelector ranks channels by delta and applies a policy
type ReferenceSelector interface {
	Rank(records []models.ChannelRecord) (models.ReferenceRanking, error)
	Select(records []models.ChannelRecord, policy models.ReferencePolicy) (models.ChannelRecord, error)
}

// MixSynthesizer produces channel combination expressions
type MixSynthesizer interface {
	Synthesize(mapping models.ChannelMapping, strengths map[string]float64) models.MixExpressions
	Alpha(ratio float64) float64
}

// StretchCalculator derives auto-stretch parameters from channel statistics
type StretchCalculator interface {
	Compute(stats []models.RobustStatistics, linked bool) models.StretchParameters
}
