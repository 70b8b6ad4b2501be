package analyzer

import (
	"fmt"
	"sync"

	"github.com/anime-shed/channel-engine/pkg/models"
)

// engine implements Engine and orchestrates all components
type engine struct {
	opts       EngineOptions
	workerPool *WorkerPool
	statistics *statisticsCalculator
	background BackgroundLocator
	reference  ReferenceSelector
	mix        MixSynthesizer
	stretch    StretchCalculator
}

// NewEngine creates a decision engine with all components
func NewEngine(opts EngineOptions) (Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine options: %w", err)
	}

	workerPool := NewWorkerPool(opts.MaxWorkers)
	workerPool.Start()

	return &engine{
		opts:       opts,
		workerPool: workerPool,
		statistics: newStatisticsCalculator(opts),
		background: NewBackgroundLocator(opts),
		reference:  NewReferenceSelector(),
		mix:        NewMixSynthesizer(opts),
		stretch:    NewStretchCalculator(opts),
	}, nil
}

func (e *engine) ComputeStatistics(samples []float64) models.RobustStatistics {
	return e.statistics.Compute(samples)
}

// ComputeAll computes statistics for independent channel buffers on the
// worker pool. Jobs run inline once the pool is closed.
func (e *engine) ComputeAll(buffers map[string][]float64) map[string]models.RobustStatistics {
	results := make(map[string]models.RobustStatistics, len(buffers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for id, samples := range buffers {
		job := func() {
			defer wg.Done()
			s := e.statistics.Compute(samples)
			mu.Lock()
			results[id] = s
			mu.Unlock()
		}
		wg.Add(1)
		if !e.workerPool.Submit(job) {
			job()
		}
	}

	wg.Wait()
	return results
}

func (e *engine) StatisticsFromFields(fields map[string]float64) models.RobustStatistics {
	return e.statistics.FromFields(fields)
}

func (e *engine) FindBackgroundRegion(plane models.Plane, regionWidth, regionHeight int) (models.Region, error) {
	result, err := e.background.Locate(plane, regionWidth, regionHeight)
	if err != nil {
		return models.Region{}, err
	}
	return result.Region, nil
}

func (e *engine) LocateBackground(plane models.Plane, regionWidth, regionHeight int) (models.BackgroundResult, error) {
	return e.background.Locate(plane, regionWidth, regionHeight)
}

func (e *engine) RankChannels(records []models.ChannelRecord) (models.ReferenceRanking, error) {
	return e.reference.Rank(records)
}

func (e *engine) SelectReference(records []models.ChannelRecord, policy models.ReferencePolicy) (models.ChannelRecord, error) {
	return e.reference.Select(records, policy)
}

func (e *engine) SynthesizeMix(mapping models.ChannelMapping, strengths map[string]float64) models.MixExpressions {
	return e.mix.Synthesize(mapping, strengths)
}

func (e *engine) ComputeStretch(stats []models.RobustStatistics, linked bool) models.StretchParameters {
	return e.stretch.Compute(stats, linked)
}

func (e *engine) Options() EngineOptions {
	return e.opts
}

// PoolStats exposes the worker pool counters
func (e *engine) PoolStats() WorkerPoolStats {
	return e.workerPool.GetStats()
}

// Close releases the worker pool
func (e *engine) Close() error {
	if e.workerPool != nil {
		e.workerPool.Close()
	}
	return nil
}
