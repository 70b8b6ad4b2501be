package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/anime-shed/channel-engine/internal/analyzer"
	apperrors "github.com/anime-shed/channel-engine/internal/errors"
	"github.com/anime-shed/channel-engine/internal/logger"
	"github.com/anime-shed/channel-engine/internal/observer"
	"github.com/anime-shed/channel-engine/internal/repository"
	"github.com/anime-shed/channel-engine/internal/strategy"
	"github.com/anime-shed/channel-engine/pkg/models"
	"github.com/anime-shed/channel-engine/pkg/validation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DecisionService defines the channel decision operations exposed to callers
type DecisionService interface {
	Statistics(ctx context.Context, req models.StatisticsRequest) (*models.StatisticsResponse, error)
	Background(ctx context.Context, req models.BackgroundRequest) (*models.BackgroundResult, error)
	Reference(ctx context.Context, req models.ReferenceRequest) (*models.ReferenceResponse, error)
	Mix(ctx context.Context, req models.MixRequest) (*models.MixExpressions, error)
	Stretch(ctx context.Context, req models.StretchRequest) (*models.StretchParameters, error)

	// Plan runs the whole pipeline for a channel set
	Plan(ctx context.Context, req models.PlanRequest) (*models.DecisionPlan, error)

	ValidateSource(source string) error
}

// Defaults are applied when a request leaves a setting empty
type Defaults struct {
	RegionWidth  int
	RegionHeight int
	Policy       models.ReferencePolicy
	Palette      string
}

// decisionService implements DecisionService on top of a single engine
type decisionService struct {
	repo      repository.ChannelRepository
	engine    analyzer.Engine
	events    observer.Subject
	validator *validation.ChannelValidator
	defaults  Defaults
}

// NewDecisionService creates a new decision service
func NewDecisionService(
	repo repository.ChannelRepository,
	engine analyzer.Engine,
	events observer.Subject,
	defaults Defaults,
) DecisionService {
	return &decisionService{
		repo:      repo,
		engine:    engine,
		events:    events,
		validator: validation.NewChannelValidator(),
		defaults:  defaults,
	}
}

// Statistics computes robust statistics for every channel in request order
func (s *decisionService) Statistics(ctx context.Context, req models.StatisticsRequest) (*models.StatisticsResponse, error) {
	channels, err := s.loadChannels(ctx, "", req.Channels)
	if err != nil {
		return nil, err
	}
	return &models.StatisticsResponse{Channels: s.computeStatistics(ctx, "", channels)}, nil
}

// Background locates the most background-like region of one channel
func (s *decisionService) Background(ctx context.Context, req models.BackgroundRequest) (*models.BackgroundResult, error) {
	channels, err := s.loadChannels(ctx, "", []models.ChannelInput{req.Channel})
	if err != nil {
		return nil, err
	}
	result, err := s.locateBackground(channels[0], req.RegionWidth, req.RegionHeight)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Reference ranks channels and picks the reference for the requested policy
func (s *decisionService) Reference(ctx context.Context, req models.ReferenceRequest) (*models.ReferenceResponse, error) {
	policy, err := s.policy(req.Policy)
	if err != nil {
		return nil, err
	}

	var records []models.ChannelRecord
	switch {
	case len(req.Records) > 0:
		records = make([]models.ChannelRecord, 0, len(req.Records))
		for _, in := range req.Records {
			records = append(records, recordFromInput(in))
		}
	case len(req.Channels) > 0:
		channels, err := s.loadChannels(ctx, "", req.Channels)
		if err != nil {
			return nil, err
		}
		for _, cs := range s.computeStatistics(ctx, "", channels) {
			records = append(records, cs.Record)
		}
	default:
		return nil, apperrors.NewValidationError("either channels or records are required", nil)
	}

	ranking, err := s.engine.RankChannels(records)
	if err != nil {
		return nil, err
	}
	return &models.ReferenceResponse{
		Policy:    policy,
		Reference: ranking.ForPolicy(policy),
		Ranking:   ranking,
	}, nil
}

// Mix synthesizes combination expressions from per-channel strengths
func (s *decisionService) Mix(ctx context.Context, req models.MixRequest) (*models.MixExpressions, error) {
	mapping, _, _, err := s.mapping(req.Mapping, req.Palette, nil)
	if err != nil {
		return nil, err
	}
	mix := s.engine.SynthesizeMix(mapping, req.Strengths)
	return &mix, nil
}

// Stretch computes auto-stretch parameters; channels are linked unless asked otherwise
func (s *decisionService) Stretch(ctx context.Context, req models.StretchRequest) (*models.StretchParameters, error) {
	channels, err := s.loadChannels(ctx, "", req.Channels)
	if err != nil {
		return nil, err
	}
	linked := true
	if req.Linked != nil {
		linked = *req.Linked
	}
	params := s.engine.ComputeStretch(statisticsOf(s.computeStatistics(ctx, "", channels)), linked)
	return &params, nil
}

// Plan runs load, statistics, reference, mix, background and stretch in turn.
// Only load and request errors fail the plan; later step failures are
// recorded in the plan.
func (s *decisionService) Plan(ctx context.Context, req models.PlanRequest) (*models.DecisionPlan, error) {
	start := time.Now()
	plan := &models.DecisionPlan{
		ID:          uuid.NewString(),
		Timestamp:   start.UTC(),
		StepTimings: make(map[string]float64, 6),
	}
	stepStart := start
	step := func(name string) {
		now := time.Now()
		plan.StepTimings[name] = float64(now.Sub(stepStart).Microseconds()) / 1000
		stepStart = now
	}
	log := logger.WithComponent("service").WithField("plan_id", plan.ID)
	s.publish(ctx, observer.DecisionEvent{EventType: observer.PlanStarted, PlanID: plan.ID})

	fail := func(err error) (*models.DecisionPlan, error) {
		s.publish(ctx, observer.DecisionEvent{
			EventType:      observer.PlanFailed,
			PlanID:         plan.ID,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		log.WithError(err).Warn("Decision plan failed")
		return nil, err
	}

	policy, err := s.policy(req.Policy)
	if err != nil {
		return fail(err)
	}
	plan.Policy = policy

	channels, err := s.loadChannels(ctx, plan.ID, req.Channels)
	if err != nil {
		return fail(err)
	}
	step("load")
	plan.Channels = s.computeStatistics(ctx, plan.ID, channels)
	plan.Warnings = append(plan.Warnings, s.channelWarnings(channels, plan.Channels)...)
	step("statistics")

	// Reference
	records := make([]models.ChannelRecord, len(plan.Channels))
	for i, cs := range plan.Channels {
		records[i] = cs.Record
	}
	ranking, err := s.engine.RankChannels(records)
	switch {
	case err == nil:
		plan.Ranking = &ranking
		plan.Reference = ranking.ForPolicy(policy)
	case apperrors.IsType(err, apperrors.ErrorTypeNoEligibleChannel):
		plan.Reference = records[0]
		plan.ReferenceFallback = true
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("no channel has a finite mean-median delta; using %s as reference", records[0].ID))
	default:
		return fail(err)
	}
	step("reference")
	s.publish(ctx, observer.DecisionEvent{
		EventType: observer.ReferenceSelected,
		PlanID:    plan.ID,
		Channel:   plan.Reference.ID,
		Success:   !plan.ReferenceFallback,
		Metadata:  map[string]interface{}{"policy": policy.String()},
	})

	// Mix
	ids := make([]string, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ID
	}
	mapping, missing, palette, err := s.mapping(req.Mapping, req.Palette, ids)
	if err != nil {
		return fail(err)
	}
	if palette != "" && req.Palette != "" && !strategy.IsKnownPalette(req.Palette) {
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("unknown palette %q, using %s", req.Palette, palette))
	}
	if len(missing) > 0 {
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("mapping references channels not in the request: %s", strings.Join(missing, ", ")))
	}
	plan.Mapping = mapping
	plan.Mix = s.engine.SynthesizeMix(mapping, strengthsOf(plan.Channels))
	step("mix")
	s.publish(ctx, observer.DecisionEvent{
		EventType: observer.MixSynthesized,
		PlanID:    plan.ID,
		Success:   !plan.Mix.PassThrough,
		Metadata: map[string]interface{}{
			"red_alpha":  plan.Mix.RedAlpha,
			"blue_alpha": plan.Mix.BlueAlpha,
		},
	})

	// Background
	if !req.SkipBackground {
		s.planBackground(ctx, plan, channels, req)
		step("background")
	}

	// Stretch
	if !req.SkipStretch {
		stretch := s.engine.ComputeStretch(statisticsOf(plan.Channels), true)
		plan.Stretch = &stretch
		step("stretch")
	}

	elapsed := time.Since(start)
	plan.ProcessingTimeSec = elapsed.Seconds()
	s.publish(ctx, observer.DecisionEvent{
		EventType:      observer.PlanCompleted,
		PlanID:         plan.ID,
		ProcessingTime: elapsed,
		Success:        true,
		Metadata: map[string]interface{}{
			"channels":  len(plan.Channels),
			"reference": plan.Reference.ID,
		},
	})
	log.WithFields(logrus.Fields{
		"channels":  len(plan.Channels),
		"reference": plan.Reference.ID,
		"policy":    policy.String(),
		"elapsed":   elapsed,
	}).Info("Decision plan produced")

	return plan, nil
}

// planBackground runs the background step of a plan, recording failures
func (s *decisionService) planBackground(ctx context.Context, plan *models.DecisionPlan, channels []models.ChannelData, req models.PlanRequest) {
	var target *models.ChannelData
	for i := range channels {
		ch := &channels[i]
		if req.BackgroundChannel != "" {
			if ch.ID == req.BackgroundChannel {
				target = ch
				break
			}
			continue
		}
		if ch.HasPixels() {
			target = ch
			break
		}
	}

	switch {
	case target == nil && req.BackgroundChannel != "":
		plan.Errors = append(plan.Errors, fmt.Sprintf("background: unknown channel %s", req.BackgroundChannel))
		return
	case target == nil:
		plan.Warnings = append(plan.Warnings, "background: no channel carries pixel data")
		return
	}

	plan.BackgroundChannel = target.ID
	result, err := s.locateBackground(*target, req.RegionWidth, req.RegionHeight)
	if err != nil {
		plan.Errors = append(plan.Errors, fmt.Sprintf("background: %v", err))
		return
	}
	plan.Background = &result
	s.publish(ctx, observer.DecisionEvent{
		EventType: observer.BackgroundLocated,
		PlanID:    plan.ID,
		Channel:   target.ID,
		Success:   true,
		Metadata: map[string]interface{}{
			"left":  result.Region.Left,
			"top":   result.Region.Top,
			"score": result.Score,
		},
	})
}

func (s *decisionService) locateBackground(ch models.ChannelData, width, height int) (models.BackgroundResult, error) {
	if !ch.HasPixels() {
		return models.BackgroundResult{}, apperrors.NewInvalidInputError(
			fmt.Sprintf("channel %s has no pixel data", ch.ID), analyzer.ErrInvalidInput)
	}
	if width <= 0 {
		width = s.defaults.RegionWidth
	}
	if height <= 0 {
		height = s.defaults.RegionHeight
	}
	return s.engine.LocateBackground(*ch.Plane, width, height)
}

// loadChannels resolves every input through the repository, rejecting duplicate ids
func (s *decisionService) loadChannels(ctx context.Context, planID string, inputs []models.ChannelInput) ([]models.ChannelData, error) {
	if len(inputs) == 0 {
		return nil, apperrors.NewValidationError("at least one channel is required", nil)
	}

	seen := make(map[string]bool, len(inputs))
	channels := make([]models.ChannelData, 0, len(inputs))
	for _, in := range inputs {
		id := strings.TrimSpace(in.ID)
		if id == "" {
			return nil, apperrors.NewValidationError("channel id is required", nil)
		}
		if seen[id] {
			return nil, apperrors.NewValidationError(fmt.Sprintf("duplicate channel id %s", id), nil)
		}
		seen[id] = true
		in.ID = id

		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewTimeoutError("request cancelled while loading channels", err)
		}

		start := time.Now()
		data, err := s.repo.LoadChannel(ctx, in)
		if err != nil {
			s.publish(ctx, observer.DecisionEvent{
				EventType:    observer.SourceLoadFailed,
				PlanID:       planID,
				Channel:      id,
				Source:       in.Source,
				ErrorMessage: err.Error(),
			})
			return nil, err
		}
		s.publish(ctx, observer.DecisionEvent{
			EventType:      observer.SourceLoaded,
			PlanID:         planID,
			Channel:        id,
			Source:         in.Source,
			ProcessingTime: time.Since(start),
			Success:        true,
		})
		channels = append(channels, data)
	}
	return channels, nil
}

// computeStatistics computes pixel channels concurrently and rebuilds the rest
// from their reported fields. Output follows input order.
func (s *decisionService) computeStatistics(ctx context.Context, planID string, channels []models.ChannelData) []models.ChannelStatistics {
	buffers := make(map[string][]float64, len(channels))
	for _, ch := range channels {
		if ch.HasPixels() {
			buffers[ch.ID] = ch.Plane.Samples
		}
	}
	computed := s.engine.ComputeAll(buffers)

	out := make([]models.ChannelStatistics, len(channels))
	for i, ch := range channels {
		stats, ok := computed[ch.ID]
		if !ok {
			stats = s.engine.StatisticsFromFields(ch.Fields)
		}
		out[i] = models.ChannelStatistics{
			ID:         ch.ID,
			Statistics: stats,
			Record:     analyzer.NewChannelRecord(ch.ID, stats),
		}
		s.publish(ctx, observer.DecisionEvent{
			EventType: observer.StatisticsComputed,
			PlanID:    planID,
			Channel:   ch.ID,
			Success:   true,
			Metadata: map[string]interface{}{
				"median":   stats.Median,
				"strength": stats.Strength,
			},
		})
	}
	return out
}

func (s *decisionService) channelWarnings(channels []models.ChannelData, stats []models.ChannelStatistics) []string {
	var issues []validation.ChannelIssue
	for i, ch := range channels {
		if ch.HasPixels() {
			issues = append(issues, s.validator.ValidatePlane(ch.ID, *ch.Plane)...)
		}
		issues = append(issues, s.validator.ValidateStatistics(ch.ID, stats[i].Statistics)...)
	}
	return s.validator.ConvertIssuesToMessages(issues)
}

// mapping resolves an explicit mapping or a palette against the available ids
// and returns the palette name in use, empty for an explicit mapping
func (s *decisionService) mapping(explicit *models.ChannelMapping, palette string, available []string) (models.ChannelMapping, []string, string, error) {
	if explicit != nil {
		m := *explicit
		if m.Red == "" || m.Green == "" || m.Blue == "" {
			return models.ChannelMapping{}, nil, "", apperrors.NewValidationError("mapping requires red, green and blue channel ids", nil)
		}
		if available == nil {
			return m, nil, "", nil
		}
		return m, missingFrom(m, available), "", nil
	}

	palettes := strategy.NewPaletteContext(strategy.ForName(s.defaults.Palette))
	if palette != "" {
		palettes.SetStrategy(strategy.ForName(palette))
	}
	m, missing := palettes.Resolve(available)
	if available == nil {
		missing = nil
	}
	return m, missing, palettes.GetCurrentStrategy(), nil
}

func (s *decisionService) policy(name string) (models.ReferencePolicy, error) {
	if strings.TrimSpace(name) == "" {
		return s.defaults.Policy, nil
	}
	p, err := models.ParseReferencePolicy(name)
	if err != nil {
		return p, apperrors.NewValidationError("invalid reference policy", err)
	}
	return p, nil
}

func (s *decisionService) publish(ctx context.Context, event observer.DecisionEvent) {
	if s.events == nil {
		return
	}
	event.Timestamp = time.Now()
	s.events.NotifyObservers(ctx, event)
}

// ValidateSource validates a channel source location
func (s *decisionService) ValidateSource(source string) error {
	return s.repo.ValidateSource(source)
}

func recordFromInput(in models.RecordInput) models.ChannelRecord {
	mean, median := math.NaN(), math.NaN()
	if in.Mean != nil {
		mean = *in.Mean
	}
	if in.Median != nil {
		median = *in.Median
	}
	return models.ChannelRecord{ID: in.ID, Mean: mean, Median: median, Delta: mean - median}
}

func missingFrom(m models.ChannelMapping, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, id := range available {
		have[id] = true
	}
	var missing []string
	for _, id := range m.Channels() {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func strengthsOf(channels []models.ChannelStatistics) map[string]float64 {
	strengths := make(map[string]float64, len(channels))
	for _, cs := range channels {
		strengths[cs.ID] = cs.Statistics.Strength
	}
	return strengths
}

func statisticsOf(channels []models.ChannelStatistics) []models.RobustStatistics {
	out := make([]models.RobustStatistics, len(channels))
	for i, cs := range channels {
		out[i] = cs.Statistics
	}
	return out
}
