package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DecisionEvent represents a step of the decision pipeline
type DecisionEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	PlanID         string                 `json:"plan_id,omitempty"`
	Channel        string                 `json:"channel,omitempty"`
	Source         string                 `json:"source,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of decision event
type EventType string

const (
	// PlanStarted when a decision plan begins
	PlanStarted EventType = "plan_started"
	// PlanCompleted when a plan finishes successfully
	PlanCompleted EventType = "plan_completed"
	// PlanFailed when a plan cannot be produced
	PlanFailed EventType = "plan_failed"
	// SourceLoaded when channel data is successfully loaded
	SourceLoaded EventType = "source_loaded"
	// SourceLoadFailed when channel data cannot be loaded
	SourceLoadFailed EventType = "source_load_failed"
	// StatisticsComputed when a channel's statistics are ready
	StatisticsComputed EventType = "statistics_computed"
	// ReferenceSelected when the reference channel is chosen
	ReferenceSelected EventType = "reference_selected"
	// MixSynthesized when mix expressions are produced
	MixSynthesized EventType = "mix_synthesized"
	// BackgroundLocated when a background region is found
	BackgroundLocated EventType = "background_located"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event DecisionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event DecisionEvent)
}

// LoggingObserver logs decision events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles decision events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event DecisionEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.PlanID != "" {
		fields["plan_id"] = event.PlanID
	}
	if event.Channel != "" {
		fields["channel"] = event.Channel
	}
	if event.Source != "" {
		fields["source"] = event.Source
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case PlanStarted:
		entry.Info("Decision plan started")
	case PlanCompleted:
		entry.Info("Decision plan completed")
	case PlanFailed:
		entry.Error("Decision plan failed")
	case SourceLoadFailed:
		entry.Error("Channel source load failed")
	case SourceLoaded, StatisticsComputed, BackgroundLocated:
		entry.Debug("Decision step completed")
	default:
		entry.Info("Decision event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects metrics from decision events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalPlans          int64
	successfulPlans     int64
	failedPlans         int64
	sourcesLoaded       int64
	sourceFailures      int64
	totalProcessingTime time.Duration
	references          map[string]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{references: map[string]int64{}}
}

// OnEvent handles decision events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event DecisionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case PlanStarted:
		o.totalPlans++
	case PlanCompleted:
		o.successfulPlans++
		o.totalProcessingTime += event.ProcessingTime
	case PlanFailed:
		o.failedPlans++
	case SourceLoaded:
		o.sourcesLoaded++
	case SourceLoadFailed:
		o.sourceFailures++
	case ReferenceSelected:
		o.references[event.Channel]++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulPlans > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulPlans)
	}

	references := make(map[string]int64, len(o.references))
	for k, v := range o.references {
		references[k] = v
	}

	return map[string]interface{}{
		"total_plans":           o.totalPlans,
		"successful_plans":      o.successfulPlans,
		"failed_plans":          o.failedPlans,
		"sources_loaded":        o.sourcesLoaded,
		"source_failures":       o.sourceFailures,
		"total_processing_time": o.totalProcessingTime.String(),
		"avg_processing_time":   avgProcessingTime.String(),
		"reference_selections":  references,
	}
}

// Broadcaster delivers a JSON-serializable value to remote listeners
type Broadcaster interface {
	Broadcast(v interface{})
}

// BroadcastObserver forwards every event to a broadcaster
type BroadcastObserver struct {
	broadcaster Broadcaster
}

// NewBroadcastObserver creates an observer that streams events
func NewBroadcastObserver(b Broadcaster) Observer {
	return &BroadcastObserver{broadcaster: b}
}

// OnEvent forwards the event
func (o *BroadcastObserver) OnEvent(ctx context.Context, event DecisionEvent) {
	o.broadcaster.Broadcast(event)
}

// GetObserverName returns the observer name
func (o *BroadcastObserver) GetObserverName() string {
	return "broadcast_observer"
}

// Ordered marks the broadcast stream as order sensitive
func (o *BroadcastObserver) Ordered() bool {
	return true
}

// OrderedObserver is an observer that must see events in publish order.
// It is notified on the publishing goroutine and must not block.
type OrderedObserver interface {
	Observer
	Ordered() bool
}

func isOrdered(obs Observer) bool {
	o, ok := obs.(OrderedObserver)
	return ok && o.Ordered()
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event DecisionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		if isOrdered(observer) {
			deliver(ctx, observer, event)
			continue
		}
		p.pending.Add(1)
		go func(obs Observer) {
			defer p.pending.Done()
			deliver(ctx, obs, event)
		}(observer)
	}
}

func deliver(ctx context.Context, obs Observer, event DecisionEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the application
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}

// Wait blocks until every in-flight notification has been handled
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}
