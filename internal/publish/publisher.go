package publish

import (
	"context"
	"log/slog"

	"github.com/nao1215/ctisync/internal/config"
	"github.com/nao1215/ctisync/internal/model"
	"github.com/nao1215/ctisync/internal/store"
)

// Publisher upserts normalized observables into the knowledge store and
// attaches their labels. Label attachment is isolated per label: one failed
// resolution or attachment never drops the observable or its other labels,
// and a failed create call fails only that observable.
//
// The provenance reference and attribution organization are created by the
// caller at startup and passed in, keeping external-entity creation out of
// the publish path.
type Publisher struct {
	// client is the knowledge store to publish into.
	client store.Client

	// registry resolves label names to store handles.
	registry *Registry

	// pacer enforces the minimum delay before each label attachment,
	// success or failure.
	pacer Pacer

	// extRef is the per-run provenance reference attached to every
	// created observable.
	extRef store.ReferenceHandle

	// org is the attribution identity for created observables.
	org store.OrgHandle

	// score is the confidence score hint.
	score int

	// marking is the TLP marking hint.
	marking string

	// logger for structured logging.
	logger *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithScore sets the confidence score hint for created observables.
func WithScore(score int) PublisherOption {
	return func(p *Publisher) {
		p.score = score
	}
}

// WithMarking sets the TLP marking hint for created observables.
func WithMarking(marking string) PublisherOption {
	return func(p *Publisher) {
		p.marking = marking
	}
}

// WithPacer sets the pacing policy between label attachments.
func WithPacer(pacer Pacer) PublisherOption {
	return func(p *Publisher) {
		p.pacer = pacer
	}
}

// WithLogger sets a custom logger for the publisher.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a Publisher for one run.
func NewPublisher(client store.Client, registry *Registry, extRef store.ReferenceHandle, org store.OrgHandle, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		client:   client,
		registry: registry,
		pacer:    NewPacer(config.DefaultPacingDelay),
		extRef:   extRef,
		org:      org,
		score:    config.DefaultScore,
		marking:  config.DefaultMarking,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Publish submits one observable to the store and attaches its labels.
// The returned result always reflects exactly what happened: creation
// failure, full success, or an observable created with some labels failed.
// Publish never returns an error; partial failure is data, not a fault.
func (p *Publisher) Publish(ctx context.Context, obs model.NormalizedObservable) model.PublishResult {
	result := model.PublishResult{Value: obs.Value}

	handle, err := p.client.CreateObservable(ctx, store.ObservableInput{
		Key:         model.ObservableKeyIPv4,
		Value:       obs.Value,
		Description: obs.Description,
		MainType:    model.MainObservableTypeIPv4,
		ExternalRef: p.extRef,
		CreatedBy:   p.org,
		Score:       p.score,
		Marking:     p.marking,
	})
	if err != nil {
		p.logger.Error("failed to create observable", "value", obs.Value, "error", err)
		result.Error = err.Error()
		return result
	}

	result.Created = true
	result.ObservableID = handle.ID
	p.logger.Info("created observable", "value", obs.Value, "id", handle.ID, "labels", obs.Labels)

	for _, name := range obs.Labels {
		result.Labels = append(result.Labels, p.attachLabel(ctx, handle, obs.Value, name))
	}

	return result
}

// attachLabel resolves and attaches one label, honoring the pacing delay
// before the attempt regardless of outcome. Failures are recorded, never
// propagated; the caller continues with the remaining labels.
func (p *Publisher) attachLabel(ctx context.Context, obs store.ObservableHandle, value, name string) model.LabelResult {
	if err := p.pacer.Pace(ctx); err != nil {
		return model.LabelResult{Name: name, Reason: err.Error()}
	}

	label, err := p.registry.Resolve(ctx, name)
	if err != nil {
		p.logger.Error("failed to resolve label", "label", name, "value", value, "error", err)
		return model.LabelResult{Name: name, Reason: err.Error()}
	}

	if err := p.client.AddLabel(ctx, obs, label); err != nil {
		p.logger.Error("failed to attach label", "label", name, "value", value, "error", err)
		return model.LabelResult{Name: name, Reason: err.Error()}
	}

	return model.LabelResult{Name: name, Attached: true}
}
