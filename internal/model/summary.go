package model

import "time"

// LabelResult records the outcome of attaching a single label to a created
// observable. A failed label never aborts its observable or its siblings.
type LabelResult struct {
	// Name is the normalized label name that was attempted.
	Name string `json:"name"`

	// Attached is true if the label was resolved and attached successfully.
	Attached bool `json:"attached"`

	// Reason holds the failure cause when Attached is false.
	Reason string `json:"reason,omitempty"`
}

// PublishResult is the outcome of publishing one normalized observable.
// Partial success is representable: the observable may exist in the store
// while some of its labels failed to attach.
type PublishResult struct {
	// Value is the observable value (the IP) that was submitted.
	Value string `json:"value"`

	// ObservableID is the store-side identifier of the created observable.
	// Empty if creation failed.
	ObservableID string `json:"observable_id,omitempty"`

	// Created is true if the store accepted the create/upsert call.
	Created bool `json:"created"`

	// Error holds the creation failure cause when Created is false.
	Error string `json:"error,omitempty"`

	// Labels holds one entry per label attachment attempt, in order.
	Labels []LabelResult `json:"labels,omitempty"`
}

// AttachedLabels returns the names of labels that attached successfully.
func (p PublishResult) AttachedLabels() []string {
	var names []string
	for _, l := range p.Labels {
		if l.Attached {
			names = append(names, l.Name)
		}
	}
	return names
}

// FailedLabels returns the names of labels that failed to attach.
func (p PublishResult) FailedLabels() []string {
	var names []string
	for _, l := range p.Labels {
		if !l.Attached {
			names = append(names, l.Name)
		}
	}
	return names
}

// SummaryObject is one successfully created observable as it appears in the
// run artifact's "objects" field.
type SummaryObject struct {
	// Type is the STIX observable type (ipv4-addr).
	Type string `json:"type"`

	// Value is the observable value.
	Value string `json:"value"`

	// Labels is the label set the observable was published with.
	Labels []string `json:"labels"`
}

// RunSummary is the aggregate outcome of one connector run. It is owned by
// the run orchestrator, serialized to the artifact sink at the end of the
// run, and discarded afterwards; no state survives across runs.
type RunSummary struct {
	// Labels is the deduplicated feed vocabulary, recorded unconditionally
	// once extraction has run, even if nothing was ultimately published.
	Labels []string `json:"labels"`

	// Objects lists the observables whose core create call succeeded.
	// Observables that failed creation never appear here.
	Objects []SummaryObject `json:"objects"`

	// Results holds the per-record publish outcomes, including failures.
	// Not part of the artifact format; used for reporting and history.
	Results []PublishResult `json:"-"`

	// FeedURL is the feed endpoint this run ingested from.
	FeedURL string `json:"-"`

	// StartedAt is when the run began fetching.
	StartedAt time.Time `json:"-"`

	// FinishedAt is when the run reached its terminal state.
	FinishedAt time.Time `json:"-"`
}

// NewRunSummary creates an empty summary for a run against the given feed.
func NewRunSummary(feedURL string) *RunSummary {
	return &RunSummary{
		Labels:  []string{},
		Objects: []SummaryObject{},
		FeedURL: feedURL,
	}
}

// AddResult records a publish outcome. Successful creations also contribute
// an entry to Objects with the labels that actually attached plus any that
// were attempted (the artifact reflects intent, matching the feed entry).
func (s *RunSummary) AddResult(obs NormalizedObservable, result PublishResult) {
	s.Results = append(s.Results, result)
	if !result.Created {
		return
	}
	s.Objects = append(s.Objects, SummaryObject{
		Type:   obs.Type,
		Value:  obs.Value,
		Labels: obs.Labels,
	})
}

// CreatedCount returns the number of observables whose create call succeeded.
func (s *RunSummary) CreatedCount() int {
	return len(s.Objects)
}

// FailedCount returns the number of observables whose create call failed.
func (s *RunSummary) FailedCount() int {
	return len(s.Results) - len(s.Objects)
}

// LabelFailureCount returns the total label attachments that failed across
// all published observables.
func (s *RunSummary) LabelFailureCount() int {
	var n int
	for _, r := range s.Results {
		for _, l := range r.Labels {
			if !l.Attached {
				n++
			}
		}
	}
	return n
}
