package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// DryRunClient is an in-memory Client used by --dry-run mode and tests.
// It performs no network I/O and generates local UUID handles, while
// preserving the store's observable semantics: label lookup is
// case-insensitive over everything created so far, so idempotent label
// resolution is verifiable without a real store.
//
// Not safe for concurrent use; the connector issues store calls strictly
// sequentially, and the dry-run client mirrors that assumption.
type DryRunClient struct {
	// labels maps lowercased label value to its handle.
	labels map[string]LabelHandle

	// Observables records every observable created, in call order.
	Observables []ObservableInput

	// Attachments records every label attachment as observableID -> labels.
	Attachments map[string][]LabelHandle
}

// NewDryRunClient creates an empty dry-run store.
func NewDryRunClient() *DryRunClient {
	return &DryRunClient{
		labels:      make(map[string]LabelHandle),
		Attachments: make(map[string][]LabelHandle),
	}
}

// FindLabel implements Client with a case-insensitive in-memory lookup.
func (c *DryRunClient) FindLabel(_ context.Context, value string) (LabelHandle, bool, error) {
	l, ok := c.labels[strings.ToLower(value)]
	return l, ok, nil
}

// CreateLabel implements Client, generating a local UUID handle.
func (c *DryRunClient) CreateLabel(_ context.Context, value, _ string) (LabelHandle, error) {
	l := LabelHandle{ID: uuid.NewString(), Value: value}
	c.labels[strings.ToLower(value)] = l
	return l, nil
}

// CreateObservable implements Client, recording the input for inspection.
func (c *DryRunClient) CreateObservable(_ context.Context, in ObservableInput) (ObservableHandle, error) {
	c.Observables = append(c.Observables, in)
	return ObservableHandle{ID: uuid.NewString()}, nil
}

// AddLabel implements Client, recording the attachment.
func (c *DryRunClient) AddLabel(_ context.Context, obs ObservableHandle, label LabelHandle) error {
	c.Attachments[obs.ID] = append(c.Attachments[obs.ID], label)
	return nil
}

// CreateExternalReference implements Client.
func (c *DryRunClient) CreateExternalReference(_ context.Context, _, _ string) (ReferenceHandle, error) {
	return ReferenceHandle{ID: uuid.NewString()}, nil
}

// CreateOrganization implements Client.
func (c *DryRunClient) CreateOrganization(_ context.Context, _, _ string, _ []ReferenceHandle) (OrgHandle, error) {
	return OrgHandle{ID: uuid.NewString()}, nil
}

// LabelCount returns the number of distinct labels created so far.
func (c *DryRunClient) LabelCount() int {
	return len(c.labels)
}
