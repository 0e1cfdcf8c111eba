package store

import (
	"context"
	"errors"
)

// ErrStore wraps every store-side failure: transport errors, non-2xx
// responses, and malformed response bodies. Callers classify failures by
// which call returned the error, not by inspecting it, so one sentinel is
// enough.
var ErrStore = errors.New("store request failed")

// LabelHandle is the store-side identifier of a label.
type LabelHandle struct {
	// ID is the store's identifier for the label.
	ID string `json:"id"`

	// Value is the label text as stored.
	Value string `json:"value"`
}

// ObservableHandle is the store-side identifier of a created observable.
type ObservableHandle struct {
	// ID is the store's identifier for the observable.
	ID string `json:"id"`
}

// ReferenceHandle is the store-side identifier of an external reference.
type ReferenceHandle struct {
	// ID is the store's identifier for the reference.
	ID string `json:"id"`
}

// OrgHandle is the store-side identifier of an organization identity.
type OrgHandle struct {
	// ID is the store's identifier for the organization.
	ID string `json:"id"`
}

// ObservableInput carries the core attributes of an observable create call.
// Labels are never part of creation; they are attached separately so the
// connector can isolate per-label failures.
type ObservableInput struct {
	// Key is the simple-observable key (e.g., "IPv4-Addr.value").
	Key string `json:"key"`

	// Value is the observable value (the IP).
	Value string `json:"value"`

	// Description is the human-readable description text.
	Description string `json:"description"`

	// MainType is the store's main-observable-type hint (e.g., "IPv4-Addr").
	MainType string `json:"main_type"`

	// ExternalRef links the observable to its provenance reference.
	ExternalRef ReferenceHandle `json:"external_ref"`

	// CreatedBy attributes the observable to an organization.
	CreatedBy OrgHandle `json:"created_by"`

	// Score is the confidence score hint (0-100).
	Score int `json:"score"`

	// Marking is the TLP marking hint (e.g., "TLP:GREEN").
	Marking string `json:"marking"`
}

// Client is the knowledge-store contract the connector needs. Every method
// takes a context because each one is a network round trip against a store
// that may be slow or rate limited.
type Client interface {
	// FindLabel looks up a label by exact case-insensitive value match.
	// The boolean result reports whether a label was found; an error means
	// the lookup itself failed.
	FindLabel(ctx context.Context, value string) (LabelHandle, bool, error)

	// CreateLabel creates a label with the given value and color hint.
	CreateLabel(ctx context.Context, value, color string) (LabelHandle, error)

	// CreateObservable creates or upserts an observable from its core
	// attributes. Duplicate handling across runs is the store's concern.
	CreateObservable(ctx context.Context, in ObservableInput) (ObservableHandle, error)

	// AddLabel attaches a resolved label to a created observable.
	AddLabel(ctx context.Context, obs ObservableHandle, label LabelHandle) error

	// CreateExternalReference creates a provenance reference. Called once
	// per run; the handle is reused for every observable created in it.
	CreateExternalReference(ctx context.Context, sourceName, url string) (ReferenceHandle, error)

	// CreateOrganization creates (or upserts) the attribution identity.
	// Called once at startup; all observables are attributed to it.
	CreateOrganization(ctx context.Context, name, description string, refs []ReferenceHandle) (OrgHandle, error)
}
