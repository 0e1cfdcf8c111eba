package model

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Observable type identifiers.
// The store uses the key form ("IPv4-Addr.value") when creating observables,
// while the artifact and summary use the lowercase STIX type ("ipv4-addr").
const (
	// ObservableTypeIPv4 is the STIX type emitted in summaries and artifacts.
	ObservableTypeIPv4 = "ipv4-addr"

	// ObservableKeyIPv4 is the simple-observable key used by store create calls.
	ObservableKeyIPv4 = "IPv4-Addr.value"

	// MainObservableTypeIPv4 is the store's main-observable-type hint.
	MainObservableTypeIPv4 = "IPv4-Addr"
)

// BaseLabel marks the provenance of every observable published by this
// connector. It is always attached, regardless of the record's description.
const BaseLabel = "dshield"

// labelCaser lowercases label names with full Unicode case mapping.
//
// Design decision: We use x/text cases.Lower rather than strings.ToLower
// because feed descriptions are third-party text and may contain characters
// outside ASCII; label identity in the store is case-insensitive, so the
// normalization must agree with full case folding as closely as possible.
var labelCaser = cases.Lower(language.Und)

// NormalizeLabel returns the canonical (lowercased) form of a label name.
// Label uniqueness across a run is by normalized value.
func NormalizeLabel(name string) string {
	return labelCaser.String(name)
}

// NormalizedObservable is the canonical representation of one feed record,
// ready for publication into the knowledge store.
type NormalizedObservable struct {
	// Type is the STIX observable type. Always ObservableTypeIPv4.
	Type string `json:"type"`

	// Value is the IP address. Never empty; records without an IP are
	// filtered out by Normalize before an observable exists.
	Value string `json:"value"`

	// Description is the human-readable text stored alongside the
	// observable. Derived solely from the IP value.
	Description string `json:"description"`

	// Labels is the label set to attach: BaseLabel plus the normalized
	// record description when one is present.
	Labels []string `json:"labels"`
}

// Normalize converts one raw feed record into zero or one observable.
// Records without an IP produce nothing; the boolean result is false and
// the caller should move on. This is expected data-quality tolerance for
// third-party feeds, not an error.
func Normalize(r RawRecord) (NormalizedObservable, bool) {
	if !r.HasIP() {
		return NormalizedObservable{}, false
	}

	labels := []string{BaseLabel}
	if r.Description != "" {
		labels = append(labels, NormalizeLabel(r.Description))
	}

	return NormalizedObservable{
		Type:        ObservableTypeIPv4,
		Value:       r.IP,
		Description: fmt.Sprintf("DShield Intel Feed entry for %s", r.IP),
		Labels:      labels,
	}, true
}

// ExtractLabels scans the full record set once and returns the deduplicated
// vocabulary of normalized description labels. Records without a description
// contribute nothing. The result is a set; no ordering is promised.
//
// This is a pure function: it never touches the store and does not include
// BaseLabel, which is a publication concern rather than feed vocabulary.
func ExtractLabels(records []RawRecord) []string {
	seen := make(map[string]struct{}, len(records))
	labels := make([]string, 0, len(records))

	for _, r := range records {
		if r.Description == "" {
			continue
		}
		name := NormalizeLabel(r.Description)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		labels = append(labels, name)
	}

	return labels
}
