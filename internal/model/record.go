package model

// RawRecord is one entry from the DShield intel feed as delivered by the API.
// Both fields are optional in practice: the feed mixes record shapes, and
// entries without an IP are expected input rather than corruption.
//
// Design decision: We keep the record exactly as received instead of
// validating at parse time because filtering is a normalization concern
// (see Normalize). The fetcher should not silently shrink the feed.
type RawRecord struct {
	// IP is the IPv4 address of the indicator. Empty if the feed entry
	// carried no "ip" field.
	IP string `json:"ip"`

	// Description is the free-text classification supplied by the feed
	// (e.g., "Scanner", "Malware"). Empty if absent.
	Description string `json:"description"`
}

// HasIP reports whether the record carries an IP value and can therefore
// be normalized into an observable.
func (r RawRecord) HasIP() bool {
	return r.IP != ""
}
