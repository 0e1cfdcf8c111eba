package publish

import (
	"context"
	"log/slog"

	"github.com/nao1215/ctisync/internal/store"
)

// Registry resolves label names to store-side handles, creating labels on
// first use and memoizing resolutions for the lifetime of one run.
//
// Design decision: The cache is an explicit per-run object rather than a
// package-level map so repeated or concurrent runs can never observe stale
// cross-run entries. The orchestrator constructs one Registry per run and
// discards it with the run.
//
// Invariant: for any label name, the store's create call is issued at most
// once per run, no matter how many observables reference the label.
type Registry struct {
	// client is the knowledge store the registry resolves against.
	client store.Client

	// color is the visual hint used when creating missing labels.
	color string

	// cache maps normalized label name to its resolved handle.
	// Failed resolutions are not cached; a later record referencing the
	// same label gets a fresh attempt.
	cache map[string]store.LabelHandle

	// logger for structured logging.
	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets a custom logger for the registry.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a label registry for one run.
func NewRegistry(client store.Client, color string, opts ...RegistryOption) *Registry {
	r := &Registry{
		client: client,
		color:  color,
		cache:  make(map[string]store.LabelHandle),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the store handle for the given label name.
// Cached resolutions are returned without touching the store. Otherwise the
// registry checks for an existing label (exact case-insensitive match) and
// creates it only if absent. Errors from either store call propagate to the
// caller, which must treat them as a single-label failure.
func (r *Registry) Resolve(ctx context.Context, name string) (store.LabelHandle, error) {
	if handle, ok := r.cache[name]; ok {
		return handle, nil
	}

	handle, found, err := r.client.FindLabel(ctx, name)
	if err != nil {
		return store.LabelHandle{}, err
	}

	if found {
		r.logger.Debug("label exists in store", "label", name, "id", handle.ID)
	} else {
		handle, err = r.client.CreateLabel(ctx, name, r.color)
		if err != nil {
			return store.LabelHandle{}, err
		}
		r.logger.Info("created label", "label", name, "id", handle.ID)
	}

	r.cache[name] = handle
	return handle, nil
}

// CachedCount returns the number of labels resolved so far in this run.
func (r *Registry) CachedCount() int {
	return len(r.cache)
}
