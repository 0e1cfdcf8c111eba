// Package store defines the narrow knowledge-store contract the connector
// publishes through, together with an HTTP implementation and an in-memory
// dry-run implementation. The pipeline only ever depends on the Client
// interface, so the store is swappable for tests and offline verification.
package store
