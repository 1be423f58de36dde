package llm

import "context"

// Client is the interface that all generation providers must implement.
//
// Complete must produce text identical to what Stream would deliver
// chunk-by-chunk for the same request; implementations share a single
// generation path and differ only in delivery.
type Client interface {
	// Complete runs one generation and returns the full text.
	Complete(ctx context.Context, req Request) (*Completion, error)

	// Stream runs one generation, delivering chunks to fn as they arrive.
	// A nil fn buffers the whole response (equivalent to Complete).
	// On mid-stream failure the returned Completion carries the partial
	// text accumulated before the error.
	Stream(ctx context.Context, req Request, fn StreamFunc) (*Completion, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
