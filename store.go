package memoir

import "context"

// Store persists conversation turns keyed by session ID. Implementations must
// be safe for concurrent use.
//
// The Store is the only memory there is: nothing about a session survives
// anywhere else, so whatever Turns returns is exactly what the model will
// "remember" on the next request.
type Store interface {
	// Append adds turns to the session's history, preserving their order.
	Append(ctx context.Context, sessionID string, turns ...Turn) error

	// Turns returns the most recent limit turns of the session in
	// chronological order. A non-positive limit returns the full history.
	// An unknown session yields an empty slice, not an error.
	Turns(ctx context.Context, sessionID string, limit int) ([]Turn, error)

	// Clear removes all turns stored for the session.
	Clear(ctx context.Context, sessionID string) error

	// Sessions lists the IDs of sessions with stored history.
	Sessions(ctx context.Context) ([]string, error)

	// Close releases any underlying resources.
	Close() error
}
