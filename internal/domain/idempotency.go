package domain

import "time"

// IdempotencyRecord stores the first response emitted for a client-supplied
// key. A (key, method, path, body-hash) tuple maps to at most one record;
// replays return the stored status and body verbatim.
type IdempotencyRecord struct {
	Key          string
	UserID       *int64
	Method       string
	Path         string
	BodyHash     string
	StatusCode   int
	ResponseBody string
	CreatedAt    time.Time
}
