package driven

// AttemptLimiter throttles repeated attempts per key (e.g. email plus client IP).
type AttemptLimiter interface {
	// Allow consumes one attempt for the key and reports whether it is permitted.
	Allow(key string) bool

	// Reset forgets the history of a key, e.g. after a successful sign-in.
	Reset(key string)
}
