package models

import "errors"

// Error taxonomy. Recoverable conditions (degraded analysis, missing index,
// model timeouts outside synthesis) are absorbed locally and surface only as
// Degradation entries on the trace; ErrSynthesisFailed is the one failure
// escalated to the caller.
var (
	// ErrIndexUnavailable signals that one of the lexical/semantic indexes is
	// not configured for a category; hybrid search falls back to the other.
	ErrIndexUnavailable = errors.New("search index unavailable")

	// ErrModelTimeout signals a generative or embedding call that exceeded its
	// per-call deadline.
	ErrModelTimeout = errors.New("model call timed out")

	// ErrModelUnavailable signals a generative or embedding call that failed
	// for any non-timeout reason (transport error, malformed output).
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrSynthesisFailed signals that no answer could be produced after
	// retries. The only error surfaced to callers as user-visible failure.
	ErrSynthesisFailed = errors.New("answer synthesis failed")

	// ErrAnswerNotFound signals a cache miss for a shared answer id.
	ErrAnswerNotFound = errors.New("answer not found")
)
