// Package engine defines the contract with the external statistical
// kana-to-kanji conversion engine and provides the IPC client that speaks
// it. The engine is an opaque collaborator: the bridge sends the current
// phonetic text plus a surrounding-text hint and receives ranked structured
// candidates; it never sees the model.
package engine

import "context"

// Query is one conversion request.
type Query struct {
	// Phonetic is the current composing text (kana projection).
	Phonetic string `json:"phonetic"`

	// Context is the text to the left of the insertion point in the host
	// application, passed to the engine as a ranking hint. May be empty.
	Context string `json:"context,omitempty"`

	// Profile selects the engine-side conversion profile.
	Profile string `json:"profile,omitempty"`
}

// Fragment is one word run of a candidate: the surface form the engine chose
// for a span of the phonetic text.
type Fragment struct {
	Word     string `json:"word"`
	Phonetic string `json:"phonetic"`
}

// Candidate is one engine conversion result. Consumed is the number of
// phonetic units of the query text this candidate accounts for, measured
// from the front; it may be less than the full query (partial composition).
type Candidate struct {
	Fragments []Fragment `json:"fragments"`
	Consumed  int        `json:"consumed"`
}

// Result is the engine's response to a Query.
type Result struct {
	Phonetic   string      `json:"phonetic"`
	Candidates []Candidate `json:"candidates"`
}

// Converter is the request/response contract with the engine. All methods
// may block on IPC; callers pass a context and treat every failure as
// degradation, never as a session-fatal condition.
type Converter interface {
	// Convert returns ranked candidates for the query.
	Convert(ctx context.Context, q Query) (*Result, error)

	// Learn feeds an accepted candidate back into the engine's learning
	// mechanism. index refers to the engine's last returned candidate list.
	Learn(ctx context.Context, index int) error

	// ResetMemory discards all accumulated engine-side learning state.
	ResetMemory(ctx context.Context) error

	// EndSession invalidates the engine's per-session composition cache.
	// The bridge calls this on every buffer-clearing transition; skipping
	// it lets the cache grow without bound over a long input session.
	EndSession(ctx context.Context) error

	// Close releases the connection.
	Close() error
}
