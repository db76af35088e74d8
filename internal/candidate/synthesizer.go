// Package candidate synthesizes the ranked candidate list for the current
// composing text. Four sources merge in fixed priority order: exact user
// dictionary matches, prefix user dictionary matches, calendar expansions,
// and the engine's statistical output. User registrations always beat
// generic statistical candidates; the ordering rule lives here, not in call
// order.
package candidate

import (
	"context"
	"log/slog"

	"kanabridge/internal/compose"
	"kanabridge/internal/config"
	"kanabridge/internal/engine"
)

// Source identifies which tier produced a candidate.
type Source int

const (
	SourceExactDict Source = iota
	SourcePrefixDict
	SourceCalendar
	SourceEngine
	// SourceLiteral is the hiragana fallback emitted when the engine tier
	// is unavailable, so the caller still has something to display.
	SourceLiteral
)

// Candidate is one entry of the synthesized list.
type Candidate struct {
	// Text is the display string.
	Text string

	// Remainder is the phonetic text still uncomposed if this candidate
	// is accepted.
	Remainder string

	// Reading is the phonetic source text this candidate converts.
	Reading string

	// Consumed is the number of phonetic units accounted for, from the
	// front of the buffer.
	Consumed int

	// Source is the producing tier.
	Source Source

	// EngineIndex is the index into the engine's candidate list for
	// SourceEngine candidates, -1 otherwise. Only engine candidates are
	// learnable.
	EngineIndex int
}

// Synthesizer produces candidate lists. It holds no per-call state; every
// synthesis reads the buffer and config afresh.
type Synthesizer struct {
	clock Clock
	limit int
	log   *slog.Logger
}

// NewSynthesizer creates a synthesizer. limit caps the total candidate
// count (the arena capacity); candidates beyond it are silently dropped.
func NewSynthesizer(clock Clock, limit int, log *slog.Logger) *Synthesizer {
	if clock == nil {
		clock = SystemClock{}
	}
	if limit <= 0 {
		limit = 100
	}
	if log == nil {
		log = slog.Default()
	}
	return &Synthesizer{clock: clock, limit: limit, log: log}
}

// Synthesize builds the merged candidate list for the buffer's current
// state. It never mutates the buffer. conv may be nil (engine disabled or
// unavailable); engine failure degrades to the non-engine tiers plus a
// literal hiragana candidate.
func (s *Synthesizer) Synthesize(ctx context.Context, text *compose.ComposingText, dict *config.Dictionary, cfg *config.Config, conv engine.Converter, hint string) []Candidate {
	phonetic := text.Text()
	if phonetic == "" {
		return nil
	}
	length := text.Len()
	out := make([]Candidate, 0, 16)

	full := func() bool { return len(out) >= s.limit }

	// Tier 1: exact dictionary matches, registration order.
	for _, word := range dict.Exact(phonetic) {
		if full() {
			return out
		}
		out = append(out, Candidate{
			Text:        word,
			Remainder:   "",
			Reading:     phonetic,
			Consumed:    length,
			Source:      SourceExactDict,
			EngineIndex: -1,
		})
	}

	// Tier 2: strict-prefix dictionary matches. Reading iteration order is
	// implementation-defined but stable (sorted); within a reading, words
	// keep registration order.
	dict.EachPrefix(phonetic, func(reading string, words []string) bool {
		consumed := len([]rune(reading))
		remainder := text.RemainderAfter(consumed)
		for _, word := range words {
			if full() {
				return false
			}
			out = append(out, Candidate{
				Text:        word,
				Remainder:   remainder,
				Reading:     reading,
				Consumed:    consumed,
				Source:      SourcePrefixDict,
				EngineIndex: -1,
			})
		}
		return true
	})
	if full() {
		return out
	}

	// Tier 3: calendar expansions on an exact keyword match.
	for _, rendering := range calendarExpansions(phonetic, s.clock.Now()) {
		if full() {
			return out
		}
		out = append(out, Candidate{
			Text:        rendering,
			Remainder:   "",
			Reading:     phonetic,
			Consumed:    length,
			Source:      SourceCalendar,
			EngineIndex: -1,
		})
	}

	// Tier 4: engine candidates.
	out = s.appendEngine(ctx, out, text, cfg, conv, hint)
	return out
}

// appendEngine runs the engine tier. Any failure yields the literal
// hiragana fallback instead: a dead engine costs candidates, never the
// session.
func (s *Synthesizer) appendEngine(ctx context.Context, out []Candidate, text *compose.ComposingText, cfg *config.Config, conv engine.Converter, hint string) []Candidate {
	phonetic := text.Text()

	literal := func() []Candidate {
		if len(out) < s.limit {
			out = append(out, Candidate{
				Text:        phonetic,
				Remainder:   "",
				Reading:     phonetic,
				Consumed:    text.Len(),
				Source:      SourceLiteral,
				EngineIndex: -1,
			})
		}
		return out
	}

	if conv == nil || !cfg.Engine.Enabled {
		return literal()
	}

	res, err := conv.Convert(ctx, engine.Query{
		Phonetic: phonetic,
		Context:  hint,
		Profile:  cfg.Engine.Profile,
	})
	if err != nil {
		s.log.Warn("engine conversion failed", "error", err)
		return literal()
	}

	for i, ec := range res.Candidates {
		if len(out) >= s.limit {
			break
		}
		out = append(out, Candidate{
			Text:        renderEngineCandidate(phonetic, ec),
			Remainder:   text.RemainderAfter(ec.Consumed),
			Reading:     firstRunes(phonetic, ec.Consumed),
			Consumed:    clampConsumed(ec.Consumed, text.Len()),
			Source:      SourceEngine,
			EngineIndex: i,
		})
	}
	return out
}

// renderEngineCandidate builds the display text by laying the engine's word
// fragments against successive slices of the phonetic text. If the
// remaining phonetic text is shorter than the next fragment's phonetic
// span, the remaining text is appended literally and rendering stops.
func renderEngineCandidate(phonetic string, ec engine.Candidate) string {
	runes := []rune(phonetic)
	pos := 0
	var out []rune
	for _, frag := range ec.Fragments {
		span := len([]rune(frag.Phonetic))
		if len(runes)-pos < span {
			out = append(out, runes[pos:]...)
			pos = len(runes)
			break
		}
		out = append(out, []rune(frag.Word)...)
		pos += span
	}
	return string(out)
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if n < 0 {
		n = 0
	}
	if n > len(r) {
		n = len(r)
	}
	return string(r[:n])
}

func clampConsumed(n, length int) int {
	if n < 0 {
		return 0
	}
	if n > length {
		return length
	}
	return n
}
