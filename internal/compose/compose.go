// Package compose implements the composing text buffer: the authoritative
// mutable state of in-progress input. It holds the raw keystroke sequence,
// the derived phonetic projection, and a cursor measured in phonetic
// character units. Every operation is synchronous and total: out-of-range
// counts and offsets clamp, they never fail.
package compose

import "kanabridge/internal/kana"

// Forms are the alternate renderings of a composition, derived on demand.
type Forms struct {
	Hiragana     string
	Katakana     string
	HalfKatakana string
	FullLatin    string
	HalfLatin    string
}

// ComposingText is the live input buffer. It is not safe for concurrent use;
// the bridge session serializes access.
type ComposingText struct {
	translit kana.Transliterator
	raw      []rune // every raw keystroke still accounted for
	kana     []rune // phonetic projection (convertTarget)
	cursor   int    // phonetic units, in [0, len(kana)]
}

// New creates an empty composing buffer using the given transliterator.
// A nil transliterator falls back to the default romaji converter.
func New(t kana.Transliterator) *ComposingText {
	if t == nil {
		t = kana.Romaji{}
	}
	return &ComposingText{translit: t}
}

// Text returns the current phonetic projection.
func (c *ComposingText) Text() string { return string(c.kana) }

// Cursor returns the cursor position in phonetic units.
func (c *ComposingText) Cursor() int { return c.cursor }

// Len returns the length of the phonetic projection in phonetic units.
func (c *ComposingText) Len() int { return len(c.kana) }

// Empty reports whether no phonetic text is pending.
func (c *ComposingText) Empty() bool { return len(c.kana) == 0 }

// Append inserts raw input at the cursor, re-derives the phonetic projection
// for the region left of the cursor, and places the cursor just past the
// inserted span. Empty input is a no-op. One keystroke may expand to zero,
// one, or more phonetic characters.
func (c *ComposingText) Append(input string) (string, int) {
	if input == "" {
		return c.Text(), c.cursor
	}
	left := c.translit.Insert(string(c.kana[:c.cursor]), input)
	right := string(c.kana[c.cursor:])
	c.kana = []rune(left + right)
	c.cursor = len([]rune(left))
	c.raw = append(c.raw, []rune(input)...)
	return c.Text(), c.cursor
}

// DeleteBackward removes up to count phonetic units immediately before the
// cursor, clamping at the buffer start.
func (c *ComposingText) DeleteBackward(count int) (string, int) {
	if count < 0 {
		count = 0
	}
	if count > c.cursor {
		count = c.cursor
	}
	c.kana = append(c.kana[:c.cursor-count], c.kana[c.cursor:]...)
	c.cursor -= count
	c.trimRawTail(count)
	return c.Text(), c.cursor
}

// MoveCursor moves the cursor by a signed offset, clamping to [0, Len].
func (c *ComposingText) MoveCursor(offset int) int {
	c.cursor += offset
	if c.cursor < 0 {
		c.cursor = 0
	}
	if c.cursor > len(c.kana) {
		c.cursor = len(c.kana)
	}
	return c.cursor
}

// Clear resets the buffer to the empty state.
func (c *ComposingText) Clear() {
	c.raw = nil
	c.kana = nil
	c.cursor = 0
}

// AcceptPrefix removes the first count phonetic units from the front of the
// buffer: candidate acceptance consumes from the left, not from the cursor.
// A count at or beyond the current length empties the buffer.
func (c *ComposingText) AcceptPrefix(count int) (string, int) {
	if count < 0 {
		count = 0
	}
	if count >= len(c.kana) {
		c.Clear()
		return "", 0
	}
	c.kana = append([]rune(nil), c.kana[count:]...)
	c.cursor -= count
	if c.cursor < 0 {
		c.cursor = 0
	}
	c.trimRaw(count)
	return c.Text(), c.cursor
}

// RemainderAfter returns the phonetic text that would remain if the first
// count units were accepted, without mutating the buffer.
func (c *ComposingText) RemainderAfter(count int) string {
	if count < 0 {
		count = 0
	}
	if count >= len(c.kana) {
		return ""
	}
	return string(c.kana[count:])
}

// Forms derives the five display forms of the current composition.
func (c *ComposingText) Forms() Forms {
	hira := c.Text()
	raw := string(c.raw)
	return Forms{
		Hiragana:     hira,
		Katakana:     kana.ToKatakana(hira),
		HalfKatakana: kana.ToHalfKatakana(hira),
		FullLatin:    kana.ToFullWidth(raw),
		HalfLatin:    kana.ToHalfWidth(raw),
	}
}

// Raw keystrokes and phonetic units do not correspond one to one, so the raw
// string is trimmed by the same count-based approximation the front-end
// applies; it only feeds the latin display forms.

// trimRaw drops count raw keystrokes from the front (prefix acceptance).
func (c *ComposingText) trimRaw(count int) {
	if count >= len(c.raw) {
		c.raw = nil
		return
	}
	c.raw = append([]rune(nil), c.raw[count:]...)
}

// trimRawTail drops count raw keystrokes from the end (backward deletion).
func (c *ComposingText) trimRawTail(count int) {
	if count >= len(c.raw) {
		c.raw = nil
		return
	}
	c.raw = c.raw[:len(c.raw)-count]
}
