// Package kana provides the transliteration collaborator for the composing
// buffer: romaji-to-hiragana conversion plus the script/width conversions
// (katakana, half-width katakana, full-width and half-width latin) used to
// render alternate forms of a composition.
package kana

import (
	"strings"

	"golang.org/x/text/width"
)

// Transliterator converts raw keystrokes into phonetic text. Insert is given
// the phonetic text left of the cursor, whose tail may still contain
// unresolved raw characters (for example a dangling "k" waiting for a vowel),
// and the newly typed raw input. It returns the re-derived phonetic text for
// that region. Implementations must be pure and total.
type Transliterator interface {
	Insert(prefix, input string) string
}

// Romaji is the default Transliterator: greedy longest-match romaji to
// hiragana conversion. Characters that cannot begin a conversion are passed
// through unchanged, and an unresolved trailing consonant is kept literally
// until further input completes it.
type Romaji struct{}

// Insert implements Transliterator.
func (Romaji) Insert(prefix, input string) string {
	if input == "" {
		return prefix
	}
	head, tail := splitPending(prefix)
	return head + convert(tail+input)
}

// splitPending splits phonetic text into its converted head and the trailing
// run of unresolved ASCII letters still waiting for more input.
func splitPending(s string) (head, tail string) {
	r := []rune(s)
	i := len(r)
	for i > 0 && isRomajiLetter(r[i-1]) {
		i--
	}
	return string(r[:i]), string(r[i:])
}

func isRomajiLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// convert greedily transliterates a romaji sequence. Unconvertible input is
// emitted literally; a trailing consonant that could still become kana with
// more input is left in place.
func convert(s string) string {
	var out strings.Builder
	r := []rune(strings.ToLower(s))
	i := 0
	for i < len(r) {
		// Sokuon: doubled consonant other than "nn".
		if i+1 < len(r) && r[i] == r[i+1] && isConsonant(r[i]) && r[i] != 'n' {
			out.WriteRune('っ')
			i++
			continue
		}
		// "n" before a consonant (or "nn") closes to ん. A following "y"
		// does not close it: it may still become にゃ/にゅ/にょ.
		if r[i] == 'n' && i+1 < len(r) {
			next := r[i+1]
			if next == 'n' {
				out.WriteRune('ん')
				i += 2
				continue
			}
			if isConsonant(next) && next != 'y' {
				out.WriteRune('ん')
				i++
				continue
			}
		}
		// A consonant run reaching the end of input stays literal: it is
		// still waiting for a vowel ("k", "ky", a lone "n").
		if isConsonant(r[i]) && allConsonants(r[i:]) {
			out.WriteString(string(r[i:]))
			break
		}
		// Longest match wins: 3-rune digraphs, then 2, then 1.
		matched := false
		for n := 3; n >= 1; n-- {
			if i+n > len(r) {
				continue
			}
			if k, ok := romajiTable[string(r[i:i+n])]; ok {
				out.WriteString(k)
				i += n
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		out.WriteRune(r[i])
		i++
	}
	return out.String()
}

func isConsonant(r rune) bool {
	switch r {
	case 'a', 'i', 'u', 'e', 'o':
		return false
	}
	return isRomajiLetter(r)
}

func allConsonants(r []rune) bool {
	for _, c := range r {
		if !isConsonant(c) {
			return false
		}
	}
	return true
}

// ToKatakana converts hiragana characters to katakana, leaving everything
// else (including the prolonged sound mark) untouched.
func ToKatakana(s string) string {
	var out strings.Builder
	for _, r := range s {
		if r >= 'ぁ' && r <= 'ゖ' {
			r += 'ァ' - 'ぁ'
		}
		out.WriteRune(r)
	}
	return out.String()
}

// ToHalfKatakana converts hiragana to half-width katakana.
func ToHalfKatakana(s string) string {
	return width.Narrow.String(ToKatakana(s))
}

// ToFullWidth converts ASCII characters to their full-width forms.
func ToFullWidth(s string) string {
	return width.Widen.String(s)
}

// ToHalfWidth converts full-width characters to their half-width forms.
func ToHalfWidth(s string) string {
	return width.Narrow.String(s)
}

// IsPhonetic reports whether s consists solely of phonetic characters:
// hiragana plus the prolonged sound mark. Dictionary readings are expected
// to satisfy this; callers use it for diagnostics, never for rejection.
func IsPhonetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == 'ー' {
			continue
		}
		if r < 'ぁ' || r > 'ゖ' {
			return false
		}
	}
	return true
}
