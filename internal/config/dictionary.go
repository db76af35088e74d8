package config

import (
	"log/slog"
	"sort"
	"strings"

	"kanabridge/internal/kana"
)

// Dictionary is the user dictionary in lookup form: reading to words in
// registration order (which is display priority). It is immutable once
// built; every reload builds a fresh one.
type Dictionary struct {
	words    map[string][]string
	readings []string // sorted; gives prefix scans a stable per-run order
}

// BuildDictionary indexes the configured entries. Entries with an empty word
// or reading are skipped; non-phonetic readings are kept (the settings UI
// owns validation) but logged, since they can never match composing text.
func BuildDictionary(entries []Entry, log *slog.Logger) *Dictionary {
	if log == nil {
		log = slog.Default()
	}
	d := &Dictionary{words: make(map[string][]string, len(entries))}
	for _, e := range entries {
		if e.Word == "" || e.Reading == "" {
			continue
		}
		if !kana.IsPhonetic(e.Reading) {
			log.Warn("dictionary reading is not phonetic", "word", e.Word, "reading", e.Reading)
		}
		if _, seen := d.words[e.Reading]; !seen {
			d.readings = append(d.readings, e.Reading)
		}
		d.words[e.Reading] = append(d.words[e.Reading], e.Word)
	}
	sort.Strings(d.readings)
	return d
}

// Exact returns the words registered under exactly this reading, in
// registration order.
func (d *Dictionary) Exact(reading string) []string {
	return d.words[reading]
}

// EachPrefix calls fn for every (reading, words) pair whose reading is a
// strict, non-equal prefix of text. Readings are visited in sorted order;
// within one reading, words keep registration order.
func (d *Dictionary) EachPrefix(text string, fn func(reading string, words []string) bool) {
	for _, r := range d.readings {
		if r != text && strings.HasPrefix(text, r) {
			if !fn(r, d.words[r]) {
				return
			}
		}
	}
}

// Len returns the number of distinct readings.
func (d *Dictionary) Len() int { return len(d.readings) }
