// Package arena manages the pool of C-heap buffers surfaced across the
// foreign-function boundary. Every slot is allocated once, at a stable
// address outside the Go heap, and reused on every synthesis call; the
// foreign caller reads the pool between one call and the next and never
// frees individual buffers. The trade for leak-free reuse is a hard cap on
// candidate count and string length.
package arena

/*
#include <stdlib.h>
#include <string.h>

typedef struct {
	char *text;
	char *remainder;
	char *reading;
	int   consumed;
} kb_candidate;
*/
import "C"

import (
	"unicode/utf8"
	"unsafe"
)

// Pool capacities. The candidate window never shows more than a few dozen
// entries, and composition strings are short; anything beyond these caps is
// dropped or truncated.
const (
	DefaultSlots     = 100
	DefaultStringCap = 256
)

// Arena is the slot pool. Not safe for concurrent use; the bridge session
// serializes access.
type Arena struct {
	slots     *C.kb_candidate
	slotCount int
	stringCap int
}

// New allocates a pool of slotCount candidate slots whose string buffers
// hold stringCap bytes each (including the NUL terminator). Non-positive
// arguments fall back to the defaults.
func New(slotCount, stringCap int) *Arena {
	if slotCount <= 0 {
		slotCount = DefaultSlots
	}
	if stringCap <= 0 {
		stringCap = DefaultStringCap
	}
	a := &Arena{
		slots:     (*C.kb_candidate)(C.calloc(C.size_t(slotCount), C.size_t(unsafe.Sizeof(C.kb_candidate{})))),
		slotCount: slotCount,
		stringCap: stringCap,
	}
	for i := 0; i < slotCount; i++ {
		s := a.slot(i)
		s.text = (*C.char)(C.calloc(C.size_t(stringCap), 1))
		s.remainder = (*C.char)(C.calloc(C.size_t(stringCap), 1))
		s.reading = (*C.char)(C.calloc(C.size_t(stringCap), 1))
	}
	return a
}

// Cap returns the number of slots.
func (a *Arena) Cap() int { return a.slotCount }

// StringCap returns the byte capacity of each string buffer.
func (a *Arena) StringCap() int { return a.stringCap }

func (a *Arena) slot(i int) *C.kb_candidate {
	return &unsafe.Slice(a.slots, a.slotCount)[i]
}

// WriteCandidate copies the candidate fields into slot i. Strings longer
// than the buffer are truncated at a rune boundary and always
// NUL-terminated; nothing on this path allocates.
func (a *Arena) WriteCandidate(i int, text, remainder, reading string, consumed int) bool {
	if i < 0 || i >= a.slotCount {
		return false
	}
	s := a.slot(i)
	writeCString(s.text, a.stringCap, text)
	writeCString(s.remainder, a.stringCap, remainder)
	writeCString(s.reading, a.stringCap, reading)
	s.consumed = C.int(consumed)
	return true
}

// Snapshot returns the address of the slot array and the number of readable
// slots, clamped to capacity. The foreign caller must treat the memory as
// read-only and valid only until the next synthesis call.
func (a *Arena) Snapshot(count int) (unsafe.Pointer, int) {
	if count < 0 {
		count = 0
	}
	if count > a.slotCount {
		count = a.slotCount
	}
	return unsafe.Pointer(a.slots), count
}

// Release frees every slot buffer and the slot array. The pool is unusable
// afterwards; the caller invokes this exactly once at teardown.
func (a *Arena) Release() {
	if a.slots == nil {
		return
	}
	for i := 0; i < a.slotCount; i++ {
		s := a.slot(i)
		C.free(unsafe.Pointer(s.text))
		C.free(unsafe.Pointer(s.remainder))
		C.free(unsafe.Pointer(s.reading))
	}
	C.free(unsafe.Pointer(a.slots))
	a.slots = nil
}

// SlotText reads back slot i's display text. For tests and diagnostics.
func (a *Arena) SlotText(i int) string { return readBack(a.slot(i).text) }

// SlotRemainder reads back slot i's remainder text.
func (a *Arena) SlotRemainder(i int) string { return readBack(a.slot(i).remainder) }

// SlotReading reads back slot i's reading text.
func (a *Arena) SlotReading(i int) string { return readBack(a.slot(i).reading) }

// SlotConsumed reads back slot i's consumed-unit count.
func (a *Arena) SlotConsumed(i int) int { return int(a.slot(i).consumed) }

// writeCString copies s into the dst buffer of the given capacity,
// truncating at a UTF-8 rune boundary so a clipped string is still valid,
// and NUL-terminates.
func writeCString(dst *C.char, capacity int, s string) {
	buf := unsafe.Slice((*byte)(unsafe.Pointer(dst)), capacity)
	n := len(s)
	if n > capacity-1 {
		n = capacity - 1
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
	}
	copy(buf[:n], s[:n])
	buf[n] = 0
}

func readBack(p *C.char) string {
	return C.GoString(p)
}
