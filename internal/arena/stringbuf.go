package arena

/*
#include <stdlib.h>
*/
import "C"

import (
	"unicode/utf8"
	"unsafe"
)

// TransientCap is the byte capacity of a transient string buffer. The
// composing text is a single line of input; anything longer is truncated.
const TransientCap = 1024

// StringBuffer is a single reused C-heap string buffer for the transient
// return values of the text-mutation entry points (append/delete/move/
// shrink). One fixed buffer per purpose, rewritten each call, is the same
// reuse discipline as the candidate pool: the foreign caller copies the
// contents before the next call and never frees it mid-session.
type StringBuffer struct {
	buf *C.char
	cap int
}

// NewStringBuffer allocates one transient buffer.
func NewStringBuffer() *StringBuffer {
	return &StringBuffer{
		buf: (*C.char)(C.calloc(TransientCap, 1)),
		cap: TransientCap,
	}
}

// Set overwrites the buffer with s (truncated at a rune boundary if needed)
// and returns its stable address.
func (b *StringBuffer) Set(s string) unsafe.Pointer {
	out := unsafe.Slice((*byte)(unsafe.Pointer(b.buf)), b.cap)
	n := len(s)
	if n > b.cap-1 {
		n = b.cap - 1
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
	}
	copy(out[:n], s[:n])
	out[n] = 0
	return unsafe.Pointer(b.buf)
}

// Get reads the buffer contents back. For tests and diagnostics.
func (b *StringBuffer) Get() string {
	return C.GoString(b.buf)
}

// Release frees the buffer. Call exactly once at teardown.
func (b *StringBuffer) Release() {
	if b.buf != nil {
		C.free(unsafe.Pointer(b.buf))
		b.buf = nil
	}
}
