// Command kanabridge-ffi builds the bridge as a C shared library:
//
//	go build -buildmode=c-shared -o kanabridge.dll ./cmd/kanabridge-ffi
//
// The exported functions below are the whole foreign surface. The caller
// is a text-service front end that invokes them one at a time from its
// own thread; the session's internal mutex backs that contract up.
package main

/*
#include <stdlib.h>
#include "kanabridge.h"
*/
import "C"

import (
	"log/slog"
	"path/filepath"
	"unsafe"

	"kanabridge/internal/bridge"
	"kanabridge/internal/logging"
)

var session *bridge.Session

// KanabridgeInitialize builds the process-wide session rooted at
// installPath. engineEnabled is the front end's master switch for the
// conversion engine tier. Returns 0 on success, nonzero when the session
// could not be constructed; a nonzero return leaves no session behind and
// every other entry point becomes a no-op.
//
//export KanabridgeInitialize
func KanabridgeInitialize(installPath *C.char, engineEnabled C.int) C.int {
	if session != nil {
		return 0
	}
	root := C.GoString(installPath)

	if _, err := logging.Setup(logging.Config{
		Level:     "info",
		Format:    "text",
		FilePath:  filepath.Join(root, "kanabridge.log"),
		Component: "bridge",
	}); err != nil {
		// Console-less host process; keep going with the default handler.
		slog.Warn("log file unavailable", "error", err)
	}

	s, err := bridge.New(bridge.Options{
		InstallPath:   root,
		EngineEnabled: engineEnabled != 0,
		WatchSettings: true,
	})
	if err != nil {
		slog.Error("session setup failed", "error", err)
		logging.Close()
		return 1
	}
	session = s
	slog.Info("bridge initialized", "install_path", root, "engine", engineEnabled != 0)
	return 0
}

// KanabridgeLoadConfig re-reads the settings file. Failure keeps the
// previous configuration.
//
//export KanabridgeLoadConfig
func KanabridgeLoadConfig() {
	if session == nil {
		return
	}
	if err := session.LoadConfig(); err != nil {
		slog.Warn("settings reload failed", "error", err)
	}
}

// KanabridgeAppendText inserts UTF-8 input at the cursor and returns the
// updated phonetic text. The returned pointer is a reused transient
// buffer, valid until the next text-returning call; do not free it. The
// cursor position in phonetic units is written through outCursor.
//
//export KanabridgeAppendText
func KanabridgeAppendText(input *C.char, outCursor *C.int) *C.char {
	if session == nil {
		return nil
	}
	text, cur := session.AppendText(C.GoString(input))
	if outCursor != nil {
		*outCursor = C.int(cur)
	}
	return (*C.char)(session.TransientText(text))
}

// KanabridgeRemoveText deletes one phonetic unit before the cursor and
// returns the updated text. Same buffer lifetime as KanabridgeAppendText.
//
//export KanabridgeRemoveText
func KanabridgeRemoveText(outCursor *C.int) *C.char {
	if session == nil {
		return nil
	}
	text, cur := session.RemoveText()
	if outCursor != nil {
		*outCursor = C.int(cur)
	}
	return (*C.char)(session.TransientText(text))
}

// KanabridgeMoveCursor moves the cursor by a signed offset in phonetic
// units, clamped to the buffer, and returns the (unchanged) text.
//
//export KanabridgeMoveCursor
func KanabridgeMoveCursor(offset C.int, outCursor *C.int) *C.char {
	if session == nil {
		return nil
	}
	cur, text := session.MoveCursor(int(offset))
	if outCursor != nil {
		*outCursor = C.int(cur)
	}
	return (*C.char)(session.TransientText(text))
}

// KanabridgeClearText empties the composition buffer and ends the
// engine-side conversion session.
//
//export KanabridgeClearText
func KanabridgeClearText() {
	if session == nil {
		return
	}
	session.ClearText()
}

// KanabridgeGetComposedText synthesizes the candidate list for the
// current buffer and returns a pointer to the slot array, writing the
// candidate count through outCount. The array and every string in it are
// owned by the bridge and stay valid until the next call; do not free
// them. An empty buffer yields a NULL array and count 0.
//
//export KanabridgeGetComposedText
func KanabridgeGetComposedText(outCount *C.int) *C.kb_candidate {
	if session == nil {
		if outCount != nil {
			*outCount = 0
		}
		return nil
	}
	list := session.ComposedText()
	ptr, n := session.Snapshot(len(list))
	if outCount != nil {
		*outCount = C.int(n)
	}
	if n == 0 {
		return nil
	}
	return (*C.kb_candidate)(ptr)
}

// KanabridgeShrinkText commits the first count phonetic units of the
// buffer (the accepted candidate's consumed span) and returns the
// remaining text. Ends the engine-side conversion session.
//
//export KanabridgeShrinkText
func KanabridgeShrinkText(count C.int, outCursor *C.int) *C.char {
	if session == nil {
		return nil
	}
	text, cur := session.ShrinkText(int(count))
	if outCursor != nil {
		*outCursor = C.int(cur)
	}
	return (*C.char)(session.TransientText(text))
}

// KanabridgeSetContext stores the host application's text left of the
// insertion point, used as a ranking hint on the next synthesis.
//
//export KanabridgeSetContext
func KanabridgeSetContext(text *C.char) {
	if session == nil {
		return
	}
	session.SetContext(C.GoString(text))
}

// KanabridgeLearnCandidate reports that the engine-tier candidate at the
// given index (counting engine candidates only, in list order) was
// accepted. An out-of-range index is logged and ignored.
//
//export KanabridgeLearnCandidate
func KanabridgeLearnCandidate(index C.int) {
	if session == nil {
		return
	}
	session.LearnCandidate(int(index))
}

// KanabridgeResetLearningMemory discards engine-side learning state and
// the local ledger.
//
//export KanabridgeResetLearningMemory
func KanabridgeResetLearningMemory() {
	if session == nil {
		return
	}
	session.ResetLearningMemory()
}

// KanabridgeFreeString frees a string the bridge explicitly handed over
// with transfer of ownership. Pointers returned by the text and candidate
// entry points are bridge-owned and must NOT be passed here.
//
//export KanabridgeFreeString
func KanabridgeFreeString(p *C.char) {
	C.free(unsafe.Pointer(p))
}

// KanabridgeFree tears the session down: candidate pool, transient
// buffer, engine connection, learning ledger, settings watcher. All
// previously returned pointers become invalid. Safe to call twice.
//
//export KanabridgeFree
func KanabridgeFree() {
	if session == nil {
		return
	}
	if err := session.Close(); err != nil {
		slog.Warn("teardown error", "error", err)
	}
	session = nil
	logging.Close()
}

func main() {}
