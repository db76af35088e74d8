// Package bridge is the call surface glue: one Session object owns the
// composing buffer, configuration store, candidate pool, engine handle, and
// learning state, and every exported entry point is a method on it. A
// single mutex serializes all calls; the foreign caller is expected to
// invoke entry points one at a time and the session enforces it.
package bridge

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"kanabridge/internal/arena"
	"kanabridge/internal/candidate"
	"kanabridge/internal/compose"
	"kanabridge/internal/config"
	"kanabridge/internal/engine"
	"kanabridge/internal/kana"
	"kanabridge/internal/learn"
)

// Options configures a session.
type Options struct {
	// InstallPath is the bridge's base directory: settings file, log file,
	// and learning memory live under it.
	InstallPath string

	// ConfigPath overrides the settings file location. Defaults to
	// InstallPath/settings.toml.
	ConfigPath string

	// EngineEnabled is the front-end's master switch for the engine tier;
	// the settings file can further disable it.
	EngineEnabled bool

	// WatchSettings reloads the settings file automatically on change.
	WatchSettings bool

	// Converter overrides the engine client (tests, offline tools).
	Converter engine.Converter

	// Clock overrides the calendar clock (tests).
	Clock candidate.Clock

	// Transliterator overrides the romaji converter (tests).
	Transliterator kana.Transliterator

	// Logger receives diagnostics; nil falls back to slog.Default.
	Logger *slog.Logger
}

// Session is the process-wide bridge state.
type Session struct {
	mu  sync.Mutex
	log *slog.Logger

	store   *config.Store
	text    *compose.ComposingText
	synth   *candidate.Synthesizer
	conv    engine.Converter
	pool    *arena.Arena
	lineBuf *arena.StringBuffer
	history *learn.History

	// context is the surrounding-text hint for the next synthesis.
	context string

	// lastEngine is the engine-tier slice of the last synthesized list;
	// only these candidates are learnable.
	lastEngine []engineRef

	closed bool
}

type engineRef struct {
	index   int // candidate index in the engine's own last list
	text    string
	reading string
}

// New constructs the session: loads configuration, prepares the candidate
// pool, opens the learning ledger, and connects the engine client (lazily;
// the engine process may not be up yet). Resource failures degrade and are
// logged; only a broken pool setup is fatal.
func New(opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = filepath.Join(opts.InstallPath, "settings.toml")
	}
	store := config.NewStore(cfgPath, log.With("component", "config"))
	if err := store.Load(); err != nil {
		// Defaults stay live; the settings UI may write the file later.
		log.Warn("starting with default settings", "error", err)
	}
	cfg := store.Config()

	conv := opts.Converter
	if conv == nil && opts.EngineEnabled && cfg.IPC.SocketPath != "" {
		cc := engine.ClientConfig{
			SocketPath:        cfg.IPC.SocketPath,
			CallTimeout:       time.Duration(cfg.IPC.CallTimeoutMs) * time.Millisecond,
			ReconnectCooldown: time.Duration(cfg.IPC.ReconnectCooldownSec) * time.Second,
		}
		conv = engine.NewClient(cc, log.With("component", "engine"))
	}
	if !opts.EngineEnabled {
		conv = nil
	}

	var history *learn.History
	if opts.InstallPath != "" {
		h, err := learn.Open(filepath.Join(opts.InstallPath, "learning"))
		if err != nil {
			log.Warn("learning memory unavailable", "error", err)
		} else {
			history = h
		}
	}

	pool := arena.New(arena.DefaultSlots, arena.DefaultStringCap)

	s := &Session{
		log:     log,
		store:   store,
		text:    compose.New(opts.Transliterator),
		synth:   candidate.NewSynthesizer(opts.Clock, pool.Cap(), log.With("component", "synthesizer")),
		conv:    conv,
		pool:    pool,
		lineBuf: arena.NewStringBuffer(),
		history: history,
	}

	if opts.WatchSettings {
		if err := store.Watch(func() {
			log.Info("settings reloaded by watcher")
		}); err != nil {
			log.Warn("settings watcher unavailable", "error", err)
		}
	}

	return s, nil
}

// LoadConfig re-reads the settings file and rebuilds the user dictionary.
// Failure keeps the previous state.
func (s *Session) LoadConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load()
}

// AppendText inserts raw input at the cursor.
func (s *Session) AppendText(input string) (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.Append(input)
}

// RemoveText deletes one phonetic unit backward.
func (s *Session) RemoveText() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.DeleteBackward(1)
}

// MoveCursor moves the cursor by a signed offset, clamped.
func (s *Session) MoveCursor(offset int) (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.text.MoveCursor(offset)
	return cur, s.text.Text()
}

// ClearText empties the buffer. This is a session boundary: the engine's
// per-session cache is invalidated.
func (s *Session) ClearText() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text.Clear()
	s.lastEngine = nil
	s.sessionBoundary()
}

// ComposedText synthesizes the candidate list for the current buffer,
// writes it into the pool, and retains the engine tier for learning. The
// returned slice is for in-process callers; the foreign caller reads the
// pool via Snapshot.
func (s *Session) ComposedText() []candidate.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.store.Config()
	list := s.synth.Synthesize(context.Background(), s.text, s.store.Dictionary(), cfg, s.conv, s.context)

	s.lastEngine = s.lastEngine[:0]
	for i, c := range list {
		s.pool.WriteCandidate(i, c.Text, c.Remainder, c.Reading, c.Consumed)
		if c.Source == candidate.SourceEngine {
			s.lastEngine = append(s.lastEngine, engineRef{
				index:   c.EngineIndex,
				text:    c.Text,
				reading: c.Reading,
			})
		}
	}
	return list
}

// Snapshot exposes the pool's slot array for the foreign caller. Valid
// until the next ComposedText call.
func (s *Session) Snapshot(count int) (unsafe.Pointer, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Snapshot(count)
}

// ShrinkText commits the first count phonetic units (candidate acceptance
// consumes from the left). This is a session boundary.
func (s *Session) ShrinkText(count int) (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, cur := s.text.AcceptPrefix(count)
	s.sessionBoundary()
	return text, cur
}

// SetContext stores the host application's left-side text, passed to the
// engine as a ranking hint on the next synthesis.
func (s *Session) SetContext(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = text
}

// LearnCandidate feeds the accepted engine candidate back to the engine
// and records it in the local ledger. An out-of-range index is a reported
// but non-fatal condition: logged, no state mutated.
func (s *Session) LearnCandidate(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.lastEngine) {
		s.log.Warn("learn index out of range", "index", index, "candidates", len(s.lastEngine))
		return
	}
	ref := s.lastEngine[index]

	if s.conv != nil {
		if err := s.conv.Learn(context.Background(), ref.index); err != nil {
			s.log.Warn("engine learn failed", "error", err)
		}
	}
	if s.history != nil {
		if err := s.history.Record(ref.text, ref.reading, time.Now()); err != nil {
			s.log.Warn("learning ledger write failed", "error", err)
		}
	}
}

// ResetLearningMemory discards engine-side learning state and the local
// ledger unconditionally.
func (s *Session) ResetLearningMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv != nil {
		if err := s.conv.ResetMemory(context.Background()); err != nil {
			s.log.Warn("engine memory reset failed", "error", err)
		}
	}
	if s.history != nil {
		if err := s.history.Reset(); err != nil {
			s.log.Warn("learning ledger reset failed", "error", err)
		}
	}
}

// Forms derives the alternate renderings of the current composition.
func (s *Session) Forms() compose.Forms {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.Forms()
}

// TransientText writes s into the reused transient buffer and returns its
// stable address, for entry points that return composition text.
func (s *Session) TransientText(text string) unsafe.Pointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lineBuf.Set(text)
}

// Close tears everything down: pool buffers, transient buffer, engine
// connection, learning ledger, settings watcher. Call exactly once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.pool.Release()
	s.lineBuf.Release()
	if s.conv != nil {
		s.conv.Close()
	}
	if s.history != nil {
		s.history.Close()
	}
	return s.store.Close()
}

// sessionBoundary tells the engine to drop its per-session composition
// cache. Called under the session mutex on every buffer-clearing
// transition; skipping it lets the cache grow for the lifetime of the
// input session.
func (s *Session) sessionBoundary() {
	if s.conv == nil {
		return
	}
	if err := s.conv.EndSession(context.Background()); err != nil {
		s.log.Warn("engine session reset failed", "error", err)
	}
}
