package bridge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanabridge/internal/candidate"
	"kanabridge/internal/engine"
)

const testSettings = `
[engine]
enabled = true

[dictionary]
entries = [
  { word = "今日", reading = "きょう" },
]
`

func newTestSession(t *testing.T, stub *engine.Stub) *Session {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.toml"), []byte(testSettings), 0o644))

	s, err := New(Options{
		InstallPath:   dir,
		EngineEnabled: true,
		Converter:     stub,
		Clock:         candidate.FixedClock{T: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionComposeFlow(t *testing.T) {
	stub := &engine.Stub{ConvertFunc: func(q engine.Query) (*engine.Result, error) {
		return &engine.Result{Candidates: []engine.Candidate{{
			Fragments: []engine.Fragment{{Word: "強", Phonetic: "きょう"}},
			Consumed:  3,
		}}}, nil
	}}
	s := newTestSession(t, stub)

	text, cur := s.AppendText("kyou")
	assert.Equal(t, "きょう", text)
	assert.Equal(t, 3, cur)

	list := s.ComposedText()
	require.NotEmpty(t, list)
	assert.Equal(t, "今日", list[0].Text)
	assert.Equal(t, candidate.SourceExactDict, list[0].Source)

	// The pool mirrors the list for the foreign caller.
	_, n := s.Snapshot(len(list))
	assert.Equal(t, len(list), n)

	// Accept the full composition.
	text, cur = s.ShrinkText(3)
	assert.Equal(t, "", text)
	assert.Equal(t, 0, cur)
	assert.Equal(t, 1, stub.SessionEnds, "commit is a session boundary")
}

func TestSessionClearResetsEngineCache(t *testing.T) {
	stub := &engine.Stub{}
	s := newTestSession(t, stub)

	s.AppendText("ka")
	s.ClearText()
	assert.Equal(t, 1, stub.SessionEnds)

	text, cur := s.AppendText("")
	assert.Equal(t, "", text)
	assert.Equal(t, 0, cur)
}

func TestSessionLearnCandidate(t *testing.T) {
	stub := &engine.Stub{ConvertFunc: func(q engine.Query) (*engine.Result, error) {
		return &engine.Result{Candidates: []engine.Candidate{
			{Fragments: []engine.Fragment{{Word: "蟹", Phonetic: "かに"}}, Consumed: 2},
			{Fragments: []engine.Fragment{{Word: "カニ", Phonetic: "かに"}}, Consumed: 2},
		}}, nil
	}}
	s := newTestSession(t, stub)

	s.AppendText("kani")
	s.ComposedText()

	s.LearnCandidate(1)
	require.Equal(t, []int{1}, stub.Learned)

	// Out of range: logged, no engine call, no crash.
	s.LearnCandidate(-1)
	s.LearnCandidate(99)
	assert.Equal(t, []int{1}, stub.Learned)
}

func TestSessionLearnIndexCountsEngineTierOnly(t *testing.T) {
	// The learn index addresses the engine-candidate list, not the merged
	// list: dictionary candidates ahead of the engine tier do not shift it.
	stub := &engine.Stub{ConvertFunc: func(q engine.Query) (*engine.Result, error) {
		return &engine.Result{Candidates: []engine.Candidate{
			{Fragments: []engine.Fragment{{Word: "強", Phonetic: "きょう"}}, Consumed: 3},
		}}, nil
	}}
	s := newTestSession(t, stub)

	s.AppendText("kyou")
	list := s.ComposedText()
	require.Greater(t, len(list), 1, "dictionary and calendar tiers precede the engine tier")

	s.LearnCandidate(0)
	assert.Equal(t, []int{0}, stub.Learned)
}

func TestSessionResetLearningMemory(t *testing.T) {
	stub := &engine.Stub{}
	s := newTestSession(t, stub)

	s.ResetLearningMemory()
	assert.Equal(t, 1, stub.Resets)
}

func TestSessionSetContextReachesEngine(t *testing.T) {
	var gotContext string
	stub := &engine.Stub{ConvertFunc: func(q engine.Query) (*engine.Result, error) {
		gotContext = q.Context
		return &engine.Result{}, nil
	}}
	s := newTestSession(t, stub)

	s.SetContext("お元気ですか。")
	s.AppendText("hai")
	s.ComposedText()
	assert.Equal(t, "お元気ですか。", gotContext)
}

func TestSessionEmptyBufferSynthesis(t *testing.T) {
	called := false
	stub := &engine.Stub{ConvertFunc: func(q engine.Query) (*engine.Result, error) {
		called = true
		return &engine.Result{}, nil
	}}
	s := newTestSession(t, stub)

	s.ClearText()
	list := s.ComposedText()
	assert.Empty(t, list)
	assert.False(t, called)
}

func TestSessionForms(t *testing.T) {
	s := newTestSession(t, &engine.Stub{})
	s.AppendText("kana")
	f := s.Forms()
	assert.Equal(t, "かな", f.Hiragana)
	assert.Equal(t, "カナ", f.Katakana)
	assert.Equal(t, "kana", f.HalfLatin)
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s := newTestSession(t, &engine.Stub{})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
