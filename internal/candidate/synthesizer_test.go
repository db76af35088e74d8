package candidate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanabridge/internal/compose"
	"kanabridge/internal/config"
	"kanabridge/internal/engine"
)

func buffer(t *testing.T, raw string) *compose.ComposingText {
	t.Helper()
	c := compose.New(nil)
	c.Append(raw)
	return c
}

func enabledConfig() *config.Config {
	cfg := config.Default()
	cfg.Engine.Enabled = true
	return cfg
}

func dict(entries ...config.Entry) *config.Dictionary {
	return config.BuildDictionary(entries, nil)
}

func TestMergeOrdering(t *testing.T) {
	// Text equal to a registered exact reading: exact matches come first,
	// then prefix matches, then engine output.
	d := dict(
		config.Entry{Word: "今日", Reading: "きょう"},
		config.Entry{Word: "京", Reading: "き"},
	)
	stub := &engine.Stub{ConvertFunc: func(q engine.Query) (*engine.Result, error) {
		return &engine.Result{Candidates: []engine.Candidate{{
			Fragments: []engine.Fragment{{Word: "強", Phonetic: "きょう"}},
			Consumed:  3,
		}}}, nil
	}}

	s := NewSynthesizer(FixedClock{T: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}, 100, nil)
	got := s.Synthesize(context.Background(), buffer(t, "kyou"), d, enabledConfig(), stub, "")

	require.NotEmpty(t, got)
	assert.Equal(t, "今日", got[0].Text)
	assert.Equal(t, SourceExactDict, got[0].Source)
	assert.Equal(t, "", got[0].Remainder)
	assert.Equal(t, 3, got[0].Consumed)

	assert.Equal(t, "京", got[1].Text)
	assert.Equal(t, SourcePrefixDict, got[1].Source)
	assert.Equal(t, "ょう", got[1].Remainder)
	assert.Equal(t, 1, got[1].Consumed)

	// きょう is also a calendar keyword; its expansions rank after the
	// dictionary tiers and before the engine tier.
	assert.Equal(t, SourceCalendar, got[2].Source)
	assert.Equal(t, "2024年3月5日", got[2].Text)

	last := got[len(got)-1]
	assert.Equal(t, SourceEngine, last.Source)
	assert.Equal(t, "強", last.Text)
	assert.Equal(t, 0, last.EngineIndex)
}

func TestPrefixNeverFiresOnExactReading(t *testing.T) {
	d := dict(config.Entry{Word: "木", Reading: "き"})
	s := NewSynthesizer(nil, 100, nil)
	got := s.Synthesize(context.Background(), buffer(t, "ki"), d, enabledConfig(), &engine.Stub{}, "")

	require.NotEmpty(t, got)
	for _, c := range got {
		assert.NotEqual(t, SourcePrefixDict, c.Source,
			"reading equal to the text must be exact-tier only")
	}
	assert.Equal(t, SourceExactDict, got[0].Source)
}

func TestCalendarDeterminism(t *testing.T) {
	clock := FixedClock{T: time.Date(2024, 3, 5, 10, 7, 0, 0, time.UTC)} // a Tuesday
	s := NewSynthesizer(clock, 100, nil)
	empty := dict()
	cfg := enabledConfig()
	cfg.Engine.Enabled = false

	cases := []struct {
		raw  string
		want []string
	}{
		{"kyou", []string{"2024年3月5日", "2024/03/05", "3月5日", "3月5日(火)", "2024.03.05"}},
		{"ashita", []string{"2024年3月6日", "2024/03/06", "3月6日", "3月6日(水)", "2024.03.06"}},
		{"kinou", []string{"2024年3月4日", "2024/03/04", "3月4日", "3月4日(月)", "2024.03.04"}},
		{"ima", []string{"10時7分", "10:07"}},
		{"nichiji", []string{"2024年3月5日10時7分", "2024/03/05 10:07"}},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got := s.Synthesize(context.Background(), buffer(t, tc.raw), empty, cfg, nil, "")
			var texts []string
			for _, c := range got {
				if c.Source == SourceCalendar {
					texts = append(texts, c.Text)
					assert.Equal(t, "", c.Remainder)
				}
			}
			assert.Equal(t, tc.want, texts)
		})
	}
}

func TestCalendarRequiresFullMatch(t *testing.T) {
	s := NewSynthesizer(FixedClock{T: time.Now()}, 100, nil)
	cfg := enabledConfig()
	cfg.Engine.Enabled = false

	// きょうは: keyword plus trailing text, no calendar expansion.
	got := s.Synthesize(context.Background(), buffer(t, "kyouha"), dict(), cfg, nil, "")
	for _, c := range got {
		assert.NotEqual(t, SourceCalendar, c.Source)
	}
}

func TestEngineFragmentRendering(t *testing.T) {
	stub := &engine.Stub{ConvertFunc: func(q engine.Query) (*engine.Result, error) {
		return &engine.Result{Candidates: []engine.Candidate{
			{
				Fragments: []engine.Fragment{
					{Word: "私", Phonetic: "わたし"},
					{Word: "は", Phonetic: "は"},
				},
				Consumed: 4,
			},
			{
				// Second fragment's span exceeds the remaining text:
				// remaining text is appended literally.
				Fragments: []engine.Fragment{
					{Word: "私", Phonetic: "わたし"},
					{Word: "埴輪", Phonetic: "はにわ"},
				},
				Consumed: 3,
			},
		}}, nil
	}}
	s := NewSynthesizer(nil, 100, nil)
	got := s.Synthesize(context.Background(), buffer(t, "watashiha"), dict(), enabledConfig(), stub, "")

	var eng []Candidate
	for _, c := range got {
		if c.Source == SourceEngine {
			eng = append(eng, c)
		}
	}
	require.Len(t, eng, 2)

	assert.Equal(t, "私は", eng[0].Text)
	assert.Equal(t, "", eng[0].Remainder)
	assert.Equal(t, 4, eng[0].Consumed)

	assert.Equal(t, "私は", eng[1].Text) // わたし→私, then literal は
	assert.Equal(t, "は", eng[1].Remainder)
	assert.Equal(t, 3, eng[1].Consumed)
	assert.Equal(t, "わたし", eng[1].Reading)
}

func TestEngineFailureDegradesToLiteral(t *testing.T) {
	stub := &engine.Stub{ConvertFunc: func(q engine.Query) (*engine.Result, error) {
		return nil, errors.New("engine down")
	}}
	s := NewSynthesizer(nil, 100, nil)
	got := s.Synthesize(context.Background(), buffer(t, "kana"), dict(), enabledConfig(), stub, "")

	require.Len(t, got, 1)
	assert.Equal(t, SourceLiteral, got[0].Source)
	assert.Equal(t, "かな", got[0].Text)
	assert.Equal(t, 2, got[0].Consumed)
}

func TestEngineDisabledSkipsConvert(t *testing.T) {
	called := false
	stub := &engine.Stub{ConvertFunc: func(q engine.Query) (*engine.Result, error) {
		called = true
		return &engine.Result{}, nil
	}}
	cfg := enabledConfig()
	cfg.Engine.Enabled = false

	s := NewSynthesizer(nil, 100, nil)
	got := s.Synthesize(context.Background(), buffer(t, "kana"), dict(), cfg, stub, "")

	assert.False(t, called)
	require.Len(t, got, 1)
	assert.Equal(t, SourceLiteral, got[0].Source)
}

func TestCapacityDrop(t *testing.T) {
	// More candidates than the limit: the list is cut at the limit with no
	// failure, and earlier tiers win the slots.
	entries := make([]config.Entry, 0, 20)
	for i := 0; i < 20; i++ {
		entries = append(entries, config.Entry{Word: fmt.Sprintf("語%d", i), Reading: "かな"})
	}
	d := dict(entries...)

	s := NewSynthesizer(nil, 5, nil)
	got := s.Synthesize(context.Background(), buffer(t, "kana"), d, enabledConfig(), &engine.Stub{}, "")

	require.Len(t, got, 5)
	for _, c := range got {
		assert.Equal(t, SourceExactDict, c.Source)
	}
}

func TestEmptyBufferYieldsNothing(t *testing.T) {
	called := false
	stub := &engine.Stub{ConvertFunc: func(q engine.Query) (*engine.Result, error) {
		called = true
		return &engine.Result{}, nil
	}}
	s := NewSynthesizer(nil, 100, nil)
	got := s.Synthesize(context.Background(), compose.New(nil), dict(), enabledConfig(), stub, "")
	assert.Empty(t, got)
	assert.False(t, called, "engine must not be consulted for empty text")
}

func TestSynthesizeDoesNotMutateBuffer(t *testing.T) {
	b := buffer(t, "kyouha")
	before, cur := b.Text(), b.Cursor()

	s := NewSynthesizer(nil, 100, nil)
	s.Synthesize(context.Background(), b, dict(config.Entry{Word: "今日", Reading: "きょう"}), enabledConfig(), &engine.Stub{}, "")

	assert.Equal(t, before, b.Text())
	assert.Equal(t, cur, b.Cursor())
}
