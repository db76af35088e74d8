package learn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestRecordAndHits(t *testing.T) {
	h := openHistory(t)
	now := time.Now()

	require.NoError(t, h.Record("今日", "きょう", now))
	require.NoError(t, h.Record("今日", "きょう", now.Add(time.Minute)))
	require.NoError(t, h.Record("京", "きょう", now))

	hits, err := h.Hits("今日", "きょう")
	require.NoError(t, err)
	assert.Equal(t, 2, hits)

	hits, err = h.Hits("京", "きょう")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	hits, err = h.Hits("無", "む")
	require.NoError(t, err)
	assert.Equal(t, 0, hits)
}

func TestReset(t *testing.T) {
	h := openHistory(t)
	require.NoError(t, h.Record("今日", "きょう", time.Now()))
	require.NoError(t, h.Reset())

	hits, err := h.Hits("今日", "きょう")
	require.NoError(t, err)
	assert.Equal(t, 0, hits)
}
