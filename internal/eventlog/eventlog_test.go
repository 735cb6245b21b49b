package eventlog

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendKeepsOrder(t *testing.T) {
	l := New(10)
	for i := 0; i < 3; i++ {
		l.Append(Entry{Time: time.Now(), Level: "info", Message: fmt.Sprintf("event %d", i)})
	}

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "event 0", entries[0].Message)
	assert.Equal(t, "event 2", entries[2].Message)
}

func TestFullLogDropsOldest(t *testing.T) {
	l := New(3)
	for i := 0; i < 5; i++ {
		l.Append(Entry{Message: fmt.Sprintf("event %d", i)})
	}

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "event 2", entries[0].Message)
	assert.Equal(t, "event 4", entries[2].Message)
	assert.Equal(t, 3, l.Len())
}

func TestDefaultCapacity(t *testing.T) {
	l := New(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		l.Append(Entry{Message: fmt.Sprintf("event %d", i)})
	}
	assert.Equal(t, DefaultCapacity, l.Len())
	assert.Equal(t, "event 10", l.Entries()[0].Message)
}

func TestZerologHook(t *testing.T) {
	l := New(10)
	logger := zerolog.New(io.Discard).Hook(l)

	logger.Info().Str("room", "demo").Msg("joined room")
	logger.Warn().Msg("no answer")

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "joined room", entries[0].Message)
	assert.Equal(t, "warn", entries[1].Level)
}
