package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_FileAndTail(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sniper.log")
	tail := NewLogBuffer(10)

	log, err := New(Config{Level: "debug", File: file, MaxSizeMB: 1, Tail: tail})
	require.NoError(t, err)

	log.Named("discovery").Info("position opened", zap.String("token", "A"))
	log.Debug("tick")
	require.NoError(t, Sync(log))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"position opened"`)
	assert.Contains(t, string(data), `"token":"A"`)
	assert.Contains(t, string(data), `"level":"INFO"`)

	entries := tail.GetRecentLogs(0)
	require.Len(t, entries, 2)
	assert.Equal(t, "position opened", entries[0].Message)
	assert.Equal(t, "discovery", entries[0].Logger)
	assert.Equal(t, "info", entries[0].Level)
	assert.False(t, entries[0].Timestamp.IsZero())
	assert.Equal(t, "debug", entries[1].Level)
}

func TestNew_LevelFilter(t *testing.T) {
	tail := NewLogBuffer(10)
	log, err := New(Config{Level: "warn", Tail: tail})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")

	entries := tail.GetRecentLogs(0)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0].Message)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "loud"))
}

func TestNew_NoSinksIsNop(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	assert.NotPanics(t, func() { log.Info("nothing") })
}

func TestLogBuffer_Wraps(t *testing.T) {
	tail := NewLogBuffer(3)
	log, err := New(Config{Tail: tail})
	require.NoError(t, err)

	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		log.Info(msg)
	}

	entries := tail.GetRecentLogs(0)
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].Message)
	assert.Equal(t, "e", entries[2].Message)

	last := tail.GetRecentLogs(2)
	require.Len(t, last, 2)
	assert.Equal(t, "d", last[0].Message)

	total, dropped := tail.GetStats()
	assert.Equal(t, uint64(5), total)
	assert.Zero(t, dropped)
}

func TestLogBuffer_SkipsGarbage(t *testing.T) {
	tail := NewLogBuffer(3)
	n, err := tail.Write([]byte("not json"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	_, dropped := tail.GetStats()
	assert.Equal(t, uint64(1), dropped)
	assert.Empty(t, tail.GetRecentLogs(0))
}

func TestLogBuffer_ConcurrentAccess(t *testing.T) {
	tail := NewLogBuffer(50)
	log, err := New(Config{Tail: tail})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				log.Info("line", zap.Int("goroutine", id), zap.Int("iteration", j))
				_ = tail.GetRecentLogs(5)
			}
		}(i)
	}
	wg.Wait()

	total, _ := tail.GetStats()
	assert.Equal(t, uint64(1000), total)
	assert.Len(t, tail.GetRecentLogs(0), 50)
}
