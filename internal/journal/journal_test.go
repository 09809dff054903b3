package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "results.json")
	s := New(path, nil)

	require.NoError(t, s.Record("bridge", Entry{Address: "0xa", TxHash: "0x1"}))
	require.NoError(t, s.Record("claim", Entry{Address: "0xa", TxHash: "0x2"}))
	require.NoError(t, s.Record("bridge", Entry{Address: "0xb", TxHash: "0x3"}))

	bridge, err := New(path, nil).Entries("bridge")
	require.NoError(t, err)
	require.Len(t, bridge, 2)
	assert.Equal(t, "0x3", bridge[1].TxHash)
	assert.False(t, bridge[0].Time.IsZero())

	claim, err := s.Entries("claim")
	require.NoError(t, err)
	assert.Len(t, claim, 1)
}

func TestRecordMovesCorruptFileAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(path, nil)
	s.now = func() time.Time { return time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC) }

	_, err := s.Entries("claim")
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, s.Record("claim", Entry{TxHash: "0x1"}))
	got, err := s.Entries("claim")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	backup, err := os.ReadFile(filepath.Join(dir, "results.json.corrupt-20241001T120000"))
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backup))
}

func TestRecordConcurrent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "results.json"), nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Record("bridge", Entry{TxHash: fmt.Sprintf("0x%d", i)}))
		}(i)
	}
	wg.Wait()
	got, err := s.Entries("bridge")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}
