package tradelog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sim-trading-engine/internal/journal"
	"sim-trading-engine/internal/types"
)

func readLines(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestWriteAppendsDailyFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, 0)
	require.NoError(t, err)
	ctx := context.Background()

	day1 := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Minute)

	require.NoError(t, w.Write(ctx, journal.Record{ID: "a", Type: types.EventOrderCreated, At: day1, Payload: json.RawMessage(`{"id":"o-1"}`)}))
	require.NoError(t, w.Write(ctx, journal.Record{ID: "b", Type: types.EventOrderUpdated, At: day1.Add(time.Second), Payload: json.RawMessage(`{"id":"o-1"}`)}))
	require.NoError(t, w.Write(ctx, journal.Record{ID: "c", Type: types.EventSignalGenerated, At: day2}))
	require.NoError(t, w.Close())

	first := readLines(t, filepath.Join(dir, "2024-03-01.jsonl"))
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].ID)
	assert.Equal(t, "order_created", first[0].Type)
	assert.JSONEq(t, `{"id":"o-1"}`, string(first[0].Data))
	assert.Equal(t, "b", first[1].ID)

	second := readLines(t, w.DailyFilepath(day2))
	require.Len(t, second, 1)
	assert.Equal(t, "signal_generated", second[0].Type)
	assert.Empty(t, second[0].Data)
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "2024-01-01.jsonl")
	fresh := filepath.Join(dir, "2024-03-01.jsonl")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte(`{"id":"x"}`+"\n"), 0o644))
	}
	stale := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(old, stale, stale))
	require.NoError(t, os.Chtimes(other, stale, stale))

	require.NoError(t, CompressOlder(dir, 7))

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)

	f, err := os.Open(old + ".gz")
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	b, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"x"}`+"\n", string(b))
}

func TestCompressOlderDisabled(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "2024-01-01.jsonl")
	require.NoError(t, os.WriteFile(p, []byte("{}\n"), 0o644))
	stale := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(p, stale, stale))

	require.NoError(t, CompressOlder(dir, 0))
	assert.FileExists(t, p)
}
