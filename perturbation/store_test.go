package perturbation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viperlab/viper/engine"
)

type memSink struct {
	batches [][]Record
	err     error
}

func (m *memSink) Write(_ context.Context, records []Record) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, append([]Record(nil), records...))
	return nil
}

func TestStore_AddKeepsOrderAndDuplicates(t *testing.T) {
	sink := &memSink{}
	s := NewStore(sink)
	s.Add("a", "α")
	s.Add("b", "ƀ")
	s.Add("a", "α")
	assert.Equal(t, 3, s.Len())

	wrote, err := s.FlushIfAny(context.Background())
	require.NoError(t, err)
	assert.True(t, wrote)
	require.Len(t, sink.batches, 1)
	assert.Equal(t, []Record{{"a", "α"}, {"b", "ƀ"}, {"a", "α"}}, sink.batches[0])
}

func TestStore_FlushEmptyWritesNothing(t *testing.T) {
	sink := &memSink{}
	wrote, err := NewStore(sink).FlushIfAny(context.Background())
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Empty(t, sink.batches)
}

func TestStore_FlushError(t *testing.T) {
	s := NewStore(&memSink{err: errors.New("disk full")})
	s.Add("a", "4")
	_, err := s.FlushIfAny(context.Background())
	assert.EqualError(t, err, "disk full")

	s = NewStore(nil)
	s.Add("a", "4")
	_, err = s.FlushIfAny(context.Background())
	assert.Error(t, err)
}

func TestTSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perturbations.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	sink := &TSVSink{Path: path}
	require.NoError(t, sink.Write(context.Background(), []Record{{"a", "α"}, {"o", "0"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\tα\no\t0\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestNewSink_NoFileWithoutRecords(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"p.txt", "p.sqlite"} {
		sink, runID := NewSink(filepath.Join(dir, name), "")
		assert.NotEmpty(t, runID)
		wrote, err := NewStore(sink).FlushIfAny(context.Background())
		require.NoError(t, err)
		assert.False(t, wrote)
		_, err = os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), name)
	}
}

func TestNewSink_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "p.sqlite")

	sink, runID := NewSink(path, "run-1")
	assert.Equal(t, "run-1", runID)
	s := NewStore(sink)
	s.Add("a", "α")
	s.Add("b", "ƀ")
	wrote, err := s.FlushIfAny(ctx)
	require.NoError(t, err)
	assert.True(t, wrote)

	sink2, _ := NewSink(path, "run-2")
	s2 := NewStore(sink2)
	s2.Add("c", "ċ")
	_, err = s2.FlushIfAny(ctx)
	require.NoError(t, err)

	db, err := engine.Open(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := RunRecords(ctx, db, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []Record{{"a", "α"}, {"b", "ƀ"}}, got)
	got, err = RunRecords(ctx, db, "run-2")
	require.NoError(t, err)
	assert.Equal(t, []Record{{"c", "ċ"}}, got)
}
