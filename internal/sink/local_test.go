package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/index-inspector/internal/hash/sha256"
	"github.com/JakeFAU/index-inspector/internal/inspection"
	"github.com/JakeFAU/index-inspector/internal/storage/memory"
)

func TestNewLocalValidates(t *testing.T) {
	t.Parallel()

	_, err := NewLocal(nil, LocalConfig{Name: "x"}, nil)
	require.Error(t, err)

	_, err = NewLocal(memory.NewBlobStore(), LocalConfig{}, nil)
	require.Error(t, err)

	s, err := NewLocal(memory.NewBlobStore(), LocalConfig{Name: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "x.csv", s.Filename())
	assert.Equal(t, KindLocal, s.Kind())
}

func TestLocalSinkFinalizeWritesCSVOnce(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	s, err := NewLocal(store, LocalConfig{Name: "wordsolverx-28jan-2026"}, nil)
	require.NoError(t, err)

	rows := sampleRows(3)
	require.NoError(t, s.Append(context.Background(), rows[:2]))
	require.NoError(t, s.Append(context.Background(), rows[2:]))
	assert.Len(t, s.Pending(), 3)
	assert.Equal(t, 0, store.Len(), "nothing is written before finalize")

	uri, err := s.Finalize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "memory://wordsolverx-28jan-2026.csv", uri)
	assert.Equal(t, 1, store.Len())

	data, ok := store.Object("wordsolverx-28jan-2026.csv")
	require.True(t, ok)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, inspection.Header(), records[0])
	for i, row := range rows {
		assert.Equal(t, row.Values(), records[i+1])
	}
}

func TestLocalSinkFinalizeEmptyWritesHeader(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	s, err := NewLocal(store, LocalConfig{Name: "empty"}, nil)
	require.NoError(t, err)

	_, err = s.Finalize(context.Background())
	require.NoError(t, err)

	data, ok := store.Object("empty.csv")
	require.True(t, ok)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{inspection.Header()}, records)
}

func TestLocalSinkFinalizeStoreFailure(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	store.FailWith(errors.New("read-only file system"))
	s, err := NewLocal(store, LocalConfig{Name: "x"}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), sampleRows(1)))

	_, err = s.Finalize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocalFinalize)
	assert.Contains(t, err.Error(), "read-only file system")
}

func TestLocalSinkMirrorFailureIsLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	primary := memory.NewBlobStore()
	good := memory.NewBlobStore()
	bad := memory.NewBlobStore()
	bad.FailWith(errors.New("bucket missing"))

	s, err := NewLocal(primary, LocalConfig{Name: "x"}, zap.New(core), bad, good)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), sampleRows(2)))

	uri, err := s.Finalize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "memory://x.csv", uri)

	primaryData, _ := primary.Object("x.csv")
	mirrorData, ok := good.Object("x.csv")
	require.True(t, ok)
	assert.Equal(t, primaryData, mirrorData)
	assert.Equal(t, 1, logs.FilterMessage("Failed to mirror local artifact").Len())
}

func TestLocalSinkChecksum(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	hasher := sha256.New()
	s, err := NewLocal(store, LocalConfig{Name: "x", Hasher: hasher}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), sampleRows(2)))
	assert.Empty(t, s.Checksum())

	_, err = s.Finalize(context.Background())
	require.NoError(t, err)

	data, _ := store.Object("x.csv")
	assert.Equal(t, hasher.Sum(data), s.Checksum())
}
