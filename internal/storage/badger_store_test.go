package storage

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deviceops/go-fscrypt/internal/types"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	store, err := NewBadgerStore(BadgerStoreConfig{
		Path:   t.TempDir(),
		Logger: log,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	return store
}

func TestBadgerStore_GetContextNoData(t *testing.T) {
	store := newTestBadgerStore(t)

	n, err := store.GetContext(storedObject(1), make([]byte, types.EncryptionContextSize))
	assert.ErrorIs(t, err, types.ErrNoData)
	assert.Zero(t, n)
}

func TestBadgerStore_RoundTrip(t *testing.T) {
	store := newTestBadgerStore(t)
	record := testRecord(types.EncryptionContextSize)

	require.NoError(t, store.SetContext(storedObject(1), record, nil))

	buf := make([]byte, types.EncryptionContextSize)
	n, err := store.GetContext(storedObject(1), buf)
	require.NoError(t, err)
	assert.Equal(t, types.EncryptionContextSize, n)
	assert.Equal(t, record, buf)
}

func TestBadgerStore_ReturnsFullLengthForShortBuffer(t *testing.T) {
	store := newTestBadgerStore(t)
	record := testRecord(types.EncryptionContextSize)

	require.NoError(t, store.SetContext(storedObject(1), record, nil))

	n, err := store.GetContext(storedObject(1), nil)
	require.NoError(t, err)
	assert.Equal(t, types.EncryptionContextSize, n)

	buf := make([]byte, 8)
	n, err = store.GetContext(storedObject(1), buf)
	require.NoError(t, err)
	assert.Equal(t, types.EncryptionContextSize, n)
	assert.Equal(t, record[:8], buf)
}

func TestBadgerStore_ObjectsAreIndependent(t *testing.T) {
	store := newTestBadgerStore(t)

	first := testRecord(types.EncryptionContextSize)
	second := testRecord(types.EncryptionContextSize)
	second[1] = 0x7F

	require.NoError(t, store.SetContext(storedObject(1), first, nil))
	require.NoError(t, store.SetContext(storedObject(2), second, nil))

	buf := make([]byte, types.EncryptionContextSize)
	_, err := store.GetContext(storedObject(2), buf)
	require.NoError(t, err)
	assert.Equal(t, second, buf)

	_, err = store.GetContext(storedObject(3), buf)
	assert.ErrorIs(t, err, types.ErrNoData)
}

func TestBadgerStore_ChildCountEmptiness(t *testing.T) {
	store := newTestBadgerStore(t)
	dir := storedObject(10)

	assert.True(t, store.IsEmptyDirectory(dir))

	require.NoError(t, store.AddChildLink(10))
	require.NoError(t, store.AddChildLink(10))
	assert.False(t, store.IsEmptyDirectory(dir))

	require.NoError(t, store.RemoveChildLink(10))
	assert.False(t, store.IsEmptyDirectory(dir))

	require.NoError(t, store.RemoveChildLink(10))
	assert.True(t, store.IsEmptyDirectory(dir))
}

func TestBadgerStore_ChildCountNeverNegative(t *testing.T) {
	store := newTestBadgerStore(t)

	require.NoError(t, store.RemoveChildLink(10))
	assert.True(t, store.IsEmptyDirectory(storedObject(10)))

	require.NoError(t, store.AddChildLink(10))
	assert.False(t, store.IsEmptyDirectory(storedObject(10)))
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	path := t.TempDir()

	store, err := NewBadgerStore(BadgerStoreConfig{Path: path, Logger: log})
	require.NoError(t, err)

	record := testRecord(types.EncryptionContextSize)
	require.NoError(t, store.SetContext(storedObject(1), record, nil))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(BadgerStoreConfig{Path: path, Logger: log})
	require.NoError(t, err)
	defer reopened.Close()

	buf := make([]byte, types.EncryptionContextSize)
	n, err := reopened.GetContext(storedObject(1), buf)
	require.NoError(t, err)
	assert.Equal(t, types.EncryptionContextSize, n)
	assert.Equal(t, record, buf)
}
