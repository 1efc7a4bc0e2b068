package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deviceops/go-fscrypt/internal/interfaces"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// storedObject is the minimal object the stores need: an identifier.
type storedObject uint64

func (o storedObject) ID() uint64                      { return uint64(o) }
func (o storedObject) Kind() types.ObjectKind          { return types.KindRegular }
func (o storedObject) Container() interfaces.Container { return nil }
func (o storedObject) IsEncrypted() bool               { return false }
func (o storedObject) IsDeadDirectory() bool           { return false }

func testRecord(size int) []byte {
	record := make([]byte, size)
	for i := range record {
		record[i] = byte(i)
	}
	return record
}

func TestMemoryStore_GetContextNoData(t *testing.T) {
	store := NewMemoryStore()

	n, err := store.GetContext(storedObject(1), make([]byte, types.EncryptionContextSize))
	assert.ErrorIs(t, err, types.ErrNoData)
	assert.Zero(t, n)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	record := testRecord(types.EncryptionContextSize)

	require.NoError(t, store.SetContext(storedObject(1), record, nil))

	buf := make([]byte, types.EncryptionContextSize)
	n, err := store.GetContext(storedObject(1), buf)
	require.NoError(t, err)
	assert.Equal(t, types.EncryptionContextSize, n)
	assert.Equal(t, record, buf)
}

func TestMemoryStore_ReturnsFullLengthForShortBuffer(t *testing.T) {
	store := NewMemoryStore()
	record := testRecord(types.EncryptionContextSize)

	require.NoError(t, store.SetContext(storedObject(1), record, nil))

	// A probe with no buffer still learns the record length.
	n, err := store.GetContext(storedObject(1), nil)
	require.NoError(t, err)
	assert.Equal(t, types.EncryptionContextSize, n)

	buf := make([]byte, 4)
	n, err = store.GetContext(storedObject(1), buf)
	require.NoError(t, err)
	assert.Equal(t, types.EncryptionContextSize, n)
	assert.Equal(t, record[:4], buf)
}

func TestMemoryStore_CopiesOnWrite(t *testing.T) {
	store := NewMemoryStore()
	record := testRecord(types.EncryptionContextSize)

	require.NoError(t, store.SetContext(storedObject(1), record, nil))
	record[0] = 0xFF

	buf := make([]byte, types.EncryptionContextSize)
	_, err := store.GetContext(storedObject(1), buf)
	require.NoError(t, err)
	assert.Equal(t, byte(0), buf[0])
}

func TestMemoryStore_Emptiness(t *testing.T) {
	store := NewMemoryStore()

	assert.True(t, store.IsEmptyDirectory(storedObject(1)))

	store.SetNonEmpty(1, true)
	assert.False(t, store.IsEmptyDirectory(storedObject(1)))

	store.SetNonEmpty(1, false)
	assert.True(t, store.IsEmptyDirectory(storedObject(1)))
}

func TestMemoryStore_CorruptContext(t *testing.T) {
	store := NewMemoryStore()

	// Corrupting an absent record is a no-op.
	store.CorruptContext(1, 3)
	_, err := store.GetContext(storedObject(1), nil)
	assert.ErrorIs(t, err, types.ErrNoData)

	require.NoError(t, store.SetContext(storedObject(1), testRecord(types.EncryptionContextSize), nil))
	store.CorruptContext(1, 3)

	n, err := store.GetContext(storedObject(1), make([]byte, types.EncryptionContextSize))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
