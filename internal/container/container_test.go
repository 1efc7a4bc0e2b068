package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deviceops/go-fscrypt/internal/storage"
	"github.com/deviceops/go-fscrypt/internal/types"
)

func TestContainerIdentity(t *testing.T) {
	store := storage.NewMemoryStore()

	a := New(Config{Store: store})
	b := New(Config{Store: store})

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Same(t, store, a.ContextStore())
}

func TestBeginWrite(t *testing.T) {
	writable := New(Config{Store: storage.NewMemoryStore()})
	release, err := writable.BeginWrite()
	require.NoError(t, err)
	release()

	readOnly := New(Config{Store: storage.NewMemoryStore(), ReadOnly: true})
	_, err = readOnly.BeginWrite()
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestNodeEncryptionState(t *testing.T) {
	store := storage.NewMemoryStore()
	cont := New(Config{Store: store})

	node := NewNode(cont, 1, types.KindRegular)
	assert.False(t, node.IsEncrypted())

	record := make([]byte, types.EncryptionContextSize)
	require.NoError(t, store.SetContext(node, record, nil))
	assert.True(t, node.IsEncrypted())
}

func TestNodeDeadDirectory(t *testing.T) {
	cont := New(Config{Store: storage.NewMemoryStore()})

	dir := NewNode(cont, 1, types.KindDirectory)
	assert.False(t, dir.IsDeadDirectory())

	dir.MarkDead()
	assert.True(t, dir.IsDeadDirectory())
}
