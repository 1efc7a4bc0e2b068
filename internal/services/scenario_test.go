package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deviceops/go-fscrypt/internal/types"
)

// TestHardwareContainerLifecycle walks the full lifecycle on a
// hardware-capable container: policy creation on a directory, inheritance
// into a file with the forced IV queue flag, policy reporting, the permitted
// check, and block request binding.
func TestHardwareContainerLifecycle(t *testing.T) {
	env := newTestEnv(t, true)

	descriptor := testDescriptor(0xA1)
	env.addMasterKey(t, descriptor)

	privatePolicy := standardPolicy(descriptor)
	privatePolicy.ContentsMode = types.ModePrivate

	root := env.newDir(1)
	require.NoError(t, env.policies.SetPolicy(root, privatePolicy, true))

	// The stored context carries the hardware-private mode, but the reported
	// policy for a directory translates it to the standard mode.
	reported, err := env.policies.GetPolicy(root)
	require.NoError(t, err)
	assert.Equal(t, types.ModeAES256XTS, reported.ContentsMode)
	assert.Equal(t, descriptor, reported.MasterKeyDescriptor)

	buf := make([]byte, types.EncryptionContextSize)
	_, err = env.store.GetContext(root, buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(types.ModePrivate), buf[1])

	// Re-declaring the policy is idempotent, whether the caller names the
	// private mode or the standard mode it substitutes for.
	require.NoError(t, env.policies.SetPolicy(root, privatePolicy, true))
	require.NoError(t, env.policies.SetPolicy(root, standardPolicy(descriptor), true))

	inherit := NewInheritanceService(InheritanceServiceConfig{
		Cache:           env.cache,
		QueueFlagPolicy: StaticQueueFlagPolicy{Force: true},
		Logger:          quietLogger(),
	})

	file := env.newFile(2)
	require.NoError(t, inherit.InheritContext(root, file, nil, true))

	// The file resolved on the hardware path, with the queue flag forced in.
	info := env.cache.Peek(file.ID())
	require.NotNil(t, info)
	assert.Equal(t, types.ModePrivate, info.ContentsMode)
	assert.Equal(t, types.PolicyFlagIVInoLblk32, info.Flags&types.PolicyFlagIVInoLblk32)

	// The flag divergence is masked: the file still belongs in the tree.
	checker := NewPermittedChecker(PermittedCheckerConfig{Cache: env.cache, Logger: quietLogger()})
	assert.True(t, checker.IsPermitted(root, file))

	// Block I/O for the file gets the hardware annotation.
	binder := NewBlockBinder(BlockBinderConfig{Cache: env.cache, Logger: quietLogger()})
	req := &types.BlockRequest{}
	require.NoError(t, binder.Bind(file, req))
	require.NotNil(t, req.Crypto)

	key, size, err := binder.KeyPayload(req)
	require.NoError(t, err)
	assert.Len(t, key, size)

	// Directory I/O stays on the software path.
	dirReq := &types.BlockRequest{}
	require.NoError(t, binder.Bind(root, dirReq))
	assert.Nil(t, dirReq.Crypto)
}
