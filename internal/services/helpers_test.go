package services

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/deviceops/go-fscrypt/internal/container"
	"github.com/deviceops/go-fscrypt/internal/keyring"
	"github.com/deviceops/go-fscrypt/internal/storage"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// testEnv bundles the collaborators the service tests run against.
type testEnv struct {
	store     *storage.MemoryStore
	container *container.Container
	registry  *keyring.Registry
	cache     *CryptoInfoCache
	policies  *PolicyService
	inherit   *InheritanceService
}

// quietLogger keeps service debug output out of test logs
func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestEnv wires a memory store, container, key registry and services.
func newTestEnv(t *testing.T, hardwareCapable bool) *testEnv {
	t.Helper()

	store := storage.NewMemoryStore()
	cont := container.New(container.Config{
		Store:           store,
		HardwareCapable: hardwareCapable,
	})

	registry := keyring.NewRegistry(keyring.RegistryConfig{Logger: quietLogger()})

	cache := NewCryptoInfoCache(CryptoInfoCacheConfig{
		Resolver: registry,
		Logger:   quietLogger(),
	})

	return &testEnv{
		store:     store,
		container: cont,
		registry:  registry,
		cache:     cache,
		policies:  NewPolicyService(PolicyServiceConfig{Logger: quietLogger()}),
		inherit: NewInheritanceService(InheritanceServiceConfig{
			Cache:  cache,
			Logger: quietLogger(),
		}),
	}
}

// testDescriptor builds a descriptor filled with the given byte
func testDescriptor(b byte) types.KeyDescriptor {
	var descriptor types.KeyDescriptor
	for i := range descriptor {
		descriptor[i] = b
	}
	return descriptor
}

// testMasterKey builds a master key filled with the given byte
func testMasterKey(b byte) []byte {
	key := make([]byte, keyring.MinMasterKeySize)
	for i := range key {
		key[i] = b
	}
	return key
}

// addMasterKey registers a master key for the descriptor
func (e *testEnv) addMasterKey(t *testing.T, descriptor types.KeyDescriptor) {
	t.Helper()
	require.NoError(t, e.registry.AddMasterKey(descriptor, testMasterKey(descriptor[0])))
}

// newDir creates a directory node
func (e *testEnv) newDir(id uint64) *container.Node {
	return container.NewNode(e.container, id, types.KindDirectory)
}

// newFile creates a regular file node
func (e *testEnv) newFile(id uint64) *container.Node {
	return container.NewNode(e.container, id, types.KindRegular)
}

// standardPolicy builds the baseline policy used across the service tests
func standardPolicy(descriptor types.KeyDescriptor) *types.EncryptionPolicy {
	return &types.EncryptionPolicy{
		Version:             types.PolicyVersion,
		ContentsMode:        types.ModeAES256XTS,
		FilenamesMode:       types.ModeAES256CTS,
		MasterKeyDescriptor: descriptor,
	}
}
