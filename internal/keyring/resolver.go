// Package keyring provides the reference key-derivation collaborator for
// the policy engine: an in-memory master key registry that derives per-file
// keys from a master key and the object's context nonce.
package keyring

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"

	"github.com/deviceops/go-fscrypt/internal/interfaces"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// MinMasterKeySize is the smallest accepted master key, matching the largest
// derived key the engine hands to a cipher.
const MinMasterKeySize = 64

// hkdfInfoLabel domain-separates per-file key derivation from any other use
// of the same master key.
const hkdfInfoLabel = "fscrypt-v1-per-file-key"

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Logger receives debug output; defaults to a fresh logrus logger.
	Logger *logrus.Logger
}

// Registry is an in-memory master key registry implementing the KeyResolver
// contract. Master keys are added by descriptor; Resolve derives a per-file
// key with HKDF-SHA512 keyed by the master key and salted with the object's
// nonce, so no two objects ever share a derived key.
type Registry struct {
	mu   sync.RWMutex
	keys map[types.KeyDescriptor][]byte
	log  *logrus.Logger
}

// Ensure interface compliance
var _ interfaces.KeyResolver = (*Registry)(nil)

// NewRegistry creates an empty key registry.
func NewRegistry(config RegistryConfig) *Registry {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	return &Registry{
		keys: make(map[types.KeyDescriptor][]byte),
		log:  config.Logger,
	}
}

// AddMasterKey registers a master key under the given descriptor. The key is
// copied; the caller keeps ownership of its slice.
func (r *Registry) AddMasterKey(descriptor types.KeyDescriptor, key []byte) error {
	if len(key) < MinMasterKeySize {
		return fmt.Errorf("%w: master key is %d bytes, want at least %d",
			types.ErrInvalidArgument, len(key), MinMasterKeySize)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys[descriptor] = append([]byte(nil), key...)
	return nil
}

// RemoveMasterKey drops a master key from the registry, zeroizing the stored
// copy. Already-resolved per-file info is unaffected; eviction is the
// crypto-info cache's concern.
func (r *Registry) RemoveMasterKey(descriptor types.KeyDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key, ok := r.keys[descriptor]; ok {
		for i := range key {
			key[i] = 0
		}
		delete(r.keys, descriptor)
	}
}

// Resolve derives the per-object key material for the given descriptor and
// context parameters. It returns types.ErrKeyUnavailable when the master key
// is not registered.
func (r *Registry) Resolve(descriptor types.KeyDescriptor, contentsMode, filenamesMode types.EncryptionMode,
	flags uint8, nonce [types.KeyDerivationNonceSize]byte) (*types.FileCryptoInfo, error) {

	r.mu.RLock()
	master, ok := r.keys[descriptor]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("descriptor %x: %w", descriptor, types.ErrKeyUnavailable)
	}

	keySize := types.ModeKeySize(contentsMode)
	if keySize == 0 {
		return nil, fmt.Errorf("%w: no key size for content mode %s", types.ErrInvalidArgument, contentsMode)
	}

	rawKey := make([]byte, keySize)
	kdf := hkdf.New(sha512.New, master, nonce[:], []byte(hkdfInfoLabel))
	if _, err := io.ReadFull(kdf, rawKey); err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}

	return &types.FileCryptoInfo{
		ContentsMode:        contentsMode,
		FilenamesMode:       filenamesMode,
		Flags:               flags,
		MasterKeyDescriptor: descriptor,
		RawKey:              rawKey,
		HashedInfo:          sha256.Sum256(rawKey),
	}, nil
}
