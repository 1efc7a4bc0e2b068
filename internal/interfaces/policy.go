package interfaces

import (
	"github.com/google/uuid"

	"github.com/deviceops/go-fscrypt/internal/types"
)

// ContextStore persists opaque encryption context records on filesystem
// objects. It is owned by the host filesystem; the policy engine only
// encodes and decodes the records it stores.
type ContextStore interface {
	// GetContext reads the object's stored context record into buf and
	// returns the full record length, which may exceed len(buf). It returns
	// types.ErrNoData if no context has ever been set on the object.
	GetContext(object Object, buf []byte) (int, error)

	// SetContext writes the serialized context record on the object.
	// providerData carries filesystem-specific data for the creation
	// transaction and is passed through opaquely.
	SetContext(object Object, record []byte, providerData any) error

	// IsEmptyDirectory reports whether the directory object has no entries.
	IsEmptyDirectory(object Object) bool
}

// KeyResolver turns a master key descriptor plus per-object parameters into
// usable key material. It returns types.ErrKeyUnavailable when the master
// key is not present in the keyring.
type KeyResolver interface {
	Resolve(descriptor types.KeyDescriptor, contentsMode, filenamesMode types.EncryptionMode,
		flags uint8, nonce [types.KeyDerivationNonceSize]byte) (*types.FileCryptoInfo, error)
}

// Container is the policy engine's view of the filesystem instance an object
// belongs to (the superblock, in kernel terms).
type Container interface {
	// ID identifies the container.
	ID() uuid.UUID

	// IsHardwareCryptoCapable reports whether the container's backing device
	// supports the inline hardware encryption path.
	IsHardwareCryptoCapable() bool

	// ContextStore returns the container's context storage collaborator.
	ContextStore() ContextStore

	// BeginWrite obtains a writable-mount guarantee for the duration of a
	// mutating operation. The returned release function must be called on
	// every exit path.
	BeginWrite() (release func(), err error)
}

// Object is the policy engine's view of a single filesystem object.
type Object interface {
	// ID is the object's numeric identifier, unique within its container.
	ID() uint64

	// Kind classifies the object.
	Kind() types.ObjectKind

	// Container returns the container the object belongs to.
	Container() Container

	// IsEncrypted reports whether the object carries an encryption context.
	IsEncrypted() bool

	// IsDeadDirectory reports whether the directory has already been removed.
	IsDeadDirectory() bool
}

// QueueFlagPolicy decides whether newly inherited contexts on a container
// must carry the IV-derivation-variant flag required by some hardware
// command-queue modes. Device detection stays out of the policy engine.
type QueueFlagPolicy interface {
	ShouldForceIVVariant(container Container) bool
}
