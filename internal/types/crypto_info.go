package types

import (
	"crypto/sha256"

	"github.com/google/uuid"
)

// FileCryptoInfo is the resolved runtime view of an object's encryption
// state: the effective modes plus the derived key material. It is built
// lazily on first access that needs key material, shared read-only by all
// accessors of the object, and zeroized when the object is evicted.
type FileCryptoInfo struct {
	// ContentsMode is the effective content encryption mode.
	ContentsMode EncryptionMode

	// FilenamesMode is the filename encryption mode.
	FilenamesMode EncryptionMode

	// Flags is the policy flags bitmask.
	Flags uint8

	// MasterKeyDescriptor names the master key the object uses.
	MasterKeyDescriptor KeyDescriptor

	// RawKey is the derived per-object key material. Never mutated after
	// construction; zeroized by Zeroize.
	RawKey []byte

	// HashedInfo is a precomputed hash of the key material, handed to the
	// hardware path so it can identify the key without re-deriving it.
	HashedInfo [sha256.Size]byte
}

// Zeroize overwrites the derived key bytes. The info must not be used after
// zeroization.
func (ci *FileCryptoInfo) Zeroize() {
	if ci == nil {
		return
	}
	for i := range ci.RawKey {
		ci.RawKey[i] = 0
	}
}

// Hardware crypto algorithm identifiers carried on block requests.
const (
	// BlockCryptoAlgAES256XTS identifies AES-256-XTS, the algorithm used by
	// the inline hardware encryption path.
	BlockCryptoAlgAES256XTS uint32 = 1

	// AES256XTSKeySize is the key size, in bytes, for AES-256-XTS.
	AES256XTSKeySize = 64
)

// BlockCryptoContext is the crypto annotation attached to a block I/O
// request headed for the inline hardware encryption path.
type BlockCryptoContext struct {
	// Algorithm identifies the hardware cipher.
	Algorithm uint32

	// KeySize is the key size in bytes.
	KeySize int

	// ObjectID is the numeric identifier of the file the request belongs to.
	ObjectID uint64

	// ContainerID identifies the owning container.
	ContainerID uuid.UUID

	// Info is an opaque reference to the file's resolved crypto info. The
	// hardware driver retrieves key material through it via the binder's
	// KeyPayload accessor.
	Info *FileCryptoInfo

	// HashedInfo is the precomputed hash-of-key handle for the hardware path.
	HashedInfo [sha256.Size]byte
}

// BlockRequest is an outgoing storage I/O request. Only the crypto
// annotation is modeled here; the data payload belongs to the block layer.
type BlockRequest struct {
	// Crypto is the hardware crypto annotation, or nil for plaintext I/O.
	Crypto *BlockCryptoContext
}

// ClearCrypto removes any crypto annotation so the request is processed as
// plaintext I/O.
func (r *BlockRequest) ClearCrypto() {
	r.Crypto = nil
}
