package interfaces

import (
	"github.com/deviceops/go-fscrypt/internal/types"
)

// ContextReader provides read access to a parsed on-disk encryption context
// record.
type ContextReader interface {
	// Format returns the record format tag.
	Format() uint8

	// ContentsMode returns the stored content encryption mode.
	ContentsMode() types.EncryptionMode

	// FilenamesMode returns the filename encryption mode.
	FilenamesMode() types.EncryptionMode

	// Flags returns the policy flags bitmask.
	Flags() uint8

	// MasterKeyDescriptor returns the master key descriptor.
	MasterKeyDescriptor() types.KeyDescriptor

	// Policy returns the caller-facing policy view of the record. The nonce
	// is never included.
	Policy() *types.EncryptionPolicy
}
