package types

// Per-file encryption policy structures.
// A policy is the caller-supplied description of how a file or directory is
// encrypted; a context is its persisted on-disk encoding. The context carries
// a per-object key-derivation nonce that is never surfaced back to callers.

// EncryptionMode identifies a content or filename encryption mode.
type EncryptionMode uint8

const (
	// ModeInvalid means no encryption mode is set.
	ModeInvalid EncryptionMode = 0

	// ModeAES256XTS is AES-256 in XTS mode, the standard at-rest content mode.
	ModeAES256XTS EncryptionMode = 1

	// ModeAES256GCM is AES-256 in Galois/Counter Mode.
	ModeAES256GCM EncryptionMode = 2

	// ModeAES256CBC is AES-256 in CBC mode.
	ModeAES256CBC EncryptionMode = 3

	// ModeAES256CTS is AES-256 in CBC-CTS mode, used for filenames.
	ModeAES256CTS EncryptionMode = 4

	// ModePrivate delegates content encryption to the inline hardware
	// encryption path. It is stored on disk but never reported for
	// directories; reporting translates it to ModeAES256XTS.
	ModePrivate EncryptionMode = 127
)

// String returns the string representation of the encryption mode.
func (m EncryptionMode) String() string {
	switch m {
	case ModeInvalid:
		return "invalid"
	case ModeAES256XTS:
		return "aes-256-xts"
	case ModeAES256GCM:
		return "aes-256-gcm"
	case ModeAES256CBC:
		return "aes-256-cbc"
	case ModeAES256CTS:
		return "aes-256-cts"
	case ModePrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Policy flag bits. Any bit outside PolicyFlagsValid makes a policy invalid.
const (
	// PolicyFlagsPadMask selects the filename padding size (4, 8, 16 or 32).
	PolicyFlagsPadMask uint8 = 0x03

	// PolicyFlagDirectKey uses the master key directly instead of a derived key.
	PolicyFlagDirectKey uint8 = 0x04

	// PolicyFlagIVInoLblk32 selects the 32-bit inode/logical-block IV
	// derivation variant used by some hardware command queues. It is only
	// valid together with ModePrivate content encryption, and it is masked
	// out of all policy-equality comparisons.
	PolicyFlagIVInoLblk32 uint8 = 0x10

	// PolicyFlagsValid is the set of recognized policy flag bits.
	PolicyFlagsValid uint8 = PolicyFlagsPadMask | PolicyFlagDirectKey | PolicyFlagIVInoLblk32
)

const (
	// PolicyVersion is the only supported policy version.
	PolicyVersion uint8 = 0

	// ContextFormatV1 is the format tag of a version-1 on-disk context.
	ContextFormatV1 uint8 = 1

	// KeyDescriptorSize is the size, in bytes, of a master key descriptor.
	KeyDescriptorSize = 8

	// KeyDerivationNonceSize is the size, in bytes, of the per-object nonce.
	KeyDerivationNonceSize = 16

	// EncryptionContextSize is the serialized size of an EncryptionContext:
	// format tag, contents mode, filenames mode, flags, descriptor, nonce.
	EncryptionContextSize = 4 + KeyDescriptorSize + KeyDerivationNonceSize
)

// KeyDescriptor is an opaque identifier naming a master key. It contains no
// key material.
type KeyDescriptor [KeyDescriptorSize]byte

// EncryptionPolicy is the caller-facing policy record. It is constructed per
// API call and never persisted directly.
type EncryptionPolicy struct {
	// Version must equal PolicyVersion.
	Version uint8

	// ContentsMode is the content encryption mode.
	ContentsMode EncryptionMode

	// FilenamesMode is the filename encryption mode.
	FilenamesMode EncryptionMode

	// Flags is the policy flags bitmask. Only bits in PolicyFlagsValid are
	// recognized.
	Flags uint8

	// MasterKeyDescriptor names the master key the policy uses.
	MasterKeyDescriptor KeyDescriptor
}

// EncryptionContext is the persisted on-disk policy record. Once set on an
// object it is immutable; a later set-policy request either matches it
// exactly or is rejected.
type EncryptionContext struct {
	// Format is the record format tag, currently always ContextFormatV1.
	Format uint8

	// ContentsMode is the stored content encryption mode. On hardware-capable
	// containers this may be ModePrivate even though the caller declared a
	// standard mode.
	ContentsMode EncryptionMode

	// FilenamesMode is the filename encryption mode.
	FilenamesMode EncryptionMode

	// Flags is the policy flags bitmask.
	Flags uint8

	// MasterKeyDescriptor names the master key.
	MasterKeyDescriptor KeyDescriptor

	// Nonce is the per-object key-derivation nonce. It is drawn once at
	// context creation, never reused across objects, and never reported.
	Nonce [KeyDerivationNonceSize]byte
}

// ObjectKind classifies a filesystem object for encryption purposes.
type ObjectKind uint8

const (
	// KindOther covers object types that are never subject to per-file
	// encryption (devices, sockets, fifos).
	KindOther ObjectKind = iota

	// KindRegular is a regular file.
	KindRegular

	// KindDirectory is a directory.
	KindDirectory

	// KindSymlink is a symbolic link.
	KindSymlink
)

// String returns the string representation of the object kind.
func (k ObjectKind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// ValidModePair reports whether the given content/filename mode combination
// is on the allow-list of supported pairs.
func ValidModePair(contents, filenames EncryptionMode) bool {
	switch contents {
	case ModeAES256XTS, ModePrivate:
		return filenames == ModeAES256CTS
	default:
		return false
	}
}

// ModeKeySize returns the derived key size, in bytes, for a content mode.
func ModeKeySize(mode EncryptionMode) int {
	switch mode {
	case ModeAES256XTS, ModePrivate:
		return 64
	case ModeAES256GCM, ModeAES256CBC, ModeAES256CTS:
		return 32
	default:
		return 0
	}
}
