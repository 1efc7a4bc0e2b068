package services

import (
	"github.com/deviceops/go-fscrypt/internal/types"
)

// Mode dispatch: mapping between declared, stored and reported content modes.
//
// On hardware-capable containers the standard at-rest mode is silently
// substituted by the hardware-private mode when a context is created. The
// substitution is one-way and is undone for reporting on directories so
// external tooling keeps seeing a standard mode.

// EffectiveContentsMode maps a declared content mode to the mode actually
// stored in a context on the given container.
func EffectiveContentsMode(declared types.EncryptionMode, hardwareCapable bool) types.EncryptionMode {
	if hardwareCapable && (declared == types.ModeAES256XTS || declared == types.ModePrivate) {
		return types.ModePrivate
	}
	return declared
}

// ReportedContentsMode maps a stored content mode to the mode reported to
// policy callers. Directories never report the hardware-private mode.
func ReportedContentsMode(stored types.EncryptionMode, isDirectory bool) types.EncryptionMode {
	if isDirectory && stored != types.ModeInvalid {
		return types.ModeAES256XTS
	}
	return stored
}

// IsHardwarePath reports whether content I/O for the object goes through the
// inline hardware encryption path.
func IsHardwarePath(kind types.ObjectKind, info *types.FileCryptoInfo) bool {
	return kind == types.KindRegular && info != nil &&
		info.ContentsMode == types.ModePrivate
}

// IsSoftwarePath reports whether content I/O for the object goes through the
// software cipher path.
func IsSoftwarePath(kind types.ObjectKind, info *types.FileCryptoInfo) bool {
	return kind == types.KindRegular && info != nil &&
		info.ContentsMode != types.ModeInvalid &&
		info.ContentsMode != types.ModePrivate
}
