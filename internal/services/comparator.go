package services

import (
	"github.com/deviceops/go-fscrypt/internal/types"
)

// PolicyFields is the comparable subset of any policy-bearing record:
// a policy, a stored context, or resolved crypto info.
type PolicyFields struct {
	ContentsMode        types.EncryptionMode
	FilenamesMode       types.EncryptionMode
	Flags               uint8
	MasterKeyDescriptor types.KeyDescriptor
}

// ComparisonFlagMask is the flag set excluded from policy-equality
// comparisons. The IV-derivation-variant bit is a hardware queueing hint,
// not a security-relevant policy difference.
const ComparisonFlagMask = types.PolicyFlagIVInoLblk32

// SameEffectivePolicy reports whether two policy-bearing records describe
// the same policy: descriptors byte-equal, both mode fields equal, and flags
// equal after masking maskedFlags out of both sides. The comparison is
// symmetric.
func SameEffectivePolicy(a, b PolicyFields, maskedFlags uint8) bool {
	return a.MasterKeyDescriptor == b.MasterKeyDescriptor &&
		a.ContentsMode == b.ContentsMode &&
		a.FilenamesMode == b.FilenamesMode &&
		a.Flags&^maskedFlags == b.Flags&^maskedFlags
}

// ContextConsistentWithPolicy reports whether a stored context and a
// proposed policy describe the same policy. A stored hardware-private
// content mode stands in for the policy's declared mode on hardware-capable
// containers; the declared mode never stands in for a stored standard mode.
func ContextConsistentWithPolicy(ctx *types.EncryptionContext, policy *types.EncryptionPolicy, hardwareCapable bool) bool {
	if ctx.ContentsMode != policy.ContentsMode &&
		!(hardwareCapable && ctx.ContentsMode == types.ModePrivate) {
		return false
	}

	return ctx.MasterKeyDescriptor == policy.MasterKeyDescriptor &&
		ctx.FilenamesMode == policy.FilenamesMode &&
		ctx.Flags&^ComparisonFlagMask == policy.Flags&^ComparisonFlagMask
}

// InfoPolicyFields extracts the comparable fields of resolved crypto info.
func InfoPolicyFields(info *types.FileCryptoInfo) PolicyFields {
	return PolicyFields{
		ContentsMode:        info.ContentsMode,
		FilenamesMode:       info.FilenamesMode,
		Flags:               info.Flags,
		MasterKeyDescriptor: info.MasterKeyDescriptor,
	}
}

// ContextPolicyFields extracts the comparable fields of a stored context,
// translating the stored content mode to its effective mode on the given
// container so hardware substitution does not read as a policy difference.
func ContextPolicyFields(ctx *types.EncryptionContext, hardwareCapable bool) PolicyFields {
	return PolicyFields{
		ContentsMode:        EffectiveContentsMode(ctx.ContentsMode, hardwareCapable),
		FilenamesMode:       ctx.FilenamesMode,
		Flags:               ctx.Flags,
		MasterKeyDescriptor: ctx.MasterKeyDescriptor,
	}
}
