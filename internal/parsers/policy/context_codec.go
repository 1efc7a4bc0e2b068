package policy

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/deviceops/go-fscrypt/internal/interfaces"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// contextReader implements the ContextReader interface
type contextReader struct {
	ctx *types.EncryptionContext
}

// Ensure interface compliance
var _ interfaces.ContextReader = (*contextReader)(nil)

// NewContextReader creates a new ContextReader from a raw context record
func NewContextReader(data []byte) (interfaces.ContextReader, error) {
	ctx, err := ParseContext(data)
	if err != nil {
		return nil, err
	}

	return &contextReader{
		ctx: ctx,
	}, nil
}

// DefaultNonceSource returns the cryptographically secure random source
// used for context nonces when no explicit source is configured.
func DefaultNonceSource() io.Reader {
	return rand.Reader
}

// BuildContext encodes an encryption policy into a fresh on-disk context.
// The stored content mode is the caller-supplied effective mode, which may be
// the hardware-private substitution for the policy's declared mode. A new
// key-derivation nonce is drawn from nonceSource (crypto/rand when nil).
func BuildContext(policy *types.EncryptionPolicy, effectiveContentsMode types.EncryptionMode, nonceSource io.Reader) (*types.EncryptionContext, error) {
	if !types.ValidModePair(policy.ContentsMode, policy.FilenamesMode) {
		return nil, fmt.Errorf("%w: unsupported mode pair %s/%s",
			types.ErrInvalidArgument, policy.ContentsMode, policy.FilenamesMode)
	}

	if policy.Flags&^types.PolicyFlagsValid != 0 {
		return nil, fmt.Errorf("%w: unrecognized flag bits 0x%02x",
			types.ErrInvalidArgument, policy.Flags&^types.PolicyFlagsValid)
	}

	if policy.Flags&types.PolicyFlagIVInoLblk32 != 0 && effectiveContentsMode != types.ModePrivate {
		return nil, fmt.Errorf("%w: IV variant flag requires hardware-private content mode",
			types.ErrInvalidArgument)
	}

	if nonceSource == nil {
		nonceSource = rand.Reader
	}

	ctx := &types.EncryptionContext{
		Format:              types.ContextFormatV1,
		ContentsMode:        effectiveContentsMode,
		FilenamesMode:       policy.FilenamesMode,
		Flags:               policy.Flags,
		MasterKeyDescriptor: policy.MasterKeyDescriptor,
	}

	if _, err := io.ReadFull(nonceSource, ctx.Nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to draw context nonce: %w", err)
	}

	return ctx, nil
}

// SerializeContext encodes a context into its fixed-size on-disk record.
func SerializeContext(ctx *types.EncryptionContext) []byte {
	data := make([]byte, types.EncryptionContextSize)
	offset := 0

	data[offset] = ctx.Format
	offset++
	data[offset] = uint8(ctx.ContentsMode)
	offset++
	data[offset] = uint8(ctx.FilenamesMode)
	offset++
	data[offset] = ctx.Flags
	offset++

	copy(data[offset:offset+types.KeyDescriptorSize], ctx.MasterKeyDescriptor[:])
	offset += types.KeyDescriptorSize

	copy(data[offset:offset+types.KeyDerivationNonceSize], ctx.Nonce[:])

	return data
}

// ParseContext parses a raw on-disk record into an EncryptionContext. The
// record must be exactly EncryptionContextSize bytes and carry a recognized
// format tag.
func ParseContext(data []byte) (*types.EncryptionContext, error) {
	if len(data) != types.EncryptionContextSize {
		return nil, fmt.Errorf("%w: record is %d bytes, want %d",
			types.ErrUnsupportedFormat, len(data), types.EncryptionContextSize)
	}

	if data[0] != types.ContextFormatV1 {
		return nil, fmt.Errorf("%w: unknown format tag 0x%02x",
			types.ErrUnsupportedFormat, data[0])
	}

	ctx := &types.EncryptionContext{}
	offset := 0

	ctx.Format = data[offset]
	offset++
	ctx.ContentsMode = types.EncryptionMode(data[offset])
	offset++
	ctx.FilenamesMode = types.EncryptionMode(data[offset])
	offset++
	ctx.Flags = data[offset]
	offset++

	copy(ctx.MasterKeyDescriptor[:], data[offset:offset+types.KeyDescriptorSize])
	offset += types.KeyDescriptorSize

	copy(ctx.Nonce[:], data[offset:offset+types.KeyDerivationNonceSize])

	return ctx, nil
}

// ToPolicy decodes a context back into its caller-facing policy view. The
// nonce is deliberately not copied; it is never exposed to policy callers.
func ToPolicy(ctx *types.EncryptionContext) (*types.EncryptionPolicy, error) {
	if ctx.Format != types.ContextFormatV1 {
		return nil, fmt.Errorf("%w: unknown format tag 0x%02x",
			types.ErrUnsupportedFormat, ctx.Format)
	}

	return &types.EncryptionPolicy{
		Version:             types.PolicyVersion,
		ContentsMode:        ctx.ContentsMode,
		FilenamesMode:       ctx.FilenamesMode,
		Flags:               ctx.Flags,
		MasterKeyDescriptor: ctx.MasterKeyDescriptor,
	}, nil
}

// Implementation of ContextReader interface

func (r *contextReader) Format() uint8 {
	return r.ctx.Format
}

func (r *contextReader) ContentsMode() types.EncryptionMode {
	return r.ctx.ContentsMode
}

func (r *contextReader) FilenamesMode() types.EncryptionMode {
	return r.ctx.FilenamesMode
}

func (r *contextReader) Flags() uint8 {
	return r.ctx.Flags
}

func (r *contextReader) MasterKeyDescriptor() types.KeyDescriptor {
	return r.ctx.MasterKeyDescriptor
}

func (r *contextReader) Policy() *types.EncryptionPolicy {
	policy, err := ToPolicy(r.ctx)
	if err != nil {
		// ParseContext already rejected unknown formats.
		return nil
	}
	return policy
}
