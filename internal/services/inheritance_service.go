package services

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/deviceops/go-fscrypt/internal/interfaces"
	policycodec "github.com/deviceops/go-fscrypt/internal/parsers/policy"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// NeverForceIVVariant is the default queue-flag policy: no container forces
// the IV-derivation-variant flag on inherited contexts.
type NeverForceIVVariant struct{}

// ShouldForceIVVariant always returns false.
func (NeverForceIVVariant) ShouldForceIVVariant(interfaces.Container) bool {
	return false
}

// StaticQueueFlagPolicy forces the IV-derivation-variant flag on every
// container when Force is set. Suitable for devices whose command-queue mode
// is known at configuration time.
type StaticQueueFlagPolicy struct {
	Force bool
}

// ShouldForceIVVariant returns the configured decision.
func (p StaticQueueFlagPolicy) ShouldForceIVVariant(interfaces.Container) bool {
	return p.Force
}

// Ensure interface compliance
var _ interfaces.QueueFlagPolicy = NeverForceIVVariant{}
var _ interfaces.QueueFlagPolicy = StaticQueueFlagPolicy{}

// InheritanceServiceConfig configures an InheritanceService.
type InheritanceServiceConfig struct {
	// Cache resolves parent and child crypto info.
	Cache *CryptoInfoCache

	// QueueFlagPolicy decides per container whether inherited contexts on
	// the hardware path must carry the IV-derivation-variant flag. Defaults
	// to NeverForceIVVariant.
	QueueFlagPolicy interfaces.QueueFlagPolicy

	// NonceSource supplies context nonces; defaults to crypto/rand.
	NonceSource io.Reader

	// Logger receives debug output; defaults to a fresh logrus logger.
	Logger *logrus.Logger
}

// InheritanceService propagates a parent directory's encryption policy onto
// newly created children.
type InheritanceService struct {
	cache       *CryptoInfoCache
	queuePolicy interfaces.QueueFlagPolicy
	nonceSource io.Reader
	log         *logrus.Logger
}

// NewInheritanceService creates a new inheritance service.
func NewInheritanceService(config InheritanceServiceConfig) *InheritanceService {
	if config.QueueFlagPolicy == nil {
		config.QueueFlagPolicy = NeverForceIVVariant{}
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	return &InheritanceService{
		cache:       config.Cache,
		queuePolicy: config.QueueFlagPolicy,
		nonceSource: config.NonceSource,
		log:         config.Logger,
	}
}

// InheritContext builds and persists a child context from the parent's
// resolved crypto info: same descriptor, modes and flags, fresh nonce. On
// the hardware path the IV-derivation-variant flag is injected when the
// container's queue-flag policy demands it, even if the parent lacks it;
// that flag is masked out of all policy comparisons for exactly this reason.
//
// With preload set, the child's own crypto info is resolved eagerly after
// the write. A preload failure is returned as a *types.PreloadError: the
// context write has already committed and is not rolled back.
func (s *InheritanceService) InheritContext(parent, child interfaces.Object, providerData any, preload bool) error {
	parentInfo, err := s.cache.Resolve(parent)
	if err != nil {
		return fmt.Errorf("failed to resolve parent crypto info: %w", err)
	}
	if parentInfo == nil {
		return fmt.Errorf("parent %d: %w", parent.ID(), types.ErrKeyUnavailable)
	}

	ctx := &types.EncryptionContext{
		Format:              types.ContextFormatV1,
		ContentsMode:        parentInfo.ContentsMode,
		FilenamesMode:       parentInfo.FilenamesMode,
		Flags:               parentInfo.Flags,
		MasterKeyDescriptor: parentInfo.MasterKeyDescriptor,
	}

	if ctx.ContentsMode == types.ModePrivate && s.queuePolicy.ShouldForceIVVariant(child.Container()) {
		ctx.Flags |= types.PolicyFlagIVInoLblk32
	}

	nonceSource := s.nonceSource
	if nonceSource == nil {
		nonceSource = policycodec.DefaultNonceSource()
	}
	if _, err := io.ReadFull(nonceSource, ctx.Nonce[:]); err != nil {
		return fmt.Errorf("failed to draw child nonce: %w", err)
	}

	store := child.Container().ContextStore()
	if err := store.SetContext(child, policycodec.SerializeContext(ctx), providerData); err != nil {
		return fmt.Errorf("failed to persist child context: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"parent": parent.ID(),
		"child":  child.ID(),
	}).Debug("encryption context inherited")

	if !preload {
		return nil
	}

	if _, err := s.cache.Resolve(child); err != nil {
		return &types.PreloadError{Err: err}
	}

	return nil
}
