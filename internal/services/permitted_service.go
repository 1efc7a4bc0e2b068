package services

import (
	"github.com/sirupsen/logrus"

	"github.com/deviceops/go-fscrypt/internal/interfaces"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// PermittedCheckerConfig configures a PermittedChecker.
type PermittedCheckerConfig struct {
	// Cache resolves crypto info for both sides of the check.
	Cache *CryptoInfoCache

	// Logger receives debug output; defaults to a fresh logrus logger.
	Logger *logrus.Logger
}

// PermittedChecker enforces the tree-wide policy invariant: within an
// encrypted directory tree, every descendant uses the same effective policy
// as its parent. Filesystems must consult it before lookup, link and rename
// across an encrypted boundary.
type PermittedChecker struct {
	cache *CryptoInfoCache
	log   *logrus.Logger
}

// NewPermittedChecker creates a new permitted-context checker.
func NewPermittedChecker(config PermittedCheckerConfig) *PermittedChecker {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	return &PermittedChecker{
		cache: config.Cache,
		log:   config.Logger,
	}
}

// IsPermitted reports whether the child's encryption policy is permitted
// within the parent directory. It never returns an error: any internal
// failure degrades to forbidden, since permitting a policy violation is
// strictly worse than denying a valid access.
func (c *PermittedChecker) IsPermitted(parent, child interfaces.Object) bool {
	// Object kinds that are never encrypted carry no constraint.
	switch child.Kind() {
	case types.KindRegular, types.KindDirectory, types.KindSymlink:
	default:
		return true
	}

	if !parent.IsEncrypted() {
		return true
	}

	// Encrypted directories must not contain unencrypted children.
	if !child.IsEncrypted() {
		return false
	}

	// Prefer comparing resolved info; it needs no storage I/O. Either side
	// may be key-less (nil info), in which case we fall back to the raw
	// stored contexts. Context retrieval is frequent when walking an
	// encrypted tree without the key, but that path is not optimized for
	// anyway.
	parentInfo, err := c.cache.Resolve(parent)
	if err != nil {
		c.log.WithField("parent", parent.ID()).WithError(err).Debug("permitted check failed closed")
		return false
	}
	childInfo, err := c.cache.Resolve(child)
	if err != nil {
		c.log.WithField("child", child.ID()).WithError(err).Debug("permitted check failed closed")
		return false
	}

	if parentInfo != nil && childInfo != nil {
		return SameEffectivePolicy(InfoPolicyFields(parentInfo), InfoPolicyFields(childInfo), ComparisonFlagMask)
	}

	parentCtx, err := readStoredContext(parent)
	if err != nil {
		return false
	}
	childCtx, err := readStoredContext(child)
	if err != nil {
		return false
	}

	return SameEffectivePolicy(
		ContextPolicyFields(parentCtx, parent.Container().IsHardwareCryptoCapable()),
		ContextPolicyFields(childCtx, child.Container().IsHardwareCryptoCapable()),
		ComparisonFlagMask,
	)
}
