package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/deviceops/go-fscrypt/internal/interfaces"
	policycodec "github.com/deviceops/go-fscrypt/internal/parsers/policy"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// CryptoInfoCacheConfig configures a CryptoInfoCache.
type CryptoInfoCacheConfig struct {
	// Resolver is the key-derivation collaborator.
	Resolver interfaces.KeyResolver

	// Logger receives debug output; defaults to a fresh logrus logger.
	Logger *logrus.Logger
}

// CryptoInfoCache lazily resolves and caches per-object FileCryptoInfo.
//
// Resolved info is installed compare-and-install style: concurrent first
// resolutions may both derive a key, but only one instance is ever installed
// for an object; the loser's copy is zeroized. No lock is held across the
// key-derivation call.
type CryptoInfoCache struct {
	resolver interfaces.KeyResolver
	log      *logrus.Logger
	infos    sync.Map // object ID -> *types.FileCryptoInfo
}

// NewCryptoInfoCache creates a new crypto info cache.
func NewCryptoInfoCache(config CryptoInfoCacheConfig) *CryptoInfoCache {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	return &CryptoInfoCache{
		resolver: config.Resolver,
		log:      config.Logger,
	}
}

// Resolve returns the object's resolved crypto info, constructing it from
// the stored context and the key resolver on first use.
//
// A nil info with nil error means the object's policy is readable but its
// master key is not loaded; accessing an encrypted tree without the key is
// allowed, and policy checks fall back to raw stored contexts.
func (c *CryptoInfoCache) Resolve(obj interfaces.Object) (*types.FileCryptoInfo, error) {
	if v, ok := c.infos.Load(obj.ID()); ok {
		return v.(*types.FileCryptoInfo), nil
	}

	ctx, err := readStoredContext(obj)
	if err != nil {
		return nil, err
	}

	effective := EffectiveContentsMode(ctx.ContentsMode, obj.Container().IsHardwareCryptoCapable())

	info, err := c.resolver.Resolve(ctx.MasterKeyDescriptor, effective, ctx.FilenamesMode, ctx.Flags, ctx.Nonce)
	if err != nil {
		if errors.Is(err, types.ErrKeyUnavailable) {
			c.log.WithField("object", obj.ID()).Debug("master key not loaded, leaving object key-less")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve crypto info for object %d: %w", obj.ID(), err)
	}

	if cur, loaded := c.infos.LoadOrStore(obj.ID(), info); loaded {
		// Lost the install race; keep the winner's instance.
		info.Zeroize()
		return cur.(*types.FileCryptoInfo), nil
	}

	return info, nil
}

// Peek returns the object's resolved info if it has already been
// constructed, without touching storage or the keyring.
func (c *CryptoInfoCache) Peek(objectID uint64) *types.FileCryptoInfo {
	if v, ok := c.infos.Load(objectID); ok {
		return v.(*types.FileCryptoInfo)
	}
	return nil
}

// Evict drops the object's resolved info and zeroizes its key material.
// Called when the object is evicted from memory.
func (c *CryptoInfoCache) Evict(objectID uint64) {
	if v, ok := c.infos.LoadAndDelete(objectID); ok {
		v.(*types.FileCryptoInfo).Zeroize()
	}
}

// readStoredContext reads and parses the object's full stored context
// record. Anything but an exact-size, recognized-format record is an error.
func readStoredContext(obj interfaces.Object) (*types.EncryptionContext, error) {
	buf := make([]byte, types.EncryptionContextSize)

	n, err := obj.Container().ContextStore().GetContext(obj, buf)
	if err != nil {
		return nil, err
	}
	if n != types.EncryptionContextSize {
		return nil, fmt.Errorf("%w: stored record is %d bytes, want %d",
			types.ErrUnsupportedFormat, n, types.EncryptionContextSize)
	}

	return policycodec.ParseContext(buf)
}
