package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/deviceops/go-fscrypt/internal/interfaces"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// BlockBinderConfig configures a BlockBinder.
type BlockBinderConfig struct {
	// Cache holds the already-resolved crypto info the binder attaches.
	Cache *CryptoInfoCache

	// Logger receives anomaly warnings; defaults to a fresh logrus logger.
	Logger *logrus.Logger
}

// BlockBinder annotates outgoing block I/O requests for the inline hardware
// encryption path. Binding is a read-only lookup of already-resolved info;
// it never triggers key derivation.
type BlockBinder struct {
	cache *CryptoInfoCache
	log   *logrus.Logger
}

// NewBlockBinder creates a new block-request crypto binder.
func NewBlockBinder(config BlockBinderConfig) *BlockBinder {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	return &BlockBinder{
		cache: config.Cache,
		log:   config.Logger,
	}
}

// Bind attaches the hardware crypto annotation to the request when the
// object is a regular file on the hardware-private path; otherwise it clears
// any annotation so the request is processed as plaintext I/O.
//
// Resolved info with no key material should be impossible once info exists;
// it is logged as an anomaly and the bind fails rather than letting the
// request proceed unencrypted.
func (b *BlockBinder) Bind(obj interfaces.Object, req *types.BlockRequest) error {
	info := b.cache.Peek(obj.ID())

	if !IsHardwarePath(obj.Kind(), info) {
		req.ClearCrypto()
		return nil
	}

	if len(info.RawKey) == 0 {
		b.log.WithFields(logrus.Fields{
			"object":    obj.ID(),
			"container": obj.Container().ID(),
		}).Warn("resolved crypto info has no key material, refusing to bind request")
		return fmt.Errorf("object %d: %w", obj.ID(), types.ErrKeyUnavailable)
	}

	req.Crypto = &types.BlockCryptoContext{
		Algorithm:   types.BlockCryptoAlgAES256XTS,
		KeySize:     types.AES256XTSKeySize,
		ObjectID:    obj.ID(),
		ContainerID: obj.Container().ID(),
		Info:        info,
		HashedInfo:  info.HashedInfo,
	}

	return nil
}

// KeyPayload returns the raw key bytes and key size behind a bound request.
func (b *BlockBinder) KeyPayload(req *types.BlockRequest) ([]byte, int, error) {
	if req.Crypto == nil || req.Crypto.Info == nil {
		b.log.Info("key payload requested for request with no bound crypto info")
		return nil, 0, types.ErrKeyUnavailable
	}

	return req.Crypto.Info.RawKey, req.Crypto.KeySize, nil
}
