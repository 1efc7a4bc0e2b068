package services

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/deviceops/go-fscrypt/internal/interfaces"
	policycodec "github.com/deviceops/go-fscrypt/internal/parsers/policy"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// PolicyServiceConfig configures a PolicyService.
type PolicyServiceConfig struct {
	// NonceSource supplies context nonces; defaults to crypto/rand.
	NonceSource io.Reader

	// Logger receives debug output; defaults to a fresh logrus logger.
	Logger *logrus.Logger
}

// PolicyService assigns and reports per-object encryption policies.
//
// Policy assignment is create-once: the first set on an empty directory
// persists a context, any later set is either an idempotent no-op or a
// conflict. The read-check-write sequence runs under a per-object lock so a
// concurrent double set can never install divergent contexts.
type PolicyService struct {
	nonceSource io.Reader
	log         *logrus.Logger
	locks       sync.Map // object ID -> *sync.Mutex
}

// NewPolicyService creates a new policy service.
func NewPolicyService(config PolicyServiceConfig) *PolicyService {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	return &PolicyService{
		nonceSource: config.NonceSource,
		log:         config.Logger,
	}
}

// lockObject acquires the target's exclusive policy lock.
func (s *PolicyService) lockObject(objectID uint64) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(objectID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}

// SetPolicy applies an encryption policy to the target object.
//
// The caller must be the object's owner or privileged, and the policy
// version must be supported. A first-time assignment requires an empty, live
// directory. If the target already carries a context, the call succeeds as a
// no-op when the proposed policy matches it under the masked-flag rule and
// fails with types.ErrAlreadyExists otherwise.
func (s *PolicyService) SetPolicy(target interfaces.Object, policy *types.EncryptionPolicy, ownerOrPrivileged bool) error {
	if !ownerOrPrivileged {
		return types.ErrPermissionDenied
	}

	if policy.Version != types.PolicyVersion {
		return fmt.Errorf("%w: unsupported policy version %d", types.ErrInvalidArgument, policy.Version)
	}

	container := target.Container()

	release, err := container.BeginWrite()
	if err != nil {
		return fmt.Errorf("failed to obtain write access: %w", err)
	}
	defer release()

	mu := s.lockObject(target.ID())
	defer mu.Unlock()

	store := container.ContextStore()

	buf := make([]byte, types.EncryptionContextSize)
	n, err := store.GetContext(target, buf)

	switch {
	case errors.Is(err, types.ErrNoData):
		return s.createContext(target, policy)

	case err != nil:
		return fmt.Errorf("failed to read existing context: %w", err)

	case n == types.EncryptionContextSize:
		ctx, perr := policycodec.ParseContext(buf)
		if perr == nil && ContextConsistentWithPolicy(ctx, policy, container.IsHardwareCryptoCapable()) {
			// The object already uses the same encryption policy.
			return nil
		}
		return types.ErrAlreadyExists

	default:
		// Oversized or truncated record: the object already uses a
		// different (or unintelligible) encryption policy.
		return types.ErrAlreadyExists
	}
}

// createContext builds and persists a fresh context for a first-time policy
// assignment.
func (s *PolicyService) createContext(target interfaces.Object, policy *types.EncryptionPolicy) error {
	if target.Kind() != types.KindDirectory {
		return types.ErrNotADirectory
	}
	if target.IsDeadDirectory() {
		return types.ErrNotFound
	}

	container := target.Container()
	store := container.ContextStore()

	if !store.IsEmptyDirectory(target) {
		return types.ErrDirectoryNotEmpty
	}

	effective := EffectiveContentsMode(policy.ContentsMode, container.IsHardwareCryptoCapable())

	ctx, err := policycodec.BuildContext(policy, effective, s.nonceSource)
	if err != nil {
		return err
	}

	if err := store.SetContext(target, policycodec.SerializeContext(ctx), nil); err != nil {
		return fmt.Errorf("failed to persist context: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"object":   target.ID(),
		"contents": ctx.ContentsMode.String(),
		"names":    ctx.FilenamesMode.String(),
	}).Debug("encryption context created")

	return nil
}

// GetPolicy reports the target's encryption policy with directory mode
// translation applied. It returns types.ErrNoData for unencrypted targets so
// absence of encryption is never mistaken for a default policy.
func (s *PolicyService) GetPolicy(target interfaces.Object) (*types.EncryptionPolicy, error) {
	if !target.IsEncrypted() {
		return nil, types.ErrNoData
	}

	ctx, err := readStoredContext(target)
	if err != nil {
		return nil, err
	}

	policy, err := policycodec.ToPolicy(ctx)
	if err != nil {
		return nil, err
	}

	policy.ContentsMode = ReportedContentsMode(policy.ContentsMode, target.Kind() == types.KindDirectory)

	return policy, nil
}
