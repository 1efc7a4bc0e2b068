package types

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the policy engine. Callers are expected to
// match them with errors.Is; operations wrap them with context via %w.
var (
	// ErrInvalidArgument indicates a malformed policy: bad version, unknown
	// mode pair, invalid flag bits, or an invalid flag/mode combination.
	ErrInvalidArgument = errors.New("invalid encryption policy")

	// ErrPermissionDenied indicates the caller is neither the object's owner
	// nor privileged.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotADirectory indicates a first-time policy assignment on a
	// non-directory object.
	ErrNotADirectory = errors.New("not a directory")

	// ErrNotFound indicates the target directory has already been removed.
	ErrNotFound = errors.New("directory no longer exists")

	// ErrDirectoryNotEmpty indicates a first-time policy assignment on a
	// non-empty directory.
	ErrDirectoryNotEmpty = errors.New("directory not empty")

	// ErrAlreadyExists indicates the object already carries a different
	// encryption policy. The caller must not retry with another policy.
	ErrAlreadyExists = errors.New("different encryption policy already set")

	// ErrNoData indicates the object has no encryption context.
	ErrNoData = errors.New("no encryption context")

	// ErrKeyUnavailable indicates key derivation could not produce usable
	// key material for the object's master key descriptor.
	ErrKeyUnavailable = errors.New("encryption key unavailable")

	// ErrUnsupportedFormat indicates an on-disk context record with an
	// unknown format tag or wrong size.
	ErrUnsupportedFormat = errors.New("unsupported encryption context format")
)

// PreloadError reports a failure to eagerly resolve a newly created child's
// key material. The child's context write has already committed; the object
// is created with its policy but is not yet key-ready.
type PreloadError struct {
	Err error
}

func (e *PreloadError) Error() string {
	return fmt.Sprintf("context committed but key preload failed: %v", e.Err)
}

func (e *PreloadError) Unwrap() error {
	return e.Err
}

// IsPreloadError checks if an error is a preload error.
func IsPreloadError(err error) bool {
	var pe *PreloadError
	return errors.As(err, &pe)
}
