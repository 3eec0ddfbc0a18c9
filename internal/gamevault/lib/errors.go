package lib

import "errors"

// Sentinel errors for the vault core. Callers match them with errors.Is;
// wrapping sites attach the path or id that failed.
var (
	// ErrNotFound is returned when a required object, version, or path is
	// absent. A missing object during a dedup lookup is not an error.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when creating a version at an identity
	// that is already taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrIntegrity is returned when reconstructed bytes fail a length or
	// hash check. It is fatal and never auto-repaired.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrCorruptDelta is returned when a stored delta cannot be decoded
	// or does not reconstruct the recorded target.
	ErrCorruptDelta = errors.New("corrupt delta")
)
