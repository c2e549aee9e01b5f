package unlock

import "errors"

var (
	ErrAlreadyUnlocked = errors.New("listing already unlocked")
	ErrNotUnlockable   = errors.New("listing cannot be unlocked")
)
