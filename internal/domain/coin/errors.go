package coin

import "errors"

var (
	ErrAlreadySettled     = errors.New("topup reference already settled")
	ErrInsufficientCoins  = errors.New("insufficient coins")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrTierNotFound       = errors.New("pricing tier not found")
	ErrOrderNotFound      = errors.New("payment order not found")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrOrderOwnerMismatch = errors.New("payment order belongs to another user")
	ErrInvalidOrder       = errors.New("payment order cannot be settled")
)
