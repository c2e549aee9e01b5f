package admin

import "errors"

var (
	ErrCannotBanSelf  = errors.New("admins cannot ban themselves")
	ErrCannotBanAdmin = errors.New("admins cannot be banned")
)
