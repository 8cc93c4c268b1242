package models

import "errors"

// Repository errors shared by every credential store backend
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)
