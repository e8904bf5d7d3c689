package auth

import "errors"

var (
	ErrUnauthorized       = errors.New("auth: unauthorized")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)
