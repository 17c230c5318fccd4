package token

import "errors"

var (
	ErrTokenGeneration = errors.New("token generation failed")
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token has expired")
)
