package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrSyncFailed   = errors.New("github sync failed")
	ErrNoGitHub     = errors.New("github source not configured")
)
