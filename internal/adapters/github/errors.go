package github

import "errors"

// Sentinel kinds for GitHub API errors.
var (
	ErrUnauthorized     = errors.New("github: unauthorized")
	ErrNotFound         = errors.New("github: not found")
	ErrRateLimited      = errors.New("github: rate limited")
	ErrUnavailable      = errors.New("github: unavailable")
	ErrUnexpectedStatus = errors.New("github: unexpected status")
)
