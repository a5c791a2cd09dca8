package repository

import "errors"

var (
	// ErrCreateFailed means the store did not acknowledge an inserted article.
	ErrCreateFailed = errors.New("failed to create article")
	// ErrRegistryNotInitialized is returned by Registry.Get before Registry.Init.
	ErrRegistryNotInitialized = errors.New("article repository not initialized")
)
