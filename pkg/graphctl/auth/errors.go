package auth

import "errors"

var (
	// ErrConfig reports missing or malformed configuration. It is returned before any
	// network activity.
	ErrConfig = errors.New("invalid configuration")
	// ErrProviderUninitialized is returned when GetToken is called on a provider that was
	// not built by NewCredentialProvider.
	ErrProviderUninitialized = errors.New("credential provider not initialized")
	// ErrAuth covers malformed scope requests and failed or declined exchanges.
	ErrAuth = errors.New("authentication failed")
	// ErrAuthTimeout is returned when the user code expires before sign-in completes.
	// Retrying the whole login is the only recovery.
	ErrAuthTimeout = errors.New("device code expired before sign-in completed")
	// ErrPromptDisabled is returned by NonInteractivePrompt.
	ErrPromptDisabled = errors.New("interactive sign-in disabled")
)
