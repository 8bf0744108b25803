// Package session binds an auth.Configuration, the credential provider built from it and
// an HTTP client that authenticates every request with a token from that provider.
//
// A Session is an explicit value owned by the caller. It starts uninitialized; until
// InitializeForUserAuth succeeds every accessor fails with ErrSessionNotInitialized.
package session
