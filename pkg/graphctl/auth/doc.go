// Package auth acquires delegated access tokens with the OAuth 2.0 device-code grant
// (RFC 8628). The CredentialProvider resolves the identity provider endpoints lazily, shows
// the user code through a PromptSink once per exchange and keeps the resulting token, with
// its refresh token, in memory for the life of the process.
package auth
