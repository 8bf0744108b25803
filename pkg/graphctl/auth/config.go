package auth

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Configuration identifies the application registration and the permissions to request.
type Configuration struct {
	ClientID string
	TenantID string
	Scopes   []string
	// Authority optionally replaces the Entra ID endpoints with an OIDC issuer whose
	// discovery document advertises a device_authorization_endpoint.
	Authority string
}

func (c Configuration) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("%w: client-id is required", ErrConfig)
	}
	if strings.TrimSpace(c.TenantID) == "" {
		return fmt.Errorf("%w: tenant-id is required", ErrConfig)
	}
	if len(c.Scopes) == 0 {
		return fmt.Errorf("%w: at least one scope is required", ErrConfig)
	}
	for _, scope := range c.Scopes {
		if strings.TrimSpace(scope) == "" {
			return fmt.Errorf("%w: scopes must not be blank", ErrConfig)
		}
	}
	return nil
}

func (c Configuration) clone() Configuration {
	c.Scopes = slices.Clone(c.Scopes)
	return c
}

// normalizeScopes trims and de-duplicates scopes, keeping the requested order, and returns
// the order-insensitive cache key for the set.
func normalizeScopes(scopes []string) ([]string, string, error) {
	if len(scopes) == 0 {
		return nil, "", fmt.Errorf("%w: scopes cannot be empty", ErrAuth)
	}
	cleaned := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			return nil, "", fmt.Errorf("%w: scopes must not be blank", ErrAuth)
		}
		if !slices.Contains(cleaned, scope) {
			cleaned = append(cleaned, scope)
		}
	}
	key := make([]string, len(cleaned))
	for i, scope := range cleaned {
		key[i] = strings.ToLower(scope)
	}
	slices.Sort(key)
	return cleaned, strings.Join(slices.Compact(key), " "), nil
}
