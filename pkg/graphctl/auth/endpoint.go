package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const entraAuthorityHost = "https://login.microsoftonline.com/"

// AzureADEndpoint returns the Entra ID v2 endpoints, including device authorization, for
// a tenant ID or one of common, organizations, consumers.
func AzureADEndpoint(tenantID string) oauth2.Endpoint {
	ep := microsoft.AzureADEndpoint(tenantID)
	if ep.DeviceAuthURL == "" {
		ep.DeviceAuthURL = entraAuthorityHost + tenantID + "/oauth2/v2.0/devicecode"
	}
	return ep
}

// discoverEndpoint reads the issuer's OIDC discovery document.
func discoverEndpoint(ctx context.Context, client *http.Client, authority string) (oauth2.Endpoint, error) {
	ctx = oidc.ClientContext(ctx, client)
	provider, err := oidc.NewProvider(ctx, strings.TrimRight(authority, "/"))
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	ep := provider.Endpoint()
	if ep.DeviceAuthURL == "" {
		return oauth2.Endpoint{}, errors.New("device authorization endpoint not advertised")
	}
	if ep.TokenURL == "" {
		return oauth2.Endpoint{}, errors.New("token endpoint not advertised")
	}
	return ep, nil
}

// resolveEndpoint is called with p.mu held.
func (p *CredentialProvider) resolveEndpoint(ctx context.Context) (oauth2.Endpoint, error) {
	if p.endpoint != nil {
		return *p.endpoint, nil
	}
	var (
		ep  oauth2.Endpoint
		err error
	)
	if p.cfg.Authority == "" {
		ep = AzureADEndpoint(p.cfg.TenantID)
	} else {
		ep, err = discoverEndpoint(ctx, p.httpClient, p.cfg.Authority)
		if err != nil {
			return oauth2.Endpoint{}, err
		}
	}
	// Public clients have no secret to put in a Basic auth header.
	ep.AuthStyle = oauth2.AuthStyleInParams
	p.endpoint = &ep
	return ep, nil
}
