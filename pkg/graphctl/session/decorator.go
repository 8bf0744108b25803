package session

import (
	"context"

	"github.com/go-resty/resty/v2"

	"github.com/telekom/graphctl/pkg/graphctl/auth"
	"github.com/telekom/graphctl/pkg/graphctl/client"
)

// TokenSource is the part of the credential provider the auth decorator needs.
type TokenSource interface {
	GetToken(ctx context.Context, scopes []string) (auth.Token, error)
}

// WithAuth returns a request decorator that fetches a token for scopes on every request and
// sets it as the bearer credential. Token errors abort the request unchanged.
func WithAuth(source TokenSource, scopes []string) client.RequestDecorator {
	scopes = append([]string(nil), scopes...)
	return func(req *resty.Request) error {
		ctx := req.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		tok, err := source.GetToken(ctx, scopes)
		if err != nil {
			return err
		}
		req.SetAuthToken(tok.Value)
		return nil
	}
}
