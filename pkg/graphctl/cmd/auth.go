package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/telekom/graphctl/pkg/graphctl/auth"
	"github.com/telekom/graphctl/pkg/graphctl/output"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in and inspect access tokens",
	}
	cmd.AddCommand(
		newAuthLoginCommand(),
		newAuthTokenCommand(),
	)
	return cmd
}

type loginResult struct {
	Identity  auth.Identity `json:"identity" yaml:"identity"`
	ExpiresAt time.Time     `json:"expiresAt" yaml:"expiresAt"`
	Scopes    []string      `json:"scopes" yaml:"scopes"`
}

func newAuthLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with a device code and show who signed in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			sess, err := rt.Session()
			if err != nil {
				return err
			}
			tok, err := sess.Token(cmd.Context())
			if err != nil {
				return err
			}
			identity, err := auth.Claims(tok.Value)
			if err != nil {
				// Opaque tokens carry no readable claims.
				rt.Logger().Debugw("Could not read token claims", "error", err)
			}
			result := loginResult{Identity: identity, ExpiresAt: tok.Expiry, Scopes: sess.Scopes()}
			return rt.render(result, func(w io.Writer) {
				output.WriteIdentityTable(w, identity, tok.Expiry)
			})
		},
	}
}

type tokenResult struct {
	AccessToken string    `json:"accessToken" yaml:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt" yaml:"expiresAt"`
}

func newAuthTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print an access token for the configured scopes",
		Long: `Print an access token for the configured scopes, signing in first when needed.

The token grants access to your mailbox. Do not share it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			sess, err := rt.Session()
			if err != nil {
				return err
			}
			tok, err := sess.Token(cmd.Context())
			if err != nil {
				return err
			}
			return rt.render(tokenResult{AccessToken: tok.Value, ExpiresAt: tok.Expiry}, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "User token: %s\n", tok.Value)
			})
		},
	}
}
