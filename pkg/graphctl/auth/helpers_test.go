package auth

import (
	"context"
	"sync/atomic"

	"github.com/telekom/graphctl/pkg/graphctl/authtest"
)

func idpConfig(idp *authtest.IdP) Configuration {
	return Configuration{
		ClientID:  "client-id",
		TenantID:  "tenant-id",
		Scopes:    []string{"user.read", "mail.read"},
		Authority: idp.URL(),
	}
}

type countingPrompt struct {
	calls atomic.Int32
	last  atomic.Value
}

func (c *countingPrompt) Show(_ context.Context, prompt DeviceCodePrompt) error {
	c.calls.Add(1)
	c.last.Store(prompt)
	return nil
}
