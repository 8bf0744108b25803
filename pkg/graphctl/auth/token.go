package auth

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2"
)

const redacted = "[redacted]"

// Token is a bearer credential. Its value never appears in formatted, logged or marshalled
// output; read Value explicitly when it has to leave the process.
type Token struct {
	Value  string
	Expiry time.Time
}

func newToken(tok *oauth2.Token) Token {
	return Token{Value: tok.AccessToken, Expiry: tok.Expiry}
}

// Valid reports whether the token is set and not expired.
func (t Token) Valid() bool {
	return t.Value != "" && (t.Expiry.IsZero() || time.Now().Before(t.Expiry))
}

func (t Token) String() string {
	if t.Expiry.IsZero() {
		return "Token(" + redacted + ")"
	}
	return fmt.Sprintf("Token(%s, expires %s)", redacted, t.Expiry.UTC().Format(time.RFC3339))
}

func (t Token) GoString() string {
	return t.String()
}

func (t Token) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("value", redacted)
	if !t.Expiry.IsZero() {
		enc.AddTime("expiry", t.Expiry)
	}
	return nil
}

func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value  string    `json:"value"`
		Expiry time.Time `json:"expiry,omitempty"`
	}{Value: redacted, Expiry: t.Expiry})
}

// Identity is the signed-in user as described by the token claims.
type Identity struct {
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	ObjectID string `json:"objectId,omitempty" yaml:"objectId,omitempty"`
	TenantID string `json:"tenantId,omitempty" yaml:"tenantId,omitempty"`
}

// Claims reads identity claims from a JWT access token without verifying it. The result is
// for display only.
func Claims(raw string) (Identity, error) {
	parser := jwt.Parser{}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return Identity{}, fmt.Errorf("token is not a readable JWT: %w", err)
	}
	id := Identity{
		Name:     stringClaim(claims, "name"),
		ObjectID: stringClaim(claims, "oid"),
		TenantID: stringClaim(claims, "tid"),
	}
	for _, key := range []string{"preferred_username", "upn", "email", "unique_name", "sub"} {
		if v := stringClaim(claims, key); v != "" {
			id.Username = v
			break
		}
	}
	return id, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
