package auth

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestTokenFormattingRedactsValue(t *testing.T) {
	tok := Token{Value: "secret-bearer", Expiry: time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)}

	for _, verb := range []string{"%v", "%+v", "%#v", "%s"} {
		out := fmt.Sprintf(verb, tok)
		assert.NotContains(t, out, "secret-bearer", verb)
	}
	assert.Equal(t, "Token([redacted], expires 2030-01-02T03:04:05Z)", tok.String())

	data, err := json.Marshal(tok)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-bearer")

	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, tok.MarshalLogObject(enc))
	assert.Equal(t, "[redacted]", enc.Fields["value"])
}

func TestTokenValid(t *testing.T) {
	assert.False(t, Token{}.Valid())
	assert.True(t, Token{Value: "x"}.Valid())
	assert.True(t, Token{Value: "x", Expiry: time.Now().Add(time.Minute)}.Valid())
	assert.False(t, Token{Value: "x", Expiry: time.Now().Add(-time.Minute)}.Valid())
}

func TestClaims(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"preferred_username": "adele@contoso.com",
		"name":               "Adele Vance",
		"oid":                "object-id",
		"tid":                "tenant-id",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	id, err := Claims(raw)
	require.NoError(t, err)
	assert.Equal(t, "adele@contoso.com", id.Username)
	assert.Equal(t, "Adele Vance", id.Name)
	assert.Equal(t, "object-id", id.ObjectID)
	assert.Equal(t, "tenant-id", id.TenantID)
}

func TestClaimsOpaqueToken(t *testing.T) {
	_, err := Claims("not-a-jwt")
	require.Error(t, err)
}
