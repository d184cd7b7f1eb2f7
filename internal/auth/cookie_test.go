package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

func TestEncodeDecodeCredential(t *testing.T) {
	c := Credential{PrincipalID: 42, PrincipalType: models.PrincipalCustomer, SessionID: "abc-123"}
	value := EncodeCredential(c)
	assert.Equal(t, "42:customer:abc-123", value)

	got, err := DecodeCredential(value)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestDecodeCredentialLegacyTwoPart(t *testing.T) {
	// Cookies issued before principal types existed carry only
	// {id}:{sessionId} and are treated as admin sessions.
	got, err := DecodeCredential("7:some-session-id")
	require.NoError(t, err)
	assert.Equal(t, 7, got.PrincipalID)
	assert.Equal(t, models.PrincipalAdmin, got.PrincipalType)
	assert.Equal(t, "some-session-id", got.SessionID)
}

func TestDecodeCredentialRejectsGarbage(t *testing.T) {
	for _, value := range []string{
		"",
		"justonepart",
		"x:admin:sess",       // non-numeric id
		"1:wizard:sess",      // unknown principal type
		"1:admin:",           // empty session id
		"1:",                 // empty legacy session id
		"1:admin:sess:extra", // too many parts
	} {
		_, err := DecodeCredential(value)
		assert.ErrorIs(t, err, ErrBadCredential, "value=%q", value)
	}
}

func TestNewTokenProperties(t *testing.T) {
	a := NewToken()
	b := NewToken()
	assert.NotEqual(t, a, b)
	// 32 random bytes base64url-encode to 43 characters.
	assert.Len(t, a, 43)
}
