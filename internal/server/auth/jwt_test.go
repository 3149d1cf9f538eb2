package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/podmate/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestSessionToken_RoundTrip(t *testing.T) {
	tok, err := GenerateSessionToken("sess-1", "user-1", secret, time.Minute)
	require.NoError(t, err)

	claims, err := ParseSessionToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "user-1", claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 2*time.Second)
}

func TestParseSessionToken_Errors(t *testing.T) {
	expired, err := GenerateSessionToken("sess-1", "user-1", secret, -time.Minute)
	require.NoError(t, err)

	otherKey, err := GenerateSessionToken("sess-1", "user-1", []byte("other"), time.Minute)
	require.NoError(t, err)

	noSession, err := GenerateSessionToken("", "user-1", secret, time.Minute)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{SessionID: "sess-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "expired", token: expired, want: common.ErrTokenExpired},
		{name: "wrong key", token: otherKey, want: common.ErrInvalidToken},
		{name: "missing session id", token: noSession, want: common.ErrInvalidToken},
		{name: "alg none", token: unsigned, want: common.ErrInvalidToken},
		{name: "garbage", token: "not.a.token", want: common.ErrInvalidToken},
		{name: "empty", token: "", want: common.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSessionToken(tt.token, secret)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
