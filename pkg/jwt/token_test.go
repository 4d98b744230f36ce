package jwt

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	addr := common.HexToAddress("0xa0")

	token, err := svc.Generate(addr, "manager")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, addr, claims.Address())
	assert.Equal(t, "manager", claims.Role)
}

func TestValidateRejects(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	addr := common.HexToAddress("0xa0")

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenService("other", time.Hour).Generate(addr, "player")
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewTokenService("secret", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := old.Generate(addr, "player")
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
