package services

import (
	"context"
	"testing"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/app/apptest"
	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories/memory"
	"github.com/ArowuTest/bridgetunes-raffle/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	tokens := jwt.NewTokenService("secret", time.Hour)
	svc := NewAuthService(memory.NewAccountRepository(), tokens, apptest.Manager)

	account, err := svc.Register(ctx, &models.RegisterRequest{
		Username: "Manager",
		Password: "hunter22",
		Address:  apptest.Manager.Hex(),
	})
	require.NoError(t, err)
	assert.Empty(t, account.Password)
	assert.Equal(t, apptest.Manager, account.Address)

	_, err = svc.Register(ctx, &models.RegisterRequest{Username: "manager", Password: "hunter22", Address: apptest.Alice.Hex()})
	assert.ErrorIs(t, err, ErrAccountExists)
	_, err = svc.Register(ctx, &models.RegisterRequest{Username: "alice", Password: "hunter22", Address: "alice"})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = svc.Register(ctx, &models.RegisterRequest{Username: "alice", Password: "wonderland", Address: apptest.Alice.Hex()})
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantRole string
		wantErr  error
	}{
		{"manager", "MANAGER", "hunter22", models.RoleManager, nil},
		{"player", "alice", "wonderland", models.RolePlayer, nil},
		{"wrong password", "alice", "hunter22", "", ErrInvalidCredentials},
		{"unknown user", "bob", "hunter22", "", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(ctx, &models.LoginRequest{Username: tt.username, Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, resp.Role)

			claims, err := tokens.Validate(resp.Token)
			require.NoError(t, err)
			assert.Equal(t, resp.Address, claims.Address().Hex())
			assert.Equal(t, tt.wantRole, claims.Role)
		})
	}
}
