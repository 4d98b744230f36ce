package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ArowuTest/bridgetunes-raffle/internal/utils"
	"github.com/ArowuTest/bridgetunes-raffle/pkg/jwt"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type authService struct {
	accounts repositories.AccountRepository
	tokens   *jwt.TokenService
	manager  common.Address
}

// NewAuthService creates a new AuthService implementation. Accounts whose
// address is manager log in with the manager role.
func NewAuthService(accounts repositories.AccountRepository, tokens *jwt.TokenService, manager common.Address) AuthService {
	return &authService{
		accounts: accounts,
		tokens:   tokens,
		manager:  manager,
	}
}

// Register handles account registration
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidCredentials)
	}
	address, err := utils.ParseAddress(req.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Username:  username,
		Password:  string(hashedPassword),
		Address:   address,
		CreatedAt: time.Now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	log.WithFields(log.Fields{"username": username, "address": address.Hex()}).Info("account registered")

	// Don't return password hash
	account.Password = ""
	return account, nil
}

// Login checks the password and issues a bearer token for the account's
// address
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	account, err := s.accounts.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	role := models.RolePlayer
	if account.Address == s.manager {
		role = models.RoleManager
	}
	token, err := s.tokens.Generate(account.Address, role)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{
		Token:   token,
		Address: account.Address.Hex(),
		Role:    role,
	}, nil
}
