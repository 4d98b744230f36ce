package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	RoleManager = "manager"
	RolePlayer  = "player"
)

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest defines the structure for registration requests.
// Address is the identity the account plays with.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Address  string `json:"address" binding:"required"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
	Role    string `json:"role"`
}

// Account is a login bound to a lottery identity
type Account struct {
	Username  string         `json:"username"`
	Password  string         `json:"-"` // bcrypt hash
	Address   common.Address `json:"address"`
	CreatedAt time.Time      `json:"createdAt"`
}
