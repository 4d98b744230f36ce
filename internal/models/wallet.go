package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Balance is what an address holds in each currency
type Balance struct {
	Address     common.Address `json:"address"`
	Native      *big.Int       `json:"native"`
	Token       *big.Int       `json:"token"`
	TokenSymbol string         `json:"tokenSymbol"`
}

// AmountRequest carries a decimal amount in whole currency units
type AmountRequest struct {
	Amount string `json:"amount"`
}

// TransferRequest moves native value or tokens to another address
type TransferRequest struct {
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// ApproveRequest sets a token allowance
type ApproveRequest struct {
	Spender string `json:"spender" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// ConsumerRequest adds or removes a subscription consumer
type ConsumerRequest struct {
	Consumer string `json:"consumer" binding:"required"`
}

// GasLimitRequest changes the callback gas limit
type GasLimitRequest struct {
	GasLimit uint32 `json:"gasLimit" binding:"required"`
}
