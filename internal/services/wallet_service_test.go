package services

import (
	"context"
	"math/big"
	"testing"

	"github.com/ArowuTest/bridgetunes-raffle/internal/app/apptest"
	"github.com/ArowuTest/bridgetunes-raffle/internal/lottery"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var carolAddr = common.HexToAddress("0x0000000000000000000000000000000000000003")

func TestWalletFaucetAndTransfer(t *testing.T) {
	ctx := context.Background()
	stack := apptest.Build(t, "classic")
	svc := NewWalletService(stack.Bank, stack.Token, apptest.OneEther)
	carol := carolAddr

	require.NoError(t, svc.Faucet(ctx, carol, apptest.Ticket))
	assert.ErrorIs(t, svc.Faucet(ctx, carol, new(big.Int).Add(apptest.OneEther, big.NewInt(1))), ErrFaucetLimit)
	assert.ErrorIs(t, svc.Faucet(ctx, carol, big.NewInt(0)), ErrInvalidAmount)

	require.NoError(t, svc.Transfer(ctx, carol, apptest.Alice, apptest.Ticket))
	err := svc.Transfer(ctx, apptest.Alice, apptest.Lottery, apptest.Ticket)
	assert.ErrorIs(t, err, lottery.ErrDirectTransferNotAllowed)

	bal, err := svc.Balance(ctx, apptest.Alice)
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).Add(apptest.OneEther, apptest.Ticket).Cmp(bal.Native))
	assert.Equal(t, "LINK", bal.TokenSymbol)
}

func TestWalletTokens(t *testing.T) {
	ctx := context.Background()
	stack := apptest.Build(t, "erc20")
	svc := NewWalletService(stack.Bank, stack.Token, nil)
	carol := carolAddr

	require.NoError(t, svc.MintTokens(ctx, carol, stack.Token.Units(2)))
	require.NoError(t, svc.TransferTokens(ctx, carol, apptest.Alice, stack.Token.Units(1)))
	assert.ErrorIs(t, svc.TransferTokens(ctx, carol, apptest.Alice, stack.Token.Units(5)), ErrTokenTransfer)

	require.NoError(t, svc.ApproveTokens(ctx, carol, apptest.Lottery, stack.Token.Units(1)))
	assert.Equal(t, 0, stack.Token.Units(1).Cmp(svc.Allowance(ctx, carol, apptest.Lottery)))

	require.NoError(t, stack.Engine.Enter(ctx, carol, nil))
	bal, err := svc.Balance(ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Token.Sign())

	d, err := svc.TokenDecimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), d)
}
