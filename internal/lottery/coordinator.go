package lottery

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RandomnessCoordinator is the external randomness service. A request is
// answered later, exactly once, through RawFulfillRandomWords.
type RandomnessCoordinator interface {
	RequestRandomWords(ctx context.Context, consumer common.Address, keyHash common.Hash, subID uint64, confirmations uint16, callbackGasLimit, numWords uint32) (uint64, error)
	SubscriptionBalance(ctx context.Context, subID uint64) (*big.Int, error)
}
