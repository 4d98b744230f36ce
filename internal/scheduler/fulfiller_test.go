package scheduler

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/vrf"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingConsumer struct {
	ids []uint64
}

func (c *countingConsumer) RawFulfillRandomWords(_ context.Context, _ common.Address, id uint64, _ []*big.Int) error {
	c.ids = append(c.ids, id)
	return nil
}

func TestRunOnceWaitsForConfirmations(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	owner := common.HexToAddress("0xa0")
	consumerAddr := common.HexToAddress("0xe1")

	oracle, err := vrf.NewOracle([]byte("scheduler"))
	require.NoError(t, err)
	coord := vrf.NewCoordinator(vrf.Config{
		Address: common.HexToAddress("0xc0"),
		Now:     func() time.Time { return start },
	})
	keyHash, err := coord.RegisterProvingKey(oracle.PublicKey())
	require.NoError(t, err)
	subID := coord.CreateSubscription(owner)
	require.NoError(t, coord.AddConsumer(owner, subID, consumerAddr))
	consumer := &countingConsumer{}
	coord.BindConsumer(consumerAddr, consumer)

	id, err := coord.RequestRandomWords(ctx, consumerAddr, keyHash, subID, 3, 100000, 1)
	require.NoError(t, err)

	f := NewFulfiller(coord, oracle, time.Second, 12*time.Second)
	f.now = func() time.Time { return start.Add(35 * time.Second) }
	done, err := f.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, done)
	assert.Empty(t, consumer.ids)

	f.now = func() time.Time { return start.Add(36 * time.Second) }
	done, err = f.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.True(t, done[0].Success)
	assert.Equal(t, []uint64{id}, consumer.ids)
	assert.Empty(t, coord.PendingRequests())
}

func TestStartRejectsZeroInterval(t *testing.T) {
	f := NewFulfiller(vrf.NewCoordinator(vrf.Config{}), nil, 0, time.Second)
	assert.Error(t, f.Start())
}
