package lottery

import (
	"math/big"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
)

var wordSpace = new(big.Int).Lsh(big.NewInt(1), 256)

// selectWinner maps the random words to an index in [0, n). The modulo
// policy uses the first word and accepts the bias of 2^256 mod n. The
// rejection policy takes the first word below the largest multiple of n
// and falls back to the first word when every word is rejected.
func selectWinner(policy models.SelectionPolicy, words []*big.Int, n int) (int, *big.Int) {
	size := big.NewInt(int64(n))
	chosen := words[0]
	if policy == models.SelectionRejection {
		limit := new(big.Int).Sub(wordSpace, new(big.Int).Mod(wordSpace, size))
		for _, w := range words {
			if w.Sign() >= 0 && w.Cmp(limit) < 0 {
				chosen = w
				break
			}
		}
	}
	idx := new(big.Int).Mod(chosen, size)
	return int(idx.Int64()), new(big.Int).Set(chosen)
}
