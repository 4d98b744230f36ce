package lottery

import (
	"math/big"
	"testing"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSelectWinner(t *testing.T) {
	top := new(big.Int).Sub(wordSpace, big.NewInt(1)) // 2^256-1, rejected for n=3

	tests := []struct {
		name      string
		policy    models.SelectionPolicy
		words     []*big.Int
		n         int
		wantIndex int
		wantWord  *big.Int
	}{
		{"modulo first word", models.SelectionModulo, []*big.Int{big.NewInt(7), big.NewInt(5)}, 3, 1, big.NewInt(7)},
		{"modulo ignores later words", models.SelectionModulo, []*big.Int{top, big.NewInt(5)}, 3, 0, top},
		{"rejection skips biased word", models.SelectionRejection, []*big.Int{top, big.NewInt(5)}, 3, 2, big.NewInt(5)},
		{"rejection falls back to first word", models.SelectionRejection, []*big.Int{top}, 3, 0, top},
		{"power of two never rejects", models.SelectionRejection, []*big.Int{top}, 4, 3, top},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, word := selectWinner(tt.policy, tt.words, tt.n)
			assert.Equal(t, tt.wantIndex, idx)
			assert.Equal(t, 0, tt.wantWord.Cmp(word))
		})
	}
}
