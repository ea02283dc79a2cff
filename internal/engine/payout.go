package engine

import (
	"math/bits"

	"github.com/privymarket/settlement/pkg/types"
)

// Checked 64-bit arithmetic. Any overflow is a precondition failure
// for the whole operation; nothing ever wraps.

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, types.ErrOverflow
	}
	return sum, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, types.ErrOverflow
	}
	return lo, nil
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// pariMutuelPayout computes a winner's payout: the original stake plus
// a share of the losing pool proportional to the stake's share of the
// winning pool, floored by integer division.
//
//	payout = amount + floor(amount * losingPool / winningPool)
func pariMutuelPayout(amount, losingPool, winningPool uint64) (uint64, error) {
	if winningPool == 0 {
		return 0, types.ErrZeroWinningPool
	}

	share, err := checkedMul(amount, losingPool)
	if err != nil {
		return 0, err
	}
	share /= winningPool

	return checkedAdd(amount, share)
}
