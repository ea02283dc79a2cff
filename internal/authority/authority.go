// Package authority holds the singleton administrative identity. All
// privileged operations (market creation, resolution) check the caller
// against it.
package authority

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privymarket/settlement/internal/ledger"
	"github.com/privymarket/settlement/pkg/types"
)

// Initialize creates the admin record. It can succeed once; later
// calls fail with types.ErrAlreadyExists from the ledger's
// create-uniqueness guard.
func Initialize(tx ledger.Tx, admin common.Address, now time.Time) (*types.Authority, error) {
	a := &types.Authority{
		Admin:     admin,
		CreatedAt: now,
	}

	err := tx.CreateAuthority(a)
	if err != nil {
		return nil, fmt.Errorf("create authority: %w", err)
	}

	return a, nil
}

// Authorize fails with types.ErrUnauthorized unless caller is the
// initialized admin. Pure read check, no side effects.
func Authorize(tx ledger.Tx, caller common.Address) error {
	a, err := tx.Authority()
	if err != nil {
		if errors.Is(err, types.ErrNotInitialized) {
			return types.ErrUnauthorized
		}
		return fmt.Errorf("load authority: %w", err)
	}

	if a.Admin != caller {
		return types.ErrUnauthorized
	}

	return nil
}
