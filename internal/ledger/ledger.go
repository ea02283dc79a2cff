package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privymarket/settlement/pkg/types"
)

// Account identifies a balance holder on the ledger: either a user
// address or a per-market escrow vault.
type Account string

// UserAccount derives the ledger account for a bettor address.
func UserAccount(addr common.Address) Account {
	return Account("user:" + strings.ToLower(addr.Hex()))
}

// VaultAccount derives the escrow account for a market. It is the sole
// destination for stakes and the sole source for payouts.
func VaultAccount(marketID uint64) Account {
	return Account(fmt.Sprintf("vault:%d", marketID))
}

// Tx is a single ledger transaction. Create* calls enforce uniqueness
// on the record key; Transfer moves value atomically within the
// enclosing transaction.
type Tx interface {
	// CreateAuthority stores the singleton admin record.
	// Returns types.ErrAlreadyExists if initialize already ran.
	CreateAuthority(a *types.Authority) error

	// Authority returns the admin record, or types.ErrNotInitialized.
	Authority() (*types.Authority, error)

	// CreateMarket stores a new market.
	// Returns types.ErrAlreadyExists on a duplicate id.
	CreateMarket(m *types.Market) error

	// Market returns the market by id, or types.ErrNotFound.
	Market(id uint64) (*types.Market, error)

	// PutMarket overwrites an existing market record.
	PutMarket(m *types.Market) error

	// Markets returns all markets ordered by id.
	Markets() ([]*types.Market, error)

	// CreatePosition stores a new position.
	// Returns types.ErrAlreadyExists when the (market, bettor) pair
	// already holds one.
	CreatePosition(p *types.Position) error

	// Position returns the position for (market, bettor), or
	// types.ErrNotFound.
	Position(marketID uint64, bettor common.Address) (*types.Position, error)

	// PutPosition overwrites an existing position record.
	PutPosition(p *types.Position) error

	// Balance returns the account balance. Unknown accounts are zero.
	Balance(acct Account) (uint64, error)

	// Credit adds value to an account. Deposits and test funding only;
	// escrow movement goes through Transfer.
	Credit(acct Account, amount uint64) error

	// Transfer moves amount from one account to another. Returns
	// types.ErrInsufficientFunds when from cannot cover it and
	// types.ErrOverflow when to would wrap.
	Transfer(from, to Account, amount uint64) error
}

// Ledger is the persistent keyed store plus value-transfer primitive
// the engine settles against. Update runs fn in a single atomic
// transaction: every mutation commits together or none do.
type Ledger interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Clock supplies trusted time for deadline checks and created_at
// stamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
