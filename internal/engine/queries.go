package engine

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privymarket/settlement/internal/ledger"
	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
)

// Market returns the market record by id.
func (e *Engine) Market(ctx context.Context, id uint64) (*types.Market, error) {
	var m *types.Market
	err := e.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		m, err = tx.Market(id)
		return err
	})
	return m, err
}

// Markets returns all markets ordered by id.
func (e *Engine) Markets(ctx context.Context) ([]*types.Market, error) {
	var ms []*types.Market
	err := e.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		ms, err = tx.Markets()
		return err
	})
	return ms, err
}

// Position returns the bettor's position on a market.
func (e *Engine) Position(ctx context.Context, marketID uint64, bettor common.Address) (*types.Position, error) {
	var p *types.Position
	err := e.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		p, err = tx.Position(marketID, bettor)
		return err
	})
	return p, err
}

// VaultBalance returns the escrow balance held for a market.
func (e *Engine) VaultBalance(ctx context.Context, marketID uint64) (uint64, error) {
	return e.balance(ctx, ledger.VaultAccount(marketID))
}

// Balance returns a bettor's ledger balance.
func (e *Engine) Balance(ctx context.Context, addr common.Address) (uint64, error) {
	return e.balance(ctx, ledger.UserAccount(addr))
}

func (e *Engine) balance(ctx context.Context, acct ledger.Account) (uint64, error) {
	var bal uint64
	err := e.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		bal, err = tx.Balance(acct)
		return err
	})
	return bal, err
}

// Deposit credits a bettor's account. Faucet path for tests and local
// runs; production deployments fund accounts on the host ledger.
func (e *Engine) Deposit(ctx context.Context, addr common.Address, amount uint64) error {
	err := e.ledger.Update(ctx, func(tx ledger.Tx) error {
		return tx.Credit(ledger.UserAccount(addr), amount)
	})
	if err != nil {
		return err
	}

	e.logger.Info("account-funded",
		zap.String("address", addr.Hex()),
		zap.Uint64("amount", amount))
	return nil
}
