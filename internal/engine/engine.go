// Package engine implements the commit-reveal settlement operations:
// authority initialization, market lifecycle, escrowed bet placement
// and pari-mutuel claims.
//
// Known semantic gap, kept deliberately: the yes/no pools fill in
// lazily as winners reveal, so a winner's payout depends on the order
// in which winners claim. The first claimant's stake is the entire
// known winning pool, which makes their payout the whole vault and
// leaves later winners unable to collect. Changing this would change
// the settlement semantics, so it is documented here instead of fixed.
package engine

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/privymarket/settlement/internal/authority"
	"github.com/privymarket/settlement/internal/events"
	"github.com/privymarket/settlement/internal/ledger"
	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
)

// Publisher receives settlement events. May be nil.
type Publisher interface {
	Publish(ev events.Event)
}

// Engine executes settlement operations against a Ledger. Each
// operation runs as one ledger transaction: every precondition is
// checked before any mutation, and all effects commit together or not
// at all.
type Engine struct {
	ledger ledger.Ledger
	clock  ledger.Clock
	logger *zap.Logger
	pub    Publisher
}

// Config holds engine dependencies.
type Config struct {
	Ledger    ledger.Ledger
	Clock     ledger.Clock
	Logger    *zap.Logger
	Publisher Publisher
}

// New creates an engine. Clock defaults to the system clock.
func New(cfg Config) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	return &Engine{
		ledger: cfg.Ledger,
		clock:  clock,
		logger: cfg.Logger,
		pub:    cfg.Publisher,
	}
}

// Initialize creates the singleton authority record with admin as the
// privileged identity. Callable once.
func (e *Engine) Initialize(ctx context.Context, admin common.Address) (*types.Authority, error) {
	defer observe("initialize", time.Now())

	var a *types.Authority
	err := e.ledger.Update(ctx, func(tx ledger.Tx) error {
		var err error
		a, err = authority.Initialize(tx, admin, e.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("authority-initialized", zap.String("admin", admin.Hex()))
	return a, nil
}

// CreateMarket allocates a new open market. Authority only; the
// question must fit MaxQuestionLen and the deadline must be strictly
// in the future.
func (e *Engine) CreateMarket(ctx context.Context, caller common.Address, id uint64, question string, deadline time.Time) (*types.Market, error) {
	defer observe("create_market", time.Now())

	var m *types.Market
	err := e.ledger.Update(ctx, func(tx ledger.Tx) error {
		err := authority.Authorize(tx, caller)
		if err != nil {
			return err
		}

		if len(question) > types.MaxQuestionLen {
			return types.ErrQuestionTooLong
		}

		now := e.clock.Now()
		if !deadline.After(now) {
			return types.ErrDeadlinePassed
		}

		m = &types.Market{
			ID:        id,
			Creator:   caller,
			Question:  question,
			Deadline:  deadline,
			Status:    types.StatusOpen,
			CreatedAt: now,
		}
		return tx.CreateMarket(m)
	})
	if err != nil {
		return nil, err
	}

	MarketsCreatedTotal.Inc()
	e.logger.Info("market-created",
		zap.Uint64("market-id", id),
		zap.String("creator", caller.Hex()),
		zap.Time("deadline", deadline))
	e.publish(events.Event{
		Type:     events.TypeMarketCreated,
		MarketID: id,
		Actor:    caller,
		At:       m.CreatedAt,
	})

	return m, nil
}

// PlaceBet escrows amount from the caller into the market vault and
// records the commitment. Only the market's total pool grows here; the
// chosen side is hidden inside the commitment until claim time.
func (e *Engine) PlaceBet(ctx context.Context, caller common.Address, marketID uint64, commitment types.Commitment, amount uint64) (*types.Position, error) {
	defer observe("place_bet", time.Now())

	var p *types.Position
	err := e.ledger.Update(ctx, func(tx ledger.Tx) error {
		if amount == 0 {
			return types.ErrInvalidAmount
		}

		m, err := tx.Market(marketID)
		if err != nil {
			return err
		}
		if m.Status != types.StatusOpen {
			return types.ErrMarketNotOpen
		}

		now := e.clock.Now()
		if !now.Before(m.Deadline) {
			return types.ErrDeadlinePassed
		}

		p = &types.Position{
			Bettor:     caller,
			MarketID:   marketID,
			Commitment: commitment,
			Amount:     amount,
			CreatedAt:  now,
		}
		err = tx.CreatePosition(p)
		if err != nil {
			return err
		}

		m.TotalPool, err = checkedAdd(m.TotalPool, amount)
		if err != nil {
			return err
		}
		err = tx.PutMarket(m)
		if err != nil {
			return err
		}

		return tx.Transfer(ledger.UserAccount(caller), ledger.VaultAccount(marketID), amount)
	})
	if err != nil {
		return nil, err
	}

	BetsPlacedTotal.Inc()
	BetAmount.Observe(float64(amount))
	e.logger.Info("bet-placed",
		zap.Uint64("market-id", marketID),
		zap.String("bettor", caller.Hex()),
		zap.Uint64("amount", amount))
	e.publish(events.Event{
		Type:     events.TypeBetPlaced,
		MarketID: marketID,
		Actor:    caller,
		Amount:   amount,
		At:       p.CreatedAt,
	})

	return p, nil
}

// ResolveMarket freezes an open market with its final outcome.
// Authority only, and only once the deadline has passed. Irreversible.
func (e *Engine) ResolveMarket(ctx context.Context, caller common.Address, marketID uint64, outcome types.Side) (*types.Market, error) {
	defer observe("resolve_market", time.Now())

	var m *types.Market
	err := e.ledger.Update(ctx, func(tx ledger.Tx) error {
		err := authority.Authorize(tx, caller)
		if err != nil {
			return err
		}

		m, err = tx.Market(marketID)
		if err != nil {
			return err
		}
		if m.Status != types.StatusOpen {
			return types.ErrMarketAlreadyResolved
		}
		if e.clock.Now().Before(m.Deadline) {
			return types.ErrDeadlineNotPassed
		}

		m.Outcome = &outcome
		m.Status = types.StatusResolved
		return tx.PutMarket(m)
	})
	if err != nil {
		return nil, err
	}

	MarketsResolvedTotal.Inc()
	e.logger.Info("market-resolved",
		zap.Uint64("market-id", marketID),
		zap.String("outcome", outcome.String()))
	e.publish(events.Event{
		Type:     events.TypeMarketResolved,
		MarketID: marketID,
		Actor:    caller,
		Outcome:  &outcome,
		At:       e.clock.Now(),
	})

	return m, nil
}

// ClaimWinnings verifies the caller's reveal against their stored
// commitment and pays out their pari-mutuel share from the vault.
//
// The position is marked claimed before the outward transfer. The
// ledger transaction makes both atomic; the ordering closes the window
// where a recursive or concurrent claim on the same position could
// race the transfer and double-pay.
func (e *Engine) ClaimWinnings(ctx context.Context, caller common.Address, marketID uint64, secret types.Secret, side types.Side) (*types.ClaimReceipt, error) {
	defer observe("claim_winnings", time.Now())

	var receipt *types.ClaimReceipt
	err := e.ledger.Update(ctx, func(tx ledger.Tx) error {
		m, err := tx.Market(marketID)
		if err != nil {
			return err
		}
		if m.Status != types.StatusResolved {
			return types.ErrMarketNotResolved
		}

		p, err := tx.Position(marketID, caller)
		if err != nil {
			return err
		}
		if p.Claimed {
			return types.ErrAlreadyClaimed
		}

		// Proves the caller knew the secret behind their original
		// commitment, nothing more.
		if !ComputeCommitment(secret, side).Equal(p.Commitment) {
			return types.ErrInvalidCommitment
		}

		if side != *m.Outcome {
			return types.ErrNotAWinner
		}

		// The pool for this side is discovered only now.
		if side == types.Yes {
			m.YesPool, err = checkedAdd(m.YesPool, p.Amount)
		} else {
			m.NoPool, err = checkedAdd(m.NoPool, p.Amount)
		}
		if err != nil {
			return err
		}

		winningPool := m.NoPool
		if *m.Outcome == types.Yes {
			winningPool = m.YesPool
		}
		losingPool := saturatingSub(m.TotalPool, winningPool)

		payout, err := pariMutuelPayout(p.Amount, losingPool, winningPool)
		if err != nil {
			return err
		}

		vault := ledger.VaultAccount(marketID)
		balance, err := tx.Balance(vault)
		if err != nil {
			return err
		}
		if balance < payout {
			return types.ErrInsufficientVaultBalance
		}

		// Mark claimed before moving funds.
		p.Claimed = true
		err = tx.PutPosition(p)
		if err != nil {
			return err
		}
		err = tx.PutMarket(m)
		if err != nil {
			return err
		}

		err = tx.Transfer(vault, ledger.UserAccount(caller), payout)
		if err != nil {
			return err
		}

		receipt = &types.ClaimReceipt{
			ID:       uuid.NewString(),
			MarketID: marketID,
			Bettor:   caller,
			Side:     side,
			Stake:    p.Amount,
			Payout:   payout,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ClaimsPaidTotal.Inc()
	PayoutAmount.Observe(float64(receipt.Payout))
	e.logger.Info("winnings-claimed",
		zap.String("claim-id", receipt.ID),
		zap.Uint64("market-id", marketID),
		zap.String("bettor", caller.Hex()),
		zap.Uint64("stake", receipt.Stake),
		zap.Uint64("payout", receipt.Payout))
	e.publish(events.Event{
		Type:     events.TypeWinningsClaimed,
		MarketID: marketID,
		Actor:    caller,
		Amount:   receipt.Payout,
		At:       e.clock.Now(),
	})

	return receipt, nil
}

func (e *Engine) publish(ev events.Event) {
	if e.pub != nil {
		e.pub.Publish(ev)
	}
}
