package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
)

type positionKey struct {
	marketID uint64
	bettor   common.Address
}

// MemoryLedger is an in-process Ledger backed by maps. Default backend
// for tests and single-shot CLI runs.
type MemoryLedger struct {
	mu        sync.Mutex
	authority *types.Authority
	markets   map[uint64]*types.Market
	positions map[positionKey]*types.Position
	balances  map[Account]uint64
	logger    *zap.Logger
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger(logger *zap.Logger) *MemoryLedger {
	return &MemoryLedger{
		markets:   make(map[uint64]*types.Market),
		positions: make(map[positionKey]*types.Position),
		balances:  make(map[Account]uint64),
		logger:    logger,
	}
}

// View runs fn against a read transaction.
func (l *MemoryLedger) View(ctx context.Context, fn func(Tx) error) error {
	return l.Update(ctx, fn)
}

// Update runs fn atomically: state is snapshotted up front and
// restored wholesale when fn fails, so a mid-transaction error never
// leaves partial effects behind.
func (l *MemoryLedger) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snap := l.snapshot()

	err := fn(&memTx{l: l})
	if err != nil {
		l.restore(snap)
		TxTotal.WithLabelValues("memory", "aborted").Inc()
		return err
	}

	TxTotal.WithLabelValues("memory", "committed").Inc()
	return nil
}

// Close releases nothing; it exists to satisfy Ledger.
func (l *MemoryLedger) Close() error {
	return nil
}

type memState struct {
	authority *types.Authority
	markets   map[uint64]*types.Market
	positions map[positionKey]*types.Position
	balances  map[Account]uint64
}

func (l *MemoryLedger) snapshot() memState {
	s := memState{
		authority: l.authority,
		markets:   make(map[uint64]*types.Market, len(l.markets)),
		positions: make(map[positionKey]*types.Position, len(l.positions)),
		balances:  make(map[Account]uint64, len(l.balances)),
	}
	for id, m := range l.markets {
		cp := *m
		s.markets[id] = &cp
	}
	for k, p := range l.positions {
		cp := *p
		s.positions[k] = &cp
	}
	for a, b := range l.balances {
		s.balances[a] = b
	}
	return s
}

func (l *MemoryLedger) restore(s memState) {
	l.authority = s.authority
	l.markets = s.markets
	l.positions = s.positions
	l.balances = s.balances
}

type memTx struct {
	l *MemoryLedger
}

func (t *memTx) CreateAuthority(a *types.Authority) error {
	if t.l.authority != nil {
		return types.ErrAlreadyExists
	}
	cp := *a
	t.l.authority = &cp
	return nil
}

func (t *memTx) Authority() (*types.Authority, error) {
	if t.l.authority == nil {
		return nil, types.ErrNotInitialized
	}
	cp := *t.l.authority
	return &cp, nil
}

func (t *memTx) CreateMarket(m *types.Market) error {
	if _, ok := t.l.markets[m.ID]; ok {
		return types.ErrAlreadyExists
	}
	cp := *m
	t.l.markets[m.ID] = &cp
	return nil
}

func (t *memTx) Market(id uint64) (*types.Market, error) {
	m, ok := t.l.markets[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (t *memTx) PutMarket(m *types.Market) error {
	if _, ok := t.l.markets[m.ID]; !ok {
		return types.ErrNotFound
	}
	cp := *m
	t.l.markets[m.ID] = &cp
	return nil
}

func (t *memTx) Markets() ([]*types.Market, error) {
	out := make([]*types.Market, 0, len(t.l.markets))
	for _, m := range t.l.markets {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) CreatePosition(p *types.Position) error {
	k := positionKey{p.MarketID, p.Bettor}
	if _, ok := t.l.positions[k]; ok {
		return types.ErrAlreadyExists
	}
	cp := *p
	t.l.positions[k] = &cp
	return nil
}

func (t *memTx) Position(marketID uint64, bettor common.Address) (*types.Position, error) {
	p, ok := t.l.positions[positionKey{marketID, bettor}]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) PutPosition(p *types.Position) error {
	k := positionKey{p.MarketID, p.Bettor}
	if _, ok := t.l.positions[k]; !ok {
		return types.ErrNotFound
	}
	cp := *p
	t.l.positions[k] = &cp
	return nil
}

func (t *memTx) Balance(acct Account) (uint64, error) {
	return t.l.balances[acct], nil
}

func (t *memTx) Credit(acct Account, amount uint64) error {
	cur := t.l.balances[acct]
	next := cur + amount
	if next < cur {
		return types.ErrOverflow
	}
	t.l.balances[acct] = next
	return nil
}

func (t *memTx) Transfer(from, to Account, amount uint64) error {
	fromBal := t.l.balances[from]
	if fromBal < amount {
		return types.ErrInsufficientFunds
	}
	toBal := t.l.balances[to]
	next := toBal + amount
	if next < toBal {
		return types.ErrOverflow
	}
	t.l.balances[from] = fromBal - amount
	t.l.balances[to] = next
	TransferVolume.Add(float64(amount))
	return nil
}
