package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privymarket/settlement/pkg/types"
)

// Row-scan helpers shared by the sqlite and postgres backends. Both
// store addresses as hex text, timestamps as unix seconds
// and the optional outcome as a nullable integer.

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMarket(row rowScanner) (*types.Market, error) {
	var (
		m        types.Market
		id       int64
		creator  string
		deadline int64
		status   int64
		outcome  sql.NullInt64
		total    int64
		yes      int64
		no       int64
		created  int64
	)

	err := row.Scan(&id, &creator, &m.Question, &deadline, &status, &outcome, &total, &yes, &no, &created)
	if err != nil {
		return nil, err
	}

	m.ID = uint64(id)
	m.Creator = common.HexToAddress(creator)
	m.Deadline = time.Unix(deadline, 0).UTC()
	m.Status = types.MarketStatus(status)
	if outcome.Valid {
		side := types.Side(outcome.Int64 != 0)
		m.Outcome = &side
	}
	m.TotalPool = uint64(total)
	m.YesPool = uint64(yes)
	m.NoPool = uint64(no)
	m.CreatedAt = time.Unix(created, 0).UTC()

	return &m, nil
}

func scanPosition(row rowScanner) (*types.Position, error) {
	var (
		p          types.Position
		marketID   int64
		bettor     string
		commitment []byte
		amount     int64
		claimed    bool
		created    int64
	)

	err := row.Scan(&marketID, &bettor, &commitment, &amount, &claimed, &created)
	if err != nil {
		return nil, err
	}

	if len(commitment) != len(p.Commitment) {
		return nil, fmt.Errorf("malformed commitment: want %d bytes, got %d", len(p.Commitment), len(commitment))
	}

	p.MarketID = uint64(marketID)
	p.Bettor = common.HexToAddress(bettor)
	copy(p.Commitment[:], commitment)
	p.Amount = uint64(amount)
	p.Claimed = claimed
	p.CreatedAt = time.Unix(created, 0).UTC()

	return &p, nil
}

func outcomeColumn(m *types.Market) sql.NullInt64 {
	if m.Outcome == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Valid: true, Int64: int64((*m.Outcome).Byte())}
}

func addressColumn(addr common.Address) string {
	return addr.Hex()
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
