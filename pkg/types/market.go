package types

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MaxQuestionLen is the maximum question length in bytes.
const MaxQuestionLen = 200

// MarketStatus is the market lifecycle state. The only transition is
// Open -> Resolved; there is no other edge in the state machine.
type MarketStatus uint8

const (
	StatusOpen MarketStatus = iota
	StatusResolved
)

func (s MarketStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusResolved:
		return "resolved"
	}
	return "unknown"
}

// MarshalText lets a status render as its name in JSON.
func (s MarketStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name back.
func (s *MarketStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "open":
		*s = StatusOpen
	case "resolved":
		*s = StatusResolved
	default:
		return fmt.Errorf("invalid market status %q", text)
	}
	return nil
}

// Market is the per-market ledger record.
//
// Only TotalPool grows while the market is open; YesPool and NoPool
// stay zero through the betting window and fill in lazily as winners
// reveal at claim time, so the yes/no split stays hidden until after
// resolution.
type Market struct {
	ID        uint64         `json:"id"`
	Creator   common.Address `json:"creator"`
	Question  string         `json:"question"`
	Deadline  time.Time      `json:"deadline"`
	Status    MarketStatus   `json:"status"`
	Outcome   *Side          `json:"outcome,omitempty"`
	TotalPool uint64         `json:"total_pool"`
	YesPool   uint64         `json:"yes_pool"`
	NoPool    uint64         `json:"no_pool"`
	CreatedAt time.Time      `json:"created_at"`
}

// Position is the per-(market,bettor) ledger record. Exactly one
// exists per pair; a second bet by the same bettor collides on the
// key and fails rather than topping up.
type Position struct {
	Bettor     common.Address `json:"bettor"`
	MarketID   uint64         `json:"market_id"`
	Commitment Commitment     `json:"commitment"`
	Amount     uint64         `json:"amount"`
	Claimed    bool           `json:"claimed"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Authority is the singleton administrative record. Created once by
// initialize and immutable afterward.
type Authority struct {
	Admin     common.Address `json:"admin"`
	CreatedAt time.Time      `json:"created_at"`
}

// ClaimReceipt summarizes a successful claim.
type ClaimReceipt struct {
	ID       string         `json:"id"`
	MarketID uint64         `json:"market_id"`
	Bettor   common.Address `json:"bettor"`
	Side     Side           `json:"side"`
	Stake    uint64         `json:"stake"`
	Payout   uint64         `json:"payout"`
}
