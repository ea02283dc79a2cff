// Package testutil provides shared test fixtures: a manual clock,
// deterministic addresses and funded ledger accounts.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privymarket/settlement/internal/ledger"
)

// ManualClock is a settable Clock for deadline tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a manual clock frozen at start.
func NewClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Addr returns a deterministic test address.
func Addr(b byte) common.Address {
	var a common.Address
	a[len(a)-1] = b
	return a
}

// Fund credits a user account on the ledger.
func Fund(t *testing.T, led ledger.Ledger, addr common.Address, amount uint64) {
	t.Helper()

	err := led.Update(context.Background(), func(tx ledger.Tx) error {
		return tx.Credit(ledger.UserAccount(addr), amount)
	})
	if err != nil {
		t.Fatalf("fund %s: %v", addr.Hex(), err)
	}
}

// Balance reads a ledger account balance.
func Balance(t *testing.T, led ledger.Ledger, acct ledger.Account) uint64 {
	t.Helper()

	var bal uint64
	err := led.View(context.Background(), func(tx ledger.Tx) error {
		var err error
		bal, err = tx.Balance(acct)
		return err
	})
	if err != nil {
		t.Fatalf("balance %s: %v", acct, err)
	}
	return bal
}
