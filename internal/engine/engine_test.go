package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privymarket/settlement/internal/ledger"
	"github.com/privymarket/settlement/internal/testutil"
	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
)

var (
	admin   = testutil.Addr(1)
	bettorA = testutil.Addr(2)
	bettorB = testutil.Addr(3)
	bettorC = testutil.Addr(4)
)

func newTestEngine(t *testing.T) (*Engine, *ledger.MemoryLedger, *testutil.ManualClock) {
	t.Helper()

	logger := zap.NewNop()
	led := ledger.NewMemoryLedger(logger)
	clock := testutil.NewClock(time.Unix(1_700_000_000, 0).UTC())

	return New(Config{Ledger: led, Clock: clock, Logger: logger}), led, clock
}

// newOpenMarket initializes the authority and creates market 1 with
// the deadline 100 seconds out.
func newOpenMarket(t *testing.T, e *Engine, clock *testutil.ManualClock) {
	t.Helper()

	ctx := context.Background()
	if _, err := e.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	_, err := e.CreateMarket(ctx, admin, 1, "Will it rain tomorrow?", clock.Now().Add(100*time.Second))
	if err != nil {
		t.Fatalf("create market: %v", err)
	}
}

// placeBet funds the bettor, derives a commitment for side and places
// the bet, returning the secret needed to claim.
func placeBet(t *testing.T, e *Engine, led ledger.Ledger, bettor common.Address, side types.Side, amount uint64) types.Secret {
	t.Helper()

	testutil.Fund(t, led, bettor, amount)

	secret, err := NewSecret()
	if err != nil {
		t.Fatalf("new secret: %v", err)
	}

	_, err = e.PlaceBet(context.Background(), bettor, 1, ComputeCommitment(secret, side), amount)
	if err != nil {
		t.Fatalf("place bet: %v", err)
	}
	return secret
}

func TestInitialize_Once(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	a, err := e.Initialize(ctx, admin)
	if err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if a.Admin != admin {
		t.Fatalf("admin = %s, want %s", a.Admin.Hex(), admin.Hex())
	}

	_, err = e.Initialize(ctx, bettorA)
	if !errors.Is(err, types.ErrAlreadyExists) {
		t.Fatalf("second initialize: want ErrAlreadyExists, got %v", err)
	}
}

func TestCreateMarket(t *testing.T) {
	tests := []struct {
		name     string
		caller   common.Address
		question string
		deadline time.Duration
		wantErr  error
	}{
		{
			name:     "success",
			caller:   admin,
			question: "Will it rain tomorrow?",
			deadline: time.Hour,
		},
		{
			name:     "non-admin-rejected",
			caller:   bettorA,
			question: "Will it rain tomorrow?",
			deadline: time.Hour,
			wantErr:  types.ErrUnauthorized,
		},
		{
			name:     "question-too-long",
			caller:   admin,
			question: strings.Repeat("x", 201),
			deadline: time.Hour,
			wantErr:  types.ErrQuestionTooLong,
		},
		{
			name:     "question-at-limit-accepted",
			caller:   admin,
			question: strings.Repeat("x", 200),
			deadline: time.Hour,
		},
		{
			name:     "deadline-in-the-past",
			caller:   admin,
			question: "Too late?",
			deadline: -time.Second,
			wantErr:  types.ErrDeadlinePassed,
		},
		{
			name:     "deadline-exactly-now",
			caller:   admin,
			question: "Right now?",
			deadline: 0,
			wantErr:  types.ErrDeadlinePassed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, clock := newTestEngine(t)
			ctx := context.Background()

			if _, err := e.Initialize(ctx, admin); err != nil {
				t.Fatalf("initialize: %v", err)
			}

			m, err := e.CreateMarket(ctx, tt.caller, 7, tt.question, clock.Now().Add(tt.deadline))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Status != types.StatusOpen || m.Outcome != nil {
				t.Fatalf("new market not open: status=%v outcome=%v", m.Status, m.Outcome)
			}
			if m.TotalPool != 0 || m.YesPool != 0 || m.NoPool != 0 {
				t.Fatal("new market pools must start at zero")
			}
			if m.Creator != tt.caller {
				t.Fatalf("creator = %s, want %s", m.Creator.Hex(), tt.caller.Hex())
			}
		})
	}
}

func TestCreateMarket_DuplicateID(t *testing.T) {
	e, _, clock := newTestEngine(t)
	newOpenMarket(t, e, clock)

	_, err := e.CreateMarket(context.Background(), admin, 1, "Again?", clock.Now().Add(time.Hour))
	if !errors.Is(err, types.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestPlaceBet_Preconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("zero-amount", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		newOpenMarket(t, e, clock)

		_, err := e.PlaceBet(ctx, bettorA, 1, types.Commitment{}, 0)
		if !errors.Is(err, types.ErrInvalidAmount) {
			t.Fatalf("want ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("unknown-market", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		newOpenMarket(t, e, clock)

		_, err := e.PlaceBet(ctx, bettorA, 99, types.Commitment{}, 10)
		if !errors.Is(err, types.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})

	t.Run("after-deadline", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		newOpenMarket(t, e, clock)

		clock.Advance(100 * time.Second)
		_, err := e.PlaceBet(ctx, bettorA, 1, types.Commitment{}, 10)
		if !errors.Is(err, types.ErrDeadlinePassed) {
			t.Fatalf("want ErrDeadlinePassed, got %v", err)
		}
	})

	t.Run("resolved-market", func(t *testing.T) {
		e, led, clock := newTestEngine(t)
		newOpenMarket(t, e, clock)
		_ = placeBet(t, e, led, bettorA, types.Yes, 10)

		clock.Advance(101 * time.Second)
		if _, err := e.ResolveMarket(ctx, admin, 1, types.Yes); err != nil {
			t.Fatalf("resolve: %v", err)
		}

		testutil.Fund(t, led, bettorB, 10)
		_, err := e.PlaceBet(ctx, bettorB, 1, types.Commitment{}, 10)
		if !errors.Is(err, types.ErrMarketNotOpen) {
			t.Fatalf("want ErrMarketNotOpen, got %v", err)
		}
	})

	t.Run("second-bet-same-bettor", func(t *testing.T) {
		e, led, clock := newTestEngine(t)
		newOpenMarket(t, e, clock)
		_ = placeBet(t, e, led, bettorA, types.Yes, 10)

		testutil.Fund(t, led, bettorA, 10)
		_, err := e.PlaceBet(ctx, bettorA, 1, types.Commitment{}, 10)
		if !errors.Is(err, types.ErrAlreadyExists) {
			t.Fatalf("want ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("unfunded-bettor", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		newOpenMarket(t, e, clock)

		_, err := e.PlaceBet(ctx, bettorA, 1, types.Commitment{}, 10)
		if !errors.Is(err, types.ErrInsufficientFunds) {
			t.Fatalf("want ErrInsufficientFunds, got %v", err)
		}

		// The aborted bet must leave no trace.
		m, err := e.Market(ctx, 1)
		if err != nil {
			t.Fatalf("market: %v", err)
		}
		if m.TotalPool != 0 {
			t.Fatalf("total pool = %d after failed bet, want 0", m.TotalPool)
		}
	})
}

func TestPlaceBet_PoolAndVault(t *testing.T) {
	e, led, clock := newTestEngine(t)
	newOpenMarket(t, e, clock)
	ctx := context.Background()

	_ = placeBet(t, e, led, bettorA, types.Yes, 100)
	_ = placeBet(t, e, led, bettorB, types.No, 200)

	m, err := e.Market(ctx, 1)
	if err != nil {
		t.Fatalf("market: %v", err)
	}

	// While open, the total pool equals the sum of all stakes and the
	// yes/no split stays hidden.
	if m.TotalPool != 300 {
		t.Fatalf("total pool = %d, want 300", m.TotalPool)
	}
	if m.YesPool != 0 || m.NoPool != 0 {
		t.Fatalf("side pools leaked during betting: yes=%d no=%d", m.YesPool, m.NoPool)
	}

	vault, err := e.VaultBalance(ctx, 1)
	if err != nil {
		t.Fatalf("vault balance: %v", err)
	}
	if vault != 300 {
		t.Fatalf("vault = %d, want 300", vault)
	}

	balA, err := e.Balance(ctx, bettorA)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balA != 0 {
		t.Fatalf("bettor A retains %d after escrow", balA)
	}
}

func TestResolveMarket(t *testing.T) {
	ctx := context.Background()

	t.Run("before-deadline", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		newOpenMarket(t, e, clock)

		_, err := e.ResolveMarket(ctx, admin, 1, types.Yes)
		if !errors.Is(err, types.ErrDeadlineNotPassed) {
			t.Fatalf("want ErrDeadlineNotPassed, got %v", err)
		}
	})

	t.Run("non-admin", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		newOpenMarket(t, e, clock)

		clock.Advance(101 * time.Second)
		_, err := e.ResolveMarket(ctx, bettorA, 1, types.Yes)
		if !errors.Is(err, types.ErrUnauthorized) {
			t.Fatalf("want ErrUnauthorized, got %v", err)
		}
	})

	t.Run("resolve-then-resolve-again", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		newOpenMarket(t, e, clock)

		clock.Advance(101 * time.Second)
		m, err := e.ResolveMarket(ctx, admin, 1, types.No)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if m.Status != types.StatusResolved || m.Outcome == nil || *m.Outcome != types.No {
			t.Fatalf("market not frozen: status=%v outcome=%v", m.Status, m.Outcome)
		}

		_, err = e.ResolveMarket(ctx, admin, 1, types.Yes)
		if !errors.Is(err, types.ErrMarketAlreadyResolved) {
			t.Fatalf("want ErrMarketAlreadyResolved, got %v", err)
		}
	})

	t.Run("deadline-exactly-reached", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		newOpenMarket(t, e, clock)

		clock.Advance(100 * time.Second)
		_, err := e.ResolveMarket(ctx, admin, 1, types.Yes)
		if err != nil {
			t.Fatalf("resolve at deadline: %v", err)
		}
	})
}

func TestClaimWinnings_Preconditions(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Engine, ledger.Ledger, *testutil.ManualClock, types.Secret) {
		e, led, clock := newTestEngine(t)
		newOpenMarket(t, e, clock)
		secret := placeBet(t, e, led, bettorA, types.Yes, 100)
		_ = placeBet(t, e, led, bettorB, types.No, 200)
		return e, led, clock, secret
	}

	resolve := func(t *testing.T, e *Engine, clock *testutil.ManualClock, outcome types.Side) {
		clock.Advance(101 * time.Second)
		if _, err := e.ResolveMarket(ctx, admin, 1, outcome); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}

	t.Run("market-still-open", func(t *testing.T) {
		e, _, _, secret := setup(t)

		_, err := e.ClaimWinnings(ctx, bettorA, 1, secret, types.Yes)
		if !errors.Is(err, types.ErrMarketNotResolved) {
			t.Fatalf("want ErrMarketNotResolved, got %v", err)
		}
	})

	t.Run("no-position", func(t *testing.T) {
		e, _, clock, _ := setup(t)
		resolve(t, e, clock, types.Yes)

		_, err := e.ClaimWinnings(ctx, bettorC, 1, types.Secret{}, types.Yes)
		if !errors.Is(err, types.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})

	t.Run("wrong-secret", func(t *testing.T) {
		e, _, clock, secret := setup(t)
		resolve(t, e, clock, types.Yes)

		tampered := secret
		tampered[0] ^= 1
		_, err := e.ClaimWinnings(ctx, bettorA, 1, tampered, types.Yes)
		if !errors.Is(err, types.ErrInvalidCommitment) {
			t.Fatalf("want ErrInvalidCommitment, got %v", err)
		}
	})

	t.Run("wrong-side-for-commitment", func(t *testing.T) {
		e, _, clock, secret := setup(t)
		resolve(t, e, clock, types.Yes)

		// Right secret, wrong side: the recomputed digest differs.
		_, err := e.ClaimWinnings(ctx, bettorA, 1, secret, types.No)
		if !errors.Is(err, types.ErrInvalidCommitment) {
			t.Fatalf("want ErrInvalidCommitment, got %v", err)
		}
	})

	t.Run("losing-side-revealed", func(t *testing.T) {
		e, _, clock, secret := setup(t)
		resolve(t, e, clock, types.No)

		// bettorA committed to yes; no won. The reveal verifies but the
		// claim fails and mutates nothing.
		_, err := e.ClaimWinnings(ctx, bettorA, 1, secret, types.Yes)
		if !errors.Is(err, types.ErrNotAWinner) {
			t.Fatalf("want ErrNotAWinner, got %v", err)
		}

		m, err := e.Market(ctx, 1)
		if err != nil {
			t.Fatalf("market: %v", err)
		}
		if m.YesPool != 0 || m.NoPool != 0 {
			t.Fatalf("failed claim mutated pools: yes=%d no=%d", m.YesPool, m.NoPool)
		}

		p, err := e.Position(ctx, 1, bettorA)
		if err != nil {
			t.Fatalf("position: %v", err)
		}
		if p.Claimed {
			t.Fatal("failed claim marked position claimed")
		}
	})

	t.Run("double-claim", func(t *testing.T) {
		e, _, clock, secret := setup(t)
		resolve(t, e, clock, types.Yes)

		if _, err := e.ClaimWinnings(ctx, bettorA, 1, secret, types.Yes); err != nil {
			t.Fatalf("first claim: %v", err)
		}

		_, err := e.ClaimWinnings(ctx, bettorA, 1, secret, types.Yes)
		if !errors.Is(err, types.ErrAlreadyClaimed) {
			t.Fatalf("want ErrAlreadyClaimed, got %v", err)
		}
	})

	t.Run("drained-vault", func(t *testing.T) {
		e, led, clock, secret := setup(t)
		resolve(t, e, clock, types.Yes)

		// Simulate escrow missing funds by moving the vault balance
		// aside directly on the ledger.
		err := led.Update(ctx, func(tx ledger.Tx) error {
			return tx.Transfer(ledger.VaultAccount(1), ledger.UserAccount(bettorC), 300)
		})
		if err != nil {
			t.Fatalf("drain vault: %v", err)
		}

		_, err = e.ClaimWinnings(ctx, bettorA, 1, secret, types.Yes)
		if !errors.Is(err, types.ErrInsufficientVaultBalance) {
			t.Fatalf("want ErrInsufficientVaultBalance, got %v", err)
		}

		// Aborted claim keeps the position claimable.
		p, err := e.Position(ctx, 1, bettorA)
		if err != nil {
			t.Fatalf("position: %v", err)
		}
		if p.Claimed {
			t.Fatal("aborted claim marked position claimed")
		}
	})
}
