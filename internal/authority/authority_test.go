package authority

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/privymarket/settlement/internal/ledger"
	"github.com/privymarket/settlement/internal/testutil"
	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
)

func TestInitializeOnce(t *testing.T) {
	led := ledger.NewMemoryLedger(zap.NewNop())
	ctx := context.Background()
	admin := testutil.Addr(1)
	now := time.Unix(1_700_000_000, 0).UTC()

	err := led.Update(ctx, func(tx ledger.Tx) error {
		a, err := Initialize(tx, admin, now)
		if err != nil {
			return err
		}
		if a.Admin != admin || !a.CreatedAt.Equal(now) {
			t.Fatalf("authority record mismatch: %+v", a)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("first initialize: %v", err)
	}

	err = led.Update(ctx, func(tx ledger.Tx) error {
		_, err := Initialize(tx, testutil.Addr(2), now)
		return err
	})
	if !errors.Is(err, types.ErrAlreadyExists) {
		t.Fatalf("second initialize: want ErrAlreadyExists, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	led := ledger.NewMemoryLedger(zap.NewNop())
	ctx := context.Background()
	admin := testutil.Addr(1)

	// Before initialization every caller is rejected, admin included.
	err := led.View(ctx, func(tx ledger.Tx) error {
		return Authorize(tx, admin)
	})
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Fatalf("uninitialized authorize: want ErrUnauthorized, got %v", err)
	}

	err = led.Update(ctx, func(tx ledger.Tx) error {
		_, err := Initialize(tx, admin, time.Unix(1_700_000_000, 0).UTC())
		return err
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	err = led.View(ctx, func(tx ledger.Tx) error {
		if err := Authorize(tx, admin); err != nil {
			t.Fatalf("admin rejected: %v", err)
		}
		return Authorize(tx, testutil.Addr(2))
	})
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Fatalf("non-admin authorize: want ErrUnauthorized, got %v", err)
	}
}
