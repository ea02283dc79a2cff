package ledger

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
)

func newMockPostgres(t *testing.T) (*PostgresLedger, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	return NewPostgresLedgerFromDB(db, zap.NewNop()), mock
}

func pgMarketRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "creator", "question", "deadline", "status",
		"outcome", "total_pool", "yes_pool", "no_pool", "created_at",
	})
}

func TestPostgresMarketQuery(t *testing.T) {
	led, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT `+pgMarketCols+` FROM markets WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(pgMarketRows().AddRow(
			int64(7), "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
			"Will it rain tomorrow?", int64(1_700_000_100), int64(types.StatusResolved),
			int64(1), int64(300), int64(100), int64(0), int64(1_700_000_000),
		))
	mock.ExpectCommit()

	err := led.View(context.Background(), func(tx Tx) error {
		m, err := tx.Market(7)
		if err != nil {
			return err
		}
		if m.ID != 7 || m.Question != "Will it rain tomorrow?" {
			t.Fatalf("scan mismatch: %+v", m)
		}
		if m.Status != types.StatusResolved || m.Outcome == nil || *m.Outcome != types.Yes {
			t.Fatalf("outcome column mishandled: %+v", m)
		}
		if m.TotalPool != 300 || m.YesPool != 100 {
			t.Fatalf("pool columns mishandled: %+v", m)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestPostgresMarketNotFound(t *testing.T) {
	led, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + pgMarketCols + ` FROM markets WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnRows(pgMarketRows())
	mock.ExpectRollback()

	err := led.View(context.Background(), func(tx Tx) error {
		_, err := tx.Market(9)
		return err
	})
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPostgresCreateMarketConflict(t *testing.T) {
	led, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO markets`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := led.Update(context.Background(), func(tx Tx) error {
		return tx.CreateMarket(sampleMarket(7))
	})
	if !errors.Is(err, types.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestPostgresAuthorityNotInitialized(t *testing.T) {
	led, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT admin, created_at FROM authority WHERE id = 1`)).
		WillReturnRows(sqlmock.NewRows([]string{"admin", "created_at"}))
	mock.ExpectRollback()

	err := led.View(context.Background(), func(tx Tx) error {
		_, err := tx.Authority()
		return err
	})
	if !errors.Is(err, types.ErrNotInitialized) {
		t.Fatalf("want ErrNotInitialized, got %v", err)
	}
}

func TestPostgresTransferInsufficientFunds(t *testing.T) {
	led, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE((SELECT balance FROM accounts WHERE account = $1), 0)`)).
		WithArgs("user:a").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(50)))
	mock.ExpectRollback()

	err := led.Update(context.Background(), func(tx Tx) error {
		return tx.Transfer(Account("user:a"), Account("vault:1"), 100)
	})
	if !errors.Is(err, types.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
}
