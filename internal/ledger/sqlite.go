package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteLedger is a Ledger persisted in a local SQLite file.
type SQLiteLedger struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (or creates) the ledger database at path.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single writer; the engine serializes through Update anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`PRAGMA foreign_keys=ON;`,
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.Info("sqlite-ledger-opened", zap.String("path", path))

	return &SQLiteLedger{db: db, logger: logger}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS authority (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	admin      TEXT    NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS markets (
	id         INTEGER PRIMARY KEY,
	creator    TEXT    NOT NULL,
	question   TEXT    NOT NULL,
	deadline   INTEGER NOT NULL,
	status     INTEGER NOT NULL,
	outcome    INTEGER,
	total_pool INTEGER NOT NULL,
	yes_pool   INTEGER NOT NULL,
	no_pool    INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
	market_id  INTEGER NOT NULL,
	bettor     TEXT    NOT NULL,
	commitment BLOB    NOT NULL,
	amount     INTEGER NOT NULL,
	claimed    INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (market_id, bettor)
);
CREATE TABLE IF NOT EXISTS accounts (
	account TEXT    PRIMARY KEY,
	balance INTEGER NOT NULL
);`

	_, err := db.Exec(schema)
	return err
}

// View runs fn in a read-only transaction.
func (l *SQLiteLedger) View(ctx context.Context, fn func(Tx) error) error {
	return l.run(ctx, fn, true)
}

// Update runs fn in a write transaction; it commits only when fn
// returns nil.
func (l *SQLiteLedger) Update(ctx context.Context, fn func(Tx) error) error {
	return l.run(ctx, fn, false)
}

func (l *SQLiteLedger) run(ctx context.Context, fn func(Tx) error, readOnly bool) error {
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(&sqliteTx{ctx: ctx, tx: tx})
	if err != nil {
		_ = tx.Rollback()
		TxTotal.WithLabelValues("sqlite", "aborted").Inc()
		return err
	}

	err = tx.Commit()
	if err != nil {
		TxTotal.WithLabelValues("sqlite", "aborted").Inc()
		return fmt.Errorf("commit tx: %w", err)
	}

	TxTotal.WithLabelValues("sqlite", "committed").Inc()
	return nil
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	l.logger.Info("sqlite-ledger-closing")
	return l.db.Close()
}

type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *sqliteTx) CreateAuthority(a *types.Authority) error {
	res, err := t.tx.ExecContext(t.ctx,
		`INSERT OR IGNORE INTO authority (id, admin, created_at) VALUES (1, ?, ?)`,
		addressColumn(a.Admin), a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert authority: %w", err)
	}
	return requireInserted(res)
}

func (t *sqliteTx) Authority() (*types.Authority, error) {
	var (
		admin   string
		created int64
	)
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT admin, created_at FROM authority WHERE id = 1`,
	).Scan(&admin, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("select authority: %w", err)
	}
	return &types.Authority{Admin: common.HexToAddress(admin), CreatedAt: unixTime(created)}, nil
}

const sqliteMarketCols = `id, creator, question, deadline, status, outcome, total_pool, yes_pool, no_pool, created_at`

func (t *sqliteTx) CreateMarket(m *types.Market) error {
	res, err := t.tx.ExecContext(t.ctx,
		`INSERT OR IGNORE INTO markets (`+sqliteMarketCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(m.ID), addressColumn(m.Creator), m.Question, m.Deadline.Unix(),
		int64(m.Status), outcomeColumn(m), int64(m.TotalPool), int64(m.YesPool),
		int64(m.NoPool), m.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert market: %w", err)
	}
	return requireInserted(res)
}

func (t *sqliteTx) Market(id uint64) (*types.Market, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT `+sqliteMarketCols+` FROM markets WHERE id = ?`, int64(id))
	m, err := scanMarket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select market: %w", err)
	}
	return m, nil
}

func (t *sqliteTx) PutMarket(m *types.Market) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE markets SET status = ?, outcome = ?, total_pool = ?, yes_pool = ?, no_pool = ? WHERE id = ?`,
		int64(m.Status), outcomeColumn(m), int64(m.TotalPool), int64(m.YesPool),
		int64(m.NoPool), int64(m.ID),
	)
	if err != nil {
		return fmt.Errorf("update market: %w", err)
	}
	return requireUpdated(res)
}

func (t *sqliteTx) Markets() ([]*types.Market, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT `+sqliteMarketCols+` FROM markets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select markets: %w", err)
	}
	defer rows.Close()

	var out []*types.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const sqlitePositionCols = `market_id, bettor, commitment, amount, claimed, created_at`

func (t *sqliteTx) CreatePosition(p *types.Position) error {
	res, err := t.tx.ExecContext(t.ctx,
		`INSERT OR IGNORE INTO positions (`+sqlitePositionCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
		int64(p.MarketID), addressColumn(p.Bettor), p.Commitment[:],
		int64(p.Amount), p.Claimed, p.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	return requireInserted(res)
}

func (t *sqliteTx) Position(marketID uint64, bettor common.Address) (*types.Position, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT `+sqlitePositionCols+` FROM positions WHERE market_id = ? AND bettor = ?`,
		int64(marketID), addressColumn(bettor))
	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select position: %w", err)
	}
	return p, nil
}

func (t *sqliteTx) PutPosition(p *types.Position) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE positions SET claimed = ? WHERE market_id = ? AND bettor = ?`,
		p.Claimed, int64(p.MarketID), addressColumn(p.Bettor),
	)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	return requireUpdated(res)
}

func (t *sqliteTx) Balance(acct Account) (uint64, error) {
	var balance int64
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT COALESCE((SELECT balance FROM accounts WHERE account = ?), 0)`,
		string(acct)).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("select balance: %w", err)
	}
	return uint64(balance), nil
}

func (t *sqliteTx) Credit(acct Account, amount uint64) error {
	cur, err := t.Balance(acct)
	if err != nil {
		return err
	}
	next := cur + amount
	if next < cur {
		return types.ErrOverflow
	}
	return t.setBalance(acct, next)
}

func (t *sqliteTx) Transfer(from, to Account, amount uint64) error {
	fromBal, err := t.Balance(from)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return types.ErrInsufficientFunds
	}

	toBal, err := t.Balance(to)
	if err != nil {
		return err
	}
	next := toBal + amount
	if next < toBal {
		return types.ErrOverflow
	}

	if err := t.setBalance(from, fromBal-amount); err != nil {
		return err
	}
	if err := t.setBalance(to, next); err != nil {
		return err
	}

	TransferVolume.Add(float64(amount))
	return nil
}

func (t *sqliteTx) setBalance(acct Account, balance uint64) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO accounts (account, balance) VALUES (?, ?)
		 ON CONFLICT (account) DO UPDATE SET balance = excluded.balance`,
		string(acct), int64(balance),
	)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

func requireInserted(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return types.ErrAlreadyExists
	}
	return nil
}

func requireUpdated(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}
