package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/lib/pq"
	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
)

// PostgresLedger is a Ledger backed by PostgreSQL.
type PostgresLedger struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresLedger connects to PostgreSQL and ensures the schema.
func NewPostgresLedger(cfg *PostgresConfig) (*PostgresLedger, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Test connection
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	err = initPostgresSchema(db)
	if err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	cfg.Logger.Info("postgres-ledger-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresLedger{db: db, logger: cfg.Logger}, nil
}

// NewPostgresLedgerFromDB wraps an existing connection. Used by tests
// with sqlmock.
func NewPostgresLedgerFromDB(db *sql.DB, logger *zap.Logger) *PostgresLedger {
	return &PostgresLedger{db: db, logger: logger}
}

func initPostgresSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS authority (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	admin      TEXT    NOT NULL,
	created_at BIGINT  NOT NULL
);
CREATE TABLE IF NOT EXISTS markets (
	id         BIGINT PRIMARY KEY,
	creator    TEXT   NOT NULL,
	question   TEXT   NOT NULL,
	deadline   BIGINT NOT NULL,
	status     SMALLINT NOT NULL,
	outcome    SMALLINT,
	total_pool BIGINT NOT NULL,
	yes_pool   BIGINT NOT NULL,
	no_pool    BIGINT NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
	market_id  BIGINT NOT NULL,
	bettor     TEXT   NOT NULL,
	commitment BYTEA  NOT NULL,
	amount     BIGINT NOT NULL,
	claimed    BOOLEAN NOT NULL,
	created_at BIGINT NOT NULL,
	PRIMARY KEY (market_id, bettor)
);
CREATE TABLE IF NOT EXISTS accounts (
	account TEXT   PRIMARY KEY,
	balance BIGINT NOT NULL
);`

	_, err := db.Exec(schema)
	return err
}

// View runs fn in a read-only transaction.
func (l *PostgresLedger) View(ctx context.Context, fn func(Tx) error) error {
	return l.run(ctx, fn, true)
}

// Update runs fn in a write transaction; it commits only when fn
// returns nil.
func (l *PostgresLedger) Update(ctx context.Context, fn func(Tx) error) error {
	return l.run(ctx, fn, false)
}

func (l *PostgresLedger) run(ctx context.Context, fn func(Tx) error, readOnly bool) error {
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(&postgresTx{ctx: ctx, tx: tx})
	if err != nil {
		_ = tx.Rollback()
		TxTotal.WithLabelValues("postgres", "aborted").Inc()
		return err
	}

	err = tx.Commit()
	if err != nil {
		TxTotal.WithLabelValues("postgres", "aborted").Inc()
		return fmt.Errorf("commit tx: %w", err)
	}

	TxTotal.WithLabelValues("postgres", "committed").Inc()
	return nil
}

// Close closes the database connection.
func (l *PostgresLedger) Close() error {
	l.logger.Info("closing-postgres-ledger")
	return l.db.Close()
}

type postgresTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *postgresTx) CreateAuthority(a *types.Authority) error {
	res, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO authority (id, admin, created_at) VALUES (1, $1, $2) ON CONFLICT DO NOTHING`,
		addressColumn(a.Admin), a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert authority: %w", err)
	}
	return requireInserted(res)
}

func (t *postgresTx) Authority() (*types.Authority, error) {
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

const pgMarketCols = `id, creator, question, deadline, status, outcome, total_pool, yes_pool, no_pool, created_at`

func (t *postgresTx) CreateMarket(m *types.Market) error {
	res, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO markets (`+pgMarketCols+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) ON CONFLICT DO NOTHING`,
		int64(m.ID), addressColumn(m.Creator), m.Question, m.Deadline.Unix(),
		int64(m.Status), outcomeColumn(m), int64(m.TotalPool), int64(m.YesPool),
		int64(m.NoPool), m.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert market: %w", err)
	}
	return requireInserted(res)
}

func (t *postgresTx) Market(id uint64) (*types.Market, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT `+pgMarketCols+` FROM markets WHERE id = $1`, int64(id))
	m, err := scanMarket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select market: %w", err)
	}
	return m, nil
}

func (t *postgresTx) PutMarket(m *types.Market) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE markets SET status = $1, outcome = $2, total_pool = $3, yes_pool = $4, no_pool = $5 WHERE id = $6`,
		int64(m.Status), outcomeColumn(m), int64(m.TotalPool), int64(m.YesPool),
		int64(m.NoPool), int64(m.ID),
	)
	if err != nil {
		return fmt.Errorf("update market: %w", err)
	}
	return requireUpdated(res)
}

func (t *postgresTx) Markets() ([]*types.Market, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT `+pgMarketCols+` FROM markets ORDER BY id`)
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

const pgPositionCols = `market_id, bettor, commitment, amount, claimed, created_at`

func (t *postgresTx) CreatePosition(p *types.Position) error {
	res, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO positions (`+pgPositionCols+`)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`,
		int64(p.MarketID), addressColumn(p.Bettor), p.Commitment[:],
		int64(p.Amount), p.Claimed, p.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	return requireInserted(res)
}

func (t *postgresTx) Position(marketID uint64, bettor common.Address) (*types.Position, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT `+pgPositionCols+` FROM positions WHERE market_id = $1 AND bettor = $2`,
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

func (t *postgresTx) PutPosition(p *types.Position) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE positions SET claimed = $1 WHERE market_id = $2 AND bettor = $3`,
		p.Claimed, int64(p.MarketID), addressColumn(p.Bettor),
	)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	return requireUpdated(res)
}

func (t *postgresTx) Balance(acct Account) (uint64, error) {
	var balance int64
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT COALESCE((SELECT balance FROM accounts WHERE account = $1), 0)`,
		string(acct)).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("select balance: %w", err)
	}
	return uint64(balance), nil
}

func (t *postgresTx) Credit(acct Account, amount uint64) error {
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

func (t *postgresTx) Transfer(from, to Account, amount uint64) error {
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

func (t *postgresTx) setBalance(acct Account, balance uint64) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO accounts (account, balance) VALUES ($1, $2)
		 ON CONFLICT (account) DO UPDATE SET balance = EXCLUDED.balance`,
		string(acct), int64(balance),
	)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}
