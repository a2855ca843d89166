package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"condor-sentinel/internal/models"
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed repository at the given
// path, creating the schema on first use.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return repo, nil
}

func (r *SQLiteRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS portfolios (
		name TEXT PRIMARY KEY,
		cumulative_pnl REAL NOT NULL DEFAULT 0,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS trades (
		id TEXT NOT NULL,
		portfolio TEXT NOT NULL,
		seq INTEGER NOT NULL,
		entry_date TEXT NOT NULL,
		short_call REAL NOT NULL,
		short_put REAL NOT NULL,
		long_call REAL NOT NULL,
		long_put REAL NOT NULL,
		credit REAL NOT NULL,
		status TEXT NOT NULL,
		settlement_price REAL,
		settlement_date TEXT,
		pnl REAL,
		PRIMARY KEY (portfolio, id),
		FOREIGN KEY (portfolio) REFERENCES portfolios(name)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_portfolio_seq ON trades(portfolio, seq);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Load implements Repository.
func (r *SQLiteRepository) Load(ctx context.Context, name models.PortfolioName) (*models.PortfolioState, error) {
	state := &models.PortfolioState{Name: name}

	row := r.db.QueryRowContext(ctx,
		`SELECT cumulative_pnl, wins, losses FROM portfolios WHERE name = ?`, string(name))
	err := row.Scan(&state.CumulativePnL, &state.Wins, &state.Losses)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading portfolio %s: %w", name, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entry_date, short_call, short_put, long_call, long_put,
		       credit, status, settlement_price, settlement_date, pnl
		FROM trades WHERE portfolio = ? ORDER BY seq`, string(name))
	if err != nil {
		return nil, fmt.Errorf("loading trades for %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Trade
		var status string
		var settlementPrice, pnl sql.NullFloat64
		var settlementDate sql.NullString
		if err := rows.Scan(&t.ID, &t.EntryDate,
			&t.Strikes.ShortCall, &t.Strikes.ShortPut,
			&t.Strikes.LongCall, &t.Strikes.LongPut,
			&t.CreditReceived, &status,
			&settlementPrice, &settlementDate, &pnl); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		t.Status = models.TradeStatus(status)
		if settlementPrice.Valid {
			t.SettlementPrice = settlementPrice.Float64
		}
		if settlementDate.Valid {
			t.SettlementDate = settlementDate.String
		}
		if pnl.Valid {
			t.PnL = pnl.Float64
		}
		state.Trades = append(state.Trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trades: %w", err)
	}

	return state, nil
}

// Save implements Repository. The full state is rewritten in one
// transaction; portfolio snapshots are small enough that this stays cheap.
func (r *SQLiteRepository) Save(ctx context.Context, state *models.PortfolioState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO portfolios (name, cumulative_pnl, wins, losses, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			cumulative_pnl = excluded.cumulative_pnl,
			wins = excluded.wins,
			losses = excluded.losses,
			updated_at = CURRENT_TIMESTAMP`,
		string(state.Name), state.CumulativePnL, state.Wins, state.Losses)
	if err != nil {
		return fmt.Errorf("saving portfolio %s: %w", state.Name, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM trades WHERE portfolio = ?`, string(state.Name)); err != nil {
		return fmt.Errorf("clearing trades for %s: %w", state.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (id, portfolio, seq, entry_date, short_call, short_put,
		                    long_call, long_put, credit, status,
		                    settlement_price, settlement_date, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing trade insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range state.Trades {
		var settlementPrice, pnl interface{}
		var settlementDate interface{}
		if t.Status == models.TradeSettled {
			settlementPrice = t.SettlementPrice
			settlementDate = t.SettlementDate
			pnl = t.PnL
		}
		if _, err := stmt.ExecContext(ctx, t.ID, string(state.Name), i, t.EntryDate,
			t.Strikes.ShortCall, t.Strikes.ShortPut,
			t.Strikes.LongCall, t.Strikes.LongPut,
			t.CreditReceived, string(t.Status),
			settlementPrice, settlementDate, pnl); err != nil {
			return fmt.Errorf("saving trade %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
