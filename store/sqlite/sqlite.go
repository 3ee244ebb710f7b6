/*
Package sqlite provides a SQLite-backed implementation of the ledger stores.

PURPOSE:
  Implements ledger.TxStore using SQLite. The demo runs on ":memory:"
  exactly like the original backend; a file path gives the same behavior
  with process-restart survival. The same SQL patterns apply to
  PostgreSQL - only minor dialect differences.

INTERFACES IMPLEMENTED:
  ledger.AccountStore: Accounts and the atomic balance primitive
  ledger.EventStore:   Append-only activity log
  ledger.TxStore:      All-or-nothing operation commits

ATOMIC APPLY-DELTA:
  The balance guard is pushed into the UPDATE itself:

    UPDATE accounts SET coin_balance = coin_balance + ?
    WHERE user_id = ? AND coin_balance + ? >= 0

  A zero row count means either an unknown user or a would-be-negative
  balance; a follow-up read distinguishes the two. There is no separate
  read-then-write window for concurrent requests to race through.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements touch the events table. The rowid-backed
  seq column is the authoritative order: events are written in commit
  order, so "newest first" is simply seq descending.

CONCURRENCY:
  A sync.RWMutex serializes writers; WithTx holds the write lock for the
  whole transaction. WAL mode keeps readers unblocked.

USAGE:
  st, err := sqlite.New(":memory:")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
  engine := ledger.NewEngine(st, catalog.Seed())

SEE ALSO:
  - ledger/store.go: Interface contracts
  - ledger/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/playd/coin-engine/ledger"
)

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ ledger.TxStore = (*Store)(nil)

// New creates a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases from evaporating
	// between pool checkouts.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Accounts (the only mutable records)
	CREATE TABLE IF NOT EXISTS accounts (
		user_id TEXT PRIMARY KEY,
		team_player_id TEXT UNIQUE,
		username TEXT,
		coin_balance INTEGER NOT NULL DEFAULT 0 CHECK (coin_balance >= 0),
		streak_days INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Events (append-only ledger)
	-- seq is the authoritative ordering: commit order, newest = highest
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount INTEGER NOT NULL,
		reference_id TEXT,
		partner TEXT,
		description TEXT,
		timestamp TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES accounts(user_id)
	);

	-- Activity feed hot path: newest events per user
	CREATE INDEX IF NOT EXISTS idx_events_user_seq
		ON events(user_id, seq DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is the subset of *sql.DB and *sql.Tx the store needs, so the same
// helpers serve direct calls and transactional views.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// ACCOUNT STORE (ledger.AccountStore interface)
// =============================================================================

func (s *Store) GetOrCreate(ctx context.Context, a ledger.Account, signupBonus ledger.Coins) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(ctx, s.db, a, signupBonus)
}

func (s *Store) getOrCreate(ctx context.Context, db dbtx, a ledger.Account, signupBonus ledger.Coins) (ledger.Account, error) {
	existing, err := s.get(ctx, db, a.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		return ledger.Account{}, err
	}

	a.CoinBalance = signupBonus
	a.StreakDays = 0
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, team_player_id, username, coin_balance, streak_days, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.UserID,
		nullString(a.TeamPlayerID),
		a.Username,
		int64(a.CoinBalance),
		a.StreakDays,
		a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return a, nil
}

func (s *Store) Get(ctx context.Context, userID ledger.UserID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, s.db, userID)
}

func (s *Store) get(ctx context.Context, db dbtx, userID ledger.UserID) (ledger.Account, error) {
	row := db.QueryRowContext(ctx, `
		SELECT user_id, COALESCE(team_player_id, ''), COALESCE(username, ''),
		       coin_balance, streak_days, created_at
		FROM accounts WHERE user_id = ?`, userID)
	return scanAccount(row, string(userID))
}

func (s *Store) GetByTeamPlayerID(ctx context.Context, teamPlayerID string) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getByTeamPlayerID(ctx, s.db, teamPlayerID)
}

func (s *Store) getByTeamPlayerID(ctx context.Context, db dbtx, teamPlayerID string) (ledger.Account, error) {
	row := db.QueryRowContext(ctx, `
		SELECT user_id, COALESCE(team_player_id, ''), COALESCE(username, ''),
		       coin_balance, streak_days, created_at
		FROM accounts WHERE team_player_id = ?`, teamPlayerID)
	return scanAccount(row, teamPlayerID)
}

// ApplyDelta performs the single atomic read-modify-write on the balance.
func (s *Store) ApplyDelta(ctx context.Context, userID ledger.UserID, delta ledger.Coins) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyDelta(ctx, s.db, userID, delta)
}

func (s *Store) applyDelta(ctx context.Context, db dbtx, userID ledger.UserID, delta ledger.Coins) (ledger.Account, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE accounts SET coin_balance = coin_balance + ?
		WHERE user_id = ? AND coin_balance + ? >= 0`,
		int64(delta), userID, int64(delta),
	)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to apply delta: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to apply delta: %w", err)
	}
	if n == 0 {
		// Unknown user or the debit would go negative; a read tells us which.
		acct, err := s.get(ctx, db, userID)
		if err != nil {
			return ledger.Account{}, err
		}
		return ledger.Account{}, &ledger.InsufficientBalanceError{
			UserID:    userID,
			Requested: -delta,
			Available: acct.CoinBalance,
		}
	}

	return s.get(ctx, db, userID)
}

func (s *Store) IncrementStreak(ctx context.Context, userID ledger.UserID) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementStreak(ctx, s.db, userID)
}

func (s *Store) incrementStreak(ctx context.Context, db dbtx, userID ledger.UserID) (ledger.Account, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE accounts SET streak_days = streak_days + 1 WHERE user_id = ?`, userID)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to increment streak: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.Account{}, &ledger.NotFoundError{Kind: "account", ID: string(userID)}
	}
	return s.get(ctx, db, userID)
}

// =============================================================================
// EVENT STORE (ledger.EventStore interface)
// =============================================================================

// Append adds an event to the log. Append-only.
func (s *Store) Append(ctx context.Context, ev ledger.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(ctx, s.db, ev)
}

func (s *Store) append(ctx context.Context, db dbtx, ev ledger.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO events (id, user_id, kind, amount, reference_id, partner, description, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.UserID,
		ev.Kind,
		int64(ev.Amount),
		nullString(ev.ReferenceID),
		nullString(ev.Partner),
		nullString(ev.Description),
		ev.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (s *Store) RecentByUser(ctx context.Context, userID ledger.UserID, limit int) ([]ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recentByUser(ctx, s.db, userID, limit)
}

func (s *Store) recentByUser(ctx context.Context, db dbtx, userID ledger.UserID, limit int) ([]ledger.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, kind, amount,
		       COALESCE(reference_id, ''), COALESCE(partner, ''), COALESCE(description, ''),
		       timestamp
		FROM events
		WHERE user_id = ?
		ORDER BY seq DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []ledger.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction, holding the write lock
// so concurrent operations serialize instead of contending on SQLite's
// single writer.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes store calls through an open *sql.Tx.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) GetOrCreate(ctx context.Context, a ledger.Account, signupBonus ledger.Coins) (ledger.Account, error) {
	return ts.parent.getOrCreate(ctx, ts.tx, a, signupBonus)
}

func (ts *txStore) Get(ctx context.Context, userID ledger.UserID) (ledger.Account, error) {
	return ts.parent.get(ctx, ts.tx, userID)
}

func (ts *txStore) GetByTeamPlayerID(ctx context.Context, teamPlayerID string) (ledger.Account, error) {
	return ts.parent.getByTeamPlayerID(ctx, ts.tx, teamPlayerID)
}

func (ts *txStore) ApplyDelta(ctx context.Context, userID ledger.UserID, delta ledger.Coins) (ledger.Account, error) {
	return ts.parent.applyDelta(ctx, ts.tx, userID, delta)
}

func (ts *txStore) IncrementStreak(ctx context.Context, userID ledger.UserID) (ledger.Account, error) {
	return ts.parent.incrementStreak(ctx, ts.tx, userID)
}

func (ts *txStore) Append(ctx context.Context, ev ledger.Event) error {
	return ts.parent.append(ctx, ts.tx, ev)
}

func (ts *txStore) RecentByUser(ctx context.Context, userID ledger.UserID, limit int) ([]ledger.Event, error) {
	return ts.parent.recentByUser(ctx, ts.tx, userID, limit)
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

func scanAccount(row *sql.Row, id string) (ledger.Account, error) {
	var (
		a         ledger.Account
		balance   int64
		createdAt string
	)
	err := row.Scan(&a.UserID, &a.TeamPlayerID, &a.Username, &balance, &a.StreakDays, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Account{}, &ledger.NotFoundError{Kind: "account", ID: id}
		}
		return ledger.Account{}, fmt.Errorf("failed to scan account: %w", err)
	}
	a.CoinBalance = ledger.Coins(balance)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return a, nil
}

func scanEvent(rows *sql.Rows) (ledger.Event, error) {
	var (
		ev     ledger.Event
		amount int64
		ts     string
	)
	err := rows.Scan(&ev.ID, &ev.UserID, &ev.Kind, &amount,
		&ev.ReferenceID, &ev.Partner, &ev.Description, &ts)
	if err != nil {
		return ev, fmt.Errorf("failed to scan event: %w", err)
	}
	ev.Amount = ledger.Coins(amount)
	ev.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
	return ev, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
