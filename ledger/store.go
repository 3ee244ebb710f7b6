/*
store.go - Persistence interfaces for accounts and events

PURPOSE:
  Defines the interface between the engine and the database. Different
  implementations can use SQLite or in-memory storage; the engine never
  touches SQL or maps directly.

KEY INTERFACES:
  AccountStore: Account lifecycle and the single balance-mutation primitive
  EventStore:   Append-only activity log
  Store:        Both together
  TxStore:      Store plus atomic multi-write transactions

APPLY-DELTA CONTRACT:
  ApplyDelta is the ONLY way any component changes a coin balance. It is a
  single atomic read-modify-write: two concurrent calls for the same user
  never lose an update, and a delta that would take the balance negative
  fails with ErrInsufficientBalance leaving the balance untouched.

APPEND-ONLY CONTRACT:
  EventStore has no Update or Delete. Events are immutable once written.
  RecentByUser returns a fresh independent snapshot, newest first by
  commit order.

ATOMIC OPERATIONS:
  WithTx ensures a balance mutation and its event land together or not at
  all. A request that fails mid-operation leaves no partial state.

IMPLEMENTATIONS:
  - store/sqlite:     SQLite (ephemeral ":memory:" or file-backed)
  - ledger/store:     In-memory, for tests and dev

SEE ALSO:
  - engine.go: The only writer through these interfaces
  - store/sqlite/sqlite.go, ledger/store/memory.go: Implementations
*/
package ledger

import "context"

// =============================================================================
// ACCOUNT STORE
// =============================================================================

// AccountStore maps user ids to accounts.
type AccountStore interface {
	// GetOrCreate returns the account for a.UserID if it exists, or
	// creates one from a with CoinBalance = signupBonus and StreakDays = 0.
	GetOrCreate(ctx context.Context, a Account, signupBonus Coins) (Account, error)

	// Get returns the account, or ErrAccountNotFound.
	Get(ctx context.Context, userID UserID) (Account, error)

	// GetByTeamPlayerID resolves the external Game Center identity.
	GetByTeamPlayerID(ctx context.Context, teamPlayerID string) (Account, error)

	// ApplyDelta atomically adds delta to the coin balance. Fails with
	// ErrInsufficientBalance if the result would be negative, in which
	// case the balance is unchanged. This is the sole balance mutator.
	ApplyDelta(ctx context.Context, userID UserID, delta Coins) (Account, error)

	// IncrementStreak adds one to StreakDays.
	IncrementStreak(ctx context.Context, userID UserID) (Account, error)
}

// =============================================================================
// EVENT STORE - Append-only activity log
// =============================================================================

// EventStore records and retrieves ledger events.
// IMPORTANT: Append-only. No Update, No Delete. Ever.
type EventStore interface {
	// Append persists an event. This is the only write operation.
	Append(ctx context.Context, ev Event) error

	// RecentByUser returns up to limit events for the user, newest first.
	// The result is an independent snapshot, not a live cursor.
	RecentByUser(ctx context.Context, userID UserID, limit int) ([]Event, error)
}

// =============================================================================
// COMBINED AND TRANSACTIONAL STORES
// =============================================================================

// Store combines account and event persistence.
type Store interface {
	AccountStore
	EventStore
}

// TxStore wraps Store with transaction support. The engine runs every
// mutating operation inside WithTx so the balance change and the event
// append commit together.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, all writes are rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
