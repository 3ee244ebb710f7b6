/*
Package ledger provides the core coin accounting engine.

PURPOSE:
  This package contains the types and algorithms for tracking a player's
  Play'd Coin balance. Whether coins are earned from partner challenges,
  credited as streak bonuses, or spent on in-game currency, the same engine
  handles balance mutation, event recording, and invariant enforcement.

KEY CONCEPTS IN THIS FILE (types.go):
  - Coins: The integer currency amount (never fractional)
  - Account: A player's mutable balance and streak state
  - Event: An immutable record of one balance-affecting operation
  - UserID/EventID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Non-negativity: Balance is never allowed below zero
  2. Immutability: Events are never modified once appended
  3. Single writer: Only the Engine mutates accounts, and only through
     AccountStore.ApplyDelta
  4. Auditability: Every balance change leaves exactly one event

USAGE:
  engine := ledger.NewEngine(store, cat)
  res, err := engine.EarnFromChallenge(ctx, userID, "sofi-budget")

SEE ALSO:
  - engine.go: The three mutating operations
  - store.go: Persistence interfaces
  - errors.go: Error taxonomy
*/
package ledger

import "time"

// =============================================================================
// COINS - Integer currency amount
// =============================================================================

// Coins is an amount of Play'd Coins. Balances are always whole coins;
// redemption math uses integer division (floor for non-negative operands).
type Coins int64

func (c Coins) IsNegative() bool { return c < 0 }
func (c Coins) IsPositive() bool { return c > 0 }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type EventID string

// =============================================================================
// ACCOUNT - Per-player mutable state
// =============================================================================

// Account is the only mutable record in the system. CoinBalance is mutated
// exclusively through AccountStore.ApplyDelta; StreakDays through
// AccountStore.IncrementStreak.
//
// INVARIANT: CoinBalance >= 0 after every committed operation.
type Account struct {
	UserID       UserID
	TeamPlayerID string
	Username     string
	CoinBalance  Coins
	StreakDays   int
	CreatedAt    time.Time
}

// =============================================================================
// EVENT - Atomic change to a coin balance
// =============================================================================

type EventKind string

const (
	KindEarned        EventKind = "earned"         // Challenge completion credit
	KindRedeemed      EventKind = "redeemed"       // Coins spent on game currency
	KindStreakClaimed EventKind = "streak_claimed" // Daily streak bonus credit
)

// Event is an immutable ledger entry. Amount is the magnitude of the
// balance change: positive effect for earned/streak_claimed, the spent
// amount for redeemed. The signed delta applied to the account is derived
// from Kind, not stored.
type Event struct {
	ID          EventID
	UserID      UserID
	Kind        EventKind
	Amount      Coins
	ReferenceID string // challenge id or game id
	Partner     string // challenge partner or game name, for display
	Description string
	Timestamp   time.Time
}

// Delta returns the signed effect of the event on the balance.
func (e Event) Delta() Coins {
	if e.Kind == KindRedeemed {
		return -e.Amount
	}
	return e.Amount
}
