/*
engine.go - The three mutating operations of the coin ledger

PURPOSE:
  The Engine enforces the business rules of each balance-affecting
  operation and coordinates the Account Store and Activity Log as one
  logical unit. It is the ONLY writer of account and event state.

OPERATIONS:
  EarnFromChallenge: Credit a challenge's fixed coin reward
  Redeem:            Debit coins for in-game currency at a fixed rate
  ClaimStreak:       Credit the daily streak bonus, bump the streak count

COMMIT PROTOCOL (per operation):
  Validate -> Mutate Balance -> Append Event -> Respond

  Every mutation runs inside Store.WithTx, so the balance change and the
  event commit together or not at all. If ApplyDelta fails, no event is
  appended. A request that dies waiting on storage leaves no partial state.

CONCURRENCY:
  ApplyDelta is a single atomic read-modify-write, so two concurrent
  operations on the same user serialize there; no lost updates. The
  Redeem pre-check exists only for a clear error message - the atomic
  debit remains the authority if the balance changed in between.

KNOWN GAPS (intentionally preserved from the reference behavior):
  - ClaimStreak has no once-per-day guard
  - Completing the same challenge twice credits twice

SEE ALSO:
  - store.go: ApplyDelta and WithTx contracts
  - activity.go: Event retrieval
  - catalog/: Reference data for rewards and conversion rates
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/playd/coin-engine/catalog"
)

// =============================================================================
// CONSTANTS - From the original Play'd demo backend
// =============================================================================

const (
	// DefaultSignupBonus is credited when an account is first created.
	DefaultSignupBonus Coins = 500

	// DefaultStreakBonus is credited per streak claim.
	DefaultStreakBonus Coins = 120
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine coordinates the account store, activity log, and catalog.
type Engine struct {
	Store       TxStore
	Catalog     *catalog.Catalog
	Activity    *ActivityLog
	StreakBonus Coins
}

// NewEngine creates an engine with the default streak bonus.
func NewEngine(store TxStore, cat *catalog.Catalog) *Engine {
	return &Engine{
		Store:       store,
		Catalog:     cat,
		Activity:    NewActivityLog(store),
		StreakBonus: DefaultStreakBonus,
	}
}

// =============================================================================
// RESULTS
// =============================================================================

// EarnResult is returned by EarnFromChallenge.
type EarnResult struct {
	CoinsEarned Coins
	NewBalance  Coins
	Challenge   catalog.Challenge
}

// RedeemResult is returned by Redeem.
type RedeemResult struct {
	CoinsSpent    Coins
	ItemsReceived int64
	NewBalance    Coins
	Game          catalog.Game
}

// StreakResult is returned by ClaimStreak.
type StreakResult struct {
	CoinsEarned Coins
	NewBalance  Coins
	StreakDays  int
}

// =============================================================================
// MUTATING OPERATIONS
// =============================================================================

// EarnFromChallenge credits the challenge's reward to the user and records
// an earned event. Unknown challenge ids fail with ErrChallengeNotFound
// before any store access.
func (e *Engine) EarnFromChallenge(ctx context.Context, userID UserID, challengeID string) (EarnResult, error) {
	if userID == "" || challengeID == "" {
		return EarnResult{}, fmt.Errorf("%w: user and challenge ids are required", ErrInvalidInput)
	}

	ch, ok := e.Catalog.GetChallenge(challengeID)
	if !ok {
		return EarnResult{}, &NotFoundError{Kind: "challenge", ID: challengeID}
	}

	var res EarnResult
	err := e.Store.WithTx(ctx, func(s Store) error {
		acct, err := s.ApplyDelta(ctx, userID, Coins(ch.CoinsReward))
		if err != nil {
			return err
		}

		if err := s.Append(ctx, Event{
			ID:          EventID(uuid.NewString()),
			UserID:      userID,
			Kind:        KindEarned,
			Amount:      Coins(ch.CoinsReward),
			ReferenceID: ch.ID,
			Partner:     ch.Partner,
			Description: ch.Title,
			Timestamp:   time.Now().UTC(),
		}); err != nil {
			return err
		}

		res = EarnResult{
			CoinsEarned: Coins(ch.CoinsReward),
			NewBalance:  acct.CoinBalance,
			Challenge:   ch,
		}
		return nil
	})
	if err != nil {
		return EarnResult{}, e.classify("earn_from_challenge", err)
	}
	return res, nil
}

// Redeem debits coinsToSpend from the user and records a redeemed event.
// ItemsReceived is floor(coinsToSpend / conversionRate); zero items is a
// valid outcome when coinsToSpend < conversionRate, not an error.
func (e *Engine) Redeem(ctx context.Context, userID UserID, gameID string, coinsToSpend Coins) (RedeemResult, error) {
	if userID == "" || gameID == "" {
		return RedeemResult{}, fmt.Errorf("%w: user and game ids are required", ErrInvalidInput)
	}
	if !coinsToSpend.IsPositive() {
		return RedeemResult{}, fmt.Errorf("%w: coins_to_spend must be positive", ErrInvalidInput)
	}

	game, ok := e.Catalog.GetGame(gameID)
	if !ok {
		return RedeemResult{}, &NotFoundError{Kind: "game", ID: gameID}
	}

	var res RedeemResult
	err := e.Store.WithTx(ctx, func(s Store) error {
		// Pre-check for a clear error message. The atomic debit below is
		// the authority if the balance moved in between.
		acct, err := s.Get(ctx, userID)
		if err != nil {
			return err
		}
		if coinsToSpend > acct.CoinBalance {
			return &InsufficientBalanceError{
				UserID:    userID,
				Requested: coinsToSpend,
				Available: acct.CoinBalance,
			}
		}

		items := int64(coinsToSpend) / int64(game.ConversionRate)

		acct, err = s.ApplyDelta(ctx, userID, -coinsToSpend)
		if err != nil {
			return err
		}

		if err := s.Append(ctx, Event{
			ID:          EventID(uuid.NewString()),
			UserID:      userID,
			Kind:        KindRedeemed,
			Amount:      coinsToSpend,
			ReferenceID: game.ID,
			Partner:     game.Name,
			Description: fmt.Sprintf("%s - %d items", game.Name, items),
			Timestamp:   time.Now().UTC(),
		}); err != nil {
			return err
		}

		res = RedeemResult{
			CoinsSpent:    coinsToSpend,
			ItemsReceived: items,
			NewBalance:    acct.CoinBalance,
			Game:          game,
		}
		return nil
	})
	if err != nil {
		return RedeemResult{}, e.classify("redeem", err)
	}
	return res, nil
}

// ClaimStreak credits the streak bonus, bumps the consecutive-day count,
// and records a streak_claimed event. There is no same-day guard; the
// caller-side UI is what disables repeat claims today.
func (e *Engine) ClaimStreak(ctx context.Context, userID UserID) (StreakResult, error) {
	if userID == "" {
		return StreakResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	var res StreakResult
	err := e.Store.WithTx(ctx, func(s Store) error {
		acct, err := s.ApplyDelta(ctx, userID, e.StreakBonus)
		if err != nil {
			return err
		}

		acct, err = s.IncrementStreak(ctx, userID)
		if err != nil {
			return err
		}

		if err := s.Append(ctx, Event{
			ID:          EventID(uuid.NewString()),
			UserID:      userID,
			Kind:        KindStreakClaimed,
			Amount:      e.StreakBonus,
			ReferenceID: "streak",
			Partner:     "Play'd",
			Description: fmt.Sprintf("Daily streak bonus (day %d)", acct.StreakDays),
			Timestamp:   time.Now().UTC(),
		}); err != nil {
			return err
		}

		res = StreakResult{
			CoinsEarned: e.StreakBonus,
			NewBalance:  acct.CoinBalance,
			StreakDays:  acct.StreakDays,
		}
		return nil
	})
	if err != nil {
		return StreakResult{}, e.classify("claim_streak", err)
	}
	return res, nil
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Balance returns the account's current balance and streak. Reads never
// observe a torn value: they see either the pre- or post-mutation state.
func (e *Engine) Balance(ctx context.Context, userID UserID) (Account, error) {
	acct, err := e.Store.Get(ctx, userID)
	if err != nil {
		return Account{}, e.classify("balance", err)
	}
	return acct, nil
}

// RecentActivity returns the user's events, newest first.
func (e *Engine) RecentActivity(ctx context.Context, userID UserID, limit int) ([]Event, error) {
	events, err := e.Activity.RecentForUser(ctx, userID, limit)
	if err != nil {
		return nil, e.classify("recent_activity", err)
	}
	return events, nil
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// classify keeps business-rule violations untouched and wraps everything
// else as a transient storage failure so the caller can retry safely.
func (e *Engine) classify(op string, err error) error {
	if IsClientError(err) {
		return err
	}
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
