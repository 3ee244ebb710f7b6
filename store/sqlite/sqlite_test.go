package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playd/coin-engine/catalog"
	"github.com/playd/coin-engine/ledger"
	"github.com/playd/coin-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func seedAccount(t *testing.T, store *sqlite.Store, id string, balance ledger.Coins) ledger.UserID {
	t.Helper()
	userID := ledger.UserID(id)
	_, err := store.GetOrCreate(context.Background(), ledger.Account{
		UserID:       userID,
		TeamPlayerID: "player-" + id,
		Username:     id,
		CreatedAt:    time.Now().UTC(),
	}, balance)
	require.NoError(t, err)
	return userID
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestSQLite_AccountRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.GetOrCreate(ctx, ledger.Account{
		UserID:       "u1",
		TeamPlayerID: "GC_12345",
		Username:     "Player0001",
		CreatedAt:    time.Now().UTC(),
	}, 500)
	require.NoError(t, err)
	assert.Equal(t, ledger.Coins(500), created.CoinBalance)

	byID, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "GC_12345", byID.TeamPlayerID)
	assert.Equal(t, "Player0001", byID.Username)
	assert.Equal(t, ledger.Coins(500), byID.CoinBalance)
	assert.Equal(t, 0, byID.StreakDays)

	byPlayer, err := store.GetByTeamPlayerID(ctx, "GC_12345")
	require.NoError(t, err)
	assert.Equal(t, byID.UserID, byPlayer.UserID)
}

func TestSQLite_GetOrCreate_IsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedAccount(t, store, "u1", 500)

	again, err := store.GetOrCreate(ctx, ledger.Account{
		UserID:       "u1",
		TeamPlayerID: "player-u1",
	}, 500)
	require.NoError(t, err)
	assert.Equal(t, ledger.Coins(500), again.CoinBalance, "signup bonus credited once")
}

func TestSQLite_Get_UnknownUser(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	_, err = store.GetByTeamPlayerID(context.Background(), "nobody")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

// =============================================================================
// APPLY DELTA
// =============================================================================

func TestSQLite_ApplyDelta_CreditAndDebit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := seedAccount(t, store, "u1", 100)

	acct, err := store.ApplyDelta(ctx, user, 50)
	require.NoError(t, err)
	assert.Equal(t, ledger.Coins(150), acct.CoinBalance)

	acct, err = store.ApplyDelta(ctx, user, -150)
	require.NoError(t, err)
	assert.Equal(t, ledger.Coins(0), acct.CoinBalance, "draining to exactly zero is allowed")
}

func TestSQLite_ApplyDelta_RejectsOverdraw(t *testing.T) {
	// GIVEN: 100 coins
	// WHEN: Applying -101
	// THEN: InsufficientBalanceError and the balance is untouched

	store := newTestStore(t)
	ctx := context.Background()
	user := seedAccount(t, store, "u1", 100)

	_, err := store.ApplyDelta(ctx, user, -101)

	var insufficient *ledger.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, ledger.Coins(101), insufficient.Requested)
	assert.Equal(t, ledger.Coins(100), insufficient.Available)

	acct, err := store.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, ledger.Coins(100), acct.CoinBalance)
}

func TestSQLite_ApplyDelta_UnknownUser(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ApplyDelta(context.Background(), "ghost", 10)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestSQLite_IncrementStreak(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := seedAccount(t, store, "u1", 0)

	for want := 1; want <= 3; want++ {
		acct, err := store.IncrementStreak(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, want, acct.StreakDays)
	}

	_, err := store.IncrementStreak(ctx, "ghost")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

// =============================================================================
// EVENTS
// =============================================================================

func TestSQLite_Events_NewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := seedAccount(t, store, "u1", 0)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, ledger.Event{
			ID:          ledger.EventID(fmt.Sprintf("e%d", i)),
			UserID:      user,
			Kind:        ledger.KindEarned,
			Amount:      ledger.Coins(i + 1),
			ReferenceID: "fitbit-steps",
			Partner:     "Fitbit",
			Description: "Daily Steps Goal",
			Timestamp:   base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	events, err := store.RecentByUser(ctx, user, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, ledger.Coins(5), events[0].Amount, "newest first")
	assert.Equal(t, ledger.Coins(4), events[1].Amount)
	assert.Equal(t, ledger.Coins(3), events[2].Amount)
	assert.Equal(t, "Fitbit", events[0].Partner)
}

func TestSQLite_Events_OrderIsInsertionOrder(t *testing.T) {
	// Two events with the identical timestamp still come back with the
	// later insert first; commit order is the authoritative order.

	store := newTestStore(t)
	ctx := context.Background()
	user := seedAccount(t, store, "u1", 0)

	ts := time.Now().UTC()
	require.NoError(t, store.Append(ctx, ledger.Event{ID: "first", UserID: user, Kind: ledger.KindEarned, Amount: 1, Timestamp: ts}))
	require.NoError(t, store.Append(ctx, ledger.Event{ID: "second", UserID: user, Kind: ledger.KindEarned, Amount: 2, Timestamp: ts}))

	events, err := store.RecentByUser(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ledger.EventID("second"), events[0].ID)
	assert.Equal(t, ledger.EventID("first"), events[1].ID)
}

func TestSQLite_Events_DuplicateIDRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := seedAccount(t, store, "u1", 0)

	ev := ledger.Event{ID: "e1", UserID: user, Kind: ledger.KindEarned, Amount: 10, Timestamp: time.Now().UTC()}
	require.NoError(t, store.Append(ctx, ev))
	assert.Error(t, store.Append(ctx, ev), "event ids are unique")
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestSQLite_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that credits the balance and appends an event,
	//        then fails
	// THEN: Neither change is visible afterwards

	store := newTestStore(t)
	ctx := context.Background()
	user := seedAccount(t, store, "u1", 100)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(s ledger.Store) error {
		if _, err := s.ApplyDelta(ctx, user, 50); err != nil {
			return err
		}
		if err := s.Append(ctx, ledger.Event{ID: "e1", UserID: user, Kind: ledger.KindEarned, Amount: 50, Timestamp: time.Now().UTC()}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	acct, err := store.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, ledger.Coins(100), acct.CoinBalance, "delta rolled back")

	events, err := store.RecentByUser(ctx, user, 10)
	require.NoError(t, err)
	assert.Empty(t, events, "append rolled back")
}

func TestSQLite_WithTx_CommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := seedAccount(t, store, "u1", 100)

	err := store.WithTx(ctx, func(s ledger.Store) error {
		if _, err := s.ApplyDelta(ctx, user, 50); err != nil {
			return err
		}
		return s.Append(ctx, ledger.Event{ID: "e1", UserID: user, Kind: ledger.KindEarned, Amount: 50, Timestamp: time.Now().UTC()})
	})
	require.NoError(t, err)

	acct, err := store.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, ledger.Coins(150), acct.CoinBalance)

	events, err := store.RecentByUser(ctx, user, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

// =============================================================================
// ENGINE OVER SQLITE - End to end against the real schema
// =============================================================================

func TestSQLite_EngineFlow(t *testing.T) {
	// The full demo flow running against the SQLite store instead of the
	// in-memory one: streak claim, challenge completion, redemption.

	store := newTestStore(t)
	ctx := context.Background()
	user := seedAccount(t, store, "u1", 1250)

	engine := ledger.NewEngine(store, catalog.Seed())

	streak, err := engine.ClaimStreak(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, ledger.Coins(1370), streak.NewBalance)

	earn, err := engine.EarnFromChallenge(ctx, user, "sofi-budget")
	require.NoError(t, err)
	assert.Equal(t, ledger.Coins(1870), earn.NewBalance)

	redeem, err := engine.Redeem(ctx, user, "monopoly-go", 600)
	require.NoError(t, err)
	assert.Equal(t, int64(5), redeem.ItemsReceived)
	assert.Equal(t, ledger.Coins(1270), redeem.NewBalance)

	events, err := engine.RecentActivity(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, ledger.KindRedeemed, events[0].Kind)
}
