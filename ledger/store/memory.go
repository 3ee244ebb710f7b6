// Package store provides the in-memory ledger.TxStore implementation.
package store

import (
	"context"
	"sync"

	"github.com/playd/coin-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	accounts map[ledger.UserID]ledger.Account
	byPlayer map[string]ledger.UserID
	// events per user in insertion order; timestamps are assigned by the
	// single writer, so insertion order is also timestamp order
	events map[ledger.UserID][]ledger.Event
}

var _ ledger.TxStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[ledger.UserID]ledger.Account),
		byPlayer: make(map[string]ledger.UserID),
		events:   make(map[ledger.UserID][]ledger.Event),
	}
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

func (m *Memory) GetOrCreate(_ context.Context, a ledger.Account, signupBonus ledger.Coins) (ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(a, signupBonus)
}

func (m *Memory) Get(_ context.Context, userID ledger.UserID) (ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(userID)
}

func (m *Memory) GetByTeamPlayerID(_ context.Context, teamPlayerID string) (ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userID, ok := m.byPlayer[teamPlayerID]
	if !ok {
		return ledger.Account{}, &ledger.NotFoundError{Kind: "account", ID: teamPlayerID}
	}
	return m.getLocked(userID)
}

// ApplyDelta is the single atomic read-modify-write on a balance. The
// store-wide mutex serializes concurrent deltas for the same user.
func (m *Memory) ApplyDelta(_ context.Context, userID ledger.UserID, delta ledger.Coins) (ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyDeltaLocked(userID, delta)
}

func (m *Memory) IncrementStreak(_ context.Context, userID ledger.UserID) (ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.incrementStreakLocked(userID)
}

// =============================================================================
// EVENT STORE
// =============================================================================

func (m *Memory) Append(_ context.Context, ev ledger.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLocked(ev)
	return nil
}

// RecentByUser returns up to limit events, newest first. The result is a
// fresh copy; callers never see later appends.
func (m *Memory) RecentByUser(_ context.Context, userID ledger.UserID, limit int) ([]ledger.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recentLocked(userID, limit), nil
}

// =============================================================================
// LOCKED INTERNALS - Shared by direct calls and transactional views
// =============================================================================

func (m *Memory) getOrCreateLocked(a ledger.Account, signupBonus ledger.Coins) (ledger.Account, error) {
	if existing, ok := m.accounts[a.UserID]; ok {
		return existing, nil
	}
	a.CoinBalance = signupBonus
	a.StreakDays = 0
	m.accounts[a.UserID] = a
	if a.TeamPlayerID != "" {
		m.byPlayer[a.TeamPlayerID] = a.UserID
	}
	return a, nil
}

func (m *Memory) getLocked(userID ledger.UserID) (ledger.Account, error) {
	a, ok := m.accounts[userID]
	if !ok {
		return ledger.Account{}, &ledger.NotFoundError{Kind: "account", ID: string(userID)}
	}
	return a, nil
}

func (m *Memory) applyDeltaLocked(userID ledger.UserID, delta ledger.Coins) (ledger.Account, error) {
	a, ok := m.accounts[userID]
	if !ok {
		return ledger.Account{}, &ledger.NotFoundError{Kind: "account", ID: string(userID)}
	}
	next := a.CoinBalance + delta
	if next.IsNegative() {
		return ledger.Account{}, &ledger.InsufficientBalanceError{
			UserID:    userID,
			Requested: -delta,
			Available: a.CoinBalance,
		}
	}
	a.CoinBalance = next
	m.accounts[userID] = a
	return a, nil
}

func (m *Memory) incrementStreakLocked(userID ledger.UserID) (ledger.Account, error) {
	a, ok := m.accounts[userID]
	if !ok {
		return ledger.Account{}, &ledger.NotFoundError{Kind: "account", ID: string(userID)}
	}
	a.StreakDays++
	m.accounts[userID] = a
	return a, nil
}

func (m *Memory) appendLocked(ev ledger.Event) {
	m.events[ev.UserID] = append(m.events[ev.UserID], ev)
}

func (m *Memory) recentLocked(userID ledger.UserID, limit int) []ledger.Event {
	all := m.events[userID]
	n := len(all)
	if limit > n {
		limit = n
	}
	out := make([]ledger.Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, all[i])
	}
	return out
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn while holding the write lock, with snapshot + rollback
// on error. Holding the lock for the whole transaction is what serializes
// concurrent mutations on the same user.
func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()

	if err := fn(&txMemoryView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

func (m *Memory) snapshot() memorySnapshot {
	accounts := make(map[ledger.UserID]ledger.Account, len(m.accounts))
	for k, v := range m.accounts {
		accounts[k] = v
	}
	byPlayer := make(map[string]ledger.UserID, len(m.byPlayer))
	for k, v := range m.byPlayer {
		byPlayer[k] = v
	}
	events := make(map[ledger.UserID][]ledger.Event, len(m.events))
	for k, v := range m.events {
		events[k] = append([]ledger.Event{}, v...)
	}
	return memorySnapshot{accounts: accounts, byPlayer: byPlayer, events: events}
}

func (m *Memory) restore(s memorySnapshot) {
	m.accounts = s.accounts
	m.byPlayer = s.byPlayer
	m.events = s.events
}

type memorySnapshot struct {
	accounts map[ledger.UserID]ledger.Account
	byPlayer map[string]ledger.UserID
	events   map[ledger.UserID][]ledger.Event
}

// txMemoryView routes store calls to the locked internals of its parent.
// Valid only inside WithTx, while the parent's lock is held.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) GetOrCreate(_ context.Context, a ledger.Account, signupBonus ledger.Coins) (ledger.Account, error) {
	return tv.parent.getOrCreateLocked(a, signupBonus)
}

func (tv *txMemoryView) Get(_ context.Context, userID ledger.UserID) (ledger.Account, error) {
	return tv.parent.getLocked(userID)
}

func (tv *txMemoryView) GetByTeamPlayerID(_ context.Context, teamPlayerID string) (ledger.Account, error) {
	userID, ok := tv.parent.byPlayer[teamPlayerID]
	if !ok {
		return ledger.Account{}, &ledger.NotFoundError{Kind: "account", ID: teamPlayerID}
	}
	return tv.parent.getLocked(userID)
}

func (tv *txMemoryView) ApplyDelta(_ context.Context, userID ledger.UserID, delta ledger.Coins) (ledger.Account, error) {
	return tv.parent.applyDeltaLocked(userID, delta)
}

func (tv *txMemoryView) IncrementStreak(_ context.Context, userID ledger.UserID) (ledger.Account, error) {
	return tv.parent.incrementStreakLocked(userID)
}

func (tv *txMemoryView) Append(_ context.Context, ev ledger.Event) error {
	tv.parent.appendLocked(ev)
	return nil
}

func (tv *txMemoryView) RecentByUser(_ context.Context, userID ledger.UserID, limit int) ([]ledger.Event, error) {
	return tv.parent.recentLocked(userID, limit), nil
}
