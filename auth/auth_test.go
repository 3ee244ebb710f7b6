package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playd/coin-engine/auth"
	"github.com/playd/coin-engine/ledger"
	"github.com/playd/coin-engine/ledger/store"
)

func newTestService(t *testing.T) (*auth.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return auth.New("test-secret", mem, ledger.DefaultSignupBonus), mem
}

func TestAuthenticate_FirstSight_SeedsSignupBonus(t *testing.T) {
	// GIVEN: A team player id never seen before
	// WHEN: Authenticating
	// THEN: An account exists with the signup bonus and a verifiable token

	svc, _ := newTestService(t)
	ctx := context.Background()

	acct, token, err := svc.Authenticate(ctx, "GC_12345", "Alice")
	require.NoError(t, err)

	assert.Equal(t, "GC_12345", acct.TeamPlayerID)
	assert.Equal(t, "Alice", acct.Username)
	assert.Equal(t, ledger.DefaultSignupBonus, acct.CoinBalance)
	assert.NotEmpty(t, acct.UserID)

	userID, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, acct.UserID, userID, "token round trips to the same user")
}

func TestAuthenticate_ReturningPlayer_NoSecondBonus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, _, err := svc.Authenticate(ctx, "GC_12345", "Alice")
	require.NoError(t, err)

	second, _, err := svc.Authenticate(ctx, "GC_12345", "Alice")
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID, "same identity, same account")
	assert.Equal(t, ledger.DefaultSignupBonus, second.CoinBalance, "bonus credited once")
}

func TestAuthenticate_EmptyPlayerID_FallsBackToDemo(t *testing.T) {
	svc, _ := newTestService(t)

	acct, _, err := svc.Authenticate(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, auth.DemoTeamPlayerID, acct.TeamPlayerID)
	assert.NotEmpty(t, acct.Username, "a username is generated when none is given")
}

func TestVerify_RejectsGarbageAndForgedTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Verify("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// A token signed with a different secret must not verify.
	other := auth.New("other-secret", store.NewMemory(), 0)
	_, forged, err := other.Authenticate(ctx, "GC_999", "Mallory")
	require.NoError(t, err)

	_, err = svc.Verify(forged)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestResolveDemoUser_CreatesOnceThenReuses(t *testing.T) {
	// The first tokenless request creates the demo account; later requests
	// resolve to the same one.

	svc, mem := newTestService(t)
	ctx := context.Background()

	first, err := svc.ResolveDemoUser(ctx)
	require.NoError(t, err)

	second, err := svc.ResolveDemoUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	acct, err := mem.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, auth.DemoTeamPlayerID, acct.TeamPlayerID)
	assert.Equal(t, ledger.DefaultSignupBonus, acct.CoinBalance)
}
