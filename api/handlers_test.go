/*
handlers_test.go - HTTP-level tests for the coin engine API

Runs the full router over the in-memory store: real JSON in, real JSON
out, including the auth middleware and error mapping.
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playd/coin-engine/api"
	"github.com/playd/coin-engine/auth"
	"github.com/playd/coin-engine/catalog"
	"github.com/playd/coin-engine/ledger"
	"github.com/playd/coin-engine/ledger/store"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mem := store.NewMemory()
	engine := ledger.NewEngine(mem, catalog.Seed())
	authSvc := auth.New("test-secret", mem, ledger.DefaultSignupBonus)
	return api.NewRouter(api.NewHandler(engine, authSvc))
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// signIn authenticates a fresh player and returns their session token.
func signIn(t *testing.T, router http.Handler, playerID string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/auth/gamecenter", "",
		api.AuthRequest{TeamPlayerID: playerID, Username: "Tester"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.AuthResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// =============================================================================
// HEALTH AND AUTH
// =============================================================================

func TestAPI_Health(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}

func TestAPI_AuthGameCenter_SeedsSignupBonus(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/gamecenter", "",
		api.AuthRequest{TeamPlayerID: "GC_12345", Username: "Alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[api.AuthResponse](t, rec)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "GC_12345", resp.User.TeamPlayerID)
	assert.Equal(t, "Alice", resp.User.Username)
	assert.Equal(t, int64(500), resp.User.CoinBalance)
}

func TestAPI_InvalidToken_Unauthorized(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/coins/balance", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_NoToken_FallsBackToDemoPlayer(t *testing.T) {
	// Tokenless requests resolve to the demo player, which is created with
	// the signup bonus on first sight.

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/coins/balance", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[api.BalanceResponse](t, rec)
	assert.Equal(t, int64(500), resp.Balance)
	assert.Equal(t, 0, resp.Streak)
}

// =============================================================================
// COIN FLOW
// =============================================================================

func TestAPI_FullCoinFlow(t *testing.T) {
	// GIVEN: A freshly signed-in player (signup bonus 500)
	// WHEN:  Streak claim (+120), sofi-budget (+500), redeem 600 in
	//        monopoly-go (rate 120)
	// THEN:  Balances 620 -> 1120 -> 520, 5 items, three activity entries

	router := newTestRouter(t)
	token := signIn(t, router, "GC_FLOW")

	rec := doJSON(t, router, http.MethodPost, "/api/streak/claim", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	streak := decode[api.StreakResponse](t, rec)
	assert.True(t, streak.Success)
	assert.Equal(t, int64(120), streak.CoinsEarned)
	assert.Equal(t, int64(620), streak.NewBalance)
	assert.Equal(t, 1, streak.StreakDays)

	rec = doJSON(t, router, http.MethodPost, "/api/actions/complete", token,
		api.CompleteActionRequest{ChallengeID: "sofi-budget"})
	require.Equal(t, http.StatusOK, rec.Code)
	earn := decode[api.CompleteActionResponse](t, rec)
	assert.Equal(t, int64(500), earn.CoinsEarned)
	assert.Equal(t, int64(1120), earn.NewBalance)
	assert.Equal(t, "Earned 500 Play'd Coins!", earn.Message)

	rec = doJSON(t, router, http.MethodPost, "/api/redeem", token,
		api.RedeemRequest{GameID: "monopoly-go", CoinsToSpend: 600})
	require.Equal(t, http.StatusOK, rec.Code)
	redeem := decode[api.RedeemResponse](t, rec)
	assert.Equal(t, int64(600), redeem.CoinsSpent)
	assert.Equal(t, int64(5), redeem.GameCurrencyReceived)
	assert.Equal(t, int64(520), redeem.NewBalance)
	assert.Equal(t, "Monopoly GO", redeem.GameName)

	rec = doJSON(t, router, http.MethodGet, "/api/coins/balance", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decode[api.BalanceResponse](t, rec)
	assert.Equal(t, int64(520), balance.Balance)
	assert.Equal(t, 1, balance.Streak)

	rec = doJSON(t, router, http.MethodGet, "/api/activity", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	activity := decode[[]api.ActivityDTO](t, rec)
	require.Len(t, activity, 3)
	assert.Equal(t, "redeemed", activity[0].Type, "newest first")
	assert.Equal(t, "earned", activity[1].Type)
	assert.Equal(t, "streak_claimed", activity[2].Type)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestAPI_UnknownChallenge_NotFound(t *testing.T) {
	router := newTestRouter(t)
	token := signIn(t, router, "GC_ERR")

	rec := doJSON(t, router, http.MethodPost, "/api/actions/complete", token,
		api.CompleteActionRequest{ChallengeID: "does-not-exist"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, "challenge_not_found", resp.Code)
}

func TestAPI_InsufficientBalance_BadRequestWithAmounts(t *testing.T) {
	router := newTestRouter(t)
	token := signIn(t, router, "GC_POOR")

	// Signup bonus is 500; ask for more.
	rec := doJSON(t, router, http.MethodPost, "/api/redeem", token,
		api.RedeemRequest{GameID: "monopoly-go", CoinsToSpend: 9000})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, "insufficient_balance", resp.Code)

	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(9000), details["required"])
	assert.Equal(t, float64(500), details["available"])
}

func TestAPI_RedeemValidation(t *testing.T) {
	router := newTestRouter(t)
	token := signIn(t, router, "GC_VAL")

	rec := doJSON(t, router, http.MethodPost, "/api/redeem", token,
		api.RedeemRequest{CoinsToSpend: 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing game_id")

	rec = doJSON(t, router, http.MethodPost, "/api/redeem", token,
		api.RedeemRequest{GameID: "monopoly-go", CoinsToSpend: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "non-positive spend")

	rec = doJSON(t, router, http.MethodPost, "/api/redeem", token,
		api.RedeemRequest{GameID: "no-such-game", CoinsToSpend: 100})
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown game")
}

func TestAPI_ActivityLimitValidation(t *testing.T) {
	router := newTestRouter(t)
	token := signIn(t, router, "GC_LIM")

	rec := doJSON(t, router, http.MethodGet, "/api/activity?limit=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/activity?limit=-1", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestAPI_ListGames(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/games", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	games := decode[[]api.GameDTO](t, rec)
	require.Len(t, games, 3)
	assert.Equal(t, "monopoly-go", games[0].ID)
	assert.Equal(t, 120, games[0].ConversionRate)
	assert.Equal(t, 1.00, games[0].DollarValue)
}

func TestAPI_ListChallenges_GroupedByCategory(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/challenges", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	grouped := decode[map[string][]api.ChallengeDTO](t, rec)
	require.Len(t, grouped, 3)
	require.Len(t, grouped["Finance"], 2)
	assert.Equal(t, "sofi-budget", grouped["Finance"][0].ID)
	assert.Equal(t, 500, grouped["Finance"][0].CoinsReward)
}
