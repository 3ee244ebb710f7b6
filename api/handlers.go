/*
handlers.go - HTTP API handlers for the coin engine

PURPOSE:
  Exposes the coin ledger via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the ledger engine.

ENDPOINTS:
  Auth:
    POST /api/auth/gamecenter   Mock Game Center sign-in

  Coins:
    GET  /api/coins/balance     Current balance and streak
    POST /api/actions/complete  Complete a challenge, earn coins
    POST /api/redeem            Spend coins on game currency
    POST /api/streak/claim      Claim the daily streak bonus
    GET  /api/activity          Recent earn/redeem events

  Catalog:
    GET  /api/games             Active games
    GET  /api/challenges        Active challenges grouped by category

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Resolve caller identity (bearer token, demo fallback)
  4. Call the engine
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, insufficient balance
  - 401: Invalid token
  - 404: Unknown challenge/game/account
  - 500: Storage failures (retryable by the client)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/playd/coin-engine/auth"
	"github.com/playd/coin-engine/catalog"
	"github.com/playd/coin-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine  *ledger.Engine
	Auth    *auth.Service
	Catalog *catalog.Catalog
}

// NewHandler creates a handler over the engine and auth service.
func NewHandler(engine *ledger.Engine, authSvc *auth.Service) *Handler {
	return &Handler{
		Engine:  engine,
		Auth:    authSvc,
		Catalog: engine.Catalog,
	}
}

type contextKey string

const userIDKey contextKey = "user_id"

// withUser resolves the caller's identity before the handler runs. A
// bearer token is verified; no token falls back to the demo player, as
// the original backend did.
func (h *Handler) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var userID ledger.UserID

		header := r.Header.Get("Authorization")
		if header == "" {
			id, err := h.Auth.ResolveDemoUser(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to resolve demo user", err)
				return
			}
			userID = id
		} else {
			token := strings.TrimPrefix(header, "Bearer ")
			id, err := h.Auth.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token", err)
				return
			}
			userID = id
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func callerID(r *http.Request) ledger.UserID {
	id, _ := r.Context().Value(userIDKey).(ledger.UserID)
	return id
}

// =============================================================================
// AUTH ENDPOINT
// =============================================================================

// AuthGameCenter signs the caller in with a mock Game Center identity.
// POST /api/auth/gamecenter
func (h *Handler) AuthGameCenter(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	acct, token, err := h.Auth.Authenticate(r.Context(), req.TeamPlayerID, req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Authentication failed", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Token: token,
		User:  toUserDTO(acct),
	})
}

// =============================================================================
// COIN ENDPOINTS
// =============================================================================

// GetBalance returns the caller's coin balance and streak.
// GET /api/coins/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Engine.Balance(r.Context(), callerID(r))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		Balance: int64(acct.CoinBalance),
		Streak:  acct.StreakDays,
	})
}

// CompleteAction credits a challenge's reward to the caller.
// POST /api/actions/complete
func (h *Handler) CompleteAction(w http.ResponseWriter, r *http.Request) {
	var req CompleteActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ChallengeID == "" {
		writeError(w, http.StatusBadRequest, "challenge_id is required", nil)
		return
	}

	res, err := h.Engine.EarnFromChallenge(r.Context(), callerID(r), req.ChallengeID)
	CountOperation("earn", err)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CompleteActionResponse{
		Success:     true,
		CoinsEarned: int64(res.CoinsEarned),
		NewBalance:  int64(res.NewBalance),
		Message:     fmt.Sprintf("Earned %d Play'd Coins!", res.CoinsEarned),
	})
}

// Redeem spends the caller's coins on a game's currency.
// POST /api/redeem
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.GameID == "" {
		writeError(w, http.StatusBadRequest, "game_id is required", nil)
		return
	}
	if req.CoinsToSpend <= 0 {
		writeError(w, http.StatusBadRequest, "coins_to_spend must be a positive integer", nil)
		return
	}

	res, err := h.Engine.Redeem(r.Context(), callerID(r), req.GameID, ledger.Coins(req.CoinsToSpend))
	CountOperation("redeem", err)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RedeemResponse{
		Success:              true,
		CoinsSpent:           int64(res.CoinsSpent),
		GameCurrencyReceived: res.ItemsReceived,
		NewBalance:           int64(res.NewBalance),
		GameName:             res.Game.Name,
		Message:              fmt.Sprintf("Redeemed %d items in %s!", res.ItemsReceived, res.Game.Name),
	})
}

// ClaimStreak credits the daily streak bonus.
// POST /api/streak/claim
func (h *Handler) ClaimStreak(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.ClaimStreak(r.Context(), callerID(r))
	CountOperation("streak", err)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StreakResponse{
		Success:     true,
		CoinsEarned: int64(res.CoinsEarned),
		NewBalance:  int64(res.NewBalance),
		StreakDays:  res.StreakDays,
		Message:     fmt.Sprintf("Daily streak bonus: +%d coins!", res.CoinsEarned),
	})
}

// GetActivity returns the caller's recent events, newest first.
// GET /api/activity?limit=N
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	events, err := h.Engine.RecentActivity(r.Context(), callerID(r), limit)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toActivityDTOs(events))
}

// =============================================================================
// CATALOG ENDPOINTS
// =============================================================================

// ListGames returns active games.
// GET /api/games
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	games := h.Catalog.Games()
	dtos := make([]GameDTO, len(games))
	for i, g := range games {
		dtos[i] = toGameDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListChallenges returns active challenges grouped by category.
// GET /api/challenges
func (h *Handler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	grouped := h.Catalog.ChallengesByCategory()
	out := make(map[string][]ChallengeDTO, len(grouped))
	for category, challenges := range grouped {
		dtos := make([]ChallengeDTO, len(challenges))
		for i, c := range challenges {
			dtos[i] = toChallengeDTO(c)
		}
		out[category] = dtos
	}
	writeJSON(w, http.StatusOK, out)
}

// Health is the liveness probe.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Play'd backend is running!"})
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// writeEngineError maps ledger errors onto HTTP statuses and stable codes.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	var insufficient *ledger.InsufficientBalanceError

	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Insufficient coins",
			Code:  "insufficient_balance",
			Details: map[string]int64{
				"required":  int64(insufficient.Requested),
				"available": int64(insufficient.Available),
			},
		})
	case errors.Is(err, ledger.ErrChallengeNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Challenge not found", Code: "challenge_not_found", Details: err.Error()})
	case errors.Is(err, ledger.ErrGameNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Game not found", Code: "game_not_found", Details: err.Error()})
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Account not found", Code: "account_not_found", Details: err.Error()})
	case errors.Is(err, ledger.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		// Transient storage failures: the whole operation is retryable
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Temporary storage failure, retry the request", Code: "storage_unavailable"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
