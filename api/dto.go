/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Field names match
  the original demo backend so the existing mobile client keeps working.
  These types decouple the domain model from the wire contract: the
  ledger's typed values flow in and out only through the conversion
  helpers at the bottom.

NAMING CONVENTION:
  - *Request:  Request body types from clients
  - *Response: Response wrappers
  - *DTO:      Embedded response fragments

VALIDATION:
  Structural validation (missing/malformed fields) happens in handlers
  before the engine is touched; business rules live in the engine.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/playd/coin-engine/catalog"
	"github.com/playd/coin-engine/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// AuthRequest is the mock Game Center sign-in body.
type AuthRequest struct {
	TeamPlayerID string `json:"team_player_id"`
	Username     string `json:"username,omitempty"`
}

// AuthResponse returns the session token and the account snapshot.
type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// UserDTO represents an account in API responses.
type UserDTO struct {
	ID           string `json:"id"`
	TeamPlayerID string `json:"team_player_id"`
	Username     string `json:"username"`
	CoinBalance  int64  `json:"coin_balance"`
	StreakDays   int    `json:"streak_days"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// BalanceResponse is the coin balance snapshot.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
	Streak  int   `json:"streak"`
}

// GameDTO represents a redemption target.
type GameDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Icon           string  `json:"icon"`
	ConversionRate int     `json:"conversion_rate"`
	DollarValue    float64 `json:"dollar_value"`
}

// ChallengeDTO represents an earning opportunity.
type ChallengeDTO struct {
	ID          string `json:"id"`
	Partner     string `json:"partner"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CoinsReward int    `json:"coins_reward"`
	Category    string `json:"category"`
	Icon        string `json:"icon"`
}

// CompleteActionRequest asks to credit a challenge's reward.
type CompleteActionRequest struct {
	ChallengeID string `json:"challenge_id"`
}

// CompleteActionResponse reports the credit.
type CompleteActionResponse struct {
	Success     bool   `json:"success"`
	CoinsEarned int64  `json:"coins_earned"`
	NewBalance  int64  `json:"new_balance"`
	Message     string `json:"message"`
}

// RedeemRequest asks to convert coins into a game's currency.
type RedeemRequest struct {
	GameID       string `json:"game_id"`
	CoinsToSpend int64  `json:"coins_to_spend"`
}

// RedeemResponse reports the debit and the items received.
type RedeemResponse struct {
	Success              bool   `json:"success"`
	CoinsSpent           int64  `json:"coins_spent"`
	GameCurrencyReceived int64  `json:"game_currency_received"`
	NewBalance           int64  `json:"new_balance"`
	GameName             string `json:"game_name"`
	Message              string `json:"message"`
}

// StreakResponse reports a streak bonus claim.
type StreakResponse struct {
	Success     bool   `json:"success"`
	CoinsEarned int64  `json:"coins_earned"`
	NewBalance  int64  `json:"new_balance"`
	StreakDays  int    `json:"streak_days"`
	Message     string `json:"message"`
}

// ActivityDTO is one entry of the activity feed.
type ActivityDTO struct {
	Type        string `json:"type"`
	Partner     string `json:"partner"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toUserDTO(a ledger.Account) UserDTO {
	return UserDTO{
		ID:           string(a.UserID),
		TeamPlayerID: a.TeamPlayerID,
		Username:     a.Username,
		CoinBalance:  int64(a.CoinBalance),
		StreakDays:   a.StreakDays,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
}

func toGameDTO(g catalog.Game) GameDTO {
	dollar, _ := g.DollarValue.Float64()
	return GameDTO{
		ID:             g.ID,
		Name:           g.Name,
		Icon:           g.Icon,
		ConversionRate: g.ConversionRate,
		DollarValue:    dollar,
	}
}

func toChallengeDTO(c catalog.Challenge) ChallengeDTO {
	return ChallengeDTO{
		ID:          c.ID,
		Partner:     c.Partner,
		Title:       c.Title,
		Description: c.Description,
		CoinsReward: c.CoinsReward,
		Category:    c.Category,
		Icon:        c.Icon,
	}
}

func toActivityDTO(ev ledger.Event) ActivityDTO {
	return ActivityDTO{
		Type:        string(ev.Kind),
		Partner:     ev.Partner,
		Amount:      int64(ev.Amount),
		Description: ev.Description,
		Timestamp:   ev.Timestamp.Format(time.RFC3339),
	}
}

func toActivityDTOs(events []ledger.Event) []ActivityDTO {
	dtos := make([]ActivityDTO, len(events))
	for i, ev := range events {
		dtos[i] = toActivityDTO(ev)
	}
	return dtos
}
