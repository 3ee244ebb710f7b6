/*
Package auth is the session adapter for mock Game Center authentication.

PURPOSE:
  Resolves an external Game Center identity (team player id) to an opaque
  ledger user id and issues a signed session token. The ledger itself
  never authenticates anyone; it only sees the user id this package
  produces.

FLOW:
  1. Client posts its team player id (and optional username)
  2. First-ever identity: an account is created and seeded with the
     signup bonus
  3. A JWT (HS256, 24h) carrying user_id and team_player_id is returned
  4. Subsequent requests present the token; Verify extracts the user id

DEMO FALLBACK:
  Requests without a token resolve to the demo player, matching the
  original backend's behavior so the demo client works out of the box.

SEE ALSO:
  - ledger/store.go: AccountStore used for seeding
  - api/handlers.go: Token extraction middleware
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/playd/coin-engine/ledger"
)

// DemoTeamPlayerID is the identity used when no token is presented.
const DemoTeamPlayerID = "DEMO_PLAYER_001"

const tokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Service issues and verifies session tokens, seeding accounts on first
// authentication.
type Service struct {
	secret      []byte
	accounts    ledger.AccountStore
	signupBonus ledger.Coins
}

func New(secret string, accounts ledger.AccountStore, signupBonus ledger.Coins) *Service {
	return &Service{
		secret:      []byte(secret),
		accounts:    accounts,
		signupBonus: signupBonus,
	}
}

// Authenticate resolves a team player id to an account, creating it with
// the signup bonus on first sight, and returns a session token.
func (s *Service) Authenticate(ctx context.Context, teamPlayerID, username string) (ledger.Account, string, error) {
	if teamPlayerID == "" {
		teamPlayerID = DemoTeamPlayerID
	}

	acct, err := s.accounts.GetByTeamPlayerID(ctx, teamPlayerID)
	if err != nil {
		if !errors.Is(err, ledger.ErrAccountNotFound) {
			return ledger.Account{}, "", err
		}

		if username == "" {
			username = fmt.Sprintf("Player%04d", rand.Intn(10000))
		}
		acct, err = s.accounts.GetOrCreate(ctx, ledger.Account{
			UserID:       ledger.UserID(uuid.NewString()),
			TeamPlayerID: teamPlayerID,
			Username:     username,
		}, s.signupBonus)
		if err != nil {
			return ledger.Account{}, "", err
		}
	}

	token, err := s.issue(acct)
	if err != nil {
		return ledger.Account{}, "", err
	}
	return acct, token, nil
}

// Verify parses a session token and returns the user id it carries.
func (s *Service) Verify(tokenString string) (ledger.UserID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return ledger.UserID(userID), nil
}

// ResolveDemoUser returns the demo account's user id, creating the demo
// account if this is the first request without a token.
func (s *Service) ResolveDemoUser(ctx context.Context) (ledger.UserID, error) {
	acct, err := s.accounts.GetByTeamPlayerID(ctx, DemoTeamPlayerID)
	if err == nil {
		return acct.UserID, nil
	}
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		return "", err
	}
	acct, err = s.accounts.GetOrCreate(ctx, ledger.Account{
		UserID:       ledger.UserID(uuid.NewString()),
		TeamPlayerID: DemoTeamPlayerID,
		Username:     "DemoPlayer",
	}, s.signupBonus)
	if err != nil {
		return "", err
	}
	return acct.UserID, nil
}

func (s *Service) issue(acct ledger.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":        string(acct.UserID),
		"team_player_id": acct.TeamPlayerID,
		"exp":            now.Add(tokenTTL).Unix(),
		"iat":            now.Unix(),
		"nbf":            now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
