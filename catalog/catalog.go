/*
Package catalog provides the read-only reference data for the coin engine.

PURPOSE:
  Static lookup of Games (redemption targets) and Challenges (earning
  opportunities). The catalog is immutable at runtime: the ledger reads
  from it but never writes to it. Lookups are in-memory and non-blocking,
  so they are safe inside store transactions.

KEY CONCEPTS:
  Game:      id, name, conversion rate (coins per unit of in-game
             currency), informational dollar value
  Challenge: partner-defined task with a fixed coin reward, grouped by
             category for display

ORDERING:
  ChallengesByCategory preserves seed insertion order within each
  category, matching the order partners appear in the demo data.

SEED DATA:
  Seed() returns the demo catalog: three games and six partner challenges
  across Finance, Health, and Learning.

SEE ALSO:
  - ledger/engine.go: The only consumer
*/
package catalog

import "github.com/shopspring/decimal"

// =============================================================================
// REFERENCE TYPES
// =============================================================================

// Game is a redemption target. ConversionRate is coins per unit of the
// game's currency; DollarValue is informational only, never enforced.
type Game struct {
	ID             string
	Name           string
	Icon           string
	ConversionRate int
	DollarValue    decimal.Decimal
	Active         bool
}

// Challenge is a partner-defined task whose completion credits a fixed
// coin reward.
type Challenge struct {
	ID          string
	Partner     string
	Title       string
	Description string
	CoinsReward int
	Category    string
	Icon        string
	Active      bool
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is an immutable id-keyed view over games and challenges.
// Construct it once at startup; it is safe for concurrent readers.
type Catalog struct {
	games      map[string]Game
	challenges map[string]Challenge

	// Insertion order, for stable listings
	gameOrder      []string
	challengeOrder []string
}

// New builds a catalog from seed slices. Later entries with a duplicate id
// overwrite earlier ones, as the demo seed's INSERT OR IGNORE never
// produced duplicates in practice.
func New(games []Game, challenges []Challenge) *Catalog {
	c := &Catalog{
		games:      make(map[string]Game, len(games)),
		challenges: make(map[string]Challenge, len(challenges)),
	}
	for _, g := range games {
		if _, seen := c.games[g.ID]; !seen {
			c.gameOrder = append(c.gameOrder, g.ID)
		}
		c.games[g.ID] = g
	}
	for _, ch := range challenges {
		if _, seen := c.challenges[ch.ID]; !seen {
			c.challengeOrder = append(c.challengeOrder, ch.ID)
		}
		c.challenges[ch.ID] = ch
	}
	return c
}

// GetGame looks up a game by id, active or not.
func (c *Catalog) GetGame(id string) (Game, bool) {
	g, ok := c.games[id]
	return g, ok
}

// GetChallenge looks up a challenge by id, active or not.
func (c *Catalog) GetChallenge(id string) (Challenge, bool) {
	ch, ok := c.challenges[id]
	return ch, ok
}

// Games returns active games in insertion order.
func (c *Catalog) Games() []Game {
	out := make([]Game, 0, len(c.gameOrder))
	for _, id := range c.gameOrder {
		if g := c.games[id]; g.Active {
			out = append(out, g)
		}
	}
	return out
}

// ChallengesByCategory returns active challenges grouped by category,
// insertion order preserved within each group.
func (c *Catalog) ChallengesByCategory() map[string][]Challenge {
	out := make(map[string][]Challenge)
	for _, id := range c.challengeOrder {
		ch := c.challenges[id]
		if !ch.Active {
			continue
		}
		out[ch.Category] = append(out[ch.Category], ch)
	}
	return out
}
