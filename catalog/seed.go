/*
seed.go - Demo catalog data

PURPOSE:
  The sample games and partner challenges shipped with the Play'd demo.
  Conversion rates and rewards match the original seed exactly; tests and
  the demo server both build on this data.

SEE ALSO:
  - catalog.go: Lookup structure
*/
package catalog

import "github.com/shopspring/decimal"

// Seed returns the demo catalog.
func Seed() *Catalog {
	return New(SeedGames(), SeedChallenges())
}

// SeedGames returns the demo games.
func SeedGames() []Game {
	return []Game{
		{
			ID: "monopoly-go", Name: "Monopoly GO", Icon: "🎲",
			ConversionRate: 120, DollarValue: decimal.NewFromFloat(1.00), Active: true,
		},
		{
			ID: "madden-mobile", Name: "Madden Mobile", Icon: "🏈",
			ConversionRate: 200, DollarValue: decimal.NewFromFloat(1.50), Active: true,
		},
		{
			ID: "candy-crush", Name: "Candy Crush", Icon: "🍬",
			ConversionRate: 100, DollarValue: decimal.NewFromFloat(0.80), Active: true,
		},
	}
}

// SeedChallenges returns the demo partner challenges.
func SeedChallenges() []Challenge {
	return []Challenge{
		{
			ID: "sofi-budget", Partner: "SoFi",
			Title:       "Complete Monthly Budget Review",
			Description: "Review and categorize your monthly expenses",
			CoinsReward: 500, Category: "Finance", Icon: "🏦", Active: true,
		},
		{
			ID: "sofi-savings", Partner: "SoFi",
			Title:       "Save $100 This Month",
			Description: "Reach your monthly savings goal",
			CoinsReward: 800, Category: "Finance", Icon: "💰", Active: true,
		},
		{
			ID: "fitbit-steps", Partner: "Fitbit",
			Title:       "Complete Daily Step Goal",
			Description: "Walk 10,000 steps today",
			CoinsReward: 100, Category: "Health", Icon: "🏃", Active: true,
		},
		{
			ID: "fitbit-workout", Partner: "Fitbit",
			Title:       "Complete 30-Min Workout",
			Description: "Complete a high-intensity workout session",
			CoinsReward: 200, Category: "Health", Icon: "💪", Active: true,
		},
		{
			ID: "coursera-finance", Partner: "Coursera",
			Title:       "Financial Literacy 101",
			Description: "Complete one lesson in financial basics course",
			CoinsReward: 300, Category: "Learning", Icon: "🎓", Active: true,
		},
		{
			ID: "coursera-investing", Partner: "Coursera",
			Title:       "Introduction to Investing",
			Description: "Learn the basics of stock market investing",
			CoinsReward: 400, Category: "Learning", Icon: "📈", Active: true,
		},
	}
}
