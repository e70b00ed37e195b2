// Package screener ranks watch-list stocks as dividend investments.
package screener

import (
	"fmt"
	"sort"
	"strings"

	"portfolio-manager/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// creditScores maps ratings to a 0-100 score; unrated stocks score 0
var creditScores = map[models.CreditRating]float64{
	models.CreditRatingAAA: 100,
	models.CreditRatingAA:  85,
	models.CreditRatingA:   70,
	models.CreditRatingBBB: 55,
	models.CreditRatingBB:  35,
	models.CreditRatingB:   20,
	models.CreditRatingCCC: 5,
}

// Candidate is a scored watch-list stock
type Candidate struct {
	Stock  models.Stock    `json:"stock"`
	Yield  decimal.Decimal `json:"dividend_yield"`
	Upside decimal.Decimal `json:"upside_percentage"`
	Score  float64         `json:"score"`
}

// Criteria filters and limits a screen. Zero values disable a filter.
type Criteria struct {
	MinYield        decimal.Decimal
	MinCreditRating models.CreditRating
	TopN            int
}

// ParseCreditRating accepts a rating name in any case
func ParseCreditRating(s string) (models.CreditRating, error) {
	r := models.CreditRating(strings.ToUpper(strings.TrimSpace(s)))
	if r == "" {
		return "", nil
	}
	if _, ok := creditScores[r]; !ok && r != models.CreditRatingNone {
		return "", fmt.Errorf("%w: unknown credit rating %q", models.ErrInvalidStock, s)
	}
	return r, nil
}

// DividendYield is the annual dividend as a percentage of price, zero
// without a price.
func DividendYield(s models.Stock) decimal.Decimal {
	if !s.Price.IsPositive() {
		return decimal.Zero
	}
	return s.DividendRate.Div(s.Price).Mul(hundred).Round(4)
}

// Upside is the distance to the target price in percent, zero without a
// price or target.
func Upside(s models.Stock) decimal.Decimal {
	if !s.Price.IsPositive() || !s.TargetPrice.IsPositive() {
		return decimal.Zero
	}
	return s.TargetPrice.Sub(s.Price).Div(s.Price).Mul(hundred).Round(4)
}

// DividendScore calculates a composite 0-100 score, higher is better.
func DividendScore(s models.Stock) float64 {
	// 5% yield = 100 score
	yieldScore := min(100, DividendYield(s).InexactFloat64()*20)

	// 10% annual dividend growth = 100 score; cuts score 0
	growthScore := max(0, min(100, s.DividendGrowth.InexactFloat64()*10))

	// 25 consecutive years of increases = 100 score
	streakScore := min(100, float64(s.YearsDividendGrowth)*4)

	creditScore := creditScores[s.CreditRating]

	// 25% upside = 100 score; trading above target scores 0
	upsideScore := max(0, min(100, Upside(s).InexactFloat64()*4))

	// Weighted: 35% yield, 20% growth, 15% streak, 20% credit, 10% upside
	return yieldScore*0.35 + growthScore*0.2 + streakScore*0.15 + creditScore*0.2 + upsideScore*0.1
}

// Screen scores the stocks that have a price and pass criteria, sorted by
// score descending. Ties keep symbol order.
func Screen(stocks []models.Stock, criteria Criteria) []Candidate {
	minCredit := creditScores[criteria.MinCreditRating]

	candidates := make([]Candidate, 0, len(stocks))
	for _, s := range stocks {
		if !s.Price.IsPositive() {
			continue
		}
		yield := DividendYield(s)
		if yield.LessThan(criteria.MinYield) {
			continue
		}
		if criteria.MinCreditRating != "" && creditScores[s.CreditRating] < minCredit {
			continue
		}
		candidates = append(candidates, Candidate{
			Stock:  s,
			Yield:  yield,
			Upside: Upside(s),
			Score:  DividendScore(s),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Stock.Symbol < candidates[j].Stock.Symbol
	})

	if criteria.TopN > 0 && criteria.TopN < len(candidates) {
		return candidates[:criteria.TopN]
	}
	return candidates
}
