package domain

import "github.com/DjordjeVuckovic/news-cms/pkg/utils"

const ScoreDecimalPlaces = 4

func RoundScore(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	return utils.RoundDecimal(raw, ScoreDecimalPlaces)
}
