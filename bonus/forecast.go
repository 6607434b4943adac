package bonus

import "github.com/shopspring/decimal"

// =============================================================================
// FORECAST GATE - All-or-nothing revenue check
// =============================================================================

// ValidateForecast checks a forecast's arithmetic inputs. TargetAmount must
// be positive and Threshold a fraction in [0, 1].
func ValidateForecast(f Forecast) error {
	var problems []string
	if !f.TargetAmount.IsPositive() {
		problems = append(problems, "forecast targetAmount must be positive, got "+f.TargetAmount.String())
	}
	if f.Threshold.IsNegative() || f.Threshold.GreaterThan(decimal.NewFromInt(1)) {
		problems = append(problems, "forecast threshold must be a fraction in [0, 1], got "+f.Threshold.String())
	}
	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

// ForecastMet reports whether actual revenue reached the forecast's
// required floor. This is a hard gate, not a per-participant discount:
// when it fails no participant computation runs at all.
func ForecastMet(f Forecast, totalRevenue decimal.Decimal) bool {
	return totalRevenue.GreaterThanOrEqual(f.RequiredRevenue())
}
