package pricing

import "time"

// builtInPricing returns the default pricing entries.
// Rates are USD per million tokens as of the effective date.
func builtInPricing() []ModelPricing {
	effectiveDate := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	return []ModelPricing{
		{
			Model:                 "claude-3-5-haiku-20241022",
			InputPricePerMillion:  0.80,
			OutputPricePerMillion: 4.00,
			EffectiveDate:         effectiveDate,
		},
		{
			Model:                 "claude-sonnet-4-20250514",
			InputPricePerMillion:  3.00,
			OutputPricePerMillion: 15.00,
			EffectiveDate:         effectiveDate,
		},
		{
			Model:                 "claude-opus-4-20250514",
			InputPricePerMillion:  15.00,
			OutputPricePerMillion: 75.00,
			EffectiveDate:         effectiveDate,
		},
	}
}
