package scoring

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate rejects unknown scale fields and negative values.
func (m MarketEvaluation) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid market evaluation: %w", err)
	}
	return nil
}

// Validate rejects unnamed competitor items.
func (c CompetitorEvaluation) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid competitor evaluation: %w", err)
	}
	return nil
}

// Validate rejects unknown or negative scorecard weights.
func (p Policy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid scoring policy: %w", err)
	}
	return nil
}

// WithDefaultSource returns m with DefaultMarketSource attributed when it
// names no evidence source.
func (m MarketEvaluation) WithDefaultSource() MarketEvaluation {
	if len(m.EvidenceSources) == 0 {
		m.EvidenceSources = []string{DefaultMarketSource}
	}
	return m
}
