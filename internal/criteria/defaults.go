package criteria

import (
	_ "embed"
	"fmt"
)

//go:embed market.yaml
var marketYAML []byte

// MarketSetName is the name of the built-in market question set.
const MarketSetName = "market"

// DefaultMarket returns the built-in market checklist: opportunity size,
// problem fit, willingness to pay, differentiation, revenue model and risks.
func DefaultMarket() *Set {
	s, err := Load(marketYAML, ".yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded market question set: %v", err))
	}
	return s
}
