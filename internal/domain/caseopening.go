package domain

// WeightTable maps each rarity tier to its drop probability. Weights
// must be non-negative and sum to 1 within WeightSumTolerance.
type WeightTable map[RarityTier]float64

// WeightSumTolerance is the rounding slack allowed when validating
// that a weight table sums to 1.
const WeightSumTolerance = 1e-9

// CaseDefinition describes a purchasable case: a fixed price and the
// weight table that governs its drops. Reference data, not mutated by
// transactions (the Active flag is admin-toggled, not transactional).
type CaseDefinition struct {
	ID      string      `json:"id" validate:"required,max=64"`
	Name    string      `json:"name" validate:"required,max=100"`
	Rarity  RarityTier  `json:"rarity" validate:"required"`
	Price   int64       `json:"price" validate:"required,gt=0"`
	Weights WeightTable `json:"weights" validate:"required"`
	Active  bool        `json:"active"`
}
