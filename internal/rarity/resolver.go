package rarity

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/caseforge/caseforge/internal/domain"
)

// Catalog provides the item templates the resolver selects from.
type Catalog interface {
	TemplatesByTier(tier domain.RarityTier) []domain.ItemTemplate
}

// Resolver picks a rarity tier from a case's weight table, then a
// concrete template within that tier. Randomness is injected so seeded
// tests reproduce the same draw sequence.
type Resolver struct {
	catalog Catalog
	rnd     func() float64
}

// NewResolver creates a resolver. A nil rnd falls back to math/rand.
func NewResolver(catalog Catalog, rnd func() float64) *Resolver {
	if rnd == nil {
		rnd = rand.Float64 //nolint:gosec // Game drop randomness, not security critical
	}
	return &Resolver{catalog: catalog, rnd: rnd}
}

// Resolve draws one template according to the weight table.
//
// The unit interval is partitioned into contiguous bands in
// descending-rarity order: legendary occupies the lowest band, then
// epic, rare, common. The tier whose band contains the draw wins; a
// second uniform draw picks among that tier's templates.
func (r *Resolver) Resolve(weights domain.WeightTable) (domain.ItemTemplate, error) {
	if err := r.validate(weights); err != nil {
		return domain.ItemTemplate{}, err
	}

	tier := r.resolveTier(weights)
	templates := r.catalog.TemplatesByTier(tier)

	idx := int(r.rnd() * float64(len(templates)))
	if idx >= len(templates) {
		// rnd may return values arbitrarily close to 1.0
		idx = len(templates) - 1
	}
	return templates[idx], nil
}

func (r *Resolver) resolveTier(weights domain.WeightTable) domain.RarityTier {
	roll := r.rnd()

	cumulative := 0.0
	for _, tier := range domain.TiersDescending {
		cumulative += weights[tier]
		if roll < cumulative {
			return tier
		}
	}
	// Unreachable for a validated table unless roll landed in the
	// rounding slack at the top of the interval.
	return domain.RarityCommon
}

// validate enforces the resolve-time preconditions: non-negative
// weights summing to 1 within tolerance, and at least one catalog
// template for every tier with positive weight.
func (r *Resolver) validate(weights domain.WeightTable) error {
	sum := 0.0
	for tier, w := range weights {
		if !tier.Valid() {
			return fmt.Errorf("%w: unknown tier %q", domain.ErrConfiguration, tier)
		}
		if w < 0 {
			return fmt.Errorf("%w: negative weight for tier %q", domain.ErrConfiguration, tier)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > domain.WeightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1", domain.ErrConfiguration, sum)
	}

	for _, tier := range domain.TiersDescending {
		if weights[tier] > 0 && len(r.catalog.TemplatesByTier(tier)) == 0 {
			return fmt.Errorf("%w: no templates for tier %q", domain.ErrConfiguration, tier)
		}
	}
	return nil
}
