package domain

import "time"

// RarityTier represents the drop rarity of an item, ordered from most
// to least common.
type RarityTier string

const (
	RarityCommon    RarityTier = "common"
	RarityRare      RarityTier = "rare"
	RarityEpic      RarityTier = "epic"
	RarityLegendary RarityTier = "legendary"
)

// TiersDescending lists the tiers from rarest to most common. The
// resolver evaluates probability bands in this order so the rare
// high-value outcomes occupy the lowest band and are easy to audit.
var TiersDescending = []RarityTier{
	RarityLegendary,
	RarityEpic,
	RarityRare,
	RarityCommon,
}

// Valid reports whether the tier is one of the four known tiers.
func (r RarityTier) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// ItemTemplate is a catalog entry describing a droppable item.
// One tier may contain multiple templates.
type ItemTemplate struct {
	Name      string     `json:"name" validate:"required,max=100"`
	Rarity    RarityTier `json:"rarity" validate:"required"`
	VisualKey string     `json:"visual_key" validate:"required,max=100"`
}

// InventoryItem is a concrete item instance owned by a user. Items are
// created at acquisition time and never mutated in place; ownership
// changes happen only through detach/attach on the inventory store.
type InventoryItem struct {
	ID         string       `json:"id"`
	OwnerID    string       `json:"owner_id"`
	Template   ItemTemplate `json:"template"`
	AcquiredAt time.Time    `json:"acquired_at"`
}
