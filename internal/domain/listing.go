package domain

import "time"

// ListingStatus is the lifecycle state of a marketplace listing.
// Transitions: Active -> Sold or Active -> Withdrawn, both terminal.
type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingWithdrawn ListingStatus = "withdrawn"
)

// Listing pairs one detached inventory item with an asking price.
// While the listing is Active the item belongs to the listing, not to
// any user's inventory; it re-attaches on purchase or withdrawal.
type Listing struct {
	ID          string        `json:"id"`
	Item        InventoryItem `json:"item"`
	SellerID    string        `json:"seller_id"`
	Price       int64         `json:"price"`
	Description string        `json:"description"`
	Status      ListingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}
