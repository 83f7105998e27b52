package domain

// Event type names published by the economy engine. The audit log
// subscribes to all of them.
const (
	EventTypeCaseOpened        = "case.opened"
	EventTypeListingCreated    = "listing.created"
	EventTypeListingSold       = "listing.sold"
	EventTypeListingWithdrawn  = "listing.withdrawn"
	EventTypeMessageSent       = "message.sent"
	EventTypeBalanceAdjusted   = "balance.adjusted"
	EventTypeUserRegistered    = "user.registered"
)

// CaseOpenedPayload is the typed payload for case.opened events.
type CaseOpenedPayload struct {
	UserID     string     `json:"user_id"`
	CaseID     string     `json:"case_id"`
	Price      int64      `json:"price"`
	ItemID     string     `json:"item_id"`
	ItemName   string     `json:"item_name"`
	Rarity     RarityTier `json:"rarity"`
	NewBalance int64      `json:"new_balance"`
	Timestamp  int64      `json:"timestamp"`
}

// ListingCreatedPayload is the typed payload for listing.created events.
type ListingCreatedPayload struct {
	UserID    string `json:"user_id"`
	ListingID string `json:"listing_id"`
	ItemID    string `json:"item_id"`
	Price     int64  `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

// ListingSoldPayload is the typed payload for listing.sold events.
type ListingSoldPayload struct {
	UserID    string `json:"user_id"` // buyer
	SellerID  string `json:"seller_id"`
	ListingID string `json:"listing_id"`
	ItemID    string `json:"item_id"`
	Price     int64  `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

// ListingWithdrawnPayload is the typed payload for listing.withdrawn events.
type ListingWithdrawnPayload struct {
	UserID    string `json:"user_id"` // seller
	ListingID string `json:"listing_id"`
	ItemID    string `json:"item_id"`
	Timestamp int64  `json:"timestamp"`
}

// MessageSentPayload is the typed payload for message.sent events.
type MessageSentPayload struct {
	UserID    string `json:"user_id"` // sender
	ListingID string `json:"listing_id"`
	Seq       int64  `json:"seq"`
	Timestamp int64  `json:"timestamp"`
}

// BalanceAdjustedPayload is the typed payload for balance.adjusted
// events (admin top-ups and corrections).
type BalanceAdjustedPayload struct {
	UserID    string `json:"user_id"`
	Delta     int64  `json:"delta"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

// UserRegisteredPayload is the typed payload for user.registered events.
type UserRegisteredPayload struct {
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	StartingBalance int64  `json:"starting_balance"`
	Timestamp       int64  `json:"timestamp"`
}
