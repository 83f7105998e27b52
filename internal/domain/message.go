package domain

import "time"

// ChatMessage is one entry in a listing's negotiation thread. Seq is
// monotonically increasing per thread and orders reads.
type ChatMessage struct {
	Seq       int64     `json:"seq"`
	ListingID string    `json:"listing_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
}
