package domain

// Input limits enforced by request validation and the services.
const (
	// MaxMessageLength caps a single chat message.
	MaxMessageLength = 1000

	// MaxDescriptionLength caps a listing description.
	MaxDescriptionLength = 500

	// MaxListingPrice caps an asking price to keep admin tooling sane.
	MaxListingPrice = 1_000_000
)
