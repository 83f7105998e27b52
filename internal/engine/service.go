package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/caseforge/caseforge/internal/catalog"
	"github.com/caseforge/caseforge/internal/chat"
	"github.com/caseforge/caseforge/internal/domain"
	"github.com/caseforge/caseforge/internal/event"
	"github.com/caseforge/caseforge/internal/inventory"
	"github.com/caseforge/caseforge/internal/ledger"
	"github.com/caseforge/caseforge/internal/logger"
	"github.com/caseforge/caseforge/internal/market"
	"github.com/caseforge/caseforge/internal/rarity"
	"github.com/caseforge/caseforge/internal/user"
)

// OpenCaseResult is the outcome of a successful case opening.
type OpenCaseResult struct {
	Item       domain.InventoryItem `json:"item"`
	NewBalance int64                `json:"new_balance"`
}

// Service orchestrates the economy: case openings, marketplace trades
// and listing chat. Each operation either applies completely or
// compensates its partial effects before returning, so callers only
// ever observe pre-state or fully applied state.
type Service interface {
	RegisterUser(ctx context.Context, username, email string) (domain.User, error)
	AdjustBalance(ctx context.Context, userID string, delta int64, reason string) (int64, error)

	OpenCase(ctx context.Context, userID, caseID string) (OpenCaseResult, error)

	CreateListing(ctx context.Context, sellerID, itemID string, price int64, description string) (domain.Listing, error)
	PurchaseListing(ctx context.Context, buyerID, listingID string) (domain.Listing, error)
	WithdrawListing(ctx context.Context, sellerID, listingID string) (domain.Listing, error)
	ListActiveListings(ctx context.Context) ([]domain.Listing, error)

	SendMessage(ctx context.Context, senderID, listingID, text string) (domain.ChatMessage, error)
	Messages(ctx context.Context, listingID string) ([]domain.ChatMessage, error)

	// Shutdown waits for in-flight event publications to drain.
	Shutdown(ctx context.Context) error
}

type service struct {
	catalog   catalog.Service
	resolver  *rarity.Resolver
	ledger    ledger.Service
	inventory inventory.Service
	market    market.Service
	chat      chat.Service
	users     user.Service
	bus       event.Bus
	wg        sync.WaitGroup
}

// NewService wires the engine from its collaborators.
func NewService(
	catalogSvc catalog.Service,
	resolver *rarity.Resolver,
	ledgerSvc ledger.Service,
	inventorySvc inventory.Service,
	marketSvc market.Service,
	chatSvc chat.Service,
	userSvc user.Service,
	bus event.Bus,
) Service {
	return &service{
		catalog:   catalogSvc,
		resolver:  resolver,
		ledger:    ledgerSvc,
		inventory: inventorySvc,
		market:    marketSvc,
		chat:      chatSvc,
		users:     userSvc,
		bus:       bus,
	}
}

func (s *service) RegisterUser(ctx context.Context, username, email string) (domain.User, error) {
	registered, err := s.users.Register(ctx, username, email)
	if err != nil {
		return domain.User{}, err
	}

	s.publish(ctx, event.NewUserRegisteredEvent(registered))
	return registered, nil
}

func (s *service) AdjustBalance(ctx context.Context, userID string, delta int64, reason string) (int64, error) {
	newBalance, err := s.users.AdjustBalance(ctx, userID, delta, reason)
	if err != nil {
		return 0, err
	}

	s.publish(ctx, event.NewBalanceAdjustedEvent(userID, delta, reason))
	return newBalance, nil
}

// OpenCase debits the case price, rolls the reward and delivers it.
// A resolver or inventory failure refunds the debit, so the user's
// balance is only reduced when an item actually lands.
func (s *service) OpenCase(ctx context.Context, userID, caseID string) (OpenCaseResult, error) {
	log := logger.FromContext(ctx)

	caseDef, err := s.catalog.ActiveCase(caseID)
	if err != nil {
		return OpenCaseResult{}, err
	}

	newBalance, err := s.ledger.Debit(ctx, userID, caseDef.Price)
	if err != nil {
		return OpenCaseResult{}, err
	}

	template, err := s.resolver.Resolve(caseDef.Weights)
	if err != nil {
		s.refund(ctx, userID, caseDef.Price, "resolve failed")
		return OpenCaseResult{}, err
	}

	item, err := s.inventory.AddItem(ctx, userID, template)
	if err != nil {
		s.refund(ctx, userID, caseDef.Price, "item delivery failed")
		return OpenCaseResult{}, err
	}

	log.Info("Case opened",
		"user_id", userID,
		"case_id", caseID,
		"item_id", item.ID,
		"rarity", item.Template.Rarity,
		"new_balance", newBalance)

	s.publish(ctx, event.NewCaseOpenedEvent(userID, caseID, caseDef.Price, item, newBalance))

	return OpenCaseResult{Item: item, NewBalance: newBalance}, nil
}

// CreateListing moves the item out of the seller's inventory and into
// an active listing. An item is owned or listed, never both.
func (s *service) CreateListing(ctx context.Context, sellerID, itemID string, price int64, description string) (domain.Listing, error) {
	item, err := s.inventory.RemoveItem(ctx, sellerID, itemID)
	if err != nil {
		return domain.Listing{}, err
	}

	listing, err := s.market.Create(ctx, item, sellerID, price, description)
	if err != nil {
		if restoreErr := s.inventory.RestoreItem(ctx, item); restoreErr != nil {
			logger.FromContext(ctx).Error("Failed to return item after rejected listing",
				"item_id", item.ID, "error", restoreErr)
		}
		return domain.Listing{}, err
	}

	s.publish(ctx, event.NewListingCreatedEvent(listing))
	return listing, nil
}

// PurchaseListing claims the listing, moves the money, then moves the
// item. The claim is the race arbiter: concurrent buyers lose with
// ErrAlreadySold. A payment failure releases the claim.
func (s *service) PurchaseListing(ctx context.Context, buyerID, listingID string) (domain.Listing, error) {
	log := logger.FromContext(ctx)

	listing, err := s.market.BeginPurchase(ctx, listingID, buyerID)
	if err != nil {
		return domain.Listing{}, err
	}

	if err := s.ledger.Transfer(ctx, buyerID, listing.SellerID, listing.Price); err != nil {
		if abortErr := s.market.AbortPurchase(ctx, listingID); abortErr != nil {
			log.Error("Failed to reopen listing after payment failure",
				"listing_id", listingID, "error", abortErr)
		}
		return domain.Listing{}, err
	}

	item := listing.Item
	item.OwnerID = buyerID
	if err := s.inventory.RestoreItem(ctx, item); err != nil {
		// Unwind the payment and the claim.
		if refundErr := s.ledger.Transfer(ctx, listing.SellerID, buyerID, listing.Price); refundErr != nil {
			log.Error("Failed to refund buyer after delivery failure",
				"listing_id", listingID, "error", refundErr)
		}
		if abortErr := s.market.AbortPurchase(ctx, listingID); abortErr != nil {
			log.Error("Failed to reopen listing after delivery failure",
				"listing_id", listingID, "error", abortErr)
		}
		return domain.Listing{}, err
	}

	log.Info("Listing sold",
		"listing_id", listingID,
		"buyer_id", buyerID,
		"seller_id", listing.SellerID,
		"price", listing.Price)

	s.publish(ctx, event.NewListingSoldEvent(listing, buyerID))
	return listing, nil
}

// WithdrawListing closes an active listing and returns the item to the
// seller's inventory.
func (s *service) WithdrawListing(ctx context.Context, sellerID, listingID string) (domain.Listing, error) {
	listing, err := s.market.Withdraw(ctx, listingID, sellerID)
	if err != nil {
		return domain.Listing{}, err
	}

	if err := s.inventory.RestoreItem(ctx, listing.Item); err != nil {
		// The listing is closed either way; losing the item is worse
		// than a noisy log line.
		logger.FromContext(ctx).Error("Failed to return item after withdrawal",
			"listing_id", listingID, "item_id", listing.Item.ID, "error", err)
		return domain.Listing{}, err
	}

	s.publish(ctx, event.NewListingWithdrawnEvent(listing))
	return listing, nil
}

func (s *service) ListActiveListings(ctx context.Context) ([]domain.Listing, error) {
	return s.market.ListActive(ctx)
}

// SendMessage appends to the listing's chat thread. The thread outlives
// the sale, so post-sale coordination between buyer and seller works.
func (s *service) SendMessage(ctx context.Context, senderID, listingID, text string) (domain.ChatMessage, error) {
	if _, err := s.users.GetByID(ctx, senderID); err != nil {
		return domain.ChatMessage{}, err
	}
	if _, err := s.market.Get(ctx, listingID); err != nil {
		return domain.ChatMessage{}, err
	}

	msg, err := s.chat.AppendMessage(ctx, listingID, senderID, text)
	if err != nil {
		return domain.ChatMessage{}, err
	}

	s.publish(ctx, event.NewMessageSentEvent(msg))
	return msg, nil
}

func (s *service) Messages(ctx context.Context, listingID string) ([]domain.ChatMessage, error) {
	if _, err := s.market.Get(ctx, listingID); err != nil {
		return nil, err
	}
	return s.chat.Messages(ctx, listingID)
}

// publish dispatches the event asynchronously with a detached context,
// so a cancelled request cannot lose its audit trail.
func (s *service) publish(ctx context.Context, evt event.Event) {
	requestID := logger.GetRequestID(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		bgCtx := context.Background()
		if requestID != "" {
			bgCtx = logger.WithRequestID(bgCtx, requestID)
		}
		if err := s.bus.Publish(bgCtx, evt); err != nil {
			logger.FromContext(bgCtx).Error("Failed to publish event", "type", evt.Type, "error", err)
		}
	}()
}

func (s *service) refund(ctx context.Context, userID string, amount int64, cause string) {
	if _, err := s.ledger.Credit(ctx, userID, amount); err != nil {
		logger.FromContext(ctx).Error("Failed to refund case price",
			"user_id", userID, "amount", amount, "cause", cause, "error", err)
	}
}

// Shutdown waits for in-flight event publications to finish, or gives
// up when ctx expires.
func (s *service) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down economy engine")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Economy engine shutdown complete")
		return nil
	case <-ctx.Done():
		log.Warn("Economy engine shutdown timed out")
		return fmt.Errorf("engine shutdown: %w", ctx.Err())
	}
}
