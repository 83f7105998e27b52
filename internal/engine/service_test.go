package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseforge/caseforge/internal/catalog"
	"github.com/caseforge/caseforge/internal/chat"
	"github.com/caseforge/caseforge/internal/concurrency"
	"github.com/caseforge/caseforge/internal/domain"
	"github.com/caseforge/caseforge/internal/event"
	"github.com/caseforge/caseforge/internal/eventlog"
	"github.com/caseforge/caseforge/internal/inventory"
	"github.com/caseforge/caseforge/internal/ledger"
	"github.com/caseforge/caseforge/internal/market"
	"github.com/caseforge/caseforge/internal/rarity"
	"github.com/caseforge/caseforge/internal/user"
)

const catalogFixture = `{
  "cases": [
    {
      "id": "starter",
      "name": "Starter Case",
      "rarity": "common",
      "price": 50,
      "active": true,
      "weights": { "common": 0.5, "rare": 0.3, "epic": 0.15, "legendary": 0.05 }
    },
    {
      "id": "vault",
      "name": "Vault Case",
      "rarity": "legendary",
      "price": 500,
      "active": false,
      "weights": { "common": 0.3, "rare": 0.3, "epic": 0.25, "legendary": 0.15 }
    }
  ],
  "items": [
    { "name": "Flame Sword", "rarity": "legendary", "visual_key": "flame-sword" },
    { "name": "Hero Shield", "rarity": "epic", "visual_key": "hero-shield" },
    { "name": "Iron Sword", "rarity": "rare", "visual_key": "iron-sword" },
    { "name": "Bread", "rarity": "common", "visual_key": "bread" }
  ]
}`

// sequenceRnd returns the given values in order, then repeats the last.
func sequenceRnd(values ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}

type testEnv struct {
	engine    Service
	ledger    ledger.Service
	inventory inventory.Service
	market    market.Service
	users     user.Service
	audit     eventlog.Service
}

func newTestEnv(t *testing.T, rnd func() float64) *testEnv {
	t.Helper()

	catalogSvc, err := catalog.NewServiceFromBytes([]byte(catalogFixture))
	require.NoError(t, err)

	locks := concurrency.NewLockManager()
	ledgerSvc := ledger.NewService(locks)
	inventorySvc := inventory.NewService(nil)
	marketSvc := market.NewService(nil)
	chatSvc := chat.NewService(nil)
	userSvc := user.NewService(ledgerSvc, 1000, nil)

	bus := event.NewMemoryBus()
	auditSvc := eventlog.NewService(eventlog.NewMemoryRepository(nil))
	require.NoError(t, auditSvc.Subscribe(bus))

	eng := NewService(
		catalogSvc,
		rarity.NewResolver(catalogSvc, rnd),
		ledgerSvc,
		inventorySvc,
		marketSvc,
		chatSvc,
		userSvc,
		bus,
	)

	return &testEnv{
		engine:    eng,
		ledger:    ledgerSvc,
		inventory: inventorySvc,
		market:    marketSvc,
		users:     userSvc,
		audit:     auditSvc,
	}
}

// drain waits for async event publications so audit assertions are stable.
func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.engine.Shutdown(ctx))
}

func (e *testEnv) registerUser(t *testing.T, username string) domain.User {
	t.Helper()
	u, err := e.engine.RegisterUser(context.Background(), username, username+"@example.com")
	require.NoError(t, err)
	return u
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	registered := env.registerUser(t, "alice")
	assert.Equal(t, int64(1000), registered.Balance)

	env.drain(t)
	entries, err := env.audit.ByUser(ctx, registered.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EventTypeUserRegistered, entries[0].EventType)
}

func TestOpenCase_LowRollAwardsLegendary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.02, 0.0))
	alice := env.registerUser(t, "alice")

	result, err := env.engine.OpenCase(ctx, alice.ID, "starter")
	require.NoError(t, err)
	assert.Equal(t, domain.RarityLegendary, result.Item.Template.Rarity)
	assert.Equal(t, "Flame Sword", result.Item.Template.Name)
	assert.Equal(t, int64(950), result.NewBalance)

	items, err := env.inventory.ListItemsOf(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, result.Item.ID, items[0].ID)

	env.drain(t)
	entries, err := env.audit.ByUser(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, domain.EventTypeCaseOpened, entries[0].EventType)
}

func TestOpenCase_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9))
	alice := env.registerUser(t, "alice")

	// Drain the account to below the case price.
	_, err := env.ledger.Debit(ctx, alice.ID, 970)
	require.NoError(t, err)

	_, err = env.engine.OpenCase(ctx, alice.ID, "starter")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	balance, err := env.ledger.GetBalance(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), balance, "failed opening leaves the balance untouched")
}

func TestOpenCase_InactiveCase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	alice := env.registerUser(t, "alice")

	_, err := env.engine.OpenCase(ctx, alice.ID, "vault")
	assert.ErrorIs(t, err, domain.ErrCaseNotFound)
}

func TestOpenCase_UnknownCase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	alice := env.registerUser(t, "alice")

	_, err := env.engine.OpenCase(ctx, alice.ID, "no-such-case")
	assert.ErrorIs(t, err, domain.ErrCaseNotFound)
}

func TestOpenCase_UnknownUser(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.engine.OpenCase(context.Background(), "ghost", "starter")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

// failingInventory rejects AddItem so delivery failure paths can be tested.
type failingInventory struct {
	inventory.Service
}

func (f *failingInventory) AddItem(ctx context.Context, ownerID string, template domain.ItemTemplate) (domain.InventoryItem, error) {
	return domain.InventoryItem{}, errors.New("inventory store unavailable")
}

func TestOpenCase_DeliveryFailureRefundsDebit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")

	catalogSvc, err := catalog.NewServiceFromBytes([]byte(catalogFixture))
	require.NoError(t, err)
	broken := NewService(
		catalogSvc,
		rarity.NewResolver(catalogSvc, sequenceRnd(0.9, 0.0)),
		env.ledger,
		&failingInventory{Service: env.inventory},
		env.market,
		chat.NewService(nil),
		env.users,
		event.NewMemoryBus(),
	)

	_, err = broken.OpenCase(ctx, alice.ID, "starter")
	require.Error(t, err)

	balance, err := env.ledger.GetBalance(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance, "debit was refunded")

	items, err := env.inventory.ListItemsOf(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func openCaseFor(t *testing.T, env *testEnv, userID string) domain.InventoryItem {
	t.Helper()
	result, err := env.engine.OpenCase(context.Background(), userID, "starter")
	require.NoError(t, err)
	return result.Item
}

func TestCreateListing_MovesItemOutOfInventory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	item := openCaseFor(t, env, alice.ID)

	listing, err := env.engine.CreateListing(ctx, alice.ID, item.ID, 120, "fresh drop")
	require.NoError(t, err)
	assert.Equal(t, domain.ListingActive, listing.Status)

	// Listed items are not in the inventory and cannot be listed twice.
	items, err := env.inventory.ListItemsOf(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = env.engine.CreateListing(ctx, alice.ID, item.ID, 120, "")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestCreateListing_RejectedPriceReturnsItem(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	item := openCaseFor(t, env, alice.ID)

	_, err := env.engine.CreateListing(ctx, alice.ID, item.ID, -5, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	items, err := env.inventory.ListItemsOf(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
}

func TestCreateListing_NotOwnedItem(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	item := openCaseFor(t, env, alice.ID)

	_, err := env.engine.CreateListing(ctx, bob.ID, item.ID, 100, "")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestPurchaseListing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	item := openCaseFor(t, env, alice.ID)

	listing, err := env.engine.CreateListing(ctx, alice.ID, item.ID, 200, "")
	require.NoError(t, err)

	sold, err := env.engine.PurchaseListing(ctx, bob.ID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingSold, sold.Status)

	// Money moved: alice paid 50 for the case, earned 200 from the sale.
	aliceBalance, _ := env.ledger.GetBalance(ctx, alice.ID)
	bobBalance, _ := env.ledger.GetBalance(ctx, bob.ID)
	assert.Equal(t, int64(1150), aliceBalance)
	assert.Equal(t, int64(800), bobBalance)

	// Item belongs to the buyer now.
	items, err := env.inventory.ListItemsOf(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, bob.ID, items[0].OwnerID)
}

func TestPurchaseListing_OwnListing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	item := openCaseFor(t, env, alice.ID)

	listing, err := env.engine.CreateListing(ctx, alice.ID, item.ID, 100, "")
	require.NoError(t, err)

	_, err = env.engine.PurchaseListing(ctx, alice.ID, listing.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestPurchaseListing_InsufficientFundsReopensListing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	item := openCaseFor(t, env, alice.ID)

	listing, err := env.engine.CreateListing(ctx, alice.ID, item.ID, 5000, "")
	require.NoError(t, err)

	_, err = env.engine.PurchaseListing(ctx, bob.ID, listing.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// The listing is active again and nobody's balance moved.
	reopened, err := env.market.Get(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingActive, reopened.Status)

	bobBalance, _ := env.ledger.GetBalance(ctx, bob.ID)
	assert.Equal(t, int64(1000), bobBalance)
}

func TestPurchaseListing_ConcurrentBuyersExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	item := openCaseFor(t, env, alice.ID)

	listing, err := env.engine.CreateListing(ctx, alice.ID, item.ID, 100, "")
	require.NoError(t, err)

	const buyerCount = 8
	buyers := make([]domain.User, buyerCount)
	for i := range buyers {
		buyers[i] = env.registerUser(t, "buyer"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	winners := make(chan string, buyerCount)
	for _, buyer := range buyers {
		wg.Add(1)
		go func(buyerID string) {
			defer wg.Done()
			if _, err := env.engine.PurchaseListing(ctx, buyerID, listing.ID); err == nil {
				winners <- buyerID
			} else {
				assert.ErrorIs(t, err, domain.ErrAlreadySold)
			}
		}(buyer.ID)
	}
	wg.Wait()
	close(winners)

	var winnerID string
	count := 0
	for id := range winners {
		winnerID = id
		count++
	}
	require.Equal(t, 1, count, "exactly one buyer wins")

	// Winner paid, everyone else kept their money, item went to the winner.
	total := int64(0)
	for _, buyer := range buyers {
		balance, err := env.ledger.GetBalance(ctx, buyer.ID)
		require.NoError(t, err)
		total += balance
		if buyer.ID == winnerID {
			assert.Equal(t, int64(900), balance)
			items, err := env.inventory.ListItemsOf(ctx, buyer.ID)
			require.NoError(t, err)
			assert.Len(t, items, 1)
		} else {
			assert.Equal(t, int64(1000), balance)
		}
	}
	aliceBalance, _ := env.ledger.GetBalance(ctx, alice.ID)
	assert.Equal(t, int64(1050), aliceBalance)
	assert.Equal(t, int64(buyerCount*1000-100), total, "buyers collectively paid exactly once")
}

func TestWithdrawListing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	item := openCaseFor(t, env, alice.ID)

	listing, err := env.engine.CreateListing(ctx, alice.ID, item.ID, 100, "")
	require.NoError(t, err)

	withdrawn, err := env.engine.WithdrawListing(ctx, alice.ID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingWithdrawn, withdrawn.Status)

	items, err := env.inventory.ListItemsOf(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
}

func TestWithdrawListing_NotSeller(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	item := openCaseFor(t, env, alice.ID)

	listing, err := env.engine.CreateListing(ctx, alice.ID, item.ID, 100, "")
	require.NoError(t, err)

	_, err = env.engine.WithdrawListing(ctx, bob.ID, listing.ID)
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	item := openCaseFor(t, env, alice.ID)

	listing, err := env.engine.CreateListing(ctx, alice.ID, item.ID, 100, "")
	require.NoError(t, err)

	msg, err := env.engine.SendMessage(ctx, bob.ID, listing.ID, "still available?")
	require.NoError(t, err)
	assert.Equal(t, int64(1), msg.Seq)

	msgs, err := env.engine.Messages(ctx, listing.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, bob.ID, msgs[0].SenderID)
}

func TestSendMessage_ThreadSurvivesSale(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	item := openCaseFor(t, env, alice.ID)

	listing, err := env.engine.CreateListing(ctx, alice.ID, item.ID, 100, "")
	require.NoError(t, err)
	_, err = env.engine.SendMessage(ctx, bob.ID, listing.ID, "buying this")
	require.NoError(t, err)
	_, err = env.engine.PurchaseListing(ctx, bob.ID, listing.ID)
	require.NoError(t, err)

	msg, err := env.engine.SendMessage(ctx, alice.ID, listing.ID, "thanks, enjoy")
	require.NoError(t, err)
	assert.Equal(t, int64(2), msg.Seq)
}

func TestSendMessage_UnknownListing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	alice := env.registerUser(t, "alice")

	_, err := env.engine.SendMessage(ctx, alice.ID, "no-such-listing", "hello?")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestSendMessage_UnknownSender(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sequenceRnd(0.9, 0.0))
	alice := env.registerUser(t, "alice")
	item := openCaseFor(t, env, alice.ID)
	listing, err := env.engine.CreateListing(ctx, alice.ID, item.ID, 100, "")
	require.NoError(t, err)

	_, err = env.engine.SendMessage(ctx, "ghost", listing.ID, "hello?")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestAdjustBalance_Audited(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	alice := env.registerUser(t, "alice")

	newBalance, err := env.engine.AdjustBalance(ctx, alice.ID, 500, "event prize")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), newBalance)

	env.drain(t)
	entries, err := env.audit.ByUser(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, domain.EventTypeBalanceAdjusted, entries[0].EventType)
	assert.Equal(t, "event prize", entries[0].Payload["reason"])
}
