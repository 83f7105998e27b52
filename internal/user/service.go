package user

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge/internal/domain"
	"github.com/caseforge/caseforge/internal/ledger"
	"github.com/caseforge/caseforge/internal/logger"
)

const (
	// DefaultCacheSize bounds the username lookup cache.
	DefaultCacheSize = 1024
	// DefaultCacheTTL keeps cached profiles for five minutes.
	DefaultCacheTTL = 5 * time.Minute
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// Service manages user accounts. Balances live in the ledger; a user
// returned from any method carries the balance as of the lookup.
type Service interface {
	Register(ctx context.Context, username, email string) (domain.User, error)
	GetByID(ctx context.Context, userID string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	// AdjustBalance applies an admin correction, positive or negative.
	// A negative delta is subject to the ledger's funds check.
	AdjustBalance(ctx context.Context, userID string, delta int64, reason string) (int64, error)
}

type profile struct {
	ID        string
	Username  string
	Email     string
	IsAdmin   bool
	CreatedAt time.Time
}

type service struct {
	mu              sync.RWMutex
	byID            map[string]profile
	idByUsername    map[string]string
	ledger          ledger.Service
	cache           *userCache
	startingBalance int64
	now             func() time.Time
}

// NewService creates the user service. startingBalance is granted to
// every new account. now may be nil, in which case time.Now is used.
func NewService(ledgerSvc ledger.Service, startingBalance int64, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		byID:            make(map[string]profile),
		idByUsername:    make(map[string]string),
		ledger:          ledgerSvc,
		cache:           newUserCache(DefaultCacheSize, DefaultCacheTTL),
		startingBalance: startingBalance,
		now:             now,
	}
}

func (s *service) Register(ctx context.Context, username, email string) (domain.User, error) {
	log := logger.FromContext(ctx)

	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return domain.User{}, fmt.Errorf("%w: username must be 3-32 characters of letters, digits or underscore", domain.ErrInvalidInput)
	}
	email = strings.TrimSpace(email)

	key := strings.ToLower(username)

	s.mu.Lock()
	if _, taken := s.idByUsername[key]; taken {
		s.mu.Unlock()
		return domain.User{}, fmt.Errorf("%w: username %s", domain.ErrUserExists, username)
	}
	p := profile{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		CreatedAt: s.now().UTC(),
	}
	s.byID[p.ID] = p
	s.idByUsername[key] = p.ID
	s.mu.Unlock()

	if err := s.ledger.CreateAccount(ctx, p.ID, s.startingBalance); err != nil {
		// Roll the profile back so the username is not burned.
		s.mu.Lock()
		delete(s.byID, p.ID)
		delete(s.idByUsername, key)
		s.mu.Unlock()
		return domain.User{}, fmt.Errorf("create ledger account: %w", err)
	}

	log.Info("User registered", "user_id", p.ID, "username", p.Username)
	return s.toUser(p, s.startingBalance), nil
}

func (s *service) GetByID(ctx context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	p, ok := s.byID[userID]
	s.mu.RUnlock()
	if !ok {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return s.withBalance(ctx, p)
}

func (s *service) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	key := strings.ToLower(strings.TrimSpace(username))

	// The cache holds profile data only; the balance is always read
	// fresh from the ledger so a cached hit can never be stale money.
	if cached, ok := s.cache.Get(key); ok {
		balance, err := s.ledger.GetBalance(ctx, cached.ID)
		if err != nil {
			return domain.User{}, err
		}
		cached.Balance = balance
		return cached, nil
	}

	s.mu.RLock()
	id, ok := s.idByUsername[key]
	p := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, username)
	}

	user, err := s.withBalance(ctx, p)
	if err != nil {
		return domain.User{}, err
	}
	s.cache.Set(key, user)
	return user, nil
}

func (s *service) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	profiles := make([]profile, 0, len(s.byID))
	for _, p := range s.byID {
		profiles = append(profiles, p)
	}
	s.mu.RUnlock()

	sort.Slice(profiles, func(i, j int) bool {
		if !profiles[i].CreatedAt.Equal(profiles[j].CreatedAt) {
			return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
		}
		return profiles[i].ID < profiles[j].ID
	})

	users := make([]domain.User, 0, len(profiles))
	for _, p := range profiles {
		user, err := s.withBalance(ctx, p)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *service) AdjustBalance(ctx context.Context, userID string, delta int64, reason string) (int64, error) {
	log := logger.FromContext(ctx)

	s.mu.RLock()
	p, ok := s.byID[userID]
	s.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	if delta == 0 {
		return 0, fmt.Errorf("%w: zero adjustment", domain.ErrInvalidInput)
	}

	var newBalance int64
	var err error
	if delta > 0 {
		newBalance, err = s.ledger.Credit(ctx, userID, delta)
	} else {
		newBalance, err = s.ledger.Debit(ctx, userID, -delta)
	}
	if err != nil {
		return 0, err
	}

	s.cache.Invalidate(strings.ToLower(p.Username))
	log.Info("Balance adjusted", "user_id", userID, "delta", delta, "reason", reason, "new_balance", newBalance)
	return newBalance, nil
}

func (s *service) withBalance(ctx context.Context, p profile) (domain.User, error) {
	balance, err := s.ledger.GetBalance(ctx, p.ID)
	if err != nil {
		return domain.User{}, err
	}
	return s.toUser(p, balance), nil
}

func (s *service) toUser(p profile, balance int64) domain.User {
	return domain.User{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		Balance:   balance,
		IsAdmin:   p.IsAdmin,
		CreatedAt: p.CreatedAt,
	}
}
