package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/caseforge/caseforge/internal/concurrency"
	"github.com/caseforge/caseforge/internal/domain"
	"github.com/caseforge/caseforge/internal/logger"
)

// Service owns per-user currency balances. Every mutation is
// serialized per user through the lock manager, so a balance can never
// be observed mid-update and can never go negative.
type Service interface {
	CreateAccount(ctx context.Context, userID string, initial int64) error
	GetBalance(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64) (int64, error)
	Credit(ctx context.Context, userID string, amount int64) (int64, error)
	Transfer(ctx context.Context, fromID, toID string, amount int64) error
}

type service struct {
	mu       sync.RWMutex
	balances map[string]int64
	locks    *concurrency.LockManager
}

// NewService creates an empty ledger.
func NewService(locks *concurrency.LockManager) Service {
	return &service{
		balances: make(map[string]int64),
		locks:    locks,
	}
}

func (s *service) CreateAccount(ctx context.Context, userID string, initial int64) error {
	if initial < 0 {
		return fmt.Errorf("%w: initial balance %d", domain.ErrInvalidInput, initial)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.balances[userID]; exists {
		return fmt.Errorf("%w: account %s", domain.ErrUserExists, userID)
	}
	s.balances[userID] = initial
	return nil
}

func (s *service) GetBalance(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance, ok := s.balances[userID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return balance, nil
}

func (s *service) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: debit amount %d", domain.ErrInvalidInput, amount)
	}

	lock := s.locks.GetLock(balanceKey(userID))
	lock.Lock()
	defer lock.Unlock()

	return s.debitLocked(userID, amount)
}

func (s *service) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: credit amount %d", domain.ErrInvalidInput, amount)
	}

	lock := s.locks.GetLock(balanceKey(userID))
	lock.Lock()
	defer lock.Unlock()

	return s.creditLocked(userID, amount)
}

// Transfer debits fromID and credits toID as one atomic unit. Both
// balance locks are held for the duration, acquired in sorted order to
// avoid deadlock with a concurrent opposite-direction transfer.
func (s *service) Transfer(ctx context.Context, fromID, toID string, amount int64) error {
	log := logger.FromContext(ctx)

	if amount < 0 {
		return fmt.Errorf("%w: transfer amount %d", domain.ErrInvalidInput, amount)
	}
	if fromID == toID {
		return fmt.Errorf("%w: transfer to self", domain.ErrInvalidOperation)
	}

	unlock := s.locks.LockAll(balanceKey(fromID), balanceKey(toID))
	defer unlock()

	// Both accounts must exist before any mutation.
	s.mu.RLock()
	_, fromOK := s.balances[fromID]
	_, toOK := s.balances[toID]
	s.mu.RUnlock()
	if !fromOK {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, fromID)
	}
	if !toOK {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, toID)
	}

	if _, err := s.debitLocked(fromID, amount); err != nil {
		return err
	}
	if _, err := s.creditLocked(toID, amount); err != nil {
		// Unreachable with an existing account and non-negative amount,
		// but a transfer must never leave money destroyed.
		s.mu.Lock()
		s.balances[fromID] += amount
		s.mu.Unlock()
		log.Error("Transfer credit failed, debit reverted", "from", fromID, "to", toID, "error", err)
		return err
	}

	log.Debug("Transfer complete", "from", fromID, "to", toID, "amount", amount)
	return nil
}

// debitLocked assumes the caller holds the user's balance lock.
func (s *service) debitLocked(userID string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok := s.balances[userID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	if balance < amount {
		return 0, fmt.Errorf("%w: balance %d, need %d", domain.ErrInsufficientFunds, balance, amount)
	}
	s.balances[userID] = balance - amount
	return balance - amount, nil
}

// creditLocked assumes the caller holds the user's balance lock.
func (s *service) creditLocked(userID string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok := s.balances[userID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	s.balances[userID] = balance + amount
	return balance + amount, nil
}

func balanceKey(userID string) string {
	return "balance:" + userID
}
