package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caseforge/caseforge/internal/domain"
)

// Service stores per-listing chat threads. Messages within a thread are
// totally ordered by a sequence number assigned at append time; threads
// are independent of each other and of the listing's state, so buyers
// and sellers can keep talking after a sale closes.
type Service interface {
	AppendMessage(ctx context.Context, listingID, senderID, text string) (domain.ChatMessage, error)
	Messages(ctx context.Context, listingID string) ([]domain.ChatMessage, error)
}

type thread struct {
	nextSeq  int64
	messages []domain.ChatMessage
}

type service struct {
	mu      sync.RWMutex
	threads map[string]*thread
	now     func() time.Time
}

// NewService creates an empty chat store. now may be nil, in which case
// time.Now is used.
func NewService(now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		threads: make(map[string]*thread),
		now:     now,
	}
}

func (s *service) AppendMessage(ctx context.Context, listingID, senderID, text string) (domain.ChatMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}
	if len(trimmed) > domain.MaxMessageLength {
		return domain.ChatMessage{}, fmt.Errorf("%w: message exceeds %d characters", domain.ErrInvalidInput, domain.MaxMessageLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[listingID]
	if !ok {
		th = &thread{nextSeq: 1}
		s.threads[listingID] = th
	}

	msg := domain.ChatMessage{
		Seq:       th.nextSeq,
		ListingID: listingID,
		SenderID:  senderID,
		Text:      trimmed,
		SentAt:    s.now().UTC(),
	}
	th.nextSeq++
	th.messages = append(th.messages, msg)
	return msg, nil
}

func (s *service) Messages(ctx context.Context, listingID string) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	th, ok := s.threads[listingID]
	if !ok {
		return []domain.ChatMessage{}, nil
	}
	result := make([]domain.ChatMessage, len(th.messages))
	copy(result, th.messages)
	return result, nil
}
