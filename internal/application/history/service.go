package history

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domorder "github.com/yutashop/storefront/internal/domain/order"
	"github.com/yutashop/storefront/internal/observability"
	"github.com/yutashop/storefront/internal/observability/logctx"
)

// ErrClearNotRequested is returned when a confirm arrives without a prior
// clear request: emptying history takes two distinct calls.
var ErrClearNotRequested = errors.New("history: no clear request to confirm")

const componentHistoryService = "history_service"

// Service serves the order history and guards the irreversible bulk clear
// behind a request/confirm handshake.
type Service struct {
	repo domorder.HistoryRepository

	mu             sync.Mutex
	clearRequested bool

	log observability.Logger
}

func NewService(repo domorder.HistoryRepository, tel observability.Observability) *Service {
	baseLog := observability.NopLogger()
	if tel != nil {
		baseLog = tel.Logger()
	}
	return &Service{
		repo: repo,
		log:  baseLog.With(observability.F("component", componentHistoryService)),
	}
}

func (s *Service) List(ctx context.Context) ([]*domorder.Order, error) {
	return s.repo.List(ctx)
}

// RequestClear arms the clear; nothing is deleted yet.
func (s *Service) RequestClear(ctx context.Context) {
	s.mu.Lock()
	s.clearRequested = true
	s.mu.Unlock()

	logctx.FromOr(ctx, s.log).Info("history_clear_requested")
}

// ConfirmClear empties the history, but only if a request is armed.
func (s *Service) ConfirmClear(ctx context.Context) error {
	s.mu.Lock()
	armed := s.clearRequested
	s.clearRequested = false
	s.mu.Unlock()

	if !armed {
		return ErrClearNotRequested
	}
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("history: clear: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("history_cleared")
	return nil
}

// CancelClear disarms a pending clear request.
func (s *Service) CancelClear(ctx context.Context) {
	s.mu.Lock()
	s.clearRequested = false
	s.mu.Unlock()

	logctx.FromOr(ctx, s.log).Info("history_clear_canceled")
}

func (s *Service) ClearRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearRequested
}
