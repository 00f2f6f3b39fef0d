package auth

import (
	"context"
	"fmt"
	"sync"

	domauth "github.com/yutashop/storefront/internal/domain/auth"
	"github.com/yutashop/storefront/internal/observability"
	"github.com/yutashop/storefront/internal/observability/logctx"
)

const componentAuthService = "auth_service"

// Client is the login collaborator: it exchanges credentials for a session.
type Client interface {
	Login(ctx context.Context, username, password string) (domauth.Session, error)
}

// CartClearer empties the cart on logout.
type CartClearer interface {
	Clear(ctx context.Context) error
}

// Service owns the in-memory session and mirrors it to durable local
// storage so it survives process restarts. Everything else resets on reload.
type Service struct {
	mu      sync.RWMutex
	current domauth.Session

	store  domauth.SessionStore
	client Client
	carts  CartClearer
	log    observability.Logger
}

func NewService(store domauth.SessionStore, client Client, carts CartClearer, tel observability.Observability) *Service {
	baseLog := observability.NopLogger()
	if tel != nil {
		baseLog = tel.Logger()
	}
	return &Service{
		store:  store,
		client: client,
		carts:  carts,
		log:    baseLog.With(observability.F("component", componentAuthService)),
	}
}

// AttachCartClearer wires the cart collaborator after construction. The
// cart service needs the session reader, so one side has to attach late.
func (s *Service) AttachCartClearer(carts CartClearer) {
	s.mu.Lock()
	s.carts = carts
	s.mu.Unlock()
}

// Bootstrap seeds the session from durable storage at process start.
// A missing or unreadable stored session leaves the shopper logged out.
func (s *Service) Bootstrap(ctx context.Context) error {
	session, err := s.store.Load(ctx)
	if err != nil {
		logctx.FromOr(ctx, s.log).Warn("session_load_failed",
			observability.F("error", err.Error()),
		)
		return fmt.Errorf("auth: bootstrap: %w", err)
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()

	if session.Authenticated() {
		logctx.FromOr(ctx, s.log).Info("session_restored",
			observability.F("username", session.User.Username),
		)
	}
	return nil
}

func (s *Service) Login(ctx context.Context, username, password string) (domauth.Session, error) {
	logger := logctx.FromOr(ctx, s.log)

	session, err := s.client.Login(ctx, username, password)
	if err != nil {
		logger.Warn("login_failed",
			observability.F("username", username),
			observability.F("error", err.Error()),
		)
		return domauth.Session{}, err
	}

	if err := s.store.Save(ctx, session); err != nil {
		// The in-memory session still works; only restart persistence is lost.
		logger.Warn("session_save_failed", observability.F("error", err.Error()))
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()

	logger.Info("login_success", observability.F("username", username))
	return session, nil
}

// Logout clears the cart, flips the session to unauthenticated, and drops
// the stored token and user.
func (s *Service) Logout(ctx context.Context) error {
	logger := logctx.FromOr(ctx, s.log)

	s.mu.RLock()
	carts := s.carts
	s.mu.RUnlock()
	if carts != nil {
		if err := carts.Clear(ctx); err != nil {
			logger.Warn("logout_cart_clear_failed", observability.F("error", err.Error()))
		}
	}
	if err := s.store.Clear(ctx); err != nil {
		logger.Warn("session_clear_failed", observability.F("error", err.Error()))
	}

	s.mu.Lock()
	s.current = domauth.Session{}
	s.mu.Unlock()

	logger.Info("logout")
	return nil
}

func (s *Service) Current(ctx context.Context) domauth.Session {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
