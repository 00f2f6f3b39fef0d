package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/yutashop/storefront/internal/application/auth"
	domauth "github.com/yutashop/storefront/internal/domain/auth"
)

type stubStore struct {
	stored  domauth.Session
	loadErr error
	saveErr error
	cleared bool
}

func (s *stubStore) Load(context.Context) (domauth.Session, error) {
	return s.stored, s.loadErr
}

func (s *stubStore) Save(_ context.Context, session domauth.Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.stored = session
	return nil
}

func (s *stubStore) Clear(context.Context) error {
	s.cleared = true
	s.stored = domauth.Session{}
	return nil
}

type stubClient struct {
	session domauth.Session
	err     error
}

func (c *stubClient) Login(context.Context, string, string) (domauth.Session, error) {
	return c.session, c.err
}

type stubCarts struct{ cleared bool }

func (c *stubCarts) Clear(context.Context) error {
	c.cleared = true
	return nil
}

func sessionFor(username string) domauth.Session {
	return domauth.Session{
		User:  &domauth.User{ID: 1, Username: username, Email: username + "@example.com"},
		Token: "token-abc",
	}
}

func TestBootstrap_RestoresStoredSession(t *testing.T) {
	store := &stubStore{stored: sessionFor("yuta")}
	svc := appauth.NewService(store, &stubClient{}, &stubCarts{}, nil)

	require.NoError(t, svc.Bootstrap(context.Background()))

	current := svc.Current(context.Background())
	assert.True(t, current.Authenticated())
	assert.Equal(t, "yuta", current.User.Username)
}

func TestBootstrap_MissingSessionLeavesLoggedOut(t *testing.T) {
	svc := appauth.NewService(&stubStore{}, &stubClient{}, &stubCarts{}, nil)

	require.NoError(t, svc.Bootstrap(context.Background()))

	assert.False(t, svc.Current(context.Background()).Authenticated())
}

func TestBootstrap_LoadFailure(t *testing.T) {
	store := &stubStore{loadErr: errors.New("disk gone")}
	svc := appauth.NewService(store, &stubClient{}, &stubCarts{}, nil)

	err := svc.Bootstrap(context.Background())

	assert.Error(t, err)
	assert.False(t, svc.Current(context.Background()).Authenticated())
}

func TestLogin_SetsCurrentAndPersists(t *testing.T) {
	store := &stubStore{}
	client := &stubClient{session: sessionFor("yuta")}
	svc := appauth.NewService(store, client, &stubCarts{}, nil)

	session, err := svc.Login(context.Background(), "yuta", "pw")

	require.NoError(t, err)
	assert.Equal(t, "token-abc", session.Token)
	assert.True(t, svc.Current(context.Background()).Authenticated())
	assert.Equal(t, "token-abc", store.stored.Token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	client := &stubClient{err: domauth.ErrInvalidCredentials}
	svc := appauth.NewService(&stubStore{}, client, &stubCarts{}, nil)

	_, err := svc.Login(context.Background(), "yuta", "wrong")

	assert.ErrorIs(t, err, domauth.ErrInvalidCredentials)
	assert.False(t, svc.Current(context.Background()).Authenticated())
}

func TestLogin_PersistFailureStillLogsIn(t *testing.T) {
	store := &stubStore{saveErr: errors.New("disk full")}
	client := &stubClient{session: sessionFor("yuta")}
	svc := appauth.NewService(store, client, &stubCarts{}, nil)

	_, err := svc.Login(context.Background(), "yuta", "pw")

	require.NoError(t, err, "persistence is best-effort; the in-memory session wins")
	assert.True(t, svc.Current(context.Background()).Authenticated())
}

func TestLogout_ClearsCartSessionAndStore(t *testing.T) {
	store := &stubStore{}
	carts := &stubCarts{}
	client := &stubClient{session: sessionFor("yuta")}
	svc := appauth.NewService(store, client, carts, nil)
	_, err := svc.Login(context.Background(), "yuta", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background()))

	assert.True(t, carts.cleared)
	assert.True(t, store.cleared)
	assert.False(t, svc.Current(context.Background()).Authenticated())
}

func TestAttachCartClearer_LateWiring(t *testing.T) {
	store := &stubStore{}
	client := &stubClient{session: sessionFor("yuta")}
	svc := appauth.NewService(store, client, nil, nil)
	_, err := svc.Login(context.Background(), "yuta", "pw")
	require.NoError(t, err)

	carts := &stubCarts{}
	svc.AttachCartClearer(carts)

	require.NoError(t, svc.Logout(context.Background()))
	assert.True(t, carts.cleared)
}
