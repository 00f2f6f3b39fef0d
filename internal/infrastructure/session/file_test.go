package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yutashop/storefront/internal/domain/auth"
)

func testSession() auth.Session {
	return auth.Session{
		User:  &auth.User{ID: 1, Username: "yuta", Email: "yuta@example.com"},
		Token: "token-abc",
	}
}

func TestLoad_MissingFileMeansLoggedOut(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	session, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.False(t, session.Authenticated())
	assert.Nil(t, session.User)
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Authenticated())
	assert.Equal(t, "token-abc", loaded.Token)
	require.NotNil(t, loaded.User)
	assert.Equal(t, "yuta", loaded.User.Username)
}

func TestSave_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(context.Background(), testSession()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestClear_RemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testSession()))

	require.NoError(t, store.Clear(ctx))

	session, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, session.Authenticated())
}

func TestClear_MissingFileIsNoOp(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	assert.NoError(t, store.Clear(context.Background()))
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store := NewFileStore(path)

	_, err := store.Load(context.Background())

	assert.Error(t, err)
}
