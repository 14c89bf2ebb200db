package credentials_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirserve/dirserve/credentials"
)

func TestNewStore_Inline(t *testing.T) {
	store, err := credentials.NewStore(credentials.AccountsConfig{
		Inline: []string{"alice:hunter2", "bob:sha256:" + abcSHA256},
	})
	require.NoError(t, err)

	c, ok := store.Lookup("alice")
	require.True(t, ok)
	assert.True(t, c.Verify("hunter2"))

	c, ok = store.Lookup("bob")
	require.True(t, ok)
	assert.True(t, c.Verify("abc"))

	_, ok = store.Lookup("mallory")
	assert.False(t, ok)
}

func TestNewStore_InvalidInline(t *testing.T) {
	_, err := credentials.NewStore(credentials.AccountsConfig{Inline: []string{"nocolon"}})
	assert.ErrorIs(t, err, credentials.ErrInvalidAccount)
}

func TestNewStore_FileTakesPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts")
	require.NoError(t, os.WriteFile(path, []byte("alice:fromfile\n"), 0o600))

	store, err := credentials.NewStore(credentials.AccountsConfig{
		Inline: []string{"alice:inline", "bob:pw"},
		File:   path,
	})
	require.NoError(t, err)

	c, ok := store.Lookup("alice")
	require.True(t, ok)
	assert.True(t, c.Verify("fromfile"), "file accounts override inline accounts for the same user")
	assert.False(t, c.Verify("inline"))

	_, ok = store.Lookup("bob")
	assert.True(t, ok, "inline accounts without a file counterpart survive the merge")
}

func TestLoadAccountsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts")
	content := "# team accounts\n\nalice:hunter2\n  bob:sha256:" + abcSHA256 + "  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	creds, err := credentials.LoadAccountsFromFile(path)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.True(t, creds["alice"].Verify("hunter2"))
	assert.True(t, creds["bob"].Verify("abc"))
}

func TestLoadAccountsFromFile_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts")
	require.NoError(t, os.WriteFile(path, []byte("alice:ok\nbroken\n"), 0o600))

	_, err := credentials.LoadAccountsFromFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, credentials.ErrInvalidAccount)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadAccountsFromFile_Missing(t *testing.T) {
	_, err := credentials.LoadAccountsFromFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestMapStore_Empty(t *testing.T) {
	assert.True(t, credentials.NewMapStore(nil).Empty())

	c, err := credentials.ParseAccount("alice:pw")
	require.NoError(t, err)
	assert.False(t, credentials.NewMapStore(map[string]credentials.Credential{"alice": c}).Empty())
}
