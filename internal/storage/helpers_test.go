package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/securebank/securebank-init/internal/crypto"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *crypto.CardCipher {
	t.Helper()
	cipher, err := crypto.NewCardCipher("storage-test-card-key")
	require.NoError(t, err)
	t.Cleanup(cipher.Destroy)
	return cipher
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), Options{
		Path:       filepath.Join(t.TempDir(), "data", "banking.db"),
		CardCipher: newTestCipher(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { closeStoreNoErr(t, store) })
	return store
}

func newProvisionedStore(t *testing.T) *Store {
	t.Helper()
	store := openTestStore(t)
	report, err := EnsureSchema(context.Background(), store, SchemaOptions{Strict: true})
	require.NoError(t, err)
	require.True(t, report.Complete())
	return store
}

func closeStoreNoErr(t *testing.T, store *Store) {
	t.Helper()
	require.NoError(t, store.Close())
}

func objectNames(t *testing.T, store *Store, kind string) []string {
	t.Helper()
	rows, err := store.DB().Query(`SELECT name FROM sqlite_master WHERE type = ? AND name NOT LIKE 'sqlite_%' ORDER BY name`, kind)
	require.NoError(t, err)
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func countRows(t *testing.T, store *Store, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().QueryRow(query, args...).Scan(&n))
	return n
}

func createTestUser(t *testing.T, store *Store, email string) *User {
	t.Helper()
	user := &User{Email: email, PasswordHash: "hash", FirstName: "Test", LastName: "User"}
	created, err := store.Users.CreateIfAbsent(context.Background(), user)
	require.NoError(t, err)
	require.True(t, created)
	return user
}

func createTestAccount(t *testing.T, store *Store, userID int64, number string) *Account {
	t.Helper()
	account := &Account{UserID: userID, AccountType: "Checking", AccountNumber: number, Balance: 100}
	require.NoError(t, store.Accounts.Create(context.Background(), account))
	return account
}
