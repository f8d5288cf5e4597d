package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserCreateIfAbsentIgnoresDuplicateEmail(t *testing.T) {
	t.Parallel()

	store := newProvisionedStore(t)
	first := createTestUser(t, store, "demo@securebank.com")

	again := &User{Email: "demo@securebank.com", PasswordHash: "other", FirstName: "Other", LastName: "Person"}
	created, err := store.Users.CreateIfAbsent(context.Background(), again)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, again.ID)

	stored, err := store.Users.GetByEmail(context.Background(), "demo@securebank.com")
	require.NoError(t, err)
	require.Equal(t, "hash", stored.PasswordHash)
	require.Equal(t, 1, countRows(t, store, `SELECT COUNT(*) FROM users`))
}

func TestGetByEmailNotFound(t *testing.T) {
	t.Parallel()

	store := newProvisionedStore(t)
	_, err := store.Users.GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAccountCreateAppliesColumnDefaults(t *testing.T) {
	t.Parallel()

	store := newProvisionedStore(t)
	user := createTestUser(t, store, "defaults@example.com")
	account := createTestAccount(t, store, user.ID, "1111111111")

	stored, err := store.Accounts.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.Equal(t, "121000248", stored.RoutingNumber)
	require.Equal(t, "USD", stored.Currency)
	require.Equal(t, "active", stored.Status)

	listed, err := store.Accounts.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestAccountNumberMustBeUnique(t *testing.T) {
	t.Parallel()

	store := newProvisionedStore(t)
	user := createTestUser(t, store, "unique@example.com")
	createTestAccount(t, store, user.ID, "1234567890")

	dup := &Account{UserID: user.ID, AccountType: "Savings", AccountNumber: "1234567890"}
	err := store.Accounts.Create(context.Background(), dup)
	require.Error(t, err)
	require.Contains(t, strings.ToLower(err.Error()), "unique")
}

func TestAccountRequiresExistingUser(t *testing.T) {
	t.Parallel()

	store := newProvisionedStore(t)
	orphan := &Account{UserID: 4242, AccountType: "Checking", AccountNumber: "5555555555"}
	err := store.Accounts.Create(context.Background(), orphan)
	require.Error(t, err)
	require.Contains(t, strings.ToLower(err.Error()), "foreign key")
}

func TestTransactionCreateRejectsUnknownType(t *testing.T) {
	t.Parallel()

	store := newProvisionedStore(t)
	user := createTestUser(t, store, "txn@example.com")
	account := createTestAccount(t, store, user.ID, "2222222222")

	err := store.Transactions.Create(context.Background(), &Transaction{AccountID: account.ID, Type: "refund", Amount: 1})
	require.Error(t, err)

	txn := &Transaction{AccountID: account.ID, Type: TransactionCredit, Amount: 10, Category: "Income"}
	require.NoError(t, store.Transactions.Create(context.Background(), txn))

	listed, err := store.Transactions.ListByAccount(context.Background(), account.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "completed", listed[0].Status)
}

func TestCardNumberAndCVVAreStoredEncrypted(t *testing.T) {
	t.Parallel()

	store := newProvisionedStore(t)
	user := createTestUser(t, store, "card@example.com")
	account := createTestAccount(t, store, user.ID, "3333333333")

	card := &Card{
		AccountID:      account.ID,
		Number:         "4532015112830366",
		CardBrand:      "Visa",
		ExpiryDate:     "12/2028",
		CardholderName: "John Doe",
		CVV:            "123",
	}
	require.NoError(t, store.Cards.Create(context.Background(), card))

	var rawNumber, rawCVV string
	require.NoError(t, store.DB().QueryRow(
		`SELECT card_number_encrypted, cvv FROM cards WHERE id = ?`, card.ID,
	).Scan(&rawNumber, &rawCVV))
	require.NotContains(t, rawNumber, "4532015112830366")
	require.NotEqual(t, "123", rawCVV)

	stored, err := store.Cards.Get(context.Background(), card.ID)
	require.NoError(t, err)
	require.Equal(t, "4532015112830366", stored.Number)
	require.Equal(t, "123", stored.CVV)
	require.Equal(t, "Debit", stored.CardType)
	require.Equal(t, "active", stored.Status)
	require.InDelta(t, 500.0, stored.DailyLimit, 0.001)
}

func TestDeletingUserCascadesToAccountsAndChildren(t *testing.T) {
	t.Parallel()

	store := newProvisionedStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "cascade@example.com")
	account := createTestAccount(t, store, user.ID, "4444444444")

	require.NoError(t, store.Transactions.Create(ctx, &Transaction{AccountID: account.ID, Type: TransactionDebit, Amount: 5}))
	require.NoError(t, store.Cards.Create(ctx, &Card{AccountID: account.ID, Number: "4000000000000002", ExpiryDate: "01/2030", CardholderName: "Test User"}))
	require.NoError(t, store.SavingsGoals.Create(ctx, &SavingsGoal{UserID: user.ID, GoalName: "Trip", TargetAmount: 100}))
	require.NoError(t, store.Investments.Create(ctx, &Investment{UserID: user.ID, InvestmentType: "Stock", Name: "Acme", Quantity: 1}))

	_, err := store.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, user.ID)
	require.NoError(t, err)

	require.Equal(t, 0, countRows(t, store, `SELECT COUNT(*) FROM accounts`))
	require.Equal(t, 0, countRows(t, store, `SELECT COUNT(*) FROM transactions`))
	require.Equal(t, 0, countRows(t, store, `SELECT COUNT(*) FROM cards`))
	require.Equal(t, 0, countRows(t, store, `SELECT COUNT(*) FROM savings_goals`))
	require.Equal(t, 0, countRows(t, store, `SELECT COUNT(*) FROM investments`))
}

func TestDeletingAccountCascadesToTransactionsAndCards(t *testing.T) {
	t.Parallel()

	store := newProvisionedStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "account-cascade@example.com")
	account := createTestAccount(t, store, user.ID, "6666666666")
	require.NoError(t, store.Transactions.Create(ctx, &Transaction{AccountID: account.ID, Type: TransactionDebit, Amount: 5}))
	require.NoError(t, store.Cards.Create(ctx, &Card{AccountID: account.ID, Number: "4000000000000002", ExpiryDate: "01/2030", CardholderName: "Test User"}))

	_, err := store.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, account.ID)
	require.NoError(t, err)

	require.Equal(t, 1, countRows(t, store, `SELECT COUNT(*) FROM users`))
	require.Equal(t, 0, countRows(t, store, `SELECT COUNT(*) FROM transactions`))
	require.Equal(t, 0, countRows(t, store, `SELECT COUNT(*) FROM cards`))
}

func TestDeletingUserOrphansLoginHistory(t *testing.T) {
	t.Parallel()

	store := newProvisionedStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "audit@example.com")

	_, err := store.ExecContext(ctx, `INSERT INTO login_history(user_id, ip_address, success) VALUES(?, '10.0.0.1', 1)`, user.ID)
	require.NoError(t, err)
	_, err = store.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, user.ID)
	require.NoError(t, err)

	require.Equal(t, 1, countRows(t, store, `SELECT COUNT(*) FROM login_history WHERE user_id IS NULL`))
}
