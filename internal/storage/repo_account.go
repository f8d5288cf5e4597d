package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const accountColumns = `id, user_id, account_type, account_number, COALESCE(routing_number, ''),
	COALESCE(balance, 0), COALESCE(available_balance, 0), COALESCE(currency, ''), COALESCE(status, ''),
	COALESCE(account_name, ''), COALESCE(is_primary, 0), COALESCE(color, '')`

type accountRepository struct {
	q Querier
}

// Create inserts the account and records its generated id on account.
// Empty routing number, currency and status fall back to the column defaults.
func (r *accountRepository) Create(ctx context.Context, account *Account) error {
	if account == nil {
		return fmt.Errorf("create account: account is nil")
	}
	if account.UserID == 0 {
		return fmt.Errorf("create account: user id is required")
	}
	if account.AccountNumber == "" || account.AccountType == "" {
		return fmt.Errorf("create account: account number and type are required")
	}

	id, err := insertReturningID(ctx, r.q, `
		INSERT INTO accounts(
			user_id, account_type, account_number, routing_number, balance, available_balance,
			currency, status, account_name, is_primary, color
		)
		VALUES(?, ?, ?, COALESCE(?, '121000248'), ?, ?, COALESCE(?, 'USD'), COALESCE(?, 'active'), ?, ?, ?)
	`,
		account.UserID, account.AccountType, account.AccountNumber, nullString(account.RoutingNumber),
		account.Balance, account.AvailableBalance, nullString(account.Currency), nullString(account.Status),
		nullString(account.AccountName), boolToInt(account.IsPrimary), nullString(account.Color),
	)
	if err != nil {
		return fmt.Errorf("create account %s: %w", account.AccountNumber, err)
	}
	account.ID = id
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id int64) (*Account, error) {
	var account Account
	err := queryOne(ctx, r.q, func(rows *sql.Rows) error {
		return scanAccount(rows, &account)
	}, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}
	return &account, nil
}

func (r *accountRepository) ListByUser(ctx context.Context, userID int64) ([]Account, error) {
	accounts := []Account{}
	err := queryAll(ctx, r.q, func(rows *sql.Rows) error {
		var account Account
		if err := scanAccount(rows, &account); err != nil {
			return err
		}
		accounts = append(accounts, account)
		return nil
	}, `SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts for user %d: %w", userID, err)
	}
	return accounts, nil
}

func scanAccount(rows *sql.Rows, account *Account) error {
	return rows.Scan(
		&account.ID, &account.UserID, &account.AccountType, &account.AccountNumber, &account.RoutingNumber,
		&account.Balance, &account.AvailableBalance, &account.Currency, &account.Status,
		&account.AccountName, &account.IsPrimary, &account.Color,
	)
}
