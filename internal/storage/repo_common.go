package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/securebank/securebank-init/internal/crypto"
)

// Querier is the statement surface shared by *Store and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func newRepositories(q Querier, cards *crypto.CardCipher) Repositories {
	return Repositories{
		Users:        &userRepository{q: q},
		Accounts:     &accountRepository{q: q},
		Transactions: &transactionRepository{q: q},
		Cards:        &cardRepository{q: q, cipher: cards},
		SavingsGoals: &savingsGoalRepository{q: q},
		Investments:  &investmentRepository{q: q},
	}
}

func insertReturningID(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// queryAll runs query and hands each row to scan. The rows are drained and
// closed before it returns, which keeps the single connection free.
func queryAll(ctx context.Context, q Querier, scan func(*sql.Rows) error, query string, args ...any) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

func queryOne(ctx context.Context, q Querier, scan func(*sql.Rows) error, query string, args ...any) error {
	found := false
	err := queryAll(ctx, q, func(rows *sql.Rows) error {
		if found {
			return nil
		}
		found = true
		return scan(rows)
	}, query, args...)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
