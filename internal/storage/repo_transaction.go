package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type transactionRepository struct {
	q Querier
}

func (r *transactionRepository) Create(ctx context.Context, txn *Transaction) error {
	if txn == nil {
		return fmt.Errorf("create transaction: transaction is nil")
	}
	if txn.AccountID == 0 {
		return fmt.Errorf("create transaction: account id is required")
	}
	switch txn.Type {
	case TransactionCredit, TransactionDebit:
	default:
		return fmt.Errorf("create transaction: unknown type %q", txn.Type)
	}

	id, err := insertReturningID(ctx, r.q, `
		INSERT INTO transactions(
			account_id, transaction_type, amount, description, category, merchant_name, reference_number, status
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, COALESCE(?, 'completed'))
	`,
		txn.AccountID, string(txn.Type), txn.Amount, nullString(txn.Description), nullString(txn.Category),
		nullString(txn.MerchantName), nullString(txn.ReferenceNumber), nullString(txn.Status),
	)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	txn.ID = id
	return nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID int64) ([]Transaction, error) {
	txns := []Transaction{}
	err := queryAll(ctx, r.q, func(rows *sql.Rows) error {
		var (
			txn     Transaction
			txnType string
		)
		if err := rows.Scan(
			&txn.ID, &txn.AccountID, &txnType, &txn.Amount, &txn.Description, &txn.Category,
			&txn.MerchantName, &txn.ReferenceNumber, &txn.Status,
		); err != nil {
			return err
		}
		txn.Type = TransactionType(txnType)
		txns = append(txns, txn)
		return nil
	}, `
		SELECT id, account_id, transaction_type, amount, COALESCE(description, ''), COALESCE(category, ''),
			COALESCE(merchant_name, ''), COALESCE(reference_number, ''), COALESCE(status, '')
		FROM transactions
		WHERE account_id = ?
		ORDER BY id ASC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for account %d: %w", accountID, err)
	}
	return txns, nil
}
