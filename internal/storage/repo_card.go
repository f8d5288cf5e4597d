package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/securebank/securebank-init/internal/crypto"
)

const (
	cardNumberField = "card_number"
	cardCVVField    = "cvv"
)

const cardColumns = `id, account_id, card_number_encrypted, COALESCE(card_type, ''), COALESCE(card_brand, ''),
	expiry_date, cardholder_name, COALESCE(cvv, ''), COALESCE(status, ''), COALESCE(is_frozen, 0),
	COALESCE(daily_limit, 0)`

type cardRepository struct {
	q      Querier
	cipher *crypto.CardCipher
}

func (r *cardRepository) Create(ctx context.Context, card *Card) error {
	if card == nil {
		return fmt.Errorf("create card: card is nil")
	}
	if card.AccountID == 0 {
		return fmt.Errorf("create card: account id is required")
	}
	if card.Number == "" || card.ExpiryDate == "" || card.CardholderName == "" {
		return fmt.Errorf("create card: number, expiry date and cardholder name are required")
	}

	sealedNumber, err := r.cipher.Seal(cardNumberField, card.Number)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	sealedCVV := sql.NullString{}
	if card.CVV != "" {
		token, err := r.cipher.Seal(cardCVVField, card.CVV)
		if err != nil {
			return fmt.Errorf("create card: %w", err)
		}
		sealedCVV = sql.NullString{String: token, Valid: true}
	}

	dailyLimit := sql.NullFloat64{Float64: card.DailyLimit, Valid: card.DailyLimit > 0}
	id, err := insertReturningID(ctx, r.q, `
		INSERT INTO cards(
			account_id, card_number_encrypted, card_type, card_brand, expiry_date, cardholder_name, cvv,
			status, is_frozen, daily_limit
		)
		VALUES(?, ?, COALESCE(?, 'Debit'), ?, ?, ?, ?, COALESCE(?, 'active'), ?, COALESCE(?, 500.00))
	`,
		card.AccountID, sealedNumber, nullString(card.CardType), nullString(card.CardBrand),
		card.ExpiryDate, card.CardholderName, sealedCVV, nullString(card.Status),
		boolToInt(card.IsFrozen), dailyLimit,
	)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	card.ID = id
	return nil
}

func (r *cardRepository) Get(ctx context.Context, id int64) (*Card, error) {
	var card Card
	err := queryOne(ctx, r.q, func(rows *sql.Rows) error {
		return rows.Scan(cardScanTargets(&card)...)
	}, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get card %d: %w", id, err)
	}
	if err := r.open(&card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *cardRepository) ListByAccount(ctx context.Context, accountID int64) ([]Card, error) {
	cards := []Card{}
	err := queryAll(ctx, r.q, func(rows *sql.Rows) error {
		var card Card
		if err := rows.Scan(cardScanTargets(&card)...); err != nil {
			return err
		}
		cards = append(cards, card)
		return nil
	}, `SELECT `+cardColumns+` FROM cards WHERE account_id = ? ORDER BY id ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list cards for account %d: %w", accountID, err)
	}
	for i := range cards {
		if err := r.open(&cards[i]); err != nil {
			return nil, err
		}
	}
	return cards, nil
}

func (r *cardRepository) open(card *Card) error {
	number, err := r.cipher.Open(cardNumberField, card.Number)
	if err != nil {
		return fmt.Errorf("open card %d number: %w", card.ID, err)
	}
	card.Number = number
	if card.CVV != "" {
		cvv, err := r.cipher.Open(cardCVVField, card.CVV)
		if err != nil {
			return fmt.Errorf("open card %d cvv: %w", card.ID, err)
		}
		card.CVV = cvv
	}
	return nil
}

func cardScanTargets(card *Card) []any {
	return []any{
		&card.ID, &card.AccountID, &card.Number, &card.CardType, &card.CardBrand,
		&card.ExpiryDate, &card.CardholderName, &card.CVV, &card.Status, &card.IsFrozen,
		&card.DailyLimit,
	}
}
