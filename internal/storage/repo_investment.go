package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type investmentRepository struct {
	q Querier
}

// Create stores the position as given. Derived columns (current value and
// change figures) must already be computed by the caller.
func (r *investmentRepository) Create(ctx context.Context, inv *Investment) error {
	if inv == nil {
		return fmt.Errorf("create investment: investment is nil")
	}
	if inv.UserID == 0 || inv.Name == "" || inv.InvestmentType == "" {
		return fmt.Errorf("create investment: user id, name and type are required")
	}

	id, err := insertReturningID(ctx, r.q, `
		INSERT INTO investments(
			user_id, investment_type, symbol, name, quantity, average_cost, current_price, current_value,
			change_percent, change_value, sector, asset_class, risk_level, is_esg
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, 'moderate'), ?)
	`,
		inv.UserID, inv.InvestmentType, nullString(inv.Symbol), inv.Name, inv.Quantity, inv.AverageCost,
		inv.CurrentPrice, inv.CurrentValue, inv.ChangePercent, inv.ChangeValue, nullString(inv.Sector),
		nullString(inv.AssetClass), nullString(inv.RiskLevel), boolToInt(inv.IsESG),
	)
	if err != nil {
		return fmt.Errorf("create investment %s: %w", inv.Symbol, err)
	}
	inv.ID = id
	return nil
}

func (r *investmentRepository) ListByUser(ctx context.Context, userID int64) ([]Investment, error) {
	investments := []Investment{}
	err := queryAll(ctx, r.q, func(rows *sql.Rows) error {
		var inv Investment
		if err := rows.Scan(
			&inv.ID, &inv.UserID, &inv.InvestmentType, &inv.Symbol, &inv.Name, &inv.Quantity,
			&inv.AverageCost, &inv.CurrentPrice, &inv.CurrentValue, &inv.ChangePercent, &inv.ChangeValue,
			&inv.IsESG, &inv.Sector, &inv.AssetClass, &inv.RiskLevel,
		); err != nil {
			return err
		}
		investments = append(investments, inv)
		return nil
	}, `
		SELECT id, user_id, investment_type, COALESCE(symbol, ''), name, quantity, average_cost,
			current_price, current_value, COALESCE(change_percent, 0), COALESCE(change_value, 0),
			COALESCE(is_esg, 0), COALESCE(sector, ''), COALESCE(asset_class, ''), COALESCE(risk_level, '')
		FROM investments
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list investments for user %d: %w", userID, err)
	}
	return investments, nil
}
