package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type savingsGoalRepository struct {
	q Querier
}

// Create does not check CurrentAmount against TargetAmount; the schema
// leaves that to the application.
func (r *savingsGoalRepository) Create(ctx context.Context, goal *SavingsGoal) error {
	if goal == nil {
		return fmt.Errorf("create savings goal: goal is nil")
	}
	if goal.UserID == 0 || goal.GoalName == "" {
		return fmt.Errorf("create savings goal: user id and name are required")
	}

	id, err := insertReturningID(ctx, r.q, `
		INSERT INTO savings_goals(user_id, goal_name, target_amount, current_amount, target_date, status)
		VALUES(?, ?, ?, ?, ?, COALESCE(?, 'active'))
	`, goal.UserID, goal.GoalName, goal.TargetAmount, goal.CurrentAmount, nullString(goal.TargetDate), nullString(goal.Status))
	if err != nil {
		return fmt.Errorf("create savings goal %q: %w", goal.GoalName, err)
	}
	goal.ID = id
	return nil
}

func (r *savingsGoalRepository) ListByUser(ctx context.Context, userID int64) ([]SavingsGoal, error) {
	goals := []SavingsGoal{}
	err := queryAll(ctx, r.q, func(rows *sql.Rows) error {
		var goal SavingsGoal
		if err := rows.Scan(
			&goal.ID, &goal.UserID, &goal.GoalName, &goal.TargetAmount, &goal.CurrentAmount,
			&goal.TargetDate, &goal.Status,
		); err != nil {
			return err
		}
		goals = append(goals, goal)
		return nil
	}, `
		SELECT id, user_id, goal_name, target_amount, COALESCE(current_amount, 0),
			COALESCE(target_date, ''), COALESCE(status, '')
		FROM savings_goals
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals for user %d: %w", userID, err)
	}
	return goals, nil
}
