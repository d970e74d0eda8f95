package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
)

const goalColumns = `id, name, description, target_amount, current_amount, target_date,
	priority, status, currency, created_at, updated_at`

func scanGoal(sc scanner) (*model.Goal, error) {
	var (
		g               model.Goal
		target, current int64
		description     sql.NullString
	)
	if err := sc.Scan(&g.ID, &g.Name, &description, &target, &current, &g.TargetDate,
		&g.Priority, &g.Status, &g.Currency, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.Description = nullableString(description)
	g.TargetAmount = model.FromMinor(target)
	g.CurrentAmount = model.FromMinor(current)
	return &g, nil
}

// CreateGoal inserts a goal.
func (s *queries) CreateGoal(ctx context.Context, goal *model.Goal) error {
	if err := validateRecord(ctx, goal != nil, goalID(goal), "goal"); err != nil {
		return err
	}

	ts := now()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.Name, goal.Description, model.ToMinor(goal.TargetAmount),
		model.ToMinor(goal.CurrentAmount), goal.TargetDate, goal.Priority, goal.Status,
		goal.Currency, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", translateError(err))
	}

	goal.CreatedAt, goal.UpdatedAt = ts, ts
	return nil
}

// GetGoal returns a goal by id.
func (s *queries) GetGoal(ctx context.Context, id string) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	goal, err := scanGoal(s.q.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "goal", id)
	}
	return goal, nil
}

// ListGoals returns goals ordered by priority then target date.
func (s *queries) ListGoals(ctx context.Context, filter service.GoalFilter) ([]model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Currency != "" {
		where = append(where, "currency = ?")
		args = append(args, filter.Currency)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, filter.Priority)
	}

	query := `SELECT ` + goalColumns + ` FROM goals`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, target_date`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	goals := []model.Goal{}
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}

	logQuery("goals", len(goals))
	return goals, nil
}

// UpdateGoal overwrites a goal.
func (s *queries) UpdateGoal(ctx context.Context, goal *model.Goal) error {
	if err := validateRecord(ctx, goal != nil, goalID(goal), "goal"); err != nil {
		return err
	}

	ts := now()
	result, err := s.q.ExecContext(ctx, `
		UPDATE goals
		SET name = ?, description = ?, target_amount = ?, current_amount = ?, target_date = ?,
			priority = ?, status = ?, currency = ?, updated_at = ?
		WHERE id = ?`,
		goal.Name, goal.Description, model.ToMinor(goal.TargetAmount), model.ToMinor(goal.CurrentAmount),
		goal.TargetDate, goal.Priority, goal.Status, goal.Currency, ts, goal.ID)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", translateError(err))
	}
	if err := requireAffected(result, "goal", goal.ID); err != nil {
		return err
	}

	goal.UpdatedAt = ts
	return nil
}

// DeleteGoal removes a goal.
func (s *queries) DeleteGoal(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return requireAffected(result, "goal", id)
}

func goalID(g *model.Goal) string {
	if g == nil {
		return ""
	}
	return g.ID
}
