package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
)

const categoryColumns = `id, name, type, color, icon, is_active, created_at, updated_at`

func scanCategory(sc scanner) (*model.Category, error) {
	var c model.Category
	if err := sc.Scan(&c.ID, &c.Name, &c.Type, &c.Color, &c.Icon,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory creates a new category.
func (s *queries) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateRecord(ctx, category != nil, categoryID(category), "category"); err != nil {
		return err
	}

	ts := now()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		category.ID, category.Name, category.Type, category.Color, category.Icon,
		category.IsActive, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", translateError(err))
	}

	category.CreatedAt, category.UpdatedAt = ts, ts
	return nil
}

// GetCategory returns a category by id.
func (s *queries) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	category, err := scanCategory(row)
	if err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return category, nil
}

// FindCategoryByName returns the category with the given name and type,
// or nil when there is none.
func (s *queries) FindCategoryByName(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = ? AND type = ?`, name, categoryType)
	category, err := scanCategory(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query category by name: %w", err)
	}
	return category, nil
}

// ListCategories returns categories ordered by type and name.
func (s *queries) ListCategories(ctx context.Context, filter service.CategoryFilter) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if !filter.IncludeInactive {
		where = append(where, "is_active = 1")
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, filter.Type)
	}

	query := `SELECT ` + categoryColumns + ` FROM categories`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY type, name"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := []model.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	logQuery("categories", len(categories))
	return categories, nil
}

// UpdateCategory overwrites a category's mutable fields.
func (s *queries) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateRecord(ctx, category != nil, categoryID(category), "category"); err != nil {
		return err
	}

	ts := now()
	result, err := s.q.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, type = ?, color = ?, icon = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		category.Name, category.Type, category.Color, category.Icon, category.IsActive, ts, category.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", translateError(err))
	}
	if err := requireAffected(result, "category", category.ID); err != nil {
		return err
	}

	category.UpdatedAt = ts
	return nil
}

// DeleteCategory removes a category. Budgets on it cascade away; categories
// still used by transactions are protected by the foreign key.
func (s *queries) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", translateError(err))
	}
	return requireAffected(result, "category", id)
}

// CountCategoryTransactions returns how many transactions use the category.
func (s *queries) CountCategoryTransactions(ctx context.Context, id string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id)
}

// CountCategoryBudgets returns how many budgets track the category.
func (s *queries) CountCategoryBudgets(ctx context.Context, id string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM budgets WHERE category_id = ?`, id)
}

// CountCategoryPayments returns how many payments settle into the category.
func (s *queries) CountCategoryPayments(ctx context.Context, id string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM payments WHERE category_id = ?`, id)
}

func categoryID(c *model.Category) string {
	if c == nil {
		return ""
	}
	return c.ID
}
