package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/google/uuid"
)

const (
	defaultCategoryColor = "#6B7280"
	defaultCategoryIcon  = "tag"
)

// CategoryInput is the writable shape of a category.
type CategoryInput struct {
	IsActive *bool  `json:"is_active"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
}

// CategoryService manages transaction categories.
type CategoryService struct {
	*core
}

func (s *CategoryService) validate(in CategoryInput) (*model.Category, error) {
	name, err := validateName("name", in.Name, maxCategoryName)
	if err != nil {
		return nil, err
	}
	categoryType := model.CategoryType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !categoryType.Valid() {
		return nil, common.Invalid("type", "must be income or expense")
	}
	color := stringOr(in.Color, defaultCategoryColor)
	if !common.IsHexColor(color) {
		return nil, common.Invalid("color", "must be a hex color like #RRGGBB")
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &model.Category{
		Name:     name,
		Type:     categoryType,
		Color:    strings.ToUpper(color),
		Icon:     stringOr(in.Icon, defaultCategoryIcon),
		IsActive: active,
	}, nil
}

// Create adds a category. Names are unique per type.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*model.Category, error) {
	category, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	category.ID = uuid.NewString()

	err = s.store.WithTx(ctx, func(tx Tx) error {
		if err := ensureUniqueCategory(ctx, tx, category.Name, category.Type, ""); err != nil {
			return err
		}
		return tx.CreateCategory(ctx, category)
	})
	if err := observe("category", "create", err); err != nil {
		return nil, err
	}

	slog.Info("created category", "id", category.ID, "name", category.Name, "type", category.Type)
	return category, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id string) (*model.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// List returns categories matching filter.
func (s *CategoryService) List(ctx context.Context, filter CategoryFilter) ([]model.Category, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, common.Invalid("type", "must be income or expense")
	}
	return s.store.ListCategories(ctx, filter)
}

// Update rewrites a category. A category referenced by transactions, budgets
// or payments cannot change type.
func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (*model.Category, error) {
	changes, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	var updated *model.Category
	err = s.store.WithTx(ctx, func(tx Tx) error {
		category, err := tx.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		if changes.Type != category.Type {
			if err := ensureTypeUnused(ctx, tx, id); err != nil {
				return err
			}
		}
		if err := ensureUniqueCategory(ctx, tx, changes.Name, changes.Type, id); err != nil {
			return err
		}

		changes.ID = id
		changes.CreatedAt = category.CreatedAt
		if err := tx.UpdateCategory(ctx, changes); err != nil {
			return err
		}
		updated = changes
		return nil
	})
	if err := observe("category", "update", err); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a category that no transaction references.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetCategory(ctx, id); err != nil {
			return err
		}
		n, err := tx.CountCategoryTransactions(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return common.Conflict("category is used by %d transactions", n)
		}
		return tx.DeleteCategory(ctx, id)
	})
	return observe("category", "delete", err)
}

func ensureTypeUnused(ctx context.Context, q Queries, id string) error {
	uses := []struct {
		kind  string
		count func(context.Context, string) (int, error)
	}{
		{"transactions", q.CountCategoryTransactions},
		{"budgets", q.CountCategoryBudgets},
		{"payments", q.CountCategoryPayments},
	}
	for _, use := range uses {
		n, err := use.count(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return common.Conflict("category is used by %d %s and cannot change type", n, use.kind)
		}
	}
	return nil
}

func ensureUniqueCategory(ctx context.Context, q Queries, name string, categoryType model.CategoryType, selfID string) error {
	existing, err := q.FindCategoryByName(ctx, name, categoryType)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return fmt.Errorf("%w: %s category %q already exists", common.ErrDuplicateEntry, categoryType, name)
	}
	return nil
}
