package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create creates a new category.
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, name, parent_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		category.ID, category.Name, category.ParentID, category.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateName
	}

	return mapError(err)
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, parent_id, created_at
		FROM categories
		WHERE id = $1`,
		id,
	)

	return scanCategory(row)
}

// GetByName retrieves a category by name, case-insensitively.
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, parent_id, created_at
		FROM categories
		WHERE lower(name) = lower($1)`,
		name,
	)

	return scanCategory(row)
}

// GetByIDs retrieves categories keyed by ID. Missing IDs are simply
// absent from the result, which is how the validation engine detects
// unknown category references.
func (r *CategoryRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Category, error) {
	out := make(map[string]*domain.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, parent_id, created_at
		FROM categories
		WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}

		out[category.ID] = category
	}

	return out, mapError(rows.Err())
}

// List lists categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context, limit, offset int) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, parent_id, created_at
		FROM categories
		ORDER BY name
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var categories []*domain.Category

	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}

		categories = append(categories, category)
	}

	return categories, mapError(rows.Err())
}

// Delete removes a category inside the given transaction. A foreign
// key rejection means splits or child categories still reference it.
func (r *CategoryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := txQuerier(tx).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err, "") {
			return fmt.Errorf("%w: %v", domain.ErrCategoryInUse, err)
		}

		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUnknownCategory
	}

	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var category domain.Category

	err := row.Scan(&category.ID, &category.Name, &category.ParentID, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnknownCategory
		}

		return nil, mapError(err)
	}

	return &category, nil
}
