package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iho/fintrack/internal/domain"
)

// CategoryUseCase handles category lifecycle.
type CategoryUseCase struct {
	categoryRepo CategoryRepository
	txnRepo      TransactionRepository
	txManager    TransactionManager
	locker       AccountLocker
	idGen        IDGenerator
}

// NewCategoryUseCase creates a new CategoryUseCase.
func NewCategoryUseCase(
	categoryRepo CategoryRepository,
	txnRepo TransactionRepository,
	txManager TransactionManager,
	locker AccountLocker,
	idGen IDGenerator,
) *CategoryUseCase {
	return &CategoryUseCase{
		categoryRepo: categoryRepo,
		txnRepo:      txnRepo,
		txManager:    txManager,
		locker:       locker,
		idGen:        idGen,
	}
}

// CreateCategoryInput represents input for creating a category.
type CreateCategoryInput struct {
	Name     string
	ParentID *string
}

// CreateCategory creates a new category, optionally under a parent.
func (uc *CategoryUseCase) CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		if _, err := uc.categoryRepo.GetByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, domain.ErrUnknownCategory) {
				return nil, domain.ErrInvalidParent
			}

			return nil, err
		}
	}

	release, err := uc.locker.Acquire(ctx, "category-name:"+strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := uc.categoryRepo.GetByName(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrUnknownCategory) {
		return nil, err
	}

	if existing != nil {
		return nil, domain.ErrDuplicateName
	}

	category := &domain.Category{
		ID:        uc.idGen.Generate(),
		Name:      name,
		ParentID:  input.ParentID,
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// GetCategory retrieves a category by ID.
func (uc *CategoryUseCase) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return uc.categoryRepo.GetByID(ctx, id)
}

// ListCategories lists categories.
func (uc *CategoryUseCase) ListCategories(ctx context.Context, limit, offset int) ([]*domain.Category, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.categoryRepo.List(ctx, limit, offset)
}

// DeleteCategory deletes a category. Deletion is refused with
// ErrCategoryInUse while any split references it: cascading would
// silently rewrite committed history.
func (uc *CategoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	category, err := uc.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Serialize with ledger writers referencing this category, so the
	// in-use count cannot go stale between check and delete.
	release, err := uc.locker.Acquire(ctx, categoryLockKey(category.ID))
	if err != nil {
		return err
	}
	defer release()

	count, err := uc.txnRepo.CountByCategory(ctx, category.ID)
	if err != nil {
		return err
	}

	if count > 0 {
		return domain.ErrCategoryInUse
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.categoryRepo.Delete(ctx, tx, category.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
