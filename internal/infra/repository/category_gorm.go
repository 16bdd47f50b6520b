package repository

import (
	"context"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"gorm.io/gorm"
)

type CategoryGormRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewCategoryGormRepository(db *gorm.DB, clk clock.Clock) *CategoryGormRepository {
	return &CategoryGormRepository{db: db, clock: clk}
}

var _ repo.CategoryRepository = (*CategoryGormRepository)(nil)

func (r *CategoryGormRepository) List(ctx context.Context) ([]model.Category, error) {
	var cs []model.Category
	if err := r.db.WithContext(ctx).Order("name asc").Find(&cs).Error; err != nil {
		return []model.Category{}, translate("list categories", err)
	}
	return cs, nil
}

func (r *CategoryGormRepository) FindByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return model.Category{}, translate("find category", err)
	}
	return c, nil
}

func (r *CategoryGormRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	model.TouchCreated(r.clock.Now(), &c)
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Category{}, translate("create category", err)
	}
	return c, nil
}
