package repository

import (
	"context"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	// 名前重複は ErrDuplicate
	Create(ctx context.Context, c model.Category) (model.Category, error)
}
