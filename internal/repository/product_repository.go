package repository

import (
	"context"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/shopspring/decimal"
)

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	// 公開中（is_active）のみ
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 見つからないIDはmapに入らない
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
