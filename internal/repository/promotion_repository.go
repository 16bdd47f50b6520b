package repository

import (
	"context"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
)

// プロモーションの保存・取得。取得系は対象商品・カテゴリも読み込む
type PromotionRepository interface {
	FindByID(ctx context.Context, id int64) (model.Promotion, error)
	// code は正規化済み（大文字）で渡す
	FindByCode(ctx context.Context, code string) (model.Promotion, error)
	List(ctx context.Context) ([]model.Promotion, error)
	// is_active かつ期間内
	ListActive(ctx context.Context, now time.Time) ([]model.Promotion, error)
	// 商品に直接、またはカテゴリ経由で紐づく有効なもの
	ListForProduct(ctx context.Context, productID int64, categoryID *int64, now time.Time) ([]model.Promotion, error)

	// code 重複は ErrDuplicate
	Create(ctx context.Context, p model.Promotion) (model.Promotion, error)
	// 対象商品・カテゴリは入れ替え
	Update(ctx context.Context, p model.Promotion) error
	Delete(ctx context.Context, id int64) error
}
