package repository

import (
	"context"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
)

type CartRepository interface {
	// なければ作る。Tx内では行ロック（FOR UPDATE）を取るので同じカートへの操作は直列になる
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// updated_at を打つ
	Touch(ctx context.Context, cartID int64) error
	// 明細を全部消して updated_at を打つ（カート自体は残す）
	Clear(ctx context.Context, cartID int64) error
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartItem, error)
	// 他人のカートの明細は ErrNotFound
	FindInCart(ctx context.Context, cartID int64, cartItemID int64) (model.CartItem, error)
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	// quantity / unit_price / total_price を書き換える
	Update(ctx context.Context, item model.CartItem) error
	// 無くてもエラーにしない
	Delete(ctx context.Context, cartID int64, cartItemID int64) error
}
