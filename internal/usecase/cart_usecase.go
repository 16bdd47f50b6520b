package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/pricing"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"github.com/shopspring/decimal"
)

// コードの検証だけを使う（PromotionUsecase が満たす）。カートと同じTxで引く
type PromotionValidator interface {
	ValidateInTx(ctx context.Context, r repo.TxRepos, code string, orderTotal decimal.Decimal) (*model.Promotion, bool, error)
}

// CartUsecase は /cart の業務ロジックです。
// 変更系は1つのTxで、カート行をロックしてから触る
type CartUsecase struct {
	tx         repo.TransactionManager
	promotions PromotionValidator
}

func NewCartUsecase(tx repo.TransactionManager, promotions PromotionValidator) *CartUsecase {
	return &CartUsecase{tx: tx, promotions: promotions}
}

type CartItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// 小計は明細の合計（保存しない）。割引はプレビューのときだけ入る
type CartResponse struct {
	ID                   int64              `json:"id"`
	UserID               int64              `json:"user_id"`
	Items                []CartItemResponse `json:"items"`
	SubTotal             decimal.Decimal    `json:"subtotal"`
	AppliedPromotionCode *string            `json:"applied_promotion_code"`
	DiscountAmount       decimal.Decimal    `json:"discount_amount"`
	Total                decimal.Decimal    `json:"total"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

type AddCartItemInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	CartItemID int64
	Quantity   int64
}

// GetCart はカート取得（無ければ作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.mutate(ctx, userID, nil)
}

// AddItem はカートに追加（同一商品は数量加算＋単価を今の価格に更新）。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var fe FieldErrors
	if in.ProductID <= 0 {
		fe.Add("product_id", "product_id is required")
	}
	if in.Quantity <= 0 {
		fe.Add("quantity", "quantity must be greater than 0")
	}
	if err := fe.Err(); err != nil {
		return CartResponse{}, err
	}

	return u.mutate(ctx, userID, func(r cartRepos, cart model.Cart) error {
		p, err := loadCartProduct(ctx, r, in.ProductID)
		if err != nil {
			return err
		}

		// 在庫と比べるのは今回の数量だけ。合計の超過は checkout の引当で弾く
		if in.Quantity > p.Stock {
			return insufficientStock(p)
		}

		existing, err := r.CartItems().FindByCartAndProduct(ctx, cart.ID, p.ID)
		switch {
		case err == nil:
			existing.Quantity += in.Quantity
			existing.UnitPrice = p.Price
			existing.Recalculate()
			if err := r.CartItems().Update(ctx, existing); err != nil {
				return dbError(ctx, err)
			}
		case errors.Is(err, repo.ErrNotFound):
			item := model.CartItem{
				CartID:    cart.ID,
				ProductID: p.ID,
				Quantity:  in.Quantity,
				UnitPrice: p.Price,
			}
			item.Recalculate()
			if _, err := r.CartItems().Create(ctx, item); err != nil {
				return dbError(ctx, err)
			}
		default:
			return dbError(ctx, err)
		}
		return r.touch(ctx, cart.ID)
	})
}

// UpdateItem は数量変更。0以下なら明細を消す。単価は追加時のまま
func (u *CartUsecase) UpdateItem(ctx context.Context, userID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.CartItemID <= 0 {
		return CartResponse{}, newFieldError(CodeValidation, "cart_item_id", "cart_item_id is required")
	}

	return u.mutate(ctx, userID, func(r cartRepos, cart model.Cart) error {
		item, err := r.CartItems().FindInCart(ctx, cart.ID, in.CartItemID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "cart item not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}

		if in.Quantity <= 0 {
			if err := r.CartItems().Delete(ctx, cart.ID, item.ID); err != nil {
				return dbError(ctx, err)
			}
			return r.touch(ctx, cart.ID)
		}

		p, err := loadCartProduct(ctx, r, item.ProductID)
		if err != nil {
			return err
		}
		if in.Quantity > p.Stock {
			return insufficientStock(p)
		}

		item.Quantity = in.Quantity
		item.Recalculate()
		if err := r.CartItems().Update(ctx, item); err != nil {
			return dbError(ctx, err)
		}
		return r.touch(ctx, cart.ID)
	})
}

// 明細削除。自分のカートに無いIDなら何もしない
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.mutate(ctx, userID, func(r cartRepos, cart model.Cart) error {
		if err := r.CartItems().Delete(ctx, cart.ID, cartItemID); err != nil {
			return dbError(ctx, err)
		}
		return r.touch(ctx, cart.ID)
	})
}

// 全明細を消す（カートは残す）
func (u *CartUsecase) Clear(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	return u.mutate(ctx, userID, func(r cartRepos, cart model.Cart) error {
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return dbError(ctx, err)
		}
		return nil
	})
}

// ApplyPromotion は割引のプレビュー。カートは変えない
func (u *CartUsecase) ApplyPromotion(ctx context.Context, userID int64, code string) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if model.NormalizePromotionCode(code) == "" {
		return CartResponse{}, newFieldError(CodeValidation, "promotion_code", "promotion_code is required")
	}

	// 小計の計算とコードの検証を同じTxでやる（間にカートが変わらない）
	var res CartResponse
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return dbError(ctx, err)
		}
		if res, err = buildCartResponse(ctx, r, cart); err != nil {
			return err
		}

		p, ok, err := u.promotions.ValidateInTx(ctx, r, code, res.SubTotal)
		if err != nil {
			return err
		}
		if !ok {
			return newFieldError(CodeValidation, "promotion_code", "Invalid or expired promotion code")
		}
		res.Total = pricing.Apply(res.SubTotal, p)
		res.DiscountAmount = res.SubTotal.Sub(res.Total)
		res.AppliedPromotionCode = &p.Code
		return nil
	})
	if err != nil {
		return CartResponse{}, finishTx(ctx, err)
	}
	return res, nil
}

// カートをロックして fn を実行し、同じTxの中で最新のカートを組み立てる
func (u *CartUsecase) mutate(ctx context.Context, userID int64, fn func(r cartRepos, cart model.Cart) error) (CartResponse, error) {
	var out CartResponse
	err := u.tx.WithinTx(ctx, func(txr repo.TxRepos) error {
		r := cartRepos{TxRepos: txr}
		cart, err := r.Carts().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return dbError(ctx, err)
		}
		if fn != nil {
			if err := fn(r, cart); err != nil {
				return err
			}
			// updated_at を読み直す
			if cart, err = r.Carts().GetOrCreateByUserID(ctx, userID); err != nil {
				return dbError(ctx, err)
			}
		}
		out, err = buildCartResponse(ctx, r, cart)
		return err
	})
	if err != nil {
		return CartResponse{}, finishTx(ctx, err)
	}
	return out, nil
}

type cartRepos struct {
	repo.TxRepos
}

func (r cartRepos) touch(ctx context.Context, cartID int64) error {
	if err := r.Carts().Touch(ctx, cartID); err != nil {
		return dbError(ctx, err)
	}
	return nil
}

// 商品は存在して公開中であること
func loadCartProduct(ctx context.Context, r repo.TxRepos, productID int64) (model.Product, error) {
	p, err := r.Products().FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, dbError(ctx, err)
	}
	if !p.IsActive {
		return model.Product{}, newFieldError(CodeProductInactive, "product_id", fmt.Sprintf("Product %s is no longer available", p.Name))
	}
	return p, nil
}

func insufficientStock(p model.Product) error {
	return newFieldError(CodeInsufficientStock, "quantity", fmt.Sprintf("Not enough stock for product %s. Available: %d", p.Name, p.Stock))
}

func buildCartResponse(ctx context.Context, r repo.TxRepos, cart model.Cart) (CartResponse, error) {
	items, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, dbError(ctx, err)
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := r.Products().FindByIDs(ctx, ids)
	if err != nil {
		return CartResponse{}, dbError(ctx, err)
	}

	out := CartResponse{
		ID:             cart.ID,
		UserID:         cart.UserID,
		Items:          make([]CartItemResponse, 0, len(items)),
		SubTotal:       model.SumCartItems(items),
		DiscountAmount: decimal.Zero,
		CreatedAt:      cart.CreatedAt,
		UpdatedAt:      cart.UpdatedAt,
	}
	out.Total = out.SubTotal

	for _, it := range items {
		name := "Unknown Product"
		if p, ok := products[it.ProductID]; ok {
			name = p.Name
		}
		out.Items = append(out.Items, CartItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: name,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			TotalPrice:  it.TotalPrice,
		})
	}
	return out, nil
}
