package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/pricing"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CheckoutUsecase はカートを注文＋支払いに変える。
// 1回のチェックアウトは1つのTx。どこかで失敗したら何も残らない
type CheckoutUsecase struct {
	tx      repo.TransactionManager
	clock   Clock
	ids     IDGenerator
	numbers OrderNumberGenerator
}

func NewCheckoutUsecase(tx repo.TransactionManager, clk Clock, ids IDGenerator, numbers OrderNumberGenerator) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx, clock: clk, ids: ids, numbers: numbers}
}

type CheckoutInput struct {
	ShippingAddress string
	PaymentMethod   string
	PromotionCode   string
}

type CheckoutOutput struct {
	Order                OrderOutput     `json:"order"`
	Payment              PaymentOutput   `json:"payment"`
	SubTotal             decimal.Decimal `json:"subtotal"`
	DiscountAmount       decimal.Decimal `json:"discount_amount"`
	Total                decimal.Decimal `json:"total"`
	AppliedPromotionCode *string         `json:"applied_promotion_code"`
	CheckoutDate         time.Time       `json:"checkout_date"`
}

// Checkout
// 1) ユーザーとカート（FOR UPDATE）を読む
// 2) 小計とプロモーション（無効なコードは適用しないだけ）
// 3) 全行検証→在庫減算
// 4) 注文・明細・支払いを保存
// 5) カートを空にする
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateShipping(in.ShippingAddress, in.PaymentMethod).Err(); err != nil {
		return CheckoutOutput{}, err
	}

	logger := zerolog.Ctx(ctx)
	now := u.clock.Now()
	var out CheckoutOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "user not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}

		cart, err := r.Carts().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return dbError(ctx, err)
		}
		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return dbError(ctx, err)
		}
		if len(cartItems) == 0 {
			return &HTTPError{Status: http.StatusBadRequest, Code: CodeCartEmpty, Message: "Cart is empty"}
		}

		subtotal := model.SumCartItems(cartItems)
		total := subtotal
		promo, err := findValidPromotion(ctx, r, in.PromotionCode, subtotal, now)
		if err != nil {
			return err
		}
		if promo != nil {
			total = pricing.Apply(subtotal, promo)
		} else if strings.TrimSpace(in.PromotionCode) != "" {
			logger.Info().Str("promotion_code", in.PromotionCode).Msg("promotion code not applied")
		}

		lines := make([]lineRequest, 0, len(cartItems))
		for _, it := range cartItems {
			unit := it.UnitPrice
			lines = append(lines, lineRequest{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: &unit})
		}
		items, _, err := reserveStock(ctx, r, lines)
		if err != nil {
			return err
		}

		order, err := persistOrder(ctx, r, u.numbers, u.ids, now, placement{
			UserID:          userID,
			ShippingAddress: strings.TrimSpace(in.ShippingAddress),
			PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
			Total:           total,
			Items:           items,
		})
		if err != nil {
			return err
		}

		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return dbError(ctx, err)
		}

		out = CheckoutOutput{
			Order:          toOrderOutput(order, user),
			Payment:        toPaymentOutput(*order.Payment),
			SubTotal:       subtotal,
			DiscountAmount: subtotal.Sub(total),
			Total:          total,
			CheckoutDate:   now,
		}
		if promo != nil {
			code := promo.Code
			out.AppliedPromotionCode = &code
		}
		return nil
	})
	if err != nil {
		logger.Info().Err(err).Int64("user_id", userID).Msg("checkout failed")
		return CheckoutOutput{}, finishTx(ctx, err)
	}

	logger.Info().
		Int64("user_id", userID).
		Str("order_number", out.Order.OrderNumber).
		Str("subtotal", out.SubTotal.StringFixed(2)).
		Str("total", out.Total.StringFixed(2)).
		Msg("checkout completed")
	return out, nil
}
