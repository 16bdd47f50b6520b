// Package pricing はプロモーションの検証と割引計算（副作用なし）。
//
// 丸めは四捨五入（half away from zero、decimal.Round）で統一する。
package pricing

import (
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Validate は now 時点で orderTotal に対して使えるかを返す。
// 使えないのはエラーではなく false
func Validate(p *model.Promotion, orderTotal decimal.Decimal, now time.Time) bool {
	if p == nil || !p.IsActive {
		return false
	}
	if now.Before(p.StartDate) || now.After(p.EndDate) {
		return false
	}
	return meetsMinimum(p, orderTotal)
}

// Apply は割引後の金額を返す。最低注文額を満たさなければ amount のまま
func Apply(amount decimal.Decimal, p *model.Promotion) decimal.Decimal {
	if p == nil || !meetsMinimum(p, amount) {
		return amount
	}

	switch p.DiscountType {
	case model.DiscountPercentage:
		off := amount.Mul(p.DiscountValue).Div(hundred)
		return amount.Sub(off).Round(2)
	case model.DiscountFixedAmount:
		// マイナスにはしない
		return decimal.Max(decimal.Zero, amount.Sub(p.DiscountValue)).Round(2)
	default:
		return amount
	}
}

// Discount は amount − Apply(amount, p)
func Discount(amount decimal.Decimal, p *model.Promotion) decimal.Decimal {
	return amount.Sub(Apply(amount, p))
}

// BestPrice は商品単位の価格プレビュー用。
// scoped のうち now 時点で有効なものを全部当てて一番安い価格を選ぶ。
// codePromotion（呼び出し側で検証済み）はそれより厳密に安いときだけ勝つ
func BestPrice(base decimal.Decimal, scoped []model.Promotion, codePromotion *model.Promotion, now time.Time) (decimal.Decimal, *model.Promotion) {
	best := base
	var winner *model.Promotion

	for i := range scoped {
		p := &scoped[i]
		if !Validate(p, base, now) {
			continue
		}
		if price := Apply(base, p); price.LessThan(best) {
			best = price
			winner = p
		}
	}

	if codePromotion != nil {
		if price := Apply(base, codePromotion); price.LessThan(best) {
			best = price
			winner = codePromotion
		}
	}
	return best, winner
}

func meetsMinimum(p *model.Promotion, amount decimal.Decimal) bool {
	if !p.MinimumOrderAmount.Valid {
		return true
	}
	return !amount.LessThan(p.MinimumOrderAmount.Decimal)
}
