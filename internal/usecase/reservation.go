package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// 注文にする1行
type lineRequest struct {
	ProductID int64
	Quantity  int64
	// カートで確定した単価。nil なら今の商品価格
	UnitPrice *decimal.Decimal
}

// reserveStock は全行を先に検証し、1行でもダメなら在庫に触らず全部のエラーを返す。
// 全部通ったらガード付きUPDATEで減らす。競合で負けたら INSUFFICIENT_STOCK（Txごと戻る）
func reserveStock(ctx context.Context, r repo.TxRepos, lines []lineRequest) ([]model.OrderItem, decimal.Decimal, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := r.Products().FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, dbError(ctx, err)
	}

	var fe FieldErrors
	items := make([]model.OrderItem, 0, len(lines))
	total := decimal.Zero

	for i, l := range lines {
		field := fmt.Sprintf("items[%d]", i)
		p, ok := products[l.ProductID]
		switch {
		case !ok:
			fe.AddCode(field, CodeNotFound, fmt.Sprintf("Product %d not found", l.ProductID))
			continue
		case !p.IsActive:
			fe.AddCode(field, CodeProductInactive, fmt.Sprintf("Product %s is no longer available", p.Name))
			continue
		case p.Stock < l.Quantity:
			fe.AddCode(field, CodeInsufficientStock, fmt.Sprintf("Not enough stock for product %s. Available: %d", p.Name, p.Stock))
			continue
		}

		unit := p.Price
		if l.UnitPrice != nil {
			unit = *l.UnitPrice
		}
		item := model.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   unit,
		}
		item.Recalculate()
		items = append(items, item)
		total = total.Add(item.TotalPrice)
	}

	if err := fe.Err(); err != nil {
		zerolog.Ctx(ctx).Info().Int("rejected_lines", len(fe)).Msg("reservation rejected")
		return nil, decimal.Zero, err
	}

	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		err := r.Inventory().DecrementStock(ctx, it.ProductID, it.Quantity)
		switch {
		case err == nil:
		case errors.Is(err, repo.ErrInsufficientStock):
			return nil, decimal.Zero, newFieldError(CodeInsufficientStock, field, fmt.Sprintf("Not enough stock for product %s", it.ProductName))
		case errors.Is(err, repo.ErrNotFound):
			return nil, decimal.Zero, newFieldError(CodeNotFound, field, fmt.Sprintf("Product %d not found", it.ProductID))
		default:
			return nil, decimal.Zero, dbError(ctx, err)
		}
	}
	return items, total, nil
}
