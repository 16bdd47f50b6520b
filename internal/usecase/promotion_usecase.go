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

// コード→プロモーションのキャッシュ（Redis か何もしない実装）
type PromotionCache interface {
	Get(ctx context.Context, code string) (model.Promotion, bool, error)
	Set(ctx context.Context, p model.Promotion) error
	Delete(ctx context.Context, codes ...string) error
}

type PromotionUsecase struct {
	tx    repo.TransactionManager
	cache PromotionCache
	clock Clock
}

// DI
func NewPromotionUsecase(tx repo.TransactionManager, cache PromotionCache, clk Clock) *PromotionUsecase {
	if cache == nil {
		cache = noopPromotionCache{}
	}
	return &PromotionUsecase{tx: tx, cache: cache, clock: clk}
}

type noopPromotionCache struct{}

func (noopPromotionCache) Get(context.Context, string) (model.Promotion, bool, error) {
	return model.Promotion{}, false, nil
}
func (noopPromotionCache) Set(context.Context, model.Promotion) error { return nil }
func (noopPromotionCache) Delete(context.Context, ...string) error    { return nil }

type PromotionInput struct {
	Name               string
	Description        string
	Code               string
	DiscountType       string
	DiscountValue      decimal.Decimal
	MinimumOrderAmount *decimal.Decimal
	IsActive           bool
	StartDate          time.Time
	EndDate            time.Time
	ProductIDs         []int64
	CategoryIDs        []int64
}

type PromotionOutput struct {
	ID                 int64               `json:"id"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Code               string              `json:"code"`
	DiscountType       model.DiscountType  `json:"discount_type"`
	DiscountValue      decimal.Decimal     `json:"discount_value"`
	MinimumOrderAmount decimal.NullDecimal `json:"minimum_order_amount"`
	IsActive           bool                `json:"is_active"`
	StartDate          time.Time           `json:"start_date"`
	EndDate            time.Time           `json:"end_date"`
	ProductIDs         []int64             `json:"product_ids"`
	CategoryIDs        []int64             `json:"category_ids"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type ProductPriceOutput struct {
	ProductID        int64           `json:"product_id"`
	Quantity         int64           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	BasePrice        decimal.Decimal `json:"base_price"`
	FinalPrice       decimal.Decimal `json:"final_price"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	AppliedPromotion *string         `json:"applied_promotion"`
}

// Validate は code が orderTotal に対して今使えるかを返す。
// 空・存在しない・期間外・最低額未満は (nil, false, nil)
func (u *PromotionUsecase) Validate(ctx context.Context, code string, orderTotal decimal.Decimal) (*model.Promotion, bool, error) {
	return u.validate(ctx, nil, code, orderTotal)
}

// ValidateInTx は呼び出し側のTxで引く版。キャッシュは同じように使う
func (u *PromotionUsecase) ValidateInTx(ctx context.Context, r repo.TxRepos, code string, orderTotal decimal.Decimal) (*model.Promotion, bool, error) {
	return u.validate(ctx, r, code, orderTotal)
}

func (u *PromotionUsecase) validate(ctx context.Context, r repo.TxRepos, code string, orderTotal decimal.Decimal) (*model.Promotion, bool, error) {
	code = model.NormalizePromotionCode(code)
	if code == "" {
		return nil, false, nil
	}

	p, found, err := u.lookup(ctx, r, code)
	if err != nil {
		return nil, false, err
	}
	if !found || !pricing.Validate(&p, orderTotal, u.clock.Now()) {
		return nil, false, nil
	}
	return &p, true, nil
}

// キャッシュ→DBの順（キャッシュの失敗はログだけ）。r が nil なら自前のTxで引く
func (u *PromotionUsecase) lookup(ctx context.Context, r repo.TxRepos, code string) (model.Promotion, bool, error) {
	logger := zerolog.Ctx(ctx)

	p, hit, err := u.cache.Get(ctx, code)
	if err != nil {
		logger.Warn().Err(err).Str("code", code).Msg("promotion cache get failed")
	}
	if hit {
		return p, true, nil
	}

	found := false
	find := func(r repo.TxRepos) error {
		var ferr error
		p, ferr = r.Promotions().FindByCode(ctx, code)
		if errors.Is(ferr, repo.ErrNotFound) {
			return nil
		}
		if ferr != nil {
			return dbError(ctx, ferr)
		}
		found = true
		return nil
	}
	if r != nil {
		err = find(r)
	} else if err = u.tx.WithinTx(ctx, find); err != nil {
		err = finishTx(ctx, err)
	}
	if err != nil {
		return model.Promotion{}, false, err
	}

	if found {
		if err := u.cache.Set(ctx, p); err != nil {
			logger.Warn().Err(err).Str("code", code).Msg("promotion cache set failed")
		}
	}
	return p, found, nil
}

// Tx の中で使う版（キャッシュは見ない）。使えなければ nil
func findValidPromotion(ctx context.Context, r repo.TxRepos, code string, orderTotal decimal.Decimal, now time.Time) (*model.Promotion, error) {
	code = model.NormalizePromotionCode(code)
	if code == "" {
		return nil, nil
	}
	p, err := r.Promotions().FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(ctx, err)
	}
	if !pricing.Validate(&p, orderTotal, now) {
		return nil, nil
	}
	return &p, nil
}

// ProductPrice は商品単位の価格プレビュー（商品・カテゴリに紐づくプロモーションから最安を選ぶ）
func (u *PromotionUsecase) ProductPrice(ctx context.Context, productID int64, quantity int64, code string) (ProductPriceOutput, error) {
	var fe FieldErrors
	if productID <= 0 {
		fe.Add("product_id", "invalid product id")
	}
	if quantity <= 0 {
		fe.Add("quantity", "quantity must be greater than 0")
	}
	if err := fe.Err(); err != nil {
		return ProductPriceOutput{}, err
	}

	now := u.clock.Now()
	var out ProductPriceOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		if !p.IsActive {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}

		base := p.Price.Mul(decimal.NewFromInt(quantity))

		scoped, err := r.Promotions().ListForProduct(ctx, p.ID, p.CategoryID, now)
		if err != nil {
			return dbError(ctx, err)
		}
		codePromo, err := findValidPromotion(ctx, r, code, base, now)
		if err != nil {
			return err
		}

		final, winner := pricing.BestPrice(base, scoped, codePromo, now)
		out = ProductPriceOutput{
			ProductID:      p.ID,
			Quantity:       quantity,
			UnitPrice:      p.Price,
			BasePrice:      base,
			FinalPrice:     final,
			DiscountAmount: base.Sub(final),
		}
		if winner != nil {
			c := winner.Code
			out.AppliedPromotion = &c
		}
		return nil
	})
	if err != nil {
		return ProductPriceOutput{}, finishTx(ctx, err)
	}
	return out, nil
}

func (u *PromotionUsecase) List(ctx context.Context) ([]PromotionOutput, error) {
	return u.list(ctx, func(r repo.TxRepos) ([]model.Promotion, error) {
		return r.Promotions().List(ctx)
	})
}

// 有効なもの（is_active かつ期間内）
func (u *PromotionUsecase) ListActive(ctx context.Context) ([]PromotionOutput, error) {
	now := u.clock.Now()
	return u.list(ctx, func(r repo.TxRepos) ([]model.Promotion, error) {
		return r.Promotions().ListActive(ctx, now)
	})
}

func (u *PromotionUsecase) list(ctx context.Context, load func(r repo.TxRepos) ([]model.Promotion, error)) ([]PromotionOutput, error) {
	var outs []PromotionOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ps, err := load(r)
		if err != nil {
			return dbError(ctx, err)
		}
		outs = make([]PromotionOutput, 0, len(ps))
		for _, p := range ps {
			outs = append(outs, toPromotionOutput(p))
		}
		return nil
	})
	if err != nil {
		return []PromotionOutput{}, finishTx(ctx, err)
	}
	return outs, nil
}

func (u *PromotionUsecase) GetByID(ctx context.Context, id int64) (PromotionOutput, error) {
	if id <= 0 {
		return PromotionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var out PromotionOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Promotions().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "promotion not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		out = toPromotionOutput(p)
		return nil
	})
	return out, finishTx(ctx, err)
}

// コード検索（大小文字は区別しない）
func (u *PromotionUsecase) GetByCode(ctx context.Context, code string) (PromotionOutput, error) {
	code = model.NormalizePromotionCode(code)
	if code == "" {
		return PromotionOutput{}, newFieldError(CodeValidation, "code", "code is required")
	}
	p, found, err := u.lookup(ctx, nil, code)
	if err != nil {
		return PromotionOutput{}, err
	}
	if !found {
		return PromotionOutput{}, NewHTTPError(http.StatusNotFound, "promotion not found")
	}
	return toPromotionOutput(p), nil
}

func (u *PromotionUsecase) Create(ctx context.Context, in PromotionInput) (PromotionOutput, error) {
	fe := validatePromotionInput(in)
	code := model.NormalizePromotionCode(in.Code)

	var out PromotionOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if code != "" {
			if _, err := r.Promotions().FindByCode(ctx, code); err == nil {
				fe.AddCode("code", CodeConflict, "Promotion code already exists")
			} else if !errors.Is(err, repo.ErrNotFound) {
				return dbError(ctx, err)
			}
		}
		if err := fe.Err(); err != nil {
			return err
		}

		p, err := buildPromotion(ctx, r, in)
		if err != nil {
			return err
		}
		created, err := r.Promotions().Create(ctx, p)
		if errors.Is(err, repo.ErrDuplicate) {
			return newFieldError(CodeConflict, "code", "Promotion code already exists")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		out = toPromotionOutput(created)
		return nil
	})
	if err != nil {
		return PromotionOutput{}, finishTx(ctx, err)
	}

	u.evict(ctx, code)
	return out, nil
}

func (u *PromotionUsecase) Update(ctx context.Context, id int64, in PromotionInput) (PromotionOutput, error) {
	if id <= 0 {
		return PromotionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	fe := validatePromotionInput(in)
	code := model.NormalizePromotionCode(in.Code)

	var out PromotionOutput
	var oldCode string
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		current, err := r.Promotions().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "promotion not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		oldCode = current.Code

		if code != "" && code != current.Code {
			if _, err := r.Promotions().FindByCode(ctx, code); err == nil {
				fe.AddCode("code", CodeConflict, "Promotion code already exists")
			} else if !errors.Is(err, repo.ErrNotFound) {
				return dbError(ctx, err)
			}
		}
		if err := fe.Err(); err != nil {
			return err
		}

		p, err := buildPromotion(ctx, r, in)
		if err != nil {
			return err
		}
		p.ID = id
		p.CreatedAt = current.CreatedAt
		if err := r.Promotions().Update(ctx, p); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return newFieldError(CodeConflict, "code", "Promotion code already exists")
			}
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "promotion not found")
			}
			return dbError(ctx, err)
		}

		updated, err := r.Promotions().FindByID(ctx, id)
		if err != nil {
			return dbError(ctx, err)
		}
		out = toPromotionOutput(updated)
		return nil
	})
	if err != nil {
		return PromotionOutput{}, finishTx(ctx, err)
	}

	u.evict(ctx, oldCode, code)
	return out, nil
}

func (u *PromotionUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var code string
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Promotions().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "promotion not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		code = p.Code
		if err := r.Promotions().Delete(ctx, id); err != nil {
			return dbError(ctx, err)
		}
		return nil
	})
	if err != nil {
		return finishTx(ctx, err)
	}

	u.evict(ctx, code)
	return nil
}

func (u *PromotionUsecase) evict(ctx context.Context, codes ...string) {
	if err := u.cache.Delete(ctx, codes...); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Strs("codes", codes).Msg("promotion cache evict failed")
	}
}

// 入力チェック（重複チェックはDBを見るので呼び出し側）
func validatePromotionInput(in PromotionInput) FieldErrors {
	var fe FieldErrors

	if strings.TrimSpace(in.Name) == "" {
		fe.Add("name", "name is required")
	}
	code := model.NormalizePromotionCode(in.Code)
	if code == "" {
		fe.Add("code", "code is required")
	} else if len(code) > 50 {
		fe.Add("code", "code must be 50 characters or less")
	}

	dt := model.DiscountType(in.DiscountType)
	if !dt.Valid() {
		fe.Add("discount_type", "discount_type must be Percentage or FixedAmount")
	}
	if !in.DiscountValue.IsPositive() {
		fe.Add("discount_value", "discount_value must be greater than 0")
	} else if dt == model.DiscountPercentage && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		fe.Add("discount_value", "percentage discount cannot exceed 100")
	}
	if in.MinimumOrderAmount != nil && in.MinimumOrderAmount.IsNegative() {
		fe.Add("minimum_order_amount", "minimum_order_amount must be >= 0")
	}

	if in.StartDate.IsZero() {
		fe.Add("start_date", "start_date is required")
	}
	if in.EndDate.IsZero() {
		fe.Add("end_date", "end_date is required")
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && !in.StartDate.Before(in.EndDate) {
		fe.Add("end_date", "end_date must be after start_date")
	}
	return fe
}

// 存在しない商品・カテゴリIDは黙って外す
func buildPromotion(ctx context.Context, r repo.TxRepos, in PromotionInput) (model.Promotion, error) {
	p := model.Promotion{
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Code:          model.NormalizePromotionCode(in.Code),
		DiscountType:  model.DiscountType(in.DiscountType),
		DiscountValue: in.DiscountValue.Round(2),
		IsActive:      in.IsActive,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate.UTC(),
	}
	if in.MinimumOrderAmount != nil {
		p.MinimumOrderAmount = decimal.NewNullDecimal(in.MinimumOrderAmount.Round(2))
	}

	if len(in.ProductIDs) > 0 {
		found, err := r.Products().FindByIDs(ctx, uniqueIDs(in.ProductIDs))
		if err != nil {
			return model.Promotion{}, dbError(ctx, err)
		}
		for _, id := range uniqueIDs(in.ProductIDs) {
			if _, ok := found[id]; ok {
				p.Products = append(p.Products, model.PromotionProduct{ProductID: id})
			}
		}
	}
	for _, id := range uniqueIDs(in.CategoryIDs) {
		_, err := r.Categories().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return model.Promotion{}, dbError(ctx, err)
		}
		p.Categories = append(p.Categories, model.PromotionCategory{CategoryID: id})
	}
	return p, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toPromotionOutput(p model.Promotion) PromotionOutput {
	return PromotionOutput{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Code:               p.Code,
		DiscountType:       p.DiscountType,
		DiscountValue:      p.DiscountValue,
		MinimumOrderAmount: p.MinimumOrderAmount,
		IsActive:           p.IsActive,
		StartDate:          p.StartDate,
		EndDate:            p.EndDate,
		ProductIDs:         p.ProductIDs(),
		CategoryIDs:        p.CategoryIDs(),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
