package repository

import (
	"context"
	"errors"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// カートと明細をまとめて扱う
type CartGormRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

// DI
func NewCartGormRepository(db *gorm.DB, clk clock.Clock) *CartGormRepository {
	return &CartGormRepository{db: db, clock: clk}
}

var (
	_ repo.CartRepository     = (*CartGormRepository)(nil)
	_ repo.CartItemRepository = (*CartGormRepository)(nil)
)

// ユーザーのカートを行ロック付きで取得し、無ければ作成
func (r *CartGormRepository) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	db := r.db.WithContext(ctx)

	cart, err := r.lockByUserID(db, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, err
	}

	// 同時に作られても1つだけ（user_id unique）
	newCart := model.Cart{UserID: userID}
	model.TouchCreated(r.clock.Now(), &newCart)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(&newCart).Error; err != nil {
		return model.Cart{}, translate("create cart", err)
	}

	return r.lockByUserID(db, userID)
}

func (r *CartGormRepository) lockByUserID(db *gorm.DB, userID int64) (model.Cart, error) {
	var cart model.Cart
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return model.Cart{}, translate("lock cart", err)
	}
	return cart, nil
}

func (r *CartGormRepository) Touch(ctx context.Context, cartID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", r.clock.Now())
	if res.Error != nil {
		return translate("touch cart", res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 指定カートの明細を全削除
func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		return translate("clear cart", err)
	}
	return r.Touch(ctx, cartID)
}

// カート明細を一覧取得
func (r *CartGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, translate("list cart items", err)
	}
	return items, nil
}

func (r *CartGormRepository) FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return model.CartItem{}, translate("find cart item", err)
	}
	return item, nil
}

// cart_id で絞るので他人の明細は見えない
func (r *CartGormRepository) FindInCart(ctx context.Context, cartID int64, cartItemID int64) (model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", cartItemID, cartID).
		First(&item).Error
	if err != nil {
		return model.CartItem{}, translate("find cart item", err)
	}
	return item, nil
}

func (r *CartGormRepository) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	item.Recalculate()
	model.TouchCreated(r.clock.Now(), &item)
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return model.CartItem{}, translate("create cart item", err)
	}
	return item, nil
}

// 数量・単価・合計を書き換える（合計はここでも再計算）
func (r *CartGormRepository) Update(ctx context.Context, item model.CartItem) error {
	item.Recalculate()
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ? AND cart_id = ?", item.ID, item.CartID).
		Updates(map[string]interface{}{
			"quantity":    item.Quantity,
			"unit_price":  item.UnitPrice,
			"total_price": item.TotalPrice,
			"updated_at":  r.clock.Now(),
		})
	if res.Error != nil {
		return translate("update cart item", res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除（無くてもOK）
func (r *CartGormRepository) Delete(ctx context.Context, cartID int64, cartItemID int64) error {
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", cartItemID, cartID).
		Delete(&model.CartItem{}).Error
	return translate("delete cart item", err)
}
