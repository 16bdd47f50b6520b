package repository

import (
	"context"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewPaymentGormRepository(db *gorm.DB, clk clock.Clock) *PaymentGormRepository {
	return &PaymentGormRepository{db: db, clock: clk}
}

var _ repo.PaymentRepository = (*PaymentGormRepository)(nil)

func (r *PaymentGormRepository) Create(ctx context.Context, payment *model.Payment) error {
	model.TouchCreated(r.clock.Now(), payment)
	return translate("create payment", r.db.WithContext(ctx).Create(payment).Error)
}

func (r *PaymentGormRepository) FindByID(ctx context.Context, paymentID int64) (model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).First(&p, paymentID).Error; err != nil {
		return model.Payment{}, translate("find payment", err)
	}
	return p, nil
}

func (r *PaymentGormRepository) UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).Where("id = ?", paymentID).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": r.clock.Now(),
	})
	if res.Error != nil {
		return translate("update payment status", res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
