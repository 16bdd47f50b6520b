package repository

import (
	"context"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"gorm.io/gorm"
)

type UserGormRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

// DI
func NewUserGormRepository(db *gorm.DB, clk clock.Clock) *UserGormRepository {
	return &UserGormRepository{db: db, clock: clk}
}

var _ repo.UserRepository = (*UserGormRepository)(nil)

// Create はユーザーを新規作成。email / username 重複は ErrDuplicate
func (r *UserGormRepository) Create(ctx context.Context, user *model.User) error {
	model.TouchCreated(r.clock.Now(), user)
	return translate("create user", r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserGormRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return model.User{}, translate("find user", err)
	}
	return u, nil
}

// emailでユーザーを1件取得
func (r *UserGormRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return model.User{}, translate("find user by email", err)
	}
	return u, nil
}
