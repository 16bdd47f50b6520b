package repository

import (
	"context"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成。email / username 重複は ErrDuplicate
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
}
