package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"github.com/rs/zerolog"
)

// 1日9000通りなので衝突したら作り直す。上限はctxキャンセルとこの回数だけ
const maxOrderNumberAttempts = 1000

var errOrderNumberExhausted = errors.New("could not allocate a unique order number")

// 存在チェック→savepoint内でINSERT。一意制約違反なら番号を作り直す
func createOrderWithUniqueNumber(ctx context.Context, r repo.TxRepos, numbers OrderNumberGenerator, now time.Time, order *model.Order) error {
	logger := zerolog.Ctx(ctx)

	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		number := numbers.Next(now)
		exists, err := r.Orders().ExistsByOrderNumber(ctx, number)
		if err != nil {
			return dbError(ctx, err)
		}
		if exists {
			logger.Debug().Str("order_number", number).Int("attempt", attempt).Msg("order number taken")
			continue
		}

		order.OrderNumber = number
		err = r.Orders().Create(ctx, order)
		if errors.Is(err, repo.ErrDuplicate) {
			logger.Warn().Str("order_number", number).Int("attempt", attempt).Msg("order number collision")
			order.OrderNumber = ""
			continue
		}
		if err != nil {
			return dbError(ctx, err)
		}
		return nil
	}
	return dbError(ctx, errOrderNumberExhausted)
}
