package usecase

import (
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"

	"github.com/google/uuid"
)

// Clock は現在時刻の約束（clock.Real を注入する）
type Clock = clock.Clock

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 注文番号を作る約束
type OrderNumberGenerator interface {
	Next(now time.Time) string
}

// UUIDGenerator はハイフンなし32桁のhex
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// RandomOrderNumbers は ORD-yyyymmdd-NNNN（NNNNは1000〜9999、日付はUTC）
type RandomOrderNumbers struct{}

func (RandomOrderNumbers) Next(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", now.UTC().Format("20060102"), 1000+rand.IntN(9000))
}
