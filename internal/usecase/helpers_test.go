package usecase_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository/repotest"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() clock.Clock {
	return clock.Func(func() time.Time { return fixedNow })
}

func clockFunc(f func() time.Time) clock.Clock {
	return clock.Func(f)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// 連番のID（トランザクションIDの代わり）
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%032x", g.n)
}

// 決まった順に番号を返す。尽きたら最後のものを返し続ける
type scriptedNumbers struct {
	mu    sync.Mutex
	list  []string
	calls int
}

func (g *scriptedNumbers) Next(time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := min(g.calls, len(g.list)-1)
	g.calls++
	return g.list[i]
}

// 毎回違う番号
type countingNumbers struct {
	mu sync.Mutex
	n  int
}

func (g *countingNumbers) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), 1000+g.n)
}

// ids と numbers はテスト内のすべての注文で共有する（取引IDは一意制約がある）
type fixture struct {
	store    *repotest.Store
	ids      *seqIDs
	numbers  *countingNumbers
	customer model.User
	other    model.User
	admin    model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := repotest.NewStore(fixedClock())
	return &fixture{
		store:    s,
		ids:      &seqIDs{},
		numbers:  &countingNumbers{},
		customer: s.AddUser(model.User{Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Smith"}),
		other:    s.AddUser(model.User{Username: "bob", Email: "bob@example.com"}),
		admin:    s.AddUser(model.User{Username: "admin", Email: "admin@example.com", Role: model.RoleAdmin}),
	}
}

func (f *fixture) product(name, price string, stock int64) model.Product {
	return f.store.AddProduct(model.Product{Name: name, Price: dec(price), Stock: stock, IsActive: true})
}

func (f *fixture) promotion(code string, typ model.DiscountType, value string, minimum string) model.Promotion {
	p := model.Promotion{
		Name:          code,
		Code:          code,
		DiscountType:  typ,
		DiscountValue: dec(value),
		IsActive:      true,
		StartDate:     fixedNow.AddDate(0, -1, 0),
		EndDate:       fixedNow.AddDate(0, 1, 0),
	}
	if minimum != "" {
		p.MinimumOrderAmount = decimal.NewNullDecimal(dec(minimum))
	}
	return f.store.AddPromotion(p)
}

func (f *fixture) promotions() *usecase.PromotionUsecase {
	return usecase.NewPromotionUsecase(f.store, nil, fixedClock())
}

func (f *fixture) cart() *usecase.CartUsecase {
	return usecase.NewCartUsecase(f.store, f.promotions())
}

func (f *fixture) checkout() *usecase.CheckoutUsecase {
	return usecase.NewCheckoutUsecase(f.store, fixedClock(), f.ids, f.numbers)
}

func (f *fixture) orders() *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(f.store, fixedClock(), f.ids, f.numbers)
}

// HTTPError のステータスとコードを確認して返す
func requireHTTPError(t *testing.T, err error, status int, code string) *usecase.HTTPError {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %T: %v", err, err)
	assert.Equal(t, status, he.Status)
	assert.Equal(t, code, he.Code)
	return he
}

func fieldNames(he *usecase.HTTPError) []string {
	out := make([]string, 0, len(he.Errors))
	for _, f := range he.Errors {
		out = append(out, f.Field)
	}
	return out
}
