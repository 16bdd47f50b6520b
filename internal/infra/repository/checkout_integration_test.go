//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/clock"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/infra/db"
	infraRepo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/infra/repository"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gdb, err := db.Open(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) NewID() string { return fmt.Sprintf("%032x", g.n.Add(1)) }

// 2回目以降は毎回違う番号。最初の2回は同じ番号を返して衝突させる
type collidingNumbers struct{ n atomic.Int64 }

func (g *collidingNumbers) Next(now time.Time) string {
	n := g.n.Add(1)
	if n <= 2 {
		return "ORD-" + now.UTC().Format("20060102") + "-5555"
	}
	return fmt.Sprintf("ORD-%s-%04d", now.UTC().Format("20060102"), 1000+n)
}

// 在庫5に対して数量3のチェックアウトが同時に2件来ると、片方だけ通る
func TestCheckout_ConcurrentStock(t *testing.T) {
	gdb := setupDB(t)
	ctx := context.Background()
	clk := clock.Real{}
	tx := infraRepo.NewTxManagerGorm(gdb, clk)

	var users [2]model.User
	var product model.Product
	require.NoError(t, tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for i := range users {
			users[i] = model.User{
				Username:     fmt.Sprintf("user%d", i),
				Email:        fmt.Sprintf("user%d@example.com", i),
				PasswordHash: "x",
				Role:         model.RoleCustomer,
			}
			if err := r.Users().Create(ctx, &users[i]); err != nil {
				return err
			}
		}
		var err error
		product, err = r.Products().Create(ctx, model.Product{Name: "Kettle", Price: decimal.RequireFromString("20.00"), Stock: 5, IsActive: true})
		return err
	}))

	promotions := usecase.NewPromotionUsecase(tx, nil, clk)
	carts := usecase.NewCartUsecase(tx, promotions)
	for _, u := range users {
		_, err := carts.AddItem(ctx, u.ID, usecase.AddCartItemInput{ProductID: product.ID, Quantity: 3})
		require.NoError(t, err)
	}

	checkout := usecase.NewCheckoutUsecase(tx, clk, &seqIDs{}, &collidingNumbers{})

	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = checkout.Checkout(ctx, u.ID, usecase.CheckoutInput{ShippingAddress: "1 Main St", PaymentMethod: "CreditCard"})
		}()
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		he, isHTTP := usecase.AsHTTPError(err)
		require.True(t, isHTTP, "unexpected error: %v", err)
		assert.Equal(t, usecase.CodeInsufficientStock, he.Code)
		rejected++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	var stock int64
	require.NoError(t, gdb.Model(&model.Product{}).Where("id = ?", product.ID).Pluck("stock", &stock).Error)
	assert.Equal(t, int64(2), stock)

	var orders, payments int64
	require.NoError(t, gdb.Model(&model.Order{}).Count(&orders).Error)
	require.NoError(t, gdb.Model(&model.Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(1), orders)
	assert.Equal(t, int64(1), payments)
}

// 同じ番号が出ても unique 制約で弾かれ、取り直した番号で保存される
func TestCreateOrder_OrderNumberCollision(t *testing.T) {
	gdb := setupDB(t)
	ctx := context.Background()
	clk := clock.Real{}
	tx := infraRepo.NewTxManagerGorm(gdb, clk)

	user := model.User{Username: "buyer", Email: "buyer@example.com", PasswordHash: "x", Role: model.RoleCustomer}
	var product model.Product
	require.NoError(t, tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Users().Create(ctx, &user); err != nil {
			return err
		}
		var err error
		product, err = r.Products().Create(ctx, model.Product{Name: "Cup", Price: decimal.RequireFromString("4.50"), Stock: 10, IsActive: true})
		return err
	}))

	orders := usecase.NewOrderUsecase(tx, clk, &seqIDs{}, &collidingNumbers{})
	in := usecase.CreateOrderInput{
		ShippingAddress: "1 Main St",
		PaymentMethod:   "CreditCard",
		Items:           []usecase.OrderLineInput{{ProductID: product.ID, Quantity: 1}},
	}

	first, err := orders.CreateOrder(ctx, user.ID, in)
	require.NoError(t, err)
	second, err := orders.CreateOrder(ctx, user.ID, in)
	require.NoError(t, err)

	assert.NotEqual(t, first.OrderNumber, second.OrderNumber)
	assert.True(t, decimal.RequireFromString("4.50").Equal(second.TotalAmount))
}
