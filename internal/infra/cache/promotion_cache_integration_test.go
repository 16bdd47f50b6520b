//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/infra/cache"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestPromotionRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := cache.NewClient(startRedis(t))
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewPromotionRedisCache(client, time.Minute)

	_, found, err := c.Get(ctx, "summer15")
	require.NoError(t, err)
	assert.False(t, found)

	p := model.Promotion{
		ID:                 7,
		Code:               "SUMMER15",
		DiscountType:       model.DiscountPercentage,
		DiscountValue:      decimal.RequireFromString("15"),
		MinimumOrderAmount: decimal.NewNullDecimal(decimal.RequireFromString("50")),
		IsActive:           true,
		StartDate:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Products:           []model.PromotionProduct{{PromotionID: 7, ProductID: 3}},
	}
	require.NoError(t, c.Set(ctx, p))

	got, found, err := c.Get(ctx, "summer15")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(7), got.ID)
	assert.True(t, p.DiscountValue.Equal(got.DiscountValue))
	assert.True(t, got.MinimumOrderAmount.Valid)
	assert.Equal(t, []int64{3}, got.ProductIDs())
	assert.True(t, p.StartDate.Equal(got.StartDate))

	require.NoError(t, c.Delete(ctx, "SUMMER15", "OTHER"))
	_, found, err = c.Get(ctx, "SUMMER15")
	require.NoError(t, err)
	assert.False(t, found)
}
