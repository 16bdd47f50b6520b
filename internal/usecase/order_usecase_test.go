package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderInput(lines ...usecase.OrderLineInput) usecase.CreateOrderInput {
	return usecase.CreateOrderInput{ShippingAddress: "221B Baker St", PaymentMethod: "PayPal", Items: lines}
}

func TestOrderUsecase_CreateOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product("Tea", "4.25", 10)
	b := f.product("Cup", "7.00", 10)

	out, err := f.orders().CreateOrder(ctx, f.customer.ID, orderInput(
		usecase.OrderLineInput{ProductID: a.ID, Quantity: 4},
		usecase.OrderLineInput{ProductID: b.ID, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, "24.00", out.TotalAmount.StringFixed(2))
	assert.Equal(t, model.OrderStatusPending, out.Status)
	assert.Equal(t, "221B Baker St", out.ShippingAddress)
	require.Len(t, out.Items, 2)
	require.NotNil(t, out.Payment)
	assert.Equal(t, "24.00", out.Payment.Amount.StringFixed(2))
	assert.Equal(t, "PayPal", out.Payment.PaymentMethod)
	assert.Equal(t, int64(6), f.store.Product(a.ID).Stock)
}

func TestOrderUsecase_CreateOrder_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders().CreateOrder(context.Background(), f.customer.ID, usecase.CreateOrderInput{
		Items: []usecase.OrderLineInput{{ProductID: 0, Quantity: 0}},
	})
	he := requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
	assert.Equal(t, []string{"shipping_address", "payment_method", "items[0].product_id", "items[0].quantity"}, fieldNames(he))

	_, err = f.orders().CreateOrder(context.Background(), f.customer.ID, orderInput())
	he = requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
	assert.Equal(t, []string{"items"}, fieldNames(he))
}

func TestOrderUsecase_CreateOrder_MissingProductTouchesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product("Tea", "4.25", 10)

	_, err := f.orders().CreateOrder(ctx, f.customer.ID, orderInput(
		usecase.OrderLineInput{ProductID: a.ID, Quantity: 1},
		usecase.OrderLineInput{ProductID: 404, Quantity: 1},
	))
	he := requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeNotFound)
	assert.Equal(t, []string{"items[1]"}, fieldNames(he))
	assert.Equal(t, int64(10), f.store.Product(a.ID).Stock)
	assert.Equal(t, 0, f.store.OrderCount())
}

func TestOrderUsecase_ListMyOrders_NewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product("Tea", "1.00", 10)

	var now = fixedNow
	clk := func() time.Time { return now }
	uc := usecase.NewOrderUsecase(f.store, clockFunc(clk), f.ids, f.numbers)

	first, err := uc.CreateOrder(ctx, f.customer.ID, orderInput(usecase.OrderLineInput{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	now = now.Add(time.Hour)
	second, err := uc.CreateOrder(ctx, f.customer.ID, orderInput(usecase.OrderLineInput{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)
	_, err = uc.CreateOrder(ctx, f.other.ID, orderInput(usecase.OrderLineInput{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	list, err := uc.ListMyOrders(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Len(t, list[0].Items, 1)
	assert.NotNil(t, list[0].Payment)
}

func TestOrderUsecase_GetOrder_Access(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product("Tea", "1.00", 10)
	uc := f.orders()

	o, err := uc.CreateOrder(ctx, f.customer.ID, orderInput(usecase.OrderLineInput{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	got, err := uc.GetOrder(ctx, f.customer.ID, model.RoleCustomer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)

	_, err = uc.GetOrder(ctx, f.other.ID, model.RoleCustomer, o.ID)
	requireHTTPError(t, err, http.StatusForbidden, usecase.CodeForbidden)

	got, err = uc.GetOrder(ctx, f.admin.ID, model.RoleAdmin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", got.UserName)

	_, err = uc.GetOrder(ctx, f.customer.ID, model.RoleCustomer, 999)
	requireHTTPError(t, err, http.StatusNotFound, usecase.CodeNotFound)
}
