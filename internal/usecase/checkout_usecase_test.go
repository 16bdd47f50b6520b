package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"sync"
	"testing"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}-\d{4}$`)

func checkoutInput(code string) usecase.CheckoutInput {
	return usecase.CheckoutInput{ShippingAddress: "1 Main St, Springfield", PaymentMethod: "CreditCard", PromotionCode: code}
}

func addToCart(t *testing.T, f *fixture, userID int64, p model.Product, qty int64) {
	t.Helper()
	_, err := f.cart().AddItem(context.Background(), userID, usecase.AddCartItemInput{ProductID: p.ID, Quantity: qty})
	require.NoError(t, err)
}

func TestCheckout_SuccessWithPromotion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.product("Shirt", "25.00", 10)
	b := f.product("Socks", "10.00", 10)
	f.promotion("SUMMER15", model.DiscountPercentage, "15", "50")
	addToCart(t, f, f.customer.ID, a, 2)
	addToCart(t, f, f.customer.ID, b, 1)

	out, err := f.checkout().Checkout(ctx, f.customer.ID, checkoutInput("summer15"))
	require.NoError(t, err)

	assert.Equal(t, "60.00", out.SubTotal.StringFixed(2))
	assert.Equal(t, "51.00", out.Total.StringFixed(2))
	assert.Equal(t, "9.00", out.DiscountAmount.StringFixed(2))
	require.NotNil(t, out.AppliedPromotionCode)
	assert.Equal(t, "SUMMER15", *out.AppliedPromotionCode)
	assert.Equal(t, fixedNow, out.CheckoutDate)

	o := out.Order
	assert.Regexp(t, orderNumberPattern, o.OrderNumber)
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Equal(t, "51.00", o.TotalAmount.StringFixed(2))
	assert.Equal(t, "Alice Smith", o.UserName)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Shirt", o.Items[0].ProductName)
	assert.Equal(t, "50.00", o.Items[0].TotalPrice.StringFixed(2))

	assert.Equal(t, model.PaymentStatusPending, out.Payment.Status)
	assert.Equal(t, "51.00", out.Payment.Amount.StringFixed(2))
	assert.Equal(t, "CreditCard", out.Payment.PaymentMethod)
	assert.Len(t, out.Payment.TransactionID, 32)
	require.NotNil(t, o.Payment)
	assert.Equal(t, out.Payment.ID, o.Payment.ID)

	assert.Equal(t, int64(8), f.store.Product(a.ID).Stock)
	assert.Equal(t, int64(9), f.store.Product(b.ID).Stock)
	assert.Equal(t, 0, f.store.CartItemCount())
}

func TestCheckout_UsesCartUnitPrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product("Kettle", "25.00", 10)
	addToCart(t, f, f.customer.ID, p, 1)

	_, err := usecase.NewProductUsecase(f.store).AdminUpdateProduct(ctx, f.admin.ID, p.ID,
		usecase.AdminProductInput{Name: "Kettle", Price: dec("30.00"), IsActive: true})
	require.NoError(t, err)

	out, err := f.checkout().Checkout(ctx, f.customer.ID, checkoutInput(""))
	require.NoError(t, err)
	assert.Equal(t, "25.00", out.Total.StringFixed(2))
	assert.Equal(t, "25.00", out.Order.Items[0].UnitPrice.StringFixed(2))
}

func TestCheckout_InvalidPromotionIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product("Hat", "20.00", 5)
	f.promotion("BIG", model.DiscountFixedAmount, "5", "100")
	addToCart(t, f, f.customer.ID, p, 1)

	for _, code := range []string{"NOPE", "BIG"} {
		t.Run(code, func(t *testing.T) {
			addToCart(t, f, f.customer.ID, p, 1)
			out, err := f.checkout().Checkout(ctx, f.customer.ID, checkoutInput(code))
			require.NoError(t, err)
			assert.Nil(t, out.AppliedPromotionCode)
			assert.True(t, out.Total.Equal(out.SubTotal))
			assert.True(t, out.DiscountAmount.IsZero())
		})
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.checkout().Checkout(context.Background(), f.customer.ID, checkoutInput(""))
	requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeCartEmpty)
	assert.Equal(t, 0, f.store.OrderCount())
}

func TestCheckout_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.checkout().Checkout(context.Background(), 12345, checkoutInput(""))
	requireHTTPError(t, err, http.StatusNotFound, usecase.CodeNotFound)
}

func TestCheckout_RequiresShippingAndPayment(t *testing.T) {
	f := newFixture(t)
	_, err := f.checkout().Checkout(context.Background(), f.customer.ID, usecase.CheckoutInput{})
	he := requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
	assert.Equal(t, []string{"shipping_address", "payment_method"}, fieldNames(he))
}

// 1行でもダメなら在庫・注文・支払い・カートに何も起きない
func TestCheckout_AllOrNothingOnFailingLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ok := f.product("Ok", "5.00", 10)
	gone := f.product("Gone", "5.00", 10)
	short := f.product("Short", "5.00", 10)
	addToCart(t, f, f.customer.ID, ok, 2)
	addToCart(t, f, f.customer.ID, gone, 1)
	addToCart(t, f, f.customer.ID, short, 4)

	pu := usecase.NewProductUsecase(f.store)
	_, err := pu.AdminUpdateProduct(ctx, f.admin.ID, gone.ID, usecase.AdminProductInput{Name: "Gone", Price: dec("5.00"), IsActive: false})
	require.NoError(t, err)
	_, err = pu.AdminUpdateInventory(ctx, f.admin.ID, short.ID, 3, "recount")
	require.NoError(t, err)

	_, err = f.checkout().Checkout(ctx, f.customer.ID, checkoutInput(""))
	he := requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
	assert.Equal(t, []string{"items[1]", "items[2]"}, fieldNames(he))
	assert.Equal(t, usecase.CodeProductInactive, he.Errors[0].Code)
	assert.Equal(t, usecase.CodeInsufficientStock, he.Errors[1].Code)

	assert.Equal(t, int64(10), f.store.Product(ok.ID).Stock)
	assert.Equal(t, int64(3), f.store.Product(short.ID).Stock)
	assert.Equal(t, 0, f.store.OrderCount())
	assert.Equal(t, 0, f.store.PaymentCount())
	assert.Equal(t, 3, f.store.CartItemCount())
}

// 在庫を減らした後で失敗しても全部戻る
func TestCheckout_RollsBackAfterStockDecrement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product("Desk", "100.00", 4)
	addToCart(t, f, f.customer.ID, p, 2)
	f.store.FailPaymentCreate = errors.New("connection reset")

	_, err := f.checkout().Checkout(ctx, f.customer.ID, checkoutInput(""))
	he := requireHTTPError(t, err, http.StatusInternalServerError, usecase.CodeInternal)
	assert.NotContains(t, he.Message, "connection reset")

	assert.Equal(t, int64(4), f.store.Product(p.ID).Stock)
	assert.Equal(t, 0, f.store.OrderCount())
	assert.Equal(t, 1, f.store.CartItemCount())
}

func TestCheckout_ConcurrentCheckoutsOnLowStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product("Limited", "9.99", 5)
	addToCart(t, f, f.customer.ID, p, 3)
	addToCart(t, f, f.other.ID, p, 3)

	uc := f.checkout()
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, userID := range []int64{f.customer.ID, f.other.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = uc.Checkout(ctx, userID, checkoutInput(""))
		}()
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		he, ok := usecase.AsHTTPError(err)
		require.True(t, ok)
		assert.Equal(t, usecase.CodeInsufficientStock, he.Code)
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, int64(2), f.store.Product(p.ID).Stock)
	assert.Equal(t, 1, f.store.OrderCount())
}

func TestCheckout_OrderNumberCollisionRetries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product("Book", "12.00", 10)

	numbers := &scriptedNumbers{list: []string{
		"ORD-20240615-1111",
		"ORD-20240615-1111", // 既存と衝突（事前チェックで弾く）
		"ORD-20240615-2222", // INSERT時に一意制約違反
		"ORD-20240615-3333",
	}}
	f.store.RejectOrderNumber = func(n string) bool { return n == "ORD-20240615-2222" }
	uc := usecase.NewCheckoutUsecase(f.store, fixedClock(), f.ids, numbers)

	addToCart(t, f, f.customer.ID, p, 1)
	first, err := uc.Checkout(ctx, f.customer.ID, checkoutInput(""))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240615-1111", first.Order.OrderNumber)

	addToCart(t, f, f.other.ID, p, 1)
	second, err := uc.Checkout(ctx, f.other.ID, checkoutInput(""))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240615-3333", second.Order.OrderNumber)
	assert.Equal(t, 4, numbers.calls)
	assert.Equal(t, 2, f.store.OrderCount())
}

func TestCheckout_OrderNumbersUniqueUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product("Sticker", "1.00", 1000)

	users := make([]model.User, 0, 20)
	for i := range 20 {
		u := f.store.AddUser(model.User{Username: "user" + string(rune('a'+i)), Email: string(rune('a'+i)) + "@example.com"})
		users = append(users, u)
		addToCart(t, f, u.ID, p, 1)
	}

	uc := usecase.NewCheckoutUsecase(f.store, fixedClock(), f.ids, usecase.RandomOrderNumbers{})
	numbers := make([]string, len(users))
	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := uc.Checkout(ctx, u.ID, checkoutInput(""))
			assert.NoError(t, err)
			numbers[i] = out.Order.OrderNumber
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, n := range numbers {
		assert.Regexp(t, orderNumberPattern, n)
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
	assert.Equal(t, int64(980), f.store.Product(p.ID).Stock)
}

func TestCheckout_CancelledContext(t *testing.T) {
	f := newFixture(t)
	p := f.product("Chair", "50.00", 3)
	addToCart(t, f, f.customer.ID, p, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.checkout().Checkout(ctx, f.customer.ID, checkoutInput(""))
	require.Error(t, err)
	assert.Equal(t, int64(3), f.store.Product(p.ID).Stock)
	assert.Equal(t, 0, f.store.OrderCount())
}

func TestCheckout_RepeatedCheckoutsGetDistinctTransactionIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product("Pen", "2.00", 10)

	addToCart(t, f, f.customer.ID, p, 1)
	first, err := f.checkout().Checkout(ctx, f.customer.ID, checkoutInput(""))
	require.NoError(t, err)

	// checkout と CreateOrder をまたいでも取引IDは重ならない
	addToCart(t, f, f.customer.ID, p, 1)
	second, err := f.checkout().Checkout(ctx, f.customer.ID, checkoutInput(""))
	require.NoError(t, err)

	third, err := f.orders().CreateOrder(ctx, f.other.ID, orderInput(usecase.OrderLineInput{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	require.NotNil(t, third.Payment)
	assert.NotEqual(t, first.Payment.TransactionID, second.Payment.TransactionID)
	assert.NotEqual(t, second.Payment.TransactionID, third.Payment.TransactionID)
	assert.NotEqual(t, first.Payment.TransactionID, third.Payment.TransactionID)
	assert.NotEqual(t, first.Order.OrderNumber, second.Order.OrderNumber)
	assert.Equal(t, 3, f.store.OrderCount())
}
