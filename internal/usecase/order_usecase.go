package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/authz"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx      repo.TransactionManager
	clock   Clock
	ids     IDGenerator
	numbers OrderNumberGenerator
}

func NewOrderUsecase(tx repo.TransactionManager, clk Clock, ids IDGenerator, numbers OrderNumberGenerator) *OrderUsecase {
	return &OrderUsecase{tx: tx, clock: clk, ids: ids, numbers: numbers}
}

type OrderLineInput struct {
	ProductID int64
	Quantity  int64
}

// POST /orders（カートを通さない直接注文）
type CreateOrderInput struct {
	ShippingAddress string
	PaymentMethod   string
	Items           []OrderLineInput
}

type OrderItemOutput struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type PaymentOutput struct {
	ID            int64               `json:"id"`
	OrderID       int64               `json:"order_id"`
	PaymentMethod string              `json:"payment_method"`
	Amount        decimal.Decimal     `json:"amount"`
	Status        model.PaymentStatus `json:"status"`
	TransactionID string              `json:"transaction_id"`
	PaymentDate   time.Time           `json:"payment_date"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	OrderNumber     string            `json:"order_number"`
	UserID          int64             `json:"user_id"`
	UserName        string            `json:"user_name"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	Status          model.OrderStatus `json:"status"`
	ShippingAddress string            `json:"shipping_address"`
	OrderDate       time.Time         `json:"order_date"`
	DeliveryDate    *time.Time        `json:"delivery_date"`
	Items           []OrderItemOutput `json:"items"`
	Payment         *PaymentOutput    `json:"payment"`
}

// CreateOrder は商品IDと数量のリストから注文を作る（プロモーションなし）
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	fe := validateShipping(in.ShippingAddress, in.PaymentMethod)
	if len(in.Items) == 0 {
		fe.Add("items", "Order must contain at least one item")
	}
	lines := make([]lineRequest, 0, len(in.Items))
	for i, it := range in.Items {
		if it.ProductID <= 0 {
			fe.Add(fmt.Sprintf("items[%d].product_id", i), "product_id is required")
		}
		if it.Quantity <= 0 {
			fe.Add(fmt.Sprintf("items[%d].quantity", i), "quantity must be greater than 0")
		}
		lines = append(lines, lineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if err := fe.Err(); err != nil {
		return OrderOutput{}, err
	}

	now := u.clock.Now()
	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "user not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}

		items, total, err := reserveStock(ctx, r, lines)
		if err != nil {
			return err
		}

		order, err := persistOrder(ctx, r, u.numbers, u.ids, now, placement{
			UserID:          userID,
			ShippingAddress: strings.TrimSpace(in.ShippingAddress),
			PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
			Total:           total,
			Items:           items,
		})
		if err != nil {
			return err
		}
		out = toOrderOutput(order, user)
		return nil
	})
	if err != nil {
		return OrderOutput{}, finishTx(ctx, err)
	}

	zerolog.Ctx(ctx).Info().
		Int64("user_id", userID).
		Str("order_number", out.OrderNumber).
		Str("total", out.TotalAmount.StringFixed(2)).
		Msg("order created")
	return out, nil
}

// 自分の注文一覧（新しい順、明細と支払い付き）
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "user not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}

		orders, err := r.Orders().ListByUserID(ctx, userID)
		if err != nil {
			return dbError(ctx, err)
		}
		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			outs = append(outs, toOrderOutput(o, user))
		}
		return nil
	})
	if err != nil {
		return []OrderOutput{}, finishTx(ctx, err)
	}
	return outs, nil
}

// 他人の注文は管理者だけ（それ以外は403）
func (u *OrderUsecase) GetOrder(ctx context.Context, viewerID int64, role model.Role, orderID int64) (OrderOutput, error) {
	if viewerID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		if o.UserID != viewerID && !authz.Allowed(role, authz.ReadAnyOrder) {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		user, err := r.Users().FindByID(ctx, o.UserID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return dbError(ctx, err)
		}
		out = toOrderOutput(o, user)
		return nil
	})
	if err != nil {
		return OrderOutput{}, finishTx(ctx, err)
	}
	return out, nil
}

// 注文・明細・支払いを作るための材料
type placement struct {
	UserID          int64
	ShippingAddress string
	PaymentMethod   string
	Total           decimal.Decimal
	Items           []model.OrderItem
}

// 注文（一意な番号）→明細→支払い（Pending）の順に保存する
func persistOrder(ctx context.Context, r repo.TxRepos, numbers OrderNumberGenerator, ids IDGenerator, now time.Time, pl placement) (model.Order, error) {
	order := model.Order{
		UserID:          pl.UserID,
		TotalAmount:     pl.Total,
		Status:          model.OrderStatusPending,
		ShippingAddress: pl.ShippingAddress,
		OrderDate:       now,
	}
	if err := createOrderWithUniqueNumber(ctx, r, numbers, now, &order); err != nil {
		return model.Order{}, err
	}

	items, err := r.OrderItems().CreateBulk(ctx, order.ID, pl.Items)
	if err != nil {
		return model.Order{}, dbError(ctx, err)
	}

	payment := model.Payment{
		OrderID:       order.ID,
		PaymentMethod: pl.PaymentMethod,
		Amount:        pl.Total,
		Status:        model.PaymentStatusPending,
		TransactionID: ids.NewID(),
		PaymentDate:   now,
	}
	if err := r.Payments().Create(ctx, &payment); err != nil {
		return model.Order{}, dbError(ctx, err)
	}

	order.Items = items
	order.Payment = &payment
	return order, nil
}

func validateShipping(address, method string) FieldErrors {
	var fe FieldErrors
	address = strings.TrimSpace(address)
	method = strings.TrimSpace(method)
	if address == "" {
		fe.Add("shipping_address", "Shipping address is required")
	} else if len(address) > 500 {
		fe.Add("shipping_address", "Shipping address must be 500 characters or less")
	}
	if method == "" {
		fe.Add("payment_method", "Payment method is required")
	} else if len(method) > 50 {
		fe.Add("payment_method", "Payment method must be 50 characters or less")
	}
	return fe
}

func toOrderOutput(o model.Order, user model.User) OrderOutput {
	out := OrderOutput{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		UserName:        user.DisplayName(),
		TotalAmount:     o.TotalAmount,
		Status:          o.Status,
		ShippingAddress: o.ShippingAddress,
		OrderDate:       o.OrderDate,
		DeliveryDate:    o.DeliveryDate,
		Items:           make([]OrderItemOutput, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, OrderItemOutput{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			TotalPrice:  it.TotalPrice,
		})
	}
	if o.Payment != nil {
		p := toPaymentOutput(*o.Payment)
		out.Payment = &p
	}
	return out
}

func toPaymentOutput(p model.Payment) PaymentOutput {
	return PaymentOutput{
		ID:            p.ID,
		OrderID:       p.OrderID,
		PaymentMethod: p.PaymentMethod,
		Amount:        p.Amount,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		PaymentDate:   p.PaymentDate,
	}
}
