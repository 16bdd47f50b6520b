package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"github.com/rs/zerolog"
)

type AdminOrderUsecase struct {
	tx    repo.TransactionManager
	clock Clock
}

func NewAdminOrderUsecase(tx repo.TransactionManager, clk Clock) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, clock: clk}
}

type AdminOrderPage struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 注文一覧（管理者）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderPage, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderPage{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderPage{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" {
		st, ok := model.ParseOrderStatus(f.Status)
		if !ok {
			return AdminOrderPage{}, newFieldError(CodeValidation, "status", "Invalid order status")
		}
		f.Status = string(st)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return AdminOrderPage{}, newFieldError(CodeValidation, "from", "from must be before to")
	}

	page := AdminOrderPage{Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return dbError(ctx, err)
		}

		users := map[int64]model.User{}
		page.Total = total
		page.Items = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			user, ok := users[o.UserID]
			if !ok {
				user, err = r.Users().FindByID(ctx, o.UserID)
				if err != nil && !errors.Is(err, repo.ErrNotFound) {
					return dbError(ctx, err)
				}
				users[o.UserID] = user
			}
			page.Items = append(page.Items, toOrderOutput(o, user))
		}
		return nil
	})
	if err != nil {
		return AdminOrderPage{}, finishTx(ctx, err)
	}
	return page, nil
}

// ステータス更新。どの状態からどの状態へも変えられる。
// Delivered にしたとき配達日が空なら今の時刻を入れる
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, status string) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	newStatus, ok := model.ParseOrderStatus(status)
	if !ok {
		return OrderOutput{}, newFieldError(CodeValidation, "status", "Invalid order status")
	}

	now := u.clock.Now()
	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}

		var delivery *time.Time
		if newStatus == model.OrderStatusDelivered && o.DeliveryDate == nil {
			delivery = &now
		}

		before := o.Status
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus, delivery); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "order not found")
			}
			return dbError(ctx, err)
		}

		if err := writeAudit(ctx, r, actorAdminUserID, model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
			statusChange{Status: string(before)}, statusChange{Status: string(newStatus)}); err != nil {
			return err
		}

		updated, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return dbError(ctx, err)
		}
		user, err := r.Users().FindByID(ctx, updated.UserID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return dbError(ctx, err)
		}
		out = toOrderOutput(updated, user)
		return nil
	})
	if err != nil {
		return OrderOutput{}, finishTx(ctx, err)
	}

	zerolog.Ctx(ctx).Info().
		Int64("order_id", orderID).
		Str("status", string(newStatus)).
		Int64("actor_user_id", actorAdminUserID).
		Msg("order status updated")
	return out, nil
}

// 支払いステータス更新（4種類のどれか）
func (u *AdminOrderUsecase) UpdatePaymentStatus(ctx context.Context, actorAdminUserID int64, paymentID int64, status string) (PaymentOutput, error) {
	if actorAdminUserID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if paymentID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	newStatus, ok := model.ParsePaymentStatus(status)
	if !ok {
		return PaymentOutput{}, newFieldError(CodeValidation, "status", "Invalid payment status")
	}

	var out PaymentOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByID(ctx, paymentID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "payment not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}

		before := p.Status
		if err := r.Payments().UpdateStatus(ctx, paymentID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "payment not found")
			}
			return dbError(ctx, err)
		}

		if err := writeAudit(ctx, r, actorAdminUserID, model.AuditActionUpdatePaymentStatus, model.AuditResourcePayment, paymentID,
			statusChange{Status: string(before)}, statusChange{Status: string(newStatus)}); err != nil {
			return err
		}

		p.Status = newStatus
		out = toPaymentOutput(p)
		return nil
	})
	if err != nil {
		return PaymentOutput{}, finishTx(ctx, err)
	}

	zerolog.Ctx(ctx).Info().
		Int64("payment_id", paymentID).
		Str("status", string(newStatus)).
		Int64("actor_user_id", actorAdminUserID).
		Msg("payment status updated")
	return out, nil
}

type AuditLogPage struct {
	Items  []model.AuditLog `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// 監査ログ一覧（新しい順）
func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) (AuditLogPage, error) {
	var fe FieldErrors
	if f.Limit < 1 || f.Limit > 100 {
		fe.Add("limit", "must be between 1 and 100")
	}
	if f.Offset < 0 {
		fe.Add("offset", "must be >= 0")
	}
	for _, a := range f.Actions {
		if !a.Valid() {
			fe.Add("action", "unknown action: "+string(a))
			break
		}
	}
	if f.ResourceType != nil && !f.ResourceType.Valid() {
		fe.Add("resource_type", "unknown resource type")
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedTo.Before(*f.CreatedFrom) {
		fe.Add("to", "must not be before from")
	}
	if err := fe.Err(); err != nil {
		return AuditLogPage{}, err
	}

	page := AuditLogPage{Limit: f.Limit, Offset: f.Offset}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		logs, total, err := r.AuditLogs().List(ctx, f)
		if err != nil {
			return dbError(ctx, err)
		}
		page.Items, page.Total = logs, total
		return nil
	})
	if err != nil {
		return AuditLogPage{}, finishTx(ctx, err)
	}
	if page.Items == nil {
		page.Items = []model.AuditLog{}
	}
	return page, nil
}

type statusChange struct {
	Status string `json:"status"`
}

// 監査ログを同じTxで書く。before/after はJSONにして保存
func writeAudit(ctx context.Context, r repo.TxRepos, actorID int64, action model.AuditAction, resource model.AuditResourceType, resourceID int64, before, after any) error {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return dbError(ctx, err)
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return dbError(ctx, err)
	}

	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
	}); err != nil {
		return dbError(ctx, err)
	}
	return nil
}
