package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, f *fixture, userID int64) usecase.OrderOutput {
	t.Helper()
	p := f.product("Widget", "3.00", 100)
	o, err := f.orders().CreateOrder(context.Background(), userID, orderInput(usecase.OrderLineInput{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)
	return o
}

func TestAdminOrderUsecase_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := placeOrder(t, f, f.customer.ID)
	uc := usecase.NewAdminOrderUsecase(f.store, fixedClock())

	_, err := uc.UpdateStatus(ctx, f.admin.ID, o.ID, "Teleported")
	he := requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
	assert.Equal(t, []string{"status"}, fieldNames(he))

	out, err := uc.UpdateStatus(ctx, f.admin.ID, o.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, out.Status)
	assert.Nil(t, out.DeliveryDate)

	out, err = uc.UpdateStatus(ctx, f.admin.ID, o.ID, "Delivered")
	require.NoError(t, err)
	require.NotNil(t, out.DeliveryDate)
	assert.Equal(t, fixedNow, *out.DeliveryDate)

	// どの状態にも戻せる
	out, err = uc.UpdateStatus(ctx, f.admin.ID, o.ID, "Pending")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, out.Status)

	_, err = uc.UpdateStatus(ctx, f.admin.ID, 999, "Pending")
	requireHTTPError(t, err, http.StatusNotFound, usecase.CodeNotFound)

	logs := f.store.AuditLogs()
	require.Len(t, logs, 3)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, logs[0].Action)
	assert.Equal(t, o.ID, logs[0].ResourceID)
	assert.JSONEq(t, `{"status":"Pending"}`, logs[0].BeforeJSON)
	assert.JSONEq(t, `{"status":"Shipped"}`, logs[0].AfterJSON)
}

func TestAdminOrderUsecase_UpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := placeOrder(t, f, f.customer.ID)
	uc := usecase.NewAdminOrderUsecase(f.store, fixedClock())

	_, err := uc.UpdatePaymentStatus(ctx, f.admin.ID, o.Payment.ID, "Lost")
	requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)

	out, err := uc.UpdatePaymentStatus(ctx, f.admin.ID, o.Payment.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, out.Status)

	_, err = uc.UpdatePaymentStatus(ctx, f.admin.ID, 999, "Refunded")
	requireHTTPError(t, err, http.StatusNotFound, usecase.CodeNotFound)

	page, err := uc.ListAuditLogs(ctx, repo.AuditLogFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, model.AuditResourcePayment, page.Items[0].ResourceType)
	assert.Equal(t, f.admin.ID, page.Items[0].ActorUserID)
}

func TestAdminOrderUsecase_ListAuditLogs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := placeOrder(t, f, f.customer.ID)
	uc := usecase.NewAdminOrderUsecase(f.store, fixedClock())

	for _, st := range []string{"Processing", "Shipped", "Delivered"} {
		_, err := uc.UpdateStatus(ctx, f.admin.ID, o.ID, st)
		require.NoError(t, err)
	}
	_, err := uc.UpdatePaymentStatus(ctx, f.admin.ID, o.Payment.ID, "Completed")
	require.NoError(t, err)

	orderRes := model.AuditResourceOrder
	page, err := uc.ListAuditLogs(ctx, repo.AuditLogFilter{ResourceType: &orderRes, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	assert.JSONEq(t, `{"status":"Delivered"}`, page.Items[0].AfterJSON)
	assert.Greater(t, page.Items[0].ID, page.Items[1].ID)

	page, err = uc.ListAuditLogs(ctx, repo.AuditLogFilter{ResourceType: &orderRes, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.JSONEq(t, `{"status":"Processing"}`, page.Items[0].AfterJSON)

	page, err = uc.ListAuditLogs(ctx, repo.AuditLogFilter{
		Actions: []model.AuditAction{model.AuditActionUpdatePaymentStatus, model.AuditActionUpdateStock},
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, model.AuditResourcePayment, page.Items[0].ResourceType)

	badRes := model.AuditResourceType("user")
	_, err = uc.ListAuditLogs(ctx, repo.AuditLogFilter{
		Actions:      []model.AuditAction{model.AuditActionUpdateStock, "DROP"},
		ResourceType: &badRes,
		Limit:        0,
		Offset:       -1,
	})
	he := requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
	assert.Equal(t, []string{"limit", "offset", "action", "resource_type"}, fieldNames(he))
}

func TestAdminOrderUsecase_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	placeOrder(t, f, f.customer.ID)
	placeOrder(t, f, f.other.ID)
	uc := usecase.NewAdminOrderUsecase(f.store, fixedClock())

	_, err := uc.List(ctx, repo.AdminOrderListFilter{Page: 0, Limit: 20})
	requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)

	_, err = uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "nope"})
	requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)

	page, err := uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)

	uid := f.other.ID
	page, err = uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 20, UserID: &uid})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "bob", page.Items[0].UserName)
}
