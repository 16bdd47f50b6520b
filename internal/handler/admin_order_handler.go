package handler

import (
	"net/http"
	"strings"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/authz"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 注文・支払いのステータス更新と、管理者向けの一覧
type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.PATCH("/orders/:id/status", h.updateStatus, auth)
	e.PATCH("/payments/:id/status", h.updatePaymentStatus, auth)

	admin := e.Group("/admin", auth)
	admin.GET("/orders", h.list)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	if _, _, err := authorize(c, authz.ReadAnyOrder); err != nil {
		return writeError(c, err)
	}

	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return badRequest(c, "invalid limit")
	}
	userID, ok := queryInt64Ptr(c, "user_id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}
	from, ok := queryTimePtr(c, "from")
	if !ok {
		return badRequest(c, "invalid from")
	}
	to, ok := queryTimePtr(c, "to")
	if !ok {
		return badRequest(c, "invalid to")
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		UserID: userID,
		From:   from,
		To:     to,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	// 操作した管理者IDは監査ログ用
	adminID, _, err := authorize(c, authz.ManageOrders)
	if err != nil {
		return writeError(c, err)
	}

	orderID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), adminID, orderID, req.Status)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updatePaymentStatus(c echo.Context) error {
	adminID, _, err := authorize(c, authz.ManagePayments)
	if err != nil {
		return writeError(c, err)
	}

	paymentID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdatePaymentStatus(c.Request().Context(), adminID, paymentID, req.Status)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// GET /admin/audit-logs?actor_user_id=&action=&resource_type=&resource_id=&from=&to=&limit=&offset=
func (h *AdminOrderHandler) auditLogs(c echo.Context) error {
	if _, _, err := authorize(c, authz.ViewAuditLogs); err != nil {
		return writeError(c, err)
	}

	var f repository.AuditLogFilter
	var ok bool
	if f.ActorUserID, ok = queryInt64Ptr(c, "actor_user_id"); !ok {
		return badRequest(c, "invalid actor_user_id")
	}
	if f.ResourceID, ok = queryInt64Ptr(c, "resource_id"); !ok {
		return badRequest(c, "invalid resource_id")
	}
	if f.CreatedFrom, ok = queryTimePtr(c, "from"); !ok {
		return badRequest(c, "invalid from")
	}
	if f.CreatedTo, ok = queryTimePtr(c, "to"); !ok {
		return badRequest(c, "invalid to")
	}
	if f.Limit, ok = queryInt(c, "limit", 50); !ok {
		return badRequest(c, "invalid limit")
	}
	if f.Offset, ok = queryInt(c, "offset", 0); !ok {
		return badRequest(c, "invalid offset")
	}
	// action=CREATE_PRODUCT,DELETE_PRODUCT のようにカンマ区切りで複数指定できる
	for _, v := range strings.Split(c.QueryParam("action"), ",") {
		if v = strings.TrimSpace(v); v != "" {
			f.Actions = append(f.Actions, model.AuditAction(strings.ToUpper(v)))
		}
	}
	if v := strings.TrimSpace(c.QueryParam("resource_type")); v != "" {
		rt := model.AuditResourceType(strings.ToLower(v))
		f.ResourceType = &rt
	}

	out, err := h.uc.ListAuditLogs(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
