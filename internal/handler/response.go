package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/authz"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/middleware"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// エラー時の本文 {"error", "code", "errors"}
type ErrorResponse struct {
	Error  string               `json:"error"`
	Code   string               `json:"code"`
	Errors []usecase.FieldError `json:"errors,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Code: he.Code, Errors: he.Errors})
	}

	//500（原因はログだけ）
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: usecase.CodeInternal})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: usecase.CodeValidation})
}

// authorize は op を今のユーザーに許すか判定する。
// 未ログインで拒否なら 401、ログイン済みで拒否なら 403
func authorize(c echo.Context, op authz.Operation) (int64, model.Role, error) {
	userID, role := middleware.Principal(c)
	if authz.Allowed(role, op) {
		return userID, role, nil
	}
	if role == authz.Anonymous {
		return 0, role, usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return 0, role, usecase.NewHTTPError(http.StatusForbidden, "forbidden")
}

// パスの数値ID
func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// 空なら def
func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func queryInt64Ptr(c echo.Context, name string) (*int64, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

// RFC3339
func queryTimePtr(c echo.Context, name string) (*time.Time, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	tm, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, false
	}
	return &tm, true
}
