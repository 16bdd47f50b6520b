package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// エラーコード（クライアントが機械的に分岐できるように）
const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeConflict          = "CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeProductInactive   = "PRODUCT_INACTIVE"
	CodeCartEmpty         = "CART_EMPTY"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL"
)

// 項目ごとのエラー
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// 検証関数はこれを返す（共有のアキュムレータは持たない）
type FieldErrors []FieldError

func (fe *FieldErrors) Add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Code: CodeValidation, Message: message})
}

func (fe *FieldErrors) AddCode(field, code, message string) {
	*fe = append(*fe, FieldError{Field: field, Code: code, Message: message})
}

// Err は空なら nil、あれば 400 にまとめる。
// 全部同じコードならそのコードを、混在なら VALIDATION_ERROR を使う
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	code := fe[0].Code
	for _, f := range fe[1:] {
		if f.Code != code {
			code = CodeValidation
			break
		}
	}
	if code == "" {
		code = CodeValidation
	}
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: "validation failed",
		Errors:  append([]FieldError(nil), fe...),
	}
}

type HTTPError struct {
	Status  int
	Code    string
	Message string
	Errors  []FieldError
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    codeForStatus(status),
		Message: message,
	}
}

// 業務エラー（400）に1項目を添えて返す
func newFieldError(code, field, message string) error {
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		Errors:  []FieldError{{Field: field, Code: code, Message: message}},
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	default:
		return CodeInternal
	}
}

// 想定外の永続化エラー。原因はログにだけ出す
func dbError(ctx context.Context, err error) error {
	zerolog.Ctx(ctx).Error().Err(err).Msg("db error")
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

// Tx の外に出てきたエラーを HTTPError に寄せる（commit失敗など）
func finishTx(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return dbError(ctx, err)
}
