package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/config"
	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	CtxUserIDKey   = "user_id"   // int64
	CtxUserRoleKey = "user_role" // model.Role
)

// bearerAuth用のJWT検証ミドルウェア。
// sub と role を取り出して echo.Context に入れる（ロールの判定はハンドラ側）
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	secret := []byte(cfg.JWTSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return unauthorized(c)
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return unauthorized(c)
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return unauthorized(c)
			}

			//JWTをパースして検証する（exp も見る）
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return secret, nil
			})
			if err != nil || token == nil || !token.Valid {
				return unauthorized(c)
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c)
			}

			userID, err := parseUserID(claims["sub"])
			if err != nil || userID <= 0 {
				return unauthorized(c)
			}

			//roleを取り出す（Admin/Customer）
			role, ok := claims["role"].(string)
			if !ok || (model.Role(role) != model.RoleAdmin && model.Role(role) != model.RoleCustomer) {
				return unauthorized(c)
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, model.Role(role))

			// 以降のログに user_id を付ける
			req := c.Request()
			logger := zerolog.Ctx(req.Context()).With().Int64("user_id", userID).Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			return next(c)
		}
	}
}

// Principal は認証済みならユーザーIDとロールを返す。未ログインは (0, "")
func Principal(c echo.Context) (int64, model.Role) {
	userID, _ := c.Get(CtxUserIDKey).(int64)
	role, _ := c.Get(CtxUserRoleKey).(model.Role)
	return userID, role
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Code: "UNAUTHORIZED"})
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}
