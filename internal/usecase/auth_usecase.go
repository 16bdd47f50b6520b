package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"
	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(in RegisterInput) FieldErrors
	ValidateLogin(in LoginInput) FieldErrors
}

// アクセストークンを作る約束
type TokenIssuer interface {
	Issue(user model.User) (token string, expiresIn int, err error)
}

// JWTIssuer は HS256 のアクセストークンを発行する（sub / role / iat / exp）
type JWTIssuer struct {
	Secret []byte
	TTL    time.Duration
	Clock  Clock
}

func (j JWTIssuer) Issue(user model.User) (string, int, error) {
	now := j.Clock.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(j.TTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int(j.TTL.Seconds()), nil
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthOutput struct {
	Token     string     `json:"token"`
	ExpiresIn int        `json:"expires_in"`
	UserID    int64      `json:"user_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
}

type AuthUsecase struct {
	tx         repo.TransactionManager
	validator  AuthValidator
	tokens     TokenIssuer
	bcryptCost int
}

func NewAuthUsecase(tx repo.TransactionManager, validator AuthValidator, tokens TokenIssuer, bcryptCost int) *AuthUsecase {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthUsecase{tx: tx, validator: validator, tokens: tokens, bcryptCost: bcryptCost}
}

// Register は Customer として登録してトークンを返す
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (AuthOutput, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(in).Err(); err != nil {
		return AuthOutput{}, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.bcryptCost)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("bcrypt failed")
		return AuthOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(pwHash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         model.RoleCustomer,
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var fe FieldErrors
		if _, err := r.Users().FindByEmail(ctx, in.Email); err == nil {
			fe.AddCode("email", CodeConflict, "Email already exists")
		} else if !errors.Is(err, repo.ErrNotFound) {
			return dbError(ctx, err)
		}
		if err := fe.Err(); err != nil {
			return err
		}

		err := r.Users().Create(ctx, &user)
		if errors.Is(err, repo.ErrDuplicate) {
			// username か email の競合
			return newFieldError(CodeConflict, "username", "Email or username already exists")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		return nil
	})
	if err != nil {
		return AuthOutput{}, finishTx(ctx, err)
	}

	zerolog.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("user registered")
	return u.issue(ctx, user)
}

// Login はemail＋パスワード。どちらが違っても同じ401
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (AuthOutput, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := u.validator.ValidateLogin(in).Err(); err != nil {
		return AuthOutput{}, err
	}

	var user model.User
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		user, err = r.Users().FindByEmail(ctx, in.Email)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		return nil
	})
	if err != nil {
		return AuthOutput{}, finishTx(ctx, err)
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return AuthOutput{}, NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	return u.issue(ctx, user)
}

// EnsureAdmin は起動時に管理者アカウントを用意する（既にあれば何もしない）
func (u *AuthUsecase) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), u.bcryptCost)
	if err != nil {
		return err
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.Users().FindByEmail(ctx, email)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		admin := model.User{
			Username:     email,
			Email:        email,
			PasswordHash: string(pwHash),
			Role:         model.RoleAdmin,
		}
		if err := r.Users().Create(ctx, &admin); err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().Int64("user_id", admin.ID).Msg("admin user created")
		return nil
	})
}

func (u *AuthUsecase) issue(ctx context.Context, user model.User) (AuthOutput, error) {
	token, expiresIn, err := u.tokens.Issue(user)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("sign token failed")
		return AuthOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return AuthOutput{
		Token:     token,
		ExpiresIn: expiresIn,
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
	}, nil
}
