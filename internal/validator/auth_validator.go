package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gulzar72441/FastEndpoints-Ecommerce/internal/usecase"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

type authValidator struct{}

// Usecaseは interface を依存注入
func NewAuthValidator() usecase.AuthValidator {
	return authValidator{}
}

// 登録の入力を検証（重複チェックはTxの中でusecaseがやる）
func (authValidator) ValidateRegister(in usecase.RegisterInput) usecase.FieldErrors {
	var fe usecase.FieldErrors

	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		fe.Add("username", "Username is required")
	case utf8.RuneCountInString(username) < 3 || utf8.RuneCountInString(username) > 50:
		fe.Add("username", "Username must be between 3 and 50 characters")
	case !usernamePattern.MatchString(username):
		fe.Add("username", "Username may only contain letters, digits, '.', '_' and '-'")
	}

	checkEmail(&fe, in.Email)

	// パスワード最低文字数（8）
	switch {
	case in.Password == "":
		fe.Add("password", "Password is required")
	case len(in.Password) < 8:
		fe.Add("password", "Password must be at least 8 characters")
	case len(in.Password) > 72:
		// bcrypt は72バイトまで
		fe.Add("password", "Password must be 72 bytes or less")
	}

	if utf8.RuneCountInString(in.FirstName) > 100 {
		fe.Add("first_name", "First name must be 100 characters or less")
	}
	if utf8.RuneCountInString(in.LastName) > 100 {
		fe.Add("last_name", "Last name must be 100 characters or less")
	}
	return fe
}

// ログインの入力を検証
func (authValidator) ValidateLogin(in usecase.LoginInput) usecase.FieldErrors {
	var fe usecase.FieldErrors
	checkEmail(&fe, in.Email)
	if in.Password == "" {
		fe.Add("password", "Password is required")
	}
	return fe
}

func checkEmail(fe *usecase.FieldErrors, email string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		fe.Add("email", "Email is required")
	case len(email) > 255:
		fe.Add("email", "Email must be 255 characters or less")
	case !emailPattern.MatchString(email):
		fe.Add("email", "Email is not a valid email address")
	}
}
