package repository

import (
	"errors"
	"fmt"

	repo "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// unique_violation
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// gormのエラーをrepositoryの番兵エラーに寄せる
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repo.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, repo.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
