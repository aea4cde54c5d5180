package db

import (
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	customerEmailConstraint = "customers_email_key"
)

// translateError 將 gorm / postgres 錯誤轉成 repository 定義的錯誤
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == customerEmailConstraint {
				return repository.ErrDuplicateEmail
			}
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", repository.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}
