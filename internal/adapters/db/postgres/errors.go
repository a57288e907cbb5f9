package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	customErrors "github.com/mslee98/crawl-back/internal/domain/auth/errors"
	"github.com/mslee98/crawl-back/internal/domain/auth/repo"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// classify maps a driver error to ErrUnavailable for transient failures and ErrInternal otherwise.
func classify(err error, op string) error {
	if isTransient(err) {
		return customErrors.WrapUnavailable(err, op)
	}
	return customErrors.WrapInternal(err, op)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08: connection exception, 53: insufficient resources, 57P0x: operator intervention
		return strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "53") ||
			strings.HasPrefix(pgErr.Code, "57P0")
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// uniqueViolation reports the public field name behind a unique-constraint failure.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return "", false
		}
		// Detail holds user input; match on the constraint name only
		if field, ok := constraintFields[pgErr.ConstraintName]; ok {
			return field, true
		}
		return "account", true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fieldFromMessage(err.Error()), true
	}
	return "", false
}

// named in scripts/db/migrations and the gorm model tags
var constraintFields = map[string]string{
	"uq_accounts_login_id":    repo.FieldLoginID,
	"uq_accounts_email":       repo.FieldEmail,
	"uq_accounts_nickname":    repo.FieldNickname,
	"uq_refresh_tokens_token": "refreshToken",
}

// fieldFromMessage reads sqlite's "UNIQUE constraint failed: table.column", which holds no user input.
func fieldFromMessage(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "login_id"):
		return repo.FieldLoginID
	case strings.Contains(s, "email"):
		return repo.FieldEmail
	case strings.Contains(s, "nickname"):
		return repo.FieldNickname
	case strings.Contains(s, "token"):
		return "refreshToken"
	default:
		return "account"
	}
}
