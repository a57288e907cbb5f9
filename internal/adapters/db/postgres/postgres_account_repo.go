package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	customErrors "github.com/mslee98/crawl-back/internal/domain/auth/errors"
	"github.com/mslee98/crawl-back/internal/domain/auth/model"
	"github.com/mslee98/crawl-back/internal/domain/auth/repo"
	"gorm.io/gorm"
)

var accountColumns = map[string]string{
	repo.FieldLoginID:  "login_id",
	repo.FieldEmail:    "email",
	repo.FieldNickname: "nickname",
}

type PostgresAccountRepo struct {
	db *gorm.DB
}

var _ repo.AccountRepo = (*PostgresAccountRepo)(nil)

func NewPostgresAccountRepo(db *gorm.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

func (p *PostgresAccountRepo) CreateAccount(ctx context.Context, account model.Account) error {
	res := p.db.WithContext(ctx).Create(&account)
	if err := res.Error; err != nil {
		if field, ok := uniqueViolation(err); ok {
			return customErrors.NewConflict(field)
		}
		return classify(err, "CreateAccount")
	}
	return nil
}

func (p *PostgresAccountRepo) Exists(ctx context.Context, field, value string) (bool, error) {
	col, ok := accountColumns[field]
	if !ok {
		return false, customErrors.WrapInternal(fmt.Errorf("unknown field %q", field), "Exists")
	}
	var n int64
	res := p.db.WithContext(ctx).Model(&model.Account{}).Where(col+" = ?", value).Count(&n)
	if err := res.Error; err != nil {
		return false, classify(err, "Exists")
	}
	return n > 0, nil
}

func (p *PostgresAccountRepo) GetByLoginID(ctx context.Context, loginID string) (model.Account, error) {
	return p.first(ctx, "GetByLoginID", "login_id = ?", loginID)
}

func (p *PostgresAccountRepo) GetByUUID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	return p.first(ctx, "GetByUUID", "uuid = ?", id)
}

func (p *PostgresAccountRepo) first(ctx context.Context, op, query string, arg any) (model.Account, error) {
	var a model.Account
	res := p.db.WithContext(ctx).Where(query, arg).First(&a)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Account{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Account{}, classify(err, op)
	}
	return a, nil
}
