package postgres

import (
	"context"
	"errors"
	"time"

	customErrors "github.com/mslee98/crawl-back/internal/domain/auth/errors"
	"github.com/mslee98/crawl-back/internal/domain/auth/model"
	"github.com/mslee98/crawl-back/internal/domain/auth/repo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRefreshTokenRepo struct {
	db *gorm.DB
}

var _ repo.RefreshTokenRepo = (*PostgresRefreshTokenRepo)(nil)

func NewPostgresRefreshTokenRepo(db *gorm.DB) *PostgresRefreshTokenRepo {
	return &PostgresRefreshTokenRepo{db: db}
}

func (p *PostgresRefreshTokenRepo) Create(ctx context.Context, t model.RefreshToken) error {
	res := p.db.WithContext(ctx).Omit(clause.Associations).Create(&t)
	if err := res.Error; err != nil {
		if field, ok := uniqueViolation(err); ok {
			return customErrors.NewConflict(field)
		}
		return classify(err, "CreateRefreshToken")
	}
	return nil
}

func (p *PostgresRefreshTokenRepo) FindActive(ctx context.Context, token string) (model.RefreshToken, error) {
	var t model.RefreshToken
	res := p.db.WithContext(ctx).
		Where("token = ? AND revoked_at IS NULL", token).
		First(&t)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.RefreshToken{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.RefreshToken{}, classify(err, "FindActive")
	}
	return t, nil
}

func (p *PostgresRefreshTokenRepo) Revoke(ctx context.Context, token string, at time.Time) (bool, error) {
	res := p.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Update("revoked_at", at)
	if err := res.Error; err != nil {
		return false, classify(err, "Revoke")
	}
	return res.RowsAffected > 0, nil
}
