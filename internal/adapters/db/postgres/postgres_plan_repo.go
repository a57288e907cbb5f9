package postgres

import (
	"context"

	"github.com/mslee98/crawl-back/internal/domain/auth/model"
	"github.com/mslee98/crawl-back/internal/domain/auth/repo"
	"gorm.io/gorm"
)

type PostgresPlanRepo struct {
	db *gorm.DB
}

var _ repo.PlanRepo = (*PostgresPlanRepo)(nil)

func NewPostgresPlanRepo(db *gorm.DB) *PostgresPlanRepo {
	return &PostgresPlanRepo{db: db}
}

func (p *PostgresPlanRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.WithContext(ctx).Model(&model.SubscriptionPlan{}).Count(&n).Error; err != nil {
		return 0, classify(err, "CountPlans")
	}
	return n, nil
}

func (p *PostgresPlanRepo) Insert(ctx context.Context, plans []model.SubscriptionPlan) error {
	if len(plans) == 0 {
		return nil
	}
	if err := p.db.WithContext(ctx).Create(&plans).Error; err != nil {
		return classify(err, "InsertPlans")
	}
	return nil
}
