package seed

import (
	"context"

	"github.com/google/uuid"
	"github.com/mslee98/crawl-back/internal/domain/auth/model"
	"github.com/mslee98/crawl-back/internal/domain/auth/repo"
	"go.uber.org/zap"
)

// DefaultPlans are inserted into an empty subscription_plans table.
var DefaultPlans = []model.SubscriptionPlan{
	{Name: "Monthly subscription", DurationDays: 30, Price: "1000000"},
}

// EnsurePlans inserts DefaultPlans when no plan exists yet and reports how many rows it wrote.
func EnsurePlans(ctx context.Context, plans repo.PlanRepo, log *zap.Logger) (int, error) {
	n, err := plans.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Debug("subscription plans present, skipping seed", zap.Int64("count", n))
		return 0, nil
	}

	rows := make([]model.SubscriptionPlan, len(DefaultPlans))
	for i, p := range DefaultPlans {
		p.ID = uuid.New()
		rows[i] = p
	}
	if err := plans.Insert(ctx, rows); err != nil {
		return 0, err
	}
	log.Info("seeded subscription plans", zap.Int("count", len(rows)))
	return len(rows), nil
}
