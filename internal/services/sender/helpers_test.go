package sender

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/isp-manager/internal/models"
)

func reminderWithDays(days int) models.Reminder {
	return models.Reminder{
		SubscriptionID: 1,
		CustomerName:   "John Doe",
		Email:          "john@example.com",
		PlanName:       "Basic",
		Price:          decimal.NewFromInt(2500),
		Currency:       "KES",
		EndDate:        time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		DaysLeft:       days,
	}
}
