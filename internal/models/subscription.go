package models

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/isp-manager/internal/lib/month"
)

// Subscription связывает абонента с тарифом на расчётный период.
// Даты хранятся без времени суток. EndDate равен nil у бессрочной подписки.
type Subscription struct {
	ID               int64      `json:"id"`
	CustomerID       int64      `json:"customer_id"`
	PlanID           int64      `json:"plan_id"`
	RouterID         string     `json:"router_id"`
	Status           Status     `json:"status"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	LastReminderSent *time.Time `json:"last_reminder_sent,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewSubscription создаёт активную подписку с датой окончания start + months
// календарных месяцев. Дата начала не может быть раньше today.
func NewSubscription(customerID, planID int64, routerID string, start time.Time, months int, today time.Time) (*Subscription, error) {
	const op = "models.NewSubscription"
	if !routerIDRe.MatchString(routerID) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRouterID)
	}
	if months < 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidDuration)
	}
	s := &Subscription{
		CustomerID: customerID,
		PlanID:     planID,
		RouterID:   routerID,
		Status:     StatusActive,
	}
	if err := s.SetStartDate(start, today); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	end := month.Add(s.StartDate, months)
	s.EndDate = &end
	return s, nil
}

// SetStartDate задаёт дату начала. Дата в прошлом и дата позже окончания отклоняются.
func (s *Subscription) SetStartDate(start, today time.Time) error {
	start = month.Date(start)
	if start.Before(month.Date(today)) {
		return ErrInvalidSubscriptionDate
	}
	if s.EndDate != nil && s.EndDate.Before(start) {
		return ErrInvalidSubscriptionDate
	}
	s.StartDate = start
	return nil
}

// Extend сдвигает дату окончания на months календарных месяцев.
// Продление на M после создания на N даёт ту же дату, что создание на N+M.
// Статус не проверяется и не меняется.
func (s *Subscription) Extend(months int) error {
	if months < 1 {
		return ErrInvalidExtension
	}
	if s.EndDate == nil {
		return ErrNoEndDate
	}
	var end time.Time
	if anchor := s.StartDate.Day(); month.IsAnchoredTo(*s.EndDate, anchor) {
		end = month.AddAnchored(*s.EndDate, months, anchor)
	} else {
		end = month.Add(*s.EndDate, months)
	}
	s.EndDate = &end
	return nil
}

// SetStatus меняет статус оператором. Допустимы active, suspended и terminated.
// При переводе в active подписки с прошедшей датой окончания extendMonths > 0
// переносит окончание на today + extendMonths, а 0 оставляет подписку
// логически истёкшей.
func (s *Subscription) SetStatus(status Status, today time.Time, extendMonths int) error {
	switch status {
	case StatusActive, StatusSuspended, StatusTerminated:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if extendMonths < 0 {
		return ErrInvalidExtension
	}
	if status == StatusActive && s.EndedBefore(today) && extendMonths > 0 {
		end := month.Add(month.Date(today), extendMonths)
		s.EndDate = &end
	}
	s.Status = status
	return nil
}

// NeedsReactivationExtension сообщает, нужно ли спросить оператора о продлении
// при переводе в status.
func (s *Subscription) NeedsReactivationExtension(status Status, today time.Time) bool {
	return status == StatusActive && s.EndedBefore(today)
}

// Cancel переводит подписку в terminated. Возвращает false, если она уже отменена.
func (s *Subscription) Cancel() bool {
	if s.Status == StatusTerminated {
		return false
	}
	s.Status = StatusTerminated
	return true
}

// EndedBefore сообщает, что дата окончания задана и уже прошла.
func (s *Subscription) EndedBefore(today time.Time) bool {
	return s.EndDate != nil && s.EndDate.Before(month.Date(today))
}

// IsActive статус active и дата окончания не прошла.
func (s *Subscription) IsActive(today time.Time) bool {
	return s.Status == StatusActive && !s.EndedBefore(today)
}

// IsExpired статус всё ещё active, но дата окончания прошла.
func (s *Subscription) IsExpired(today time.Time) bool {
	return s.Status == StatusActive && s.EndedBefore(today)
}

// DaysRemaining возвращает число дней до окончания; ok=false у бессрочной подписки.
func (s *Subscription) DaysRemaining(today time.Time) (days int, ok bool) {
	if s.EndDate == nil {
		return 0, false
	}
	return month.DaysBetween(today, *s.EndDate), true
}

// ReminderDue сообщает, подходит ли подписка под напоминание: active, окончание
// в [today, today+windowDays] и напоминание сегодня ещё не отправлялось.
func (s *Subscription) ReminderDue(today time.Time, windowDays int) bool {
	if s.Status != StatusActive || s.EndDate == nil {
		return false
	}
	today = month.Date(today)
	deadline := today.AddDate(0, 0, windowDays)
	if s.EndDate.Before(today) || s.EndDate.After(deadline) {
		return false
	}
	return s.LastReminderSent == nil || month.Date(*s.LastReminderSent).Before(today)
}
