package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerSummary строка списка абонентов с числом активных подписок.
type CustomerSummary struct {
	Customer
	ActiveSubscriptions int `json:"active_subscriptions"`
}

// PlanSummary строка списка тарифов с числом подписок.
type PlanSummary struct {
	Plan
	Subscriptions int `json:"subscriptions"`
}

// SubscriptionDetails подписка вместе с данными абонента и тарифа.
type SubscriptionDetails struct {
	Subscription
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	PlanName      string          `json:"plan_name"`
	PlanSpeed     string          `json:"plan_speed"`
	PlanPrice     decimal.Decimal `json:"plan_price"`
}

// SearchOutcome различает пустую базу и отсутствие совпадений.
type SearchOutcome int

const (
	SearchFound SearchOutcome = iota
	SearchNoMatches
	SearchNoRecords
)

// SearchResult результат поиска абонентов.
type SearchResult struct {
	Term      string
	Outcome   SearchOutcome
	Customers []Customer
}

// Reminder уведомление о скором окончании подписки, уходит во внешнюю доставку.
type Reminder struct {
	SubscriptionID int64           `json:"subscription_id"`
	CustomerName   string          `json:"customer_name"`
	Email          string          `json:"email"`
	PlanName       string          `json:"plan_name"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	EndDate        time.Time       `json:"end_date"`
	DaysLeft       int             `json:"days_left"`
}

// ReminderReport итог прохода по истекающим подпискам.
type ReminderReport struct {
	Checked int
	Sent    []Reminder
	Skipped []SubscriptionDetails // нет email
	Failed  []ReminderFailure
}

// ReminderFailure напоминание, которое не удалось передать в доставку.
type ReminderFailure struct {
	Reminder Reminder
	Err      error
}

// CustomerInput сырые данные абонента от оператора.
type CustomerInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	RouterID string
}

// CustomerPatch изменения абонента, nil-поле не меняется.
type CustomerPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

// PlanInput сырые данные тарифа от оператора.
type PlanInput struct {
	Name        string
	Speed       string
	Price       string
	Description string
	Duration    string // пусто: 1 месяц
}

// PlanPatch изменения тарифа, nil-поле не меняется.
type PlanPatch struct {
	Name        *string
	Speed       *string
	Price       *string
	Description *string
	Duration    *string
}

// SubscriptionInput сырые данные подписки от оператора.
type SubscriptionInput struct {
	CustomerID string
	PlanID     string
	Duration   string // пусто: длительность тарифа
	StartDate  string // пусто: сегодня, формат YYYY-MM-DD
}
