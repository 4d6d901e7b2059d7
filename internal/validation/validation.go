// Package validation содержит мягкие проверки ввода оператора.
// Проверки собирают все найденные проблемы в список сообщений, не останавливаясь
// на первой, и ничего не изменяют. Жёсткие инварианты живут в пакете models.
package validation

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/isp-manager/internal/models"
)

// Errors список человекочитаемых ошибок валидации. Пустой список означает успех.
type Errors []string

func (e Errors) Error() string {
	return strings.Join(e, "; ")
}

// IsErrors проверяет, является ли err списком ошибок валидации.
func IsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

type customerForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"emailshape"`
	RouterID string `validate:"routerid"`
}

type planForm struct {
	Name     string `validate:"required"`
	Speed    string `validate:"required,speed"`
	Duration string `validate:"omitempty,posint"`
}

type subscriptionForm struct {
	CustomerID string `validate:"posint"`
	PlanID     string `validate:"posint"`
	Duration   string `validate:"omitempty,posint"`
}

// messages сообщения по полю и тегу, в котором проверка не прошла.
var messages = map[string]string{
	"customerForm.Name.required":         "Name is required",
	"customerForm.Email.emailshape":      "Valid email is required",
	"customerForm.RouterID.routerid":     "Router ID must be 10 digits",
	"planForm.Name.required":             "Plan name is required",
	"planForm.Speed.required":            "Speed description is required",
	"planForm.Speed.speed":               "Speed must be like '10 Mbps' or '1 Gbps'",
	"planForm.Duration.posint":           "Duration must be at least 1 month",
	"subscriptionForm.CustomerID.posint": "Customer ID must be a number",
	"subscriptionForm.PlanID.posint":     "Plan ID must be a number",
	"subscriptionForm.Duration.posint":   "Duration must be at least 1 month",
}

// Validator проверяет сырые строки, введённые оператором.
type Validator struct {
	validate *validator.Validate
	prices   models.PriceRange
}

// New создаёт валидатор с диапазоном цен тарифов.
func New(prices models.PriceRange) *Validator {
	v := validator.New()
	// Регистрация фиксированных тегов не может завершиться ошибкой.
	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		_, err := models.NormalizeEmail(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("routerid", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return len(s) == 10 && isDigits(s)
	})
	_ = v.RegisterValidation("speed", func(fl validator.FieldLevel) bool {
		return models.ValidSpeed(fl.Field().String())
	})
	_ = v.RegisterValidation("posint", func(fl validator.FieldLevel) bool {
		_, ok := ParsePositiveInt(fl.Field().String())
		return ok
	})
	return &Validator{validate: v, prices: prices}
}

// Prices возвращает настроенный диапазон цен.
func (v *Validator) Prices() models.PriceRange {
	return v.prices
}

// ValidateCustomer проверяет имя, email и идентификатор роутера.
func (v *Validator) ValidateCustomer(name, email, routerID string) Errors {
	return v.check(customerForm{
		Name:     strings.TrimSpace(name),
		Email:    email,
		RouterID: routerID,
	})
}

// ValidatePlan проверяет название, скорость и цену тарифа.
// duration необязателен: пустая строка означает значение по умолчанию.
func (v *Validator) ValidatePlan(name, speed, price, duration string) Errors {
	errs := v.check(planForm{
		Name:     strings.TrimSpace(name),
		Speed:    strings.TrimSpace(speed),
		Duration: strings.TrimSpace(duration),
	})

	p, err := decimal.NewFromString(strings.TrimSpace(price))
	switch {
	case err != nil:
		errs = append(errs, "Invalid price format")
	case !v.prices.Contains(p):
		errs = append(errs, "Price must be between "+v.prices.String())
	}
	return errs
}

// ValidateSubscription проверяет идентификаторы абонента и тарифа и длительность.
func (v *Validator) ValidateSubscription(customerID, planID, duration string) Errors {
	return v.check(subscriptionForm{
		CustomerID: strings.TrimSpace(customerID),
		PlanID:     strings.TrimSpace(planID),
		Duration:   strings.TrimSpace(duration),
	})
}

// ValidateSearchTerm проверяет, что строка поиска не пустая.
func (v *Validator) ValidateSearchTerm(term string) Errors {
	if strings.TrimSpace(term) == "" {
		return Errors{"Please enter a search term"}
	}
	return nil
}

func (v *Validator) check(form any) Errors {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{err.Error()}
	}
	errs := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := messages[fe.StructNamespace()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		errs = append(errs, msg)
	}
	return errs
}

// ParsePositiveInt разбирает строку из одних цифр со значением не меньше 1.
func ParsePositiveInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !isDigits(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, n >= 1
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
