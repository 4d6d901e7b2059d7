// Package models содержит доменные сущности провайдера: абонентов, тарифы
// и подписки. Поля, на которые наложены инварианты, меняются только через
// конструкторы и сеттеры, которые проверяют значение в момент присваивания.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe    = regexp.MustCompile(`^\+2547[0-247-9]\d{7}$`)
	routerIDRe = regexp.MustCompile(`^\d{10}$`)
)

const phonePrefix = "+254"

// Customer абонент провайдера.
type Customer struct {
	ID        int64     `json:"id"`
	RouterID  string    `json:"router_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`   // пусто, если телефон не указан
	Address   string    `json:"address,omitempty"` // пусто, если адрес не указан
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCustomer создаёт абонента, нормализуя email и телефон.
func NewCustomer(name, email, phone, address, routerID string) (*Customer, error) {
	const op = "models.NewCustomer"
	c := &Customer{Address: strings.TrimSpace(address)}
	if err := c.SetName(name); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.SetEmail(email); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.SetPhone(phone); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.SetRouterID(routerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// SetName задаёт имя абонента.
func (c *Customer) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	c.Name = name
	return nil
}

// SetEmail проверяет форму local@domain.tld и сохраняет адрес в нижнем регистре.
func (c *Customer) SetEmail(email string) error {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	c.Email = normalized
	return nil
}

// SetPhone нормализует телефон. Пустая строка удаляет номер.
func (c *Customer) SetPhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		c.Phone = ""
		return nil
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	c.Phone = normalized
	return nil
}

// SetRouterID задаёт идентификатор роутера из 10 цифр.
func (c *Customer) SetRouterID(routerID string) error {
	routerID = strings.TrimSpace(routerID)
	if !routerIDRe.MatchString(routerID) {
		return ErrInvalidRouterID
	}
	c.RouterID = routerID
	return nil
}

// SetAddress задаёт адрес, пустая строка удаляет его.
func (c *Customer) SetAddress(address string) {
	c.Address = strings.TrimSpace(address)
}

// NormalizeEmail обрезает пробелы и приводит адрес к нижнему регистру.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if !emailRe.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// NormalizePhone приводит номер к виду +2547XXXXXXXX.
// Оставляет только цифры и ведущий плюс, местный формат 07XXXXXXXX
// переписывает с международным префиксом.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if strings.HasPrefix(cleaned, "0") && len(cleaned) == 10 {
		cleaned = phonePrefix + cleaned[1:]
	}
	if !phoneRe.MatchString(cleaned) {
		return "", ErrInvalidPhone
	}
	return cleaned, nil
}

func (c *Customer) String() string {
	return fmt.Sprintf("%s (Router: %s)", c.Name, c.RouterID)
}
