package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var speedRe = regexp.MustCompile(`(?i)^\d+\s?(Mbps|Gbps)$`)

// PriceRange допустимый диапазон месячной цены тарифа, границы включены.
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// NewPriceRange строит диапазон из границ конфигурации.
func NewPriceRange(minPrice, maxPrice float64) PriceRange {
	return PriceRange{Min: decimal.NewFromFloat(minPrice), Max: decimal.NewFromFloat(maxPrice)}
}

// Contains проверяет, что цена лежит в диапазоне.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

func (r PriceRange) String() string {
	return fmt.Sprintf("%s and %s", r.Min.String(), r.Max.String())
}

// Plan тарифный план.
type Plan struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Speed          string          `json:"speed"`
	Price          decimal.Decimal `json:"price"`
	Description    string          `json:"description,omitempty"`
	DurationMonths int             `json:"duration_months"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewPlan создаёт тариф. Нулевая длительность заменяется на один месяц.
func NewPlan(name, speed string, price decimal.Decimal, description string, durationMonths int, bounds PriceRange) (*Plan, error) {
	const op = "models.NewPlan"
	if durationMonths == 0 {
		durationMonths = 1
	}
	p := &Plan{Description: strings.TrimSpace(description)}
	if err := p.SetName(name); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := p.SetSpeed(speed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := p.SetPrice(price, bounds); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := p.SetDuration(durationMonths); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// SetName сохраняет название в title case: "basic plan" -> "Basic Plan".
func (p *Plan) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	p.Name = cases.Title(language.Und).String(name)
	return nil
}

// SetSpeed проверяет формат "<число><пробел?><Mbps|Gbps>" без учёта регистра.
func (p *Plan) SetSpeed(speed string) error {
	speed = strings.TrimSpace(speed)
	if !speedRe.MatchString(speed) {
		return ErrInvalidSpeed
	}
	p.Speed = speed
	return nil
}

// SetPrice задаёт цену в пределах bounds.
func (p *Plan) SetPrice(price decimal.Decimal, bounds PriceRange) error {
	if !bounds.Contains(price) {
		return fmt.Errorf("%w: must be between %s", ErrInvalidPrice, bounds)
	}
	p.Price = price.Round(2)
	return nil
}

// SetDuration задаёт длительность по умолчанию для новых подписок.
func (p *Plan) SetDuration(months int) error {
	if months < 1 {
		return ErrInvalidDuration
	}
	p.DurationMonths = months
	return nil
}

// SetDescription задаёт описание, пустая строка удаляет его.
func (p *Plan) SetDescription(description string) {
	p.Description = strings.TrimSpace(description)
}

// ValidSpeed сообщает, подходит ли строка под формат скорости.
func ValidSpeed(speed string) bool {
	return speedRe.MatchString(strings.TrimSpace(speed))
}

func (p *Plan) String() string {
	return fmt.Sprintf("%s - %s (%s/month)", p.Name, p.Speed, p.Price.StringFixed(2))
}
