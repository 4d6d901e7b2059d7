package storage

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/isp-manager/internal/lib/month"
)

// Даты пишутся строкой YYYY-MM-DD, метки времени строкой RFC 3339: так их
// одинаково понимают postgres и sqlite, а строки в sqlite сравниваются как даты.

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// nullTime сканирует DATE/TIMESTAMP из любого драйвера: time.Time, строку или байты.
type nullTime struct {
	Time  time.Time
	Valid bool
}

func (n *nullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = v, true
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("storage: cannot scan %T into time", src)
	}
}

func (n *nullTime) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			n.Time, n.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("storage: unrecognised time %q", s)
}

// date возвращает календарную дату без времени.
func (n nullTime) date() *time.Time {
	if !n.Valid {
		return nil
	}
	d := month.Date(n.Time)
	return &d
}

func (n nullTime) timestamp() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func (n nullTime) value() time.Time {
	return n.Time
}

func dateArg(t time.Time) string {
	return t.Format(time.DateOnly)
}

func nullDateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dateArg(*t)
}

func timeArg(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
