package models

import (
	"fmt"
	"strings"
)

// Status хранимый статус подписки.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuspended  Status = "suspended"
	StatusTerminated Status = "terminated"
	// StatusExpired допустим в хранилище, но жизненный цикл его не выставляет:
	// истечение вычисляется при запросе.
	StatusExpired Status = "expired"
)

// Valid сообщает, входит ли статус в закрытый набор значений.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusTerminated, StatusExpired:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus разбирает статус без учёта регистра.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// StatusFilter фильтр выборки подписок.
type StatusFilter string

const (
	FilterActive  StatusFilter = "active"
	FilterExpired StatusFilter = "expired"
	FilterAll     StatusFilter = "all"
)

// ParseStatusFilter разбирает фильтр, пустая строка означает active.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FilterActive, nil
	case FilterActive, FilterExpired, FilterAll:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q: use active, expired or all", raw)
}
