package models

import "errors"

// Нарушения инвариантов сущностей. Возвращаются конструкторами и сеттерами
// в момент присваивания поля и всегда прерывают текущую единицу работы.
var (
	ErrInvalidEmail            = errors.New("invalid email format")
	ErrInvalidPhone            = errors.New("invalid phone: use +2547XXXXXXXX or 07XXXXXXXX")
	ErrInvalidSpeed            = errors.New("speed must be like '10 Mbps' or '1 Gbps'")
	ErrInvalidSubscriptionDate = errors.New("start date cannot be in the past")
	ErrInvalidStatus           = errors.New("invalid subscription status")
	ErrInvalidExtension        = errors.New("must extend by at least 1 month")
	ErrNoEndDate               = errors.New("cannot extend: subscription has no end date")
	ErrInvalidRouterID         = errors.New("router id must be 10 digits")
	ErrInvalidName             = errors.New("name is required")
	ErrInvalidPrice            = errors.New("price out of range")
	ErrInvalidDuration         = errors.New("duration must be at least 1 month")
)

// Ошибки хранилища, которые сервисы показывают оператору как бизнес-отказ.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)
