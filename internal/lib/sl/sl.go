// Package sl содержит вспомогательные функции для логгера slog:
// единообразные атрибуты для ошибок и имени операции.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
// Пример:
//
//	log.Error("failed to create customer", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Op возвращает атрибут с именем операции: "пакет.Функция" или путь команды.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}
