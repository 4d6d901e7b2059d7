// Package month содержит календарную арифметику для сроков подписок:
// прибавление месяцев с учётом длины месяца и работу с датами без времени суток.
package month

import "time"

// Add прибавляет к дате n календарных месяцев.
// Если в целевом месяце нет такого дня, берётся его последний день:
// 31 января + 1 месяц = 29 февраля (или 28 в невисокосный год).
// time.AddDate в этом случае переносит дату на начало следующего месяца, поэтому не подходит.
func Add(t time.Time, n int) time.Time {
	return AddAnchored(t, n, t.Day())
}

// AddAnchored прибавляет n месяцев, но день результата берёт из anchorDay
// (с тем же ограничением по длине месяца). Нужен для продления: дата окончания
// 29 февраля, полученная из 31 января, при продлении снова возвращается к 31-му числу.
func AddAnchored(t time.Time, n, anchorDay int) time.Time {
	d := Date(t)
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	day := anchorDay
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// IsAnchoredTo сообщает, совпадает ли день даты с anchorDay с учётом длины месяца.
func IsAnchoredTo(t time.Time, anchorDay int) bool {
	day := anchorDay
	if last := DaysIn(t.Year(), t.Month()); day > last {
		day = last
	}
	return t.Day() == day
}

// Date отбрасывает время суток и возвращает календарную дату в UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween возвращает число дней от from до to (отрицательное, если to раньше).
func DaysBetween(from, to time.Time) int {
	return int(Date(to).Sub(Date(from)).Hours() / 24)
}

// Parse разбирает дату в формате YYYY-MM-DD.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return Date(t), nil
}

// DaysIn возвращает количество дней в месяце.
func DaysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
