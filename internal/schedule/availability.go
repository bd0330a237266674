// Package schedule содержит чистые проверки расписания: доступность учителя
// и пересечение бронирований. Время хранится строками HH:MM, поэтому
// сравнение строк совпадает со сравнением времени.
package schedule

import (
	"regexp"

	"github.com/Freeeeeet/tutoring_api/internal/apperror"
	"github.com/Freeeeeet/tutoring_api/internal/model"
)

var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidClock проверяет формат HH:MM (24 часа, с ведущим нулём)
func ValidClock(s string) bool {
	return clockRe.MatchString(s)
}

// ValidateWindow проверяет форму запроса: дни, формат времени и from < to
func ValidateWindow(days []model.Weekday, from, to string) error {
	if len(days) == 0 {
		return apperror.Validation("at least one day is required")
	}
	for _, d := range days {
		if !d.Valid() {
			return apperror.Validation("invalid day %q", d)
		}
	}
	if !ValidClock(from) || !ValidClock(to) {
		return apperror.Validation("timeFrom and timeTo must be HH:MM")
	}
	if from >= to {
		return apperror.Validation("timeFrom must be before timeTo")
	}
	return nil
}

// IsWithinAvailability сообщает, укладывается ли окно from-to в расписание
// учителя хотя бы в один из запрошенных дней. Для каждого дня берётся
// только первое окно из расписания.
func IsWithinAvailability(avail []model.AvailabilityEntry, days []model.Weekday, from, to string) bool {
	if len(avail) == 0 {
		return false
	}

	for _, day := range days {
		entry, ok := firstEntry(avail, day)
		if !ok {
			continue
		}
		if from >= entry.From && to <= entry.To {
			return true
		}
	}
	return false
}

func firstEntry(avail []model.AvailabilityEntry, day model.Weekday) (model.AvailabilityEntry, bool) {
	for _, e := range avail {
		if e.Day == day {
			return e, true
		}
	}
	return model.AvailabilityEntry{}, false
}
