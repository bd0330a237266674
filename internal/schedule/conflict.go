package schedule

import "github.com/Freeeeeet/tutoring_api/internal/model"

// Window запрашиваемое время у конкретного учителя
type Window struct {
	TeacherID int64
	Days      []model.Weekday
	From      string
	To        string
}

// Overlaps полуоткрытые интервалы [aFrom, aTo) и [bFrom, bTo) пересекаются
func Overlaps(aFrom, aTo, bFrom, bTo string) bool {
	return aFrom < bTo && aTo > bFrom
}

// SharesDay есть ли у наборов дней общий день
func SharesDay(a, b []model.Weekday) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Conflicts сообщает, занимает ли existing время из w.
// Бронирование с идентификатором excludeID не учитывается (0 - не исключать).
func Conflicts(existing model.Booking, w Window, excludeID int64) bool {
	if excludeID != 0 && existing.ID == excludeID {
		return false
	}
	if existing.TeacherID != w.TeacherID || !existing.Status.IsActive() {
		return false
	}
	return SharesDay(existing.Days, w.Days) && Overlaps(existing.TimeFrom, existing.TimeTo, w.From, w.To)
}

// FindConflict возвращает первое конфликтующее бронирование из списка
func FindConflict(bookings []model.Booking, w Window, excludeID int64) (model.Booking, bool) {
	for _, b := range bookings {
		if Conflicts(b, w, excludeID) {
			return b, true
		}
	}
	return model.Booking{}, false
}
