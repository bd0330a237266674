package telegram

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutoring_api/internal/model"
)

// StatusDisplay emoji и подпись статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

var statusDisplays = map[model.BookingStatus]StatusDisplay{
	model.BookingStatusPending:          {"⏳", "Waiting for teacher"},
	model.BookingStatusAwaitingApproval: {"💬", "Price proposed"},
	model.BookingStatusConfirmed:        {"✅", "Confirmed"},
	model.BookingStatusCompleted:        {"✔️", "Completed"},
	model.BookingStatusCanceled:         {"❌", "Canceled"},
	model.BookingStatusRejected:         {"🚫", "Rejected"},
}

func GetStatusDisplay(status model.BookingStatus) StatusDisplay {
	if d, ok := statusDisplays[status]; ok {
		return d
	}
	return StatusDisplay{"❓", "Unknown"}
}

// FormatBooking строка бронирования; учителю показываем студента, студенту учителя
func FormatBooking(b model.Booking, viewer model.Role) string {
	d := GetStatusDisplay(b.Status)

	counterpart := "Teacher: " + b.TeacherName
	if viewer == model.RoleTeacher {
		counterpart = "Student: " + b.StudentName
	}

	days := make([]string, len(b.Days))
	for i, day := range b.Days {
		days[i] = string(day)
	}

	return fmt.Sprintf("%s #%d %s\n%s\n%s %s-%s",
		d.Emoji, b.ID, d.Text,
		counterpart,
		strings.Join(days, ", "), b.TimeFrom, b.TimeTo,
	)
}
