package booking

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutoring_api/internal/model"
)

func bookingRequested(b model.Booking, rescheduled bool) model.Notification {
	intro := fmt.Sprintf("You have received a new booking request from %s.", b.StudentName)
	if rescheduled {
		intro = fmt.Sprintf("%s has rescheduled a booking and is waiting for your confirmation.", b.StudentName)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s,\n\n%s\n\n", b.TeacherName, intro)
	writeSchedule(&sb, b)
	fmt.Fprintf(&sb, "Session type: %s\n", b.SessionType)
	if b.Notes != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", b.Notes)
	}
	fmt.Fprintf(&sb, "\nBooking ID: %d", b.ID)

	return model.Notification{
		Kind:           model.NotificationBookingCreated,
		RecipientID:    b.TeacherID,
		RecipientEmail: b.TeacherEmail,
		RecipientName:  b.TeacherName,
		Subject:        "New Booking Request",
		Body:           sb.String(),
	}
}

func priceProposed(b model.Booking) model.Notification {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s,\n\n%s has confirmed your booking and set a price.\n\n", b.StudentName, b.TeacherName)
	fmt.Fprintf(&sb, "Price: %s\n", formatPrice(b))
	writeSchedule(&sb, b)
	if b.Telephone != "" {
		fmt.Fprintf(&sb, "Telephone: %s\n", b.Telephone)
	}
	if b.MeetingLink != "" {
		fmt.Fprintf(&sb, "Meeting link: %s\n", b.MeetingLink)
	}
	fmt.Fprintf(&sb, "\nPlease approve the booking to confirm it.\nBooking ID: %d", b.ID)

	return model.Notification{
		Kind:           model.NotificationBookingPriceProposed,
		RecipientID:    b.StudentID,
		RecipientEmail: b.StudentEmail,
		RecipientName:  b.StudentName,
		Subject:        "Booking Price Updated",
		Body:           sb.String(),
	}
}

func approved(b model.Booking) model.Notification {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s,\n\nYour session with %s has been confirmed!\n\n", b.TeacherName, b.StudentName)
	fmt.Fprintf(&sb, "Price: %s\n", formatPrice(b))
	writeSchedule(&sb, b)
	fmt.Fprintf(&sb, "\nBooking ID: %d\nStudent contact: %s", b.ID, b.StudentEmail)

	return model.Notification{
		Kind:           model.NotificationBookingApproved,
		RecipientID:    b.TeacherID,
		RecipientEmail: b.TeacherEmail,
		RecipientName:  b.TeacherName,
		Subject:        "Booking Confirmed",
		Body:           sb.String(),
	}
}

func rejected(b model.Booking) model.Notification {
	return model.Notification{
		Kind:           model.NotificationBookingRejected,
		RecipientID:    b.StudentID,
		RecipientEmail: b.StudentEmail,
		RecipientName:  b.StudentName,
		Subject:        "Booking Rejected",
		Body: fmt.Sprintf("Hello %s,\n\n%s has declined your booking request (%s %s-%s).\n\nBooking ID: %d",
			b.StudentName, b.TeacherName, joinDays(b.Days), b.TimeFrom, b.TimeTo, b.ID),
	}
}

func canceled(b model.Booking, by Actor) model.Notification {
	n := model.Notification{
		Kind:    model.NotificationBookingCanceled,
		Subject: "Booking Canceled",
	}
	canceledBy := b.StudentName
	if by.ID == b.StudentID {
		n.RecipientID, n.RecipientEmail, n.RecipientName = b.TeacherID, b.TeacherEmail, b.TeacherName
	} else {
		n.RecipientID, n.RecipientEmail, n.RecipientName = b.StudentID, b.StudentEmail, b.StudentName
		canceledBy = b.TeacherName
	}
	n.Body = fmt.Sprintf("Hello %s,\n\n%s has canceled the booking (%s %s-%s).\n\nBooking ID: %d",
		n.RecipientName, canceledBy, joinDays(b.Days), b.TimeFrom, b.TimeTo, b.ID)
	return n
}

func writeSchedule(sb *strings.Builder, b model.Booking) {
	fmt.Fprintf(sb, "Days: %s\n", joinDays(b.Days))
	fmt.Fprintf(sb, "Time: %s - %s\n", b.TimeFrom, b.TimeTo)
	fmt.Fprintf(sb, "Duration: %s\n", b.Duration)
}

func joinDays(days []model.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}

func formatPrice(b model.Booking) string {
	if b.Price == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f %s", *b.Price, b.Currency)
}

// Intents уведомления, которые порождает действие над бронированием b
func Intents(a Action, b model.Booking, actor Actor) []model.Notification {
	switch a {
	case ActionCreate:
		return []model.Notification{bookingRequested(b, false)}
	case ActionReschedule:
		return []model.Notification{bookingRequested(b, true)}
	case ActionConfirm:
		return []model.Notification{priceProposed(b)}
	case ActionReject:
		return []model.Notification{rejected(b)}
	case ActionApprove:
		return []model.Notification{approved(b)}
	case ActionCancel:
		return []model.Notification{canceled(b, actor)}
	default:
		return nil
	}
}
