package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/apperror"
	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/phpdave11/gofpdf"
)

// Invoice формирует PDF-счёт и имя файла. Счёт возможен только после
// того, как преподаватель назначил цену.
func Invoice(b model.Booking, issuedAt time.Time) ([]byte, string, error) {
	if b.Price == nil {
		return nil, "", apperror.StateConflict("booking %d has no price yet", b.ID)
	}
	if b.Status != model.BookingStatusAwaitingApproval && b.Status != model.BookingStatusConfirmed && b.Status != model.BookingStatusCompleted {
		return nil, "", apperror.StateConflict("cannot invoice a booking that is %s", b.Status)
	}

	invNo := fmt.Sprintf("INV-%d-%s", b.ID, issuedAt.Format("20060102"))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+invNo, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Invoice No : "+invNo)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Issued     : "+issuedAt.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Billed to:")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("%s <%s>", orDash(b.StudentName), orDash(b.StudentEmail)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Details:")
	pdf.Ln(8)

	days := make([]string, len(b.Days))
	for i, d := range b.Days {
		days[i] = string(d)
	}
	lines := []string{
		fmt.Sprintf("Teacher      : %s", orDash(b.TeacherName)),
		fmt.Sprintf("Subjects     : %s", orDash(strings.Join(b.Subjects, ", "))),
		fmt.Sprintf("Schedule     : %s %s-%s", strings.Join(days, ", "), b.TimeFrom, b.TimeTo),
		fmt.Sprintf("Duration     : %s", b.Duration),
		fmt.Sprintf("Style        : %s", b.Style),
		fmt.Sprintf("Session      : %s", b.SessionType),
		fmt.Sprintf("Booking ID   : #%d", b.ID),
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, l := range lines {
		pdf.Cell(0, 6, l)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+FormatPrice(*b.Price, b.Currency))
	pdf.Ln(12)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("invoice-%d.pdf", b.ID), nil
}

// FormatPrice цена с кодом валюты; встроенные шрифты PDF не содержат ₵ и ₦
func FormatPrice(price float64, c model.Currency) string {
	return fmt.Sprintf("%.2f %s", price, currencyCode(c))
}

func currencyCode(c model.Currency) string {
	switch c {
	case model.CurrencyGHS, "":
		return "GHS"
	default:
		return string(c)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
