// Package export выгружает бронирования в xlsx для администраторов
// и формирует PDF-счёт по подтверждённому занятию.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/xuri/excelize/v2"
)

const bookingsSheet = "Bookings"

var bookingColumns = []string{
	"ID", "Status", "Teacher", "Teacher Email", "Student", "Student Email",
	"Days", "From", "To", "Duration", "Style", "Session Type", "Subjects",
	"Price", "Currency", "Rating", "Created At",
}

// sheetWriter построчная запись в один лист
type sheetWriter struct {
	file  *excelize.File
	sheet string
	row   int
}

func newSheetWriter(sheet string) *sheetWriter {
	f := excelize.NewFile()
	// Лист по умолчанию переименовываем, чтобы в книге не было пустого Sheet1
	_ = f.SetSheetName("Sheet1", sheet)
	return &sheetWriter{file: f, sheet: sheet, row: 1}
}

func (w *sheetWriter) writeHeader(columns []string) error {
	if err := w.writeRow(toAny(columns)); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	start, _ := excelize.CoordinatesToCellName(1, 1)
	end, _ := excelize.CoordinatesToCellName(len(columns), 1)
	return w.file.SetCellStyle(w.sheet, start, end, style)
}

func (w *sheetWriter) writeRow(values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, v); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	w.row++
	return nil
}

// BookingsXLSX строит книгу с одной строкой на бронирование
func BookingsXLSX(bookings []model.Booking) ([]byte, error) {
	w := newSheetWriter(bookingsSheet)
	defer w.file.Close()

	if err := w.writeHeader(bookingColumns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for _, b := range bookings {
		if err := w.writeRow(bookingRow(b)); err != nil {
			return nil, fmt.Errorf("write booking %d: %w", b.ID, err)
		}
	}

	var buf bytes.Buffer
	if err := w.file.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func bookingRow(b model.Booking) []any {
	days := make([]string, len(b.Days))
	for i, d := range b.Days {
		days[i] = string(d)
	}

	var price any = ""
	if b.Price != nil {
		price = *b.Price
	}
	var rating any = ""
	if b.Rating != nil {
		rating = *b.Rating
	}

	return []any{
		b.ID,
		string(b.Status),
		b.TeacherName,
		b.TeacherEmail,
		b.StudentName,
		b.StudentEmail,
		strings.Join(days, ", "),
		b.TimeFrom,
		b.TimeTo,
		string(b.Duration),
		string(b.Style),
		string(b.SessionType),
		strings.Join(b.Subjects, ", "),
		price,
		string(b.Currency),
		rating,
		b.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
