package telegram

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 150
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
)

const (
	titleFontSize      = 25.0
	dayFontSize        = 24.0
	hourLabelFontSize  = 18.0
	slotTimeFontSize   = 16.0
	legendItemFontSize = 13.0
)

var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	hourLabelColor = color.RGBA{110, 115, 120, 200}
	hourLineColor  = color.NRGBA{150, 150, 150, 255}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{220, 220, 220, 255}

	pendingColor   = color.RGBA{255, 214, 102, 230}
	awaitingColor  = color.RGBA{255, 182, 193, 255}
	confirmedColor = color.RGBA{133, 193, 85, 220}
	defaultColor   = color.RGBA{220, 220, 220, 200}

	slotTextColor   = color.RGBA{20, 24, 28, 230}
	slotShadowColor = color.RGBA{0, 0, 0, 20}
	legendItemColor = color.RGBA{70, 74, 78, 220}
)

// hourRange диапазон часов для отображения
type hourRange struct {
	start int
	end   int
	total int
}

// weekSlot одно повторяющееся занятие в конкретный день недели
type weekSlot struct {
	from, to float64
	label    string
	status   model.BookingStatus
}

var (
	fontsOnce    sync.Once
	regularFont  *opentype.Font
	boldFont     *opentype.Font
	fontLoadFail bool
)

func loadFonts() {
	var err error
	if regularFont, err = opentype.Parse(goregular.TTF); err != nil {
		fontLoadFail = true
		return
	}
	if boldFont, err = opentype.Parse(gobold.TTF); err != nil {
		fontLoadFail = true
	}
}

// setFont выбирает шрифт нужного размера, при ошибке basicfont
func setFont(dc *gg.Context, size float64, bold bool) {
	fontsOnce.Do(loadFonts)
	if fontLoadFail {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}

	f := regularFont
	if bold {
		f = boldFont
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	dc.SetFontFace(face)
}

// RenderWeek рисует недельную сетку активных занятий в PNG.
// Завершённые, отменённые и отклонённые бронирования не показываются.
func RenderWeek(title string, bookings []model.Booking, viewer model.Role) ([]byte, error) {
	slotsByDay := groupByDay(bookings, viewer)
	hours := calculateHourRange(slotsByDay)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / len(model.Weekdays)
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, title)
	drawHourLabels(dc, hours, cellHeight)
	for i, day := range model.Weekdays {
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)
		drawDayBackground(dc, x, y, dayWidth, dayHeight, i)
		drawDayHeader(dc, day, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, s := range slotsByDay[day] {
			drawSlot(dc, s, x, y, dayWidth, hours, cellHeight)
		}
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

func groupByDay(bookings []model.Booking, viewer model.Role) map[model.Weekday][]weekSlot {
	out := make(map[model.Weekday][]weekSlot)
	for _, b := range bookings {
		if !b.Status.IsActive() && b.Status != model.BookingStatusAwaitingApproval {
			continue
		}
		from, okFrom := clockHours(b.TimeFrom)
		to, okTo := clockHours(b.TimeTo)
		if !okFrom || !okTo {
			continue
		}

		label := b.TeacherName
		if viewer == model.RoleTeacher {
			label = b.StudentName
		}
		for _, d := range b.Days {
			out[d] = append(out[d], weekSlot{from: from, to: to, label: label, status: b.Status})
		}
	}
	return out
}

// clockHours "HH:MM" в часы с дробной частью
func clockHours(s string) (float64, bool) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, false
	}
	return float64(h) + float64(m)/60.0, true
}

func calculateHourRange(slotsByDay map[model.Weekday][]weekSlot) hourRange {
	minHour, maxHour := 24, 0
	for _, slots := range slotsByDay {
		for _, s := range slots {
			start := int(s.from)
			end := int(s.to)
			if s.to > float64(end) {
				end++
			}
			minHour = min(minHour, start)
			maxHour = max(maxHour, end)
		}
	}
	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(0, minHour-hourPaddingTop)
	end := min(24, maxHour+hourPaddingBot)
	return hourRange{start: start, end: end, total: end - start}
}

func drawHeader(dc *gg.Context, title string) {
	setFont(dc, titleFontSize, true)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/4, 0, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	setFont(dc, hourLabelFontSize, false)
	dc.SetColor(hourLabelColor)
	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int) {
	if dayIndex%2 == 0 {
		dc.SetColor(evenDayColor)
	} else {
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, day model.Weekday, x, y float64, dayWidth int) {
	setFont(dc, dayFontSize, true)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(string(day)[:3], x+float64(dayWidth)/2, y, 0.5, -0.4)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawSlot(dc *gg.Context, s weekSlot, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	slotY := y + (s.from-float64(hours.start))*cellHeight
	slotHeight := max((s.to-s.from)*cellHeight, minSlotHeight)
	slotWidth := float64(dayWidth) - float64(dayPaddingX*2)
	fill := statusColor(s.status)

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, slotY+2+shadowOffset, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	txtX := x + dayPaddingX + 8
	txtY := slotY + 18
	setFont(dc, slotTimeFontSize, true)
	dc.SetColor(slotTextColor)
	dc.DrawStringAnchored(fmt.Sprintf("%02d:%02d", int(s.from), int((s.from-float64(int(s.from)))*60+0.5)), txtX, txtY, 0, 0)

	if s.label != "" && slotHeight > 25 {
		label := s.label
		if r := []rune(label); len(r) > 18 {
			label = string(r[:15]) + "..."
		}
		setFont(dc, slotTimeFontSize-2, false)
		dc.DrawStringAnchored(label, txtX, txtY+16, 0, 0)
	}
}

func statusColor(status model.BookingStatus) color.RGBA {
	switch status {
	case model.BookingStatusPending:
		return pendingColor
	case model.BookingStatusAwaitingApproval:
		return awaitingColor
	case model.BookingStatusConfirmed:
		return confirmedColor
	default:
		return defaultColor
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawLegend(dc *gg.Context, dayWidth int) {
	liX := float64(leftLabelsWidth+len(model.Weekdays)*dayWidth) + 10
	liY := float64(imageHeight) - 100.0

	items := []struct {
		label string
		clr   color.Color
	}{
		{"Pending", pendingColor},
		{"Price proposed", awaitingColor},
		{"Confirmed", confirmedColor},
	}

	const boxW, boxH = 20.0, 14.0
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(liX, liY, boxW, boxH, 3)
		dc.Fill()

		setFont(dc, legendItemFontSize, false)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, liX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}
