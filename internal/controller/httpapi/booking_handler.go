package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/apperror"
	"github.com/Freeeeeet/tutoring_api/internal/booking"
	"github.com/Freeeeeet/tutoring_api/internal/export"
	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BookingService операции жизненного цикла и выборки бронирований
type BookingService interface {
	Create(ctx context.Context, actor booking.Actor, teacherID int64, req service.BookingRequest) (*model.Booking, error)
	Decide(ctx context.Context, actor booking.Actor, bookingID int64, req service.DecisionRequest) (*model.Booking, error)
	Approve(ctx context.Context, actor booking.Actor, bookingID int64) (*model.Booking, error)
	Cancel(ctx context.Context, actor booking.Actor, bookingID int64) (*model.Booking, error)
	Complete(ctx context.Context, actor booking.Actor, bookingID int64) (*model.Booking, error)
	Review(ctx context.Context, actor booking.Actor, bookingID int64, rating int, review string) (*model.Booking, error)
	Reschedule(ctx context.Context, actor booking.Actor, bookingID int64, req service.RescheduleRequest) (*model.Booking, error)

	StudentBookings(ctx context.Context, studentID int64) ([]model.Booking, error)
	TeacherBookings(ctx context.Context, teacherID int64) ([]model.Booking, error)
	AllBookings(ctx context.Context) ([]model.Booking, error)
	BookingsForTeacher(ctx context.Context, teacherID int64) ([]model.Booking, error)
	BookingsForStudent(ctx context.Context, studentID int64) ([]model.Booking, error)
	FilterBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	PartyBooking(ctx context.Context, actor booking.Actor, bookingID int64) (*model.Booking, error)
}

type BookingHandler struct {
	bookings BookingService
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewBookingHandler(bookings BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

type createBookingRequest struct {
	Day         []model.Weekday   `json:"day" validate:"required,min=1,dive,weekday"`
	TimeFrom    string            `json:"timeFrom" validate:"required,clock"`
	TimeTo      string            `json:"timeTo" validate:"required,clock"`
	Duration    model.Duration    `json:"duration" validate:"omitempty,oneof=1month 3months 6months 1year"`
	Date        *requestDate      `json:"date"`
	Style       model.Style       `json:"style" validate:"omitempty,oneof=casual intensive super-intensive"`
	SessionType model.SessionType `json:"sessionType" validate:"omitempty,oneof=offline online"`
	Subjects    []string          `json:"subjects" validate:"omitempty,dive,required"`
	Notes       string            `json:"notes" validate:"max=2000"`
}

// requestDate дата занятия: YYYY-MM-DD или полный RFC3339
type requestDate time.Time

func (d *requestDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return apperror.Validation("date must be a string")
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			*d = requestDate(t)
			return nil
		}
	}
	return apperror.Validation("date must be YYYY-MM-DD or RFC3339")
}

func (d *requestDate) Time() *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}

type decisionRequest struct {
	Status      model.BookingStatus `json:"status" validate:"required,oneof=confirmed rejected"`
	Price       *float64            `json:"price" validate:"omitempty,gt=0"`
	Telephone   string              `json:"telephone" validate:"max=32"`
	MeetingLink string              `json:"meetingLink" validate:"max=500"`
}

type rescheduleRequest struct {
	Day      []model.Weekday `json:"day" validate:"required,min=1,dive,weekday"`
	TimeFrom string          `json:"timeFrom" validate:"required,clock"`
	TimeTo   string          `json:"timeTo" validate:"required,clock"`
	Duration *model.Duration `json:"duration" validate:"omitempty,oneof=1month 3months 6months 1year"`
	Notes    *string         `json:"notes" validate:"omitempty,max=2000"`
	Subjects []string        `json:"subjects" validate:"omitempty,dive,required"`
}

type reviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"max=2000"`
}

type bookingResponse struct {
	Message string         `json:"message"`
	Booking *model.Booking `json:"booking"`
}

type bookingListResponse struct {
	Count    int             `json:"count"`
	Bookings []model.Booking `json:"bookings"`
}

func (h *BookingHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, bindError(err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(c, bindError(err))
		return false
	}
	return true
}

// Create POST /api/teachers/:teacherId/book
func (h *BookingHandler) Create(c *gin.Context) {
	teacherID, ok := pathID(c, "teacherId")
	if !ok {
		return
	}

	var req createBookingRequest
	if !h.bind(c, &req) {
		return
	}

	b, err := h.bookings.Create(c.Request.Context(), actorFrom(c), teacherID, service.BookingRequest{
		Days:        req.Day,
		TimeFrom:    req.TimeFrom,
		TimeTo:      req.TimeTo,
		Duration:    req.Duration,
		Date:        req.Date.Time(),
		Style:       req.Style,
		SessionType: req.SessionType,
		Subjects:    req.Subjects,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bookingResponse{Message: "Booking created successfully", Booking: b})
}

// ConfirmReject PATCH /api/booking/:bookingId/confirm-reject
func (h *BookingHandler) ConfirmReject(c *gin.Context) {
	id, ok := pathID(c, "bookingId")
	if !ok {
		return
	}

	var req decisionRequest
	if !h.bind(c, &req) {
		return
	}

	b, err := h.bookings.Decide(c.Request.Context(), actorFrom(c), id, service.DecisionRequest{
		Status:      req.Status,
		Price:       req.Price,
		Telephone:   req.Telephone,
		MeetingLink: req.MeetingLink,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{Message: fmt.Sprintf("Booking %s successfully", req.Status), Booking: b})
}

func (h *BookingHandler) Approve(c *gin.Context) {
	h.simple(c, h.bookings.Approve, "Booking approved successfully")
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	h.simple(c, h.bookings.Cancel, "Booking canceled successfully")
}

func (h *BookingHandler) Complete(c *gin.Context) {
	h.simple(c, h.bookings.Complete, "Booking marked as completed")
}

func (h *BookingHandler) simple(c *gin.Context, op func(context.Context, booking.Actor, int64) (*model.Booking, error), message string) {
	id, ok := pathID(c, "bookingId")
	if !ok {
		return
	}

	b, err := op(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{Message: message, Booking: b})
}

// Reschedule PATCH /api/booking/:bookingId/reschedule
func (h *BookingHandler) Reschedule(c *gin.Context) {
	id, ok := pathID(c, "bookingId")
	if !ok {
		return
	}

	var req rescheduleRequest
	if !h.bind(c, &req) {
		return
	}

	b, err := h.bookings.Reschedule(c.Request.Context(), actorFrom(c), id, service.RescheduleRequest{
		Days:     req.Day,
		TimeFrom: req.TimeFrom,
		TimeTo:   req.TimeTo,
		Duration: req.Duration,
		Notes:    req.Notes,
		Subjects: req.Subjects,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{Message: "Booking rescheduled successfully", Booking: b})
}

// Review PATCH /api/booking/:bookingId/review
func (h *BookingHandler) Review(c *gin.Context) {
	id, ok := pathID(c, "bookingId")
	if !ok {
		return
	}

	var req reviewRequest
	if !h.bind(c, &req) {
		return
	}

	b, err := h.bookings.Review(c.Request.Context(), actorFrom(c), id, req.Rating, req.Review)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{Message: "Review submitted successfully", Booking: b})
}

// StudentBookings GET /api/booking/me
func (h *BookingHandler) StudentBookings(c *gin.Context) {
	list, err := h.bookings.StudentBookings(c.Request.Context(), actorFrom(c).ID)
	writeList(c, list, err)
}

// TeacherBookings GET /api/booking/mine
func (h *BookingHandler) TeacherBookings(c *gin.Context) {
	list, err := h.bookings.TeacherBookings(c.Request.Context(), actorFrom(c).ID)
	writeList(c, list, err)
}

// All GET /api/booking/all
func (h *BookingHandler) All(c *gin.Context) {
	list, err := h.bookings.AllBookings(c.Request.Context())
	writeList(c, list, err)
}

// Search GET /api/booking/admin
func (h *BookingHandler) Search(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := h.bookings.FilterBookings(c.Request.Context(), f)
	writeList(c, list, err)
}

// ByTeacher GET /api/admin/booking/teacher/:id
func (h *BookingHandler) ByTeacher(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.bookings.BookingsForTeacher(c.Request.Context(), id)
	writeList(c, list, err)
}

// ByStudent GET /api/admin/booking/student/:id
func (h *BookingHandler) ByStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.bookings.BookingsForStudent(c.Request.Context(), id)
	writeList(c, list, err)
}

// Export GET /api/booking/admin/export, фильтры как у Search
func (h *BookingHandler) Export(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := h.bookings.FilterBookings(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}

	data, err := export.BookingsXLSX(list)
	if err != nil {
		writeError(c, apperror.Dependency("export bookings", err))
		return
	}

	name := fmt.Sprintf("bookings-%s.xlsx", h.now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Invoice GET /api/booking/:bookingId/invoice
func (h *BookingHandler) Invoice(c *gin.Context) {
	id, ok := pathID(c, "bookingId")
	if !ok {
		return
	}

	b, err := h.bookings.PartyBooking(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	data, name, err := export.Invoice(*b, h.now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func writeList(c *gin.Context, list []model.Booking, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []model.Booking{}
	}
	c.JSON(http.StatusOK, bookingListResponse{Count: len(list), Bookings: list})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, apperror.Validation("invalid %s", name))
		return 0, false
	}
	return id, true
}

const dateLayout = "2006-01-02"

func parseFilter(c *gin.Context) (model.BookingFilter, error) {
	f := model.BookingFilter{
		Status:      model.BookingStatus(c.Query("status")),
		SessionType: model.SessionType(c.Query("sessionType")),
		TeacherName: c.Query("teacherName"),
		StudentName: c.Query("studentName"),
		Subject:     c.Query("subject"),
	}

	if v := c.Query("startDate"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, apperror.Validation("startDate must be YYYY-MM-DD")
		}
		f.StartDate = &d
	}
	if v := c.Query("endDate"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, apperror.Validation("endDate must be YYYY-MM-DD")
		}
		// Конец дня включительно
		end := d.Add(24*time.Hour - time.Nanosecond)
		f.EndDate = &end
	}
	return f, nil
}
