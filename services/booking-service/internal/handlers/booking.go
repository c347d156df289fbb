package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/randevya/salonbook/services/booking-service/internal/availability"
	"github.com/randevya/salonbook/services/booking-service/internal/metrics"
	"github.com/randevya/salonbook/services/booking-service/internal/model"
	"github.com/randevya/salonbook/services/booking-service/internal/outbox"
	"github.com/randevya/salonbook/services/booking-service/internal/scheduling"
	"github.com/randevya/salonbook/services/booking-service/internal/storage"
)

// BookingStore is the transactional appointment storage used by the handlers.
type BookingStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	LockIdempotencyKey(ctx context.Context, tx pgx.Tx, salonID, key string) (storage.IdempotencyRecord, bool, error)
	FinalizeIdempotency(ctx context.Context, tx pgx.Tx, salonID, key, appointmentID string, statusCode int, response []byte) error
	Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error
	GetForUpdate(ctx context.Context, tx pgx.Tx, salonID, appointmentID string) (model.Appointment, error)
	GetByAccessTokenForUpdate(ctx context.Context, tx pgx.Tx, token string) (model.Appointment, error)
	FindByAccessToken(ctx context.Context, token string) (model.Appointment, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, appointmentID, status string) error
	Cancel(ctx context.Context, tx pgx.Tx, appointmentID, reason string) (time.Time, error)
	ListBySalon(ctx context.Context, salonID string, from, to availability.Date, limit int) ([]model.Appointment, error)
	ListLiveBySalon(ctx context.Context, salonID string, from, to availability.Date, limit int) ([]model.Appointment, error)
	ListByStaff(ctx context.Context, staffID string, from, to availability.Date) ([]model.Appointment, error)
}

type EventWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

type StaffDirectory interface {
	scheduling.StaffLookup
	scheduling.RosterLookup
}

type StaffResolver interface {
	ResolveStaff(ctx context.Context, req model.BookingRequest) (string, error)
}

type Options struct {
	// SlotStep is the default spacing of open start times.
	SlotStep time.Duration
	// Location decides what "today" is when a request omits the date.
	Location *time.Location
	Now      func() time.Time
}

type BookingHandler struct {
	repo     BookingStore
	events   EventWriter
	staff    StaffDirectory
	resolver StaffResolver
	metrics  *metrics.Booking
	logger   *slog.Logger
	slotStep time.Duration
	loc      *time.Location
	now      func() time.Time
}

func NewBookingHandler(repo BookingStore, events EventWriter, staff StaffDirectory, resolver StaffResolver, m *metrics.Booking, logger *slog.Logger, opts Options) *BookingHandler {
	if opts.SlotStep <= 0 {
		opts.SlotStep = 30 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if m == nil {
		m = metrics.NewBooking(nil)
	}
	return &BookingHandler{
		repo:     repo,
		events:   events,
		staff:    staff,
		resolver: resolver,
		metrics:  m,
		logger:   logger,
		slotStep: opts.SlotStep,
		loc:      opts.Location,
		now:      opts.Now,
	}
}

type createBookingRequest struct {
	SalonID       string `json:"salon_id"`
	ServiceID     string `json:"service_id"`
	StaffID       string `json:"staff_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

type createBookingResponse struct {
	AppointmentID string `json:"appointment_id"`
	StaffID       string `json:"staff_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	AccessToken   string `json:"access_token"`
}

type cancelBookingRequest struct {
	SalonID       string `json:"salon_id"`
	AppointmentID string `json:"appointment_id"`
	AccessToken   string `json:"access_token"`
	Reason        string `json:"reason"`
}

type cancelBookingResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at"`
}

type appointmentItem struct {
	AppointmentID string `json:"appointment_id"`
	StaffID       string `json:"staff_id"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	CustomerName  string `json:"customer_name,omitempty"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type customerAppointment struct {
	appointmentItem
	SalonID       string `json:"salon_id"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CancelReason  string `json:"cancellation_reason,omitempty"`
}

type updateStatusRequest struct {
	SalonID       string `json:"salon_id"`
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

type updateStatusResponse struct {
	AppointmentID  string `json:"appointment_id"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	booking := model.BookingRequest{
		SalonID:       strings.TrimSpace(req.SalonID),
		ServiceID:     strings.TrimSpace(req.ServiceID),
		StaffID:       strings.TrimSpace(req.StaffID),
		Date:          strings.TrimSpace(req.Date),
		Time:          strings.TrimSpace(req.Time),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
	}
	if booking.SalonID == "" || booking.ServiceID == "" || booking.CustomerName == "" || booking.Date == "" || booking.Time == "" {
		h.metrics.Attempt(metrics.OutcomeInvalid)
		http.Error(w, "salon_id, service_id, customer_name, date and time are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		h.fail(w, r, "db error", err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.repo.LockIdempotencyKey(ctx, tx, booking.SalonID, idempotencyKey)
		if err != nil {
			h.fail(w, r, "failed to lock idempotency key", err)
			return
		}
		if exists && rec.StatusCode > 0 {
			h.metrics.Attempt(metrics.OutcomeReplayed)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.ResponsePayload)
			return
		}
	}

	mode := metrics.ResolveAutoAssign
	if booking.StaffID != "" {
		mode = metrics.ResolveExplicit
	}
	started := time.Now()
	staffID, err := h.resolver.ResolveStaff(ctx, booking)
	h.metrics.ObserveResolve(mode, time.Since(started))
	if err != nil {
		reason := scheduling.Reason(err)
		if reason == "" {
			// Lookup failures are not recorded against the key so the client can retry with it.
			h.fail(w, r, "failed to resolve staff", err)
			return
		}
		h.metrics.Attempt(reason)
		if errors.Is(err, scheduling.ErrAlreadyBooked) {
			h.metrics.Conflict(metrics.ConflictCore)
		}
		status, body := rejection(err)
		if idempotencyKey != "" {
			if err := h.repo.FinalizeIdempotency(ctx, tx, booking.SalonID, idempotencyKey, "", status, body); err != nil {
				h.logger.Error("failed to finalize idempotency (rejection)", "err", err)
			} else if err := tx.Commit(ctx); err != nil {
				h.logger.Error("failed to commit idempotency (rejection)", "err", err)
			}
		}
		writeRaw(w, status, body)
		return
	}

	// ResolveStaff already parsed both fields.
	date, _ := availability.ParseDate(booking.Date)
	at, _ := availability.ParseTimeOfDay(booking.Time)
	appt := &model.Appointment{
		SalonID:       booking.SalonID,
		ServiceID:     booking.ServiceID,
		StaffID:       staffID,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		CustomerPhone: booking.CustomerPhone,
		Date:          date,
		Time:          at,
		Status:        model.StatusPending,
	}
	if err := h.repo.Create(ctx, tx, appt); err != nil {
		if storage.IsConflict(err) {
			// Another request took the slot between the check and the insert.
			h.metrics.Attempt(scheduling.Reason(scheduling.ErrAlreadyBooked))
			h.metrics.Conflict(metrics.ConflictStorage)
			status, body := rejection(scheduling.ErrAlreadyBooked)
			writeRaw(w, status, body)
			return
		}
		h.fail(w, r, "failed to create appointment", err)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"salon_id":       appt.SalonID,
		"staff_id":       appt.StaffID,
		"service_id":     appt.ServiceID,
		"customer_name":  appt.CustomerName,
		"customer_email": appt.CustomerEmail,
		"customer_phone": appt.CustomerPhone,
		"date":           appt.Date.String(),
		"time":           appt.Time.String(),
		"auto_assigned":  booking.StaffID == "",
	})
	if err != nil {
		h.fail(w, r, "failed to build event payload", err)
		return
	}
	if err := h.events.Insert(ctx, tx, outbox.Event{
		AggregateType: outbox.AggregateAppointment,
		AggregateID:   appt.ID,
		EventType:     outbox.EventAppointmentCreated,
		Payload:       payload,
	}); err != nil {
		h.fail(w, r, "failed to write outbox event", err)
		return
	}

	respBody, err := json.Marshal(createBookingResponse{
		AppointmentID: appt.ID,
		StaffID:       appt.StaffID,
		Date:          appt.Date.String(),
		Time:          appt.Time.String(),
		Status:        appt.Status,
		AccessToken:   appt.AccessToken,
	})
	if err != nil {
		h.fail(w, r, "failed to build response", err)
		return
	}
	if idempotencyKey != "" {
		if err := h.repo.FinalizeIdempotency(ctx, tx, booking.SalonID, idempotencyKey, appt.ID, http.StatusCreated, respBody); err != nil {
			h.fail(w, r, "failed to finalize idempotency key", err)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			h.metrics.Attempt(scheduling.Reason(scheduling.ErrAlreadyBooked))
			h.metrics.Conflict(metrics.ConflictStorage)
			status, body := rejection(scheduling.ErrAlreadyBooked)
			writeRaw(w, status, body)
			return
		}
		h.fail(w, r, "failed to commit", err)
		return
	}

	h.metrics.Attempt(metrics.OutcomeCreated)
	h.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"salon_id", appt.SalonID,
		"staff_id", appt.StaffID,
		"date", appt.Date.String(),
		"time", appt.Time.String(),
	)
	writeRaw(w, http.StatusCreated, respBody)
}

// Cancel accepts either salon_id + appointment_id or a customer's access_token.
// Cancelling an already cancelled appointment returns the original cancellation.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SalonID = strings.TrimSpace(req.SalonID)
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.AccessToken = strings.TrimSpace(req.AccessToken)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.AccessToken == "" && (req.SalonID == "" || req.AppointmentID == "") {
		http.Error(w, "access_token or salon_id and appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		h.fail(w, r, "db error", err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var appt model.Appointment
	if req.AccessToken != "" {
		appt, err = h.repo.GetByAccessTokenForUpdate(ctx, tx, req.AccessToken)
	} else {
		appt, err = h.repo.GetForUpdate(ctx, tx, req.SalonID, req.AppointmentID)
	}
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.fail(w, r, "failed to load appointment", err)
		return
	}

	if appt.Status == model.StatusCancelled && appt.CancelledAt != nil {
		h.writeCancelResponse(w, appt.ID, appt.CancelledAt.UTC())
		return
	}
	if appt.Status != model.StatusPending && appt.Status != model.StatusConfirmed {
		http.Error(w, "appointment cannot be cancelled", http.StatusConflict)
		return
	}

	cancelledAt, err := h.repo.Cancel(ctx, tx, appt.ID, req.Reason)
	if err != nil {
		h.fail(w, r, "failed to cancel appointment", err)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"salon_id":       appt.SalonID,
		"staff_id":       appt.StaffID,
		"service_id":     appt.ServiceID,
		"customer_email": appt.CustomerEmail,
		"customer_phone": appt.CustomerPhone,
		"date":           appt.Date.String(),
		"time":           appt.Time.String(),
		"cancelled_at":   cancelledAt.UTC().Format(time.RFC3339),
		"reason":         req.Reason,
	})
	if err != nil {
		h.fail(w, r, "failed to build cancellation event", err)
		return
	}
	if err := h.events.Insert(ctx, tx, outbox.Event{
		AggregateType: outbox.AggregateAppointment,
		AggregateID:   appt.ID,
		EventType:     outbox.EventAppointmentCancelled,
		Payload:       payload,
	}); err != nil {
		h.fail(w, r, "failed to write outbox event", err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.fail(w, r, "failed to commit", err)
		return
	}
	h.metrics.Cancelled()
	h.writeCancelResponse(w, appt.ID, cancelledAt.UTC())
}

// ByToken shows a customer the appointment their access token belongs to.
func (h *BookingHandler) ByToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if token == "" {
		http.Error(w, "access_token required", http.StatusBadRequest)
		return
	}

	appt, err := h.repo.FindByAccessToken(r.Context(), token)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.fail(w, r, "failed to load appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, customerAppointment{
		appointmentItem: toItem(appt),
		SalonID:         appt.SalonID,
		CustomerEmail:   appt.CustomerEmail,
		CustomerPhone:   appt.CustomerPhone,
		CancelReason:    appt.CancelReason,
	})
}

// UpdateStatus confirms or completes an appointment. Repeating the current status is a no-op.
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SalonID = strings.TrimSpace(req.SalonID)
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Status = strings.TrimSpace(req.Status)
	if req.SalonID == "" || req.AppointmentID == "" {
		http.Error(w, "salon_id and appointment_id required", http.StatusBadRequest)
		return
	}
	if req.Status != model.StatusConfirmed && req.Status != model.StatusCompleted {
		http.Error(w, "status must be confirmed or completed", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		h.fail(w, r, "db error", err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, req.SalonID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.fail(w, r, "failed to load appointment", err)
		return
	}

	if appt.Status == req.Status {
		writeJSON(w, http.StatusOK, updateStatusResponse{AppointmentID: appt.ID, Status: appt.Status, PreviousStatus: appt.Status})
		return
	}
	if !model.CanTransition(appt.Status, req.Status) {
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   "invalid_transition",
			Message: "appointment cannot move from " + appt.Status + " to " + req.Status,
		})
		return
	}

	if err := h.repo.UpdateStatus(ctx, tx, appt.ID, req.Status); err != nil {
		h.fail(w, r, "failed to update appointment", err)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id":  appt.ID,
		"salon_id":        appt.SalonID,
		"staff_id":        appt.StaffID,
		"service_id":      appt.ServiceID,
		"customer_email":  appt.CustomerEmail,
		"customer_phone":  appt.CustomerPhone,
		"date":            appt.Date.String(),
		"time":            appt.Time.String(),
		"status":          req.Status,
		"previous_status": appt.Status,
	})
	if err != nil {
		h.fail(w, r, "failed to build update event", err)
		return
	}
	if err := h.events.Insert(ctx, tx, outbox.Event{
		AggregateType: outbox.AggregateAppointment,
		AggregateID:   appt.ID,
		EventType:     outbox.EventAppointmentUpdated,
		Payload:       payload,
	}); err != nil {
		h.fail(w, r, "failed to write outbox event", err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.fail(w, r, "failed to commit", err)
		return
	}
	h.metrics.StatusChanged(req.Status)
	h.logger.Info("appointment status updated",
		"appointment_id", appt.ID,
		"salon_id", appt.SalonID,
		"from", appt.Status,
		"to", req.Status,
	)
	writeJSON(w, http.StatusOK, updateStatusResponse{AppointmentID: appt.ID, Status: req.Status, PreviousStatus: appt.Status})
}

// List returns a salon's appointments in the day, week or month containing date.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	salonID := strings.TrimSpace(r.Header.Get("X-Salon-Id"))
	if salonID == "" {
		salonID = strings.TrimSpace(r.URL.Query().Get("salon_id"))
	}
	if salonID == "" {
		http.Error(w, "salon_id required", http.StatusBadRequest)
		return
	}

	from, to, ok := h.rangeFromQuery(w, r, "view", availability.ViewMonth)
	if !ok {
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	appts, err := h.repo.ListBySalon(r.Context(), salonID, from, to, limit)
	if err != nil {
		h.fail(w, r, "failed to list appointments", err)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, toItem(appt))
	}
	writeJSON(w, http.StatusOK, items)
}

type slotsResponse struct {
	StaffID string   `json:"staff_id"`
	Date    string   `json:"date"`
	Times   []string `json:"times"`
}

// Slots lists the start times still open for a staff member on a date.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if staffID == "" || dateStr == "" {
		http.Error(w, "staff_id and date are required", http.StatusBadRequest)
		return
	}
	date, err := availability.ParseDate(dateStr)
	if err != nil {
		writeRejection(w, err)
		return
	}
	step := h.slotStep
	if raw := strings.TrimSpace(r.URL.Query().Get("step_minutes")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 240 {
			http.Error(w, "invalid step_minutes", http.StatusBadRequest)
			return
		}
		step = time.Duration(n) * time.Minute
	}

	staff, ok, err := h.staff.GetStaff(r.Context(), staffID)
	if err != nil {
		h.fail(w, r, "failed to load staff", err)
		return
	}
	if !ok {
		writeRejection(w, scheduling.ErrStaffNotFound)
		return
	}

	booked, err := h.repo.ListByStaff(r.Context(), staffID, date, date)
	if err != nil {
		h.fail(w, r, "failed to load booked slots", err)
		return
	}
	taken := make([]availability.TimeOfDay, 0, len(booked))
	for _, a := range booked {
		taken = append(taken, a.Time)
	}

	open := availability.OpenTimes(staff.Schedule, date, step, taken)
	times := make([]string, 0, len(open))
	for _, t := range open {
		times = append(times, t.String())
	}
	writeJSON(w, http.StatusOK, slotsResponse{StaffID: staffID, Date: date.String(), Times: times})
}

type bookedResponse struct {
	StaffID string            `json:"staff_id"`
	From    string            `json:"from"`
	To      string            `json:"to"`
	Booked  []appointmentItem `json:"booked"`
}

// Booked lists a staff member's live appointments in the day, week or month containing date.
func (h *BookingHandler) Booked(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	if staffID == "" {
		http.Error(w, "staff_id required", http.StatusBadRequest)
		return
	}
	from, to, ok := h.rangeFromQuery(w, r, "range", availability.ViewDay)
	if !ok {
		return
	}

	_, found, err := h.staff.GetStaff(r.Context(), staffID)
	if err != nil {
		h.fail(w, r, "failed to load staff", err)
		return
	}
	if !found {
		writeRejection(w, scheduling.ErrStaffNotFound)
		return
	}

	appts, err := h.repo.ListByStaff(r.Context(), staffID, from, to)
	if err != nil {
		h.fail(w, r, "failed to load booked slots", err)
		return
	}
	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		item := toItem(appt)
		item.CustomerName = ""
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, bookedResponse{StaffID: staffID, From: from.String(), To: to.String(), Booked: items})
}

type calendarStaff struct {
	StaffID      string                      `json:"staff_id"`
	Name         string                      `json:"name"`
	WorkingHours availability.WeeklySchedule `json:"working_hours"`
	Appointments []appointmentItem           `json:"appointments"`
}

type calendarResponse struct {
	SalonID string          `json:"salon_id"`
	View    string          `json:"view"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Staff   []calendarStaff `json:"staff"`
}

// calendarLimit bounds one calendar page; a busy salon's month fits comfortably.
const calendarLimit = 2000

// Calendar returns every staff member of a salon with their hours and live appointments in range.
func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	salonID := strings.TrimSpace(r.URL.Query().Get("salon_id"))
	if salonID == "" {
		http.Error(w, "salon_id required", http.StatusBadRequest)
		return
	}
	view, err := availability.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	from, to, ok := h.rangeFromQuery(w, r, "view", availability.ViewDay)
	if !ok {
		return
	}

	roster, err := h.staff.ListSalonStaff(r.Context(), salonID)
	if err != nil {
		h.fail(w, r, "failed to load staff", err)
		return
	}
	appts, err := h.repo.ListLiveBySalon(r.Context(), salonID, from, to, calendarLimit)
	if err != nil {
		h.fail(w, r, "failed to list appointments", err)
		return
	}

	byStaff := make(map[string][]appointmentItem, len(roster))
	for _, appt := range appts {
		byStaff[appt.StaffID] = append(byStaff[appt.StaffID], toItem(appt))
	}

	resp := calendarResponse{
		SalonID: salonID,
		View:    string(view),
		From:    from.String(),
		To:      to.String(),
		Staff:   make([]calendarStaff, 0, len(roster)),
	}
	for _, s := range roster {
		items := byStaff[s.ID]
		if items == nil {
			items = []appointmentItem{}
		}
		hours := s.Schedule
		if hours == nil {
			hours = availability.WeeklySchedule{}
		}
		resp.Staff = append(resp.Staff, calendarStaff{
			StaffID:      s.ID,
			Name:         s.Name,
			WorkingHours: hours,
			Appointments: items,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// rangeFromQuery resolves the date/view query pair, defaulting the date to today in the salon zone.
func (h *BookingHandler) rangeFromQuery(w http.ResponseWriter, r *http.Request, viewParam string, fallback availability.View) (availability.Date, availability.Date, bool) {
	q := r.URL.Query()
	view := fallback
	if raw := strings.TrimSpace(q.Get(viewParam)); raw != "" {
		v, err := availability.ParseView(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return availability.Date{}, availability.Date{}, false
		}
		view = v
	}

	date := availability.DateOf(h.now().In(h.loc))
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		d, err := availability.ParseDate(raw)
		if err != nil {
			writeRejection(w, err)
			return availability.Date{}, availability.Date{}, false
		}
		date = d
	}

	from, to, err := availability.RangeFor(date, view)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return availability.Date{}, availability.Date{}, false
	}
	return from, to, true
}

func (h *BookingHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.metrics.Attempt(metrics.OutcomeError)
	h.logger.Error(msg, "err", err, "path", r.URL.Path)
	http.Error(w, msg, http.StatusInternalServerError)
}

func (h *BookingHandler) writeCancelResponse(w http.ResponseWriter, appointmentID string, cancelledAt time.Time) {
	writeJSON(w, http.StatusOK, cancelBookingResponse{
		AppointmentID: appointmentID,
		Status:        model.StatusCancelled,
		CancelledAt:   cancelledAt.Format(time.RFC3339),
	})
}

// StatusFor maps a scheduling rejection to its HTTP status; anything else is a 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, scheduling.ErrInvalidDate), errors.Is(err, scheduling.ErrInvalidTime):
		return http.StatusBadRequest
	case errors.Is(err, scheduling.ErrStaffNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduling.ErrStaffSalonMismatch), errors.Is(err, scheduling.ErrOutsideWorkingHours):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scheduling.ErrAlreadyBooked), errors.Is(err, scheduling.ErrNoStaffAvailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func rejection(err error) (int, []byte) {
	body, _ := json.Marshal(errorResponse{Error: scheduling.Reason(err), Message: err.Error()})
	return StatusFor(err), body
}

func writeRejection(w http.ResponseWriter, err error) {
	status, body := rejection(err)
	writeRaw(w, status, body)
}

func toItem(appt model.Appointment) appointmentItem {
	item := appointmentItem{
		AppointmentID: appt.ID,
		StaffID:       appt.StaffID,
		ServiceID:     appt.ServiceID,
		Date:          appt.Date.String(),
		Time:          appt.Time.String(),
		Status:        appt.Status,
		CustomerName:  appt.CustomerName,
		CreatedAt:     appt.CreatedAt.UTC().Format(time.RFC3339),
	}
	if appt.CancelledAt != nil {
		item.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
	}
	return item
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
