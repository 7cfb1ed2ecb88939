package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/tutorescrow/internal/adapter/http/dto"
	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/usecase"
)

// BookingService defines the scheduling behavior needed by BookingHandler.
type BookingService interface {
	ReserveSlot(ctx context.Context, input usecase.ReserveSlotInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error)
}

// EscrowService defines the lifecycle transitions needed by BookingHandler.
type EscrowService interface {
	Approve(ctx context.Context, input usecase.ApproveInput) (*usecase.ApprovalResult, error)
	Reject(ctx context.Context, bookingID, teacherID, reason string) (*domain.Booking, error)
	PayForBooking(ctx context.Context, bookingID, payerID string) (*domain.Booking, error)
	Cancel(ctx context.Context, input usecase.CancelInput) (*domain.Booking, error)
	MarkSessionEnded(ctx context.Context, bookingID string, actor domain.Actor) (*domain.Booking, error)
	Confirm(ctx context.Context, bookingID string, actor domain.Actor) (*domain.Booking, error)
}

// DisputeRaiser defines the dispute behavior available to booking participants.
type DisputeRaiser interface {
	Raise(ctx context.Context, input usecase.RaiseDisputeInput) (*domain.Dispute, error)
	GetDisputeByBooking(ctx context.Context, bookingID string) (*domain.Dispute, error)
}

// BookingHandler handles booking requests from parents, students and teachers.
type BookingHandler struct {
	bookings BookingService
	escrow   EscrowService
	disputes DisputeRaiser
	logger   zerolog.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookings BookingService, escrow EscrowService, disputes DisputeRaiser, logger zerolog.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		escrow:   escrow,
		disputes: disputes,
		logger:   logger,
	}
}

// Create reserves a teacher's slot for the caller.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.ReserveSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	booking, err := h.bookings.ReserveSlot(r.Context(), req.ToUseCaseInput(actor.UserID))
	if err != nil {
		writeDomainError(w, h.logger, "failed to reserve slot", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BookingFromDomain(booking))
}

// List lists bookings the caller takes part in.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	bookings, err := h.bookings.ListBookings(r.Context(), actor.UserID, limit, offset)
	if err != nil {
		writeDomainError(w, h.logger, "failed to list bookings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.BookingResponse]{
		Items:  dto.BookingsFromDomain(bookings),
		Limit:  limit,
		Offset: offset,
	})
}

// Get returns a booking visible to the caller.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	booking, err := h.bookings.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.logger, "failed to get booking", err)
		return
	}

	if !canView(actor, booking) {
		writeDomainError(w, h.logger, "failed to get booking", domain.ErrNotParticipant)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookingFromDomain(booking))
}

// Approve accepts a booking request as its teacher and locks the price.
func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.ApproveBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.escrow.Approve(r.Context(), usecase.ApproveInput{
		BookingID:              chi.URLParam(r, "id"),
		TeacherID:              actor.UserID,
		AllowWaitingForPayment: req.AllowWaitingForPayment,
	})
	if err != nil {
		writeDomainError(w, h.logger, "failed to approve booking", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ApprovalFromUseCase(result))
}

// Reject declines a booking request as its teacher.
func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	booking, err := h.escrow.Reject(r.Context(), chi.URLParam(r, "id"), actor.UserID, req.Reason)
	h.respondBooking(w, booking, err, "failed to reject booking")
}

// Pay retries the escrow lock for a booking waiting for payment.
func (h *BookingHandler) Pay(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	booking, err := h.escrow.PayForBooking(r.Context(), chi.URLParam(r, "id"), actor.UserID)
	h.respondBooking(w, booking, err, "failed to pay for booking")
}

// Cancel cancels a booking on behalf of the caller.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	booking, err := h.escrow.Cancel(r.Context(), usecase.CancelInput{
		Actor:     actor,
		BookingID: chi.URLParam(r, "id"),
		Reason:    req.Reason,
	})
	h.respondBooking(w, booking, err, "failed to cancel booking")
}

// EndSession opens the confirmation window after the lesson took place.
func (h *BookingHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	booking, err := h.escrow.MarkSessionEnded(r.Context(), chi.URLParam(r, "id"), actor)
	h.respondBooking(w, booking, err, "failed to end session")
}

// Confirm completes the booking and releases the payment to the teacher.
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	booking, err := h.escrow.Confirm(r.Context(), chi.URLParam(r, "id"), actor)
	h.respondBooking(w, booking, err, "failed to confirm booking")
}

// RaiseDispute opens a dispute on the booking.
func (h *BookingHandler) RaiseDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.RaiseDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dispute, err := h.disputes.Raise(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id"), actor.UserID))
	if err != nil {
		writeDomainError(w, h.logger, "failed to raise dispute", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DisputeFromDomain(dispute))
}

// GetDispute returns the dispute raised on the booking.
func (h *BookingHandler) GetDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	bookingID := chi.URLParam(r, "id")
	booking, err := h.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeDomainError(w, h.logger, "failed to get dispute", err)
		return
	}
	if !canView(actor, booking) {
		writeDomainError(w, h.logger, "failed to get dispute", domain.ErrNotParticipant)
		return
	}

	dispute, err := h.disputes.GetDisputeByBooking(r.Context(), bookingID)
	if err != nil {
		writeDomainError(w, h.logger, "failed to get dispute", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DisputeFromDomain(dispute))
}

func (h *BookingHandler) respondBooking(w http.ResponseWriter, booking *domain.Booking, err error, message string) {
	if err != nil {
		writeDomainError(w, h.logger, message, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookingFromDomain(booking))
}

func canView(actor domain.Actor, b *domain.Booking) bool {
	return actor.IsAdmin() || b.TeacherID == actor.UserID || b.IsOwner(actor.UserID)
}
