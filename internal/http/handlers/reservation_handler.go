// Reservation HTTP handlers.
//
// This file exposes REST endpoints for reservations:
//   - POST   /reservations        (reserve a slot)
//   - GET    /reservations        (list caller's reservations, paginated)
//   - GET    /reservations/day    (admin: all scheduled rows for a date)
//   - DELETE /reservations/{id}   (cancel, idempotent)
//
// Handlers are transport-thin: they validate input, call the booking
// arbiter, and translate results into HTTP responses. Conflicts surface as
// 409 and are never retried here; slot re-selection belongs to the client.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// reservation exists for (user, date, key), the handler returns that recorded
// reservation and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-barber-backend/internal/domain"
	"github.com/tbourn/go-barber-backend/internal/http/middleware"
	"github.com/tbourn/go-barber-backend/internal/repo"
	"github.com/tbourn/go-barber-backend/internal/services"
)

//
// DTOs
//

// CreateReservationRequest is the JSON payload for booking a slot.
type CreateReservationRequest struct {
	// Date is the requested calendar day.
	Date string `json:"date" binding:"required" example:"2024-03-25"`
	// Time is the requested time of day (24-hour).
	Time string `json:"time" binding:"required" example:"14:40"`
}

// ListReservationsResponse wraps a page of reservations and pagination
// information.
type ListReservationsResponse struct {
	Reservations []domain.Reservation `json:"reservations"`
	Pagination   Pagination           `json:"pagination"`
}

// DayReservation is the admin day-view row: the slot plus who holds it.
type DayReservation struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	CustomerName string `json:"customer_name"`
}

//
// Handlers
//

// CreateReservation godoc
// @ID          createReservation
// @Summary     Reserve a slot
// @Description Admits or rejects a booking for (date, time). Exactly one of N concurrent
// @Description requests for the same slot succeeds; the rest receive 409.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Reservations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       X-User-Email     header  string  false "Contact email for the confirmation"  example(user@example.com)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.CreateReservationRequest  true  "Slot to reserve"
//
// @Success     201  {object}  domain.Reservation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Slot already reserved"
// @Failure     422  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /reservations [post]
func (h *Handlers) CreateReservation(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date and time required")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, currentUser, req.Date, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetReservation(ctx, h.db, rec.ResourceID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, rec.Status, prev)
				return
			}
		}
	}

	res, err := h.bookingSvc.Reserve(ctx, services.BookingIntent{
		IdentityKey: currentUser,
		Email:       userEmail(c),
		Date:        req.Date,
		Time:        req.Time,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSlotTaken):
			fail(c, http.StatusConflict, ErrCodeSlotTaken, "slot already reserved")
		case errors.Is(err, services.ErrInvalidDate),
			errors.Is(err, services.ErrInvalidTime),
			errors.Is(err, services.ErrPastDate),
			errors.Is(err, services.ErrSlotNotBookable):
			fail(c, http.StatusUnprocessableEntity, ErrCodeValidation, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeReserveFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && h.db != nil {
		_, _ = repo.CreateIdempotency(ctx, h.db, currentUser, req.Date, idemKey, res.ID, http.StatusCreated, h.idemTTL)
	}

	ok(c, http.StatusCreated, res)
}

// ListReservations godoc
// @ID          listReservations
// @Summary     List the caller's reservations (paginated)
// @Tags        Reservations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       page       query   int     false "Page number"      minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"   minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListReservationsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /reservations [get]
func (h *Handlers) ListReservations(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.bookingSvc.ListPage(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListReservationsResponse{
		Reservations: items,
		Pagination:   paginationFor(page, pageSize, total),
	})
}

// ListDayReservations godoc
// @ID          listDayReservations
// @Summary     List all scheduled reservations for a date (admin)
// @Tags        Reservations
// @Produce     json
//
// @Param       X-Admin-Token  header  string  true  "Admin token"
// @Param       date           query   string  true  "Calendar date (YYYY-MM-DD)"  example(2024-03-25)
//
// @Success     200  {array}   handlers.DayReservation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /reservations/day [get]
func (h *Handlers) ListDayReservations(c *gin.Context) {
	if !h.isAdmin(c) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "admin token required")
		return
	}
	date := c.Query("date")
	if date == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date query parameter required (YYYY-MM-DD)")
		return
	}

	items, err := h.bookingSvc.ListDay(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDate) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	out := make([]DayReservation, 0, len(items))
	for _, r := range items {
		out = append(out, DayReservation{
			ID:           r.ID,
			Date:         r.Date,
			Time:         r.Time,
			CustomerName: r.Profile.DisplayName,
		})
	}
	ok(c, http.StatusOK, out)
}

// CancelReservation godoc
// @ID          cancelReservation
// @Summary     Cancel a reservation
// @Description Sets the reservation to cancelled. Idempotent: cancelling an
// @Description already-cancelled or missing reservation also returns 204.
// @Description Non-admin callers must own the reservation.
// @Tags        Reservations
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"  example(user123)
// @Param       X-Admin-Token  header  string  false "Admin token (cancels any reservation)"
// @Param       id             path    string  true  "Reservation ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Reservation owned by someone else"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /reservations/{id} [delete]
func (h *Handlers) CancelReservation(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reservation id must be a UUID")
		return
	}

	err := h.bookingSvc.Cancel(c.Request.Context(), userID(c), id, h.isAdmin(c))
	if err != nil {
		if errors.Is(err, services.ErrNotOwner) {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "reservation belongs to another customer")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	noContent(c)
}
