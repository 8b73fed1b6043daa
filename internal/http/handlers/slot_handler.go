// Slot HTTP handlers.
//
// This file exposes the availability read:
//   - GET /slots?date=YYYY-MM-DD
//
// The response is a freshness hint: clients use it to populate a picker, but
// the reservation endpoint re-checks atomically, so a 200 here never
// guarantees a later reservation will succeed.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-barber-backend/internal/services"
)

// SlotsResponse lists the free times for one calendar date.
type SlotsResponse struct {
	Date  string   `json:"date" example:"2024-03-25"`
	Times []string `json:"times" example:"13:00,13:50"`
}

// ListSlots godoc
// @ID          listSlots
// @Summary     List free slots for a date
// @Description Returns the bookable times still free on the given date, in ascending order.
// @Tags        Slots
// @Produce     json
//
// @Param       date  query  string  true  "Calendar date (YYYY-MM-DD)"  example(2024-03-25)
//
// @Success     200  {object}  handlers.SlotsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or malformed date"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /slots [get]
func (h *Handlers) ListSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date query parameter required (YYYY-MM-DD)")
		return
	}

	times, err := h.bookingSvc.AvailableSlots(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDate) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, SlotsResponse{Date: date, Times: times})
}
