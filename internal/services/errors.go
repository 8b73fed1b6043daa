// Package services defines the business logic for slot availability, booking
// admission, and the conversational scheduling assistant. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import (
	"errors"

	"github.com/tbourn/go-barber-backend/internal/repo"
)

// Booking-related errors.
var (
	// ErrInvalidDate is returned when a booking date is not a valid
	// YYYY-MM-DD calendar day.
	ErrInvalidDate = errors.New("date must be a valid YYYY-MM-DD day")

	// ErrInvalidTime is returned when a booking time is not a valid
	// 24-hour HH:MM value.
	ErrInvalidTime = errors.New("time must be a valid 24-hour HH:MM value")

	// ErrPastDate is returned when the requested date lies before the
	// current day in the service timezone.
	ErrPastDate = errors.New("date is in the past")

	// ErrSlotNotBookable is returned when the requested time is not part of
	// that day's schedule.
	ErrSlotNotBookable = errors.New("time is not in the schedule for that day")

	// ErrSlotTaken indicates another scheduled reservation already holds the
	// requested slot. It aliases the repository sentinel so callers can
	// check either layer.
	ErrSlotTaken = repo.ErrSlotTaken

	// ErrReservationNotFound indicates that the requested reservation does
	// not exist.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrNotOwner is returned when a non-administrative caller attempts to
	// act on a reservation owned by another customer.
	ErrNotOwner = errors.New("reservation belongs to another customer")
)

// Chat-related errors.
var (
	// ErrEmptyMessage is returned when a chat request contains an empty
	// message.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a chat message exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("message too long")
)
