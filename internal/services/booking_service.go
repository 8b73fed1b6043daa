// Package services – BookingService
//
// This file implements BookingService, the admission arbiter for slot
// reservations. It validates booking intents against the slot calendar,
// resolves (or lazily creates) the customer profile, and commits the
// reservation through a single atomic conditional write. The store's partial
// unique index is the only concurrency-correctness mechanism, so the
// decision stays race-safe across processes. A conflict is a legitimate
// business outcome surfaced to the caller; the arbiter never retries against
// a different slot on the caller's behalf.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the slot coordinates and customer identity.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-barber-backend/internal/domain"
	"github.com/tbourn/go-barber-backend/internal/notify"
	"github.com/tbourn/go-barber-backend/internal/repo"
	"github.com/tbourn/go-barber-backend/internal/schedule"
)

// dateLayout is the wire and storage format for calendar days.
const dateLayout = "2006-01-02"

// BookingIntent is the structured request to reserve a slot. It is produced
// either directly by the booking form or by the intent extractor from a chat
// turn; both paths run the same validation here.
type BookingIntent struct {
	// IdentityKey is the stable identity of the requesting customer.
	IdentityKey string
	// Email is the customer contact used for the profile and confirmation.
	Email string
	// Date is the requested calendar day (YYYY-MM-DD).
	Date string
	// Time is the requested time of day (24-hour HH:MM).
	Time string
	// SourceText optionally carries the original chat message for audit.
	SourceText string
}

// BookingService arbitrates slot admission and owns reads over reservations.
type BookingService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Rule is the slot calendar configuration.
	Rule schedule.Rule
	// Location is the service timezone authority for the "today" boundary.
	// Client-supplied notions of today are never trusted.
	Location *time.Location
	// Notifier receives fire-and-forget booking confirmations. May be nil.
	Notifier notify.Notifier

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewBookingService constructs a BookingService with the default schedule
// rule. A nil location falls back to UTC.
func NewBookingService(db *gorm.DB, loc *time.Location, n notify.Notifier) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		DB:       db,
		Rule:     schedule.DefaultRule(),
		Location: loc,
		Notifier: n,
		now:      time.Now,
	}
}

// AvailableSlots returns the free times for a date as HH:MM strings, in
// ascending order. The taken set is read fresh from the store on every call;
// the result is advisory and admission re-checks atomically.
func (s *BookingService) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "AvailableSlots",
		trace.WithAttributes(attribute.String("slot.date", date)),
	)
	defer span.End()

	day, err := time.ParseInLocation(dateLayout, date, s.Location)
	if err != nil {
		return nil, ErrInvalidDate
	}
	taken, err := repo.ListScheduledTimes(ctx, s.DB, date)
	if err != nil {
		return nil, err
	}
	free := s.Rule.Available(day, schedule.BookedSet(taken))
	out := make([]string, 0, len(free))
	for _, t := range free {
		out = append(out, t.String())
	}
	return out, nil
}

// Reserve validates the intent and attempts admission. It returns the
// created reservation, ErrSlotTaken on conflict, or a validation error.
// Validation fails fast without touching the store.
func (s *BookingService) Reserve(ctx context.Context, intent BookingIntent) (*domain.Reservation, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Reserve",
		trace.WithAttributes(
			attribute.String("slot.date", intent.Date),
			attribute.String("slot.time", intent.Time),
			attribute.String("customer.identity", intent.IdentityKey),
		),
	)
	defer span.End()

	_, tod, err := s.validateSlot(intent.Date, intent.Time)
	if err != nil {
		return nil, err
	}

	profile, err := repo.GetOrCreateProfile(ctx, s.DB, intent.IdentityKey, intent.Email)
	if err != nil {
		return nil, err
	}

	res, err := repo.CreateReservation(ctx, s.DB, profile.ID, intent.Date, tod.String())
	if err != nil {
		return nil, err
	}

	s.notifyConfirmed(profile.Email, res.Date, res.Time)
	return res, nil
}

// Cancel transitions a reservation to cancelled. The operation is
// idempotent: cancelling an already-cancelled or missing reservation is a
// no-op success. Non-administrative callers must own the reservation;
// otherwise ErrNotOwner is returned.
func (s *BookingService) Cancel(ctx context.Context, identityKey, reservationID string, admin bool) error {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Cancel",
		trace.WithAttributes(
			attribute.String("reservation.id", reservationID),
			attribute.Bool("caller.admin", admin),
		),
	)
	defer span.End()

	res, err := repo.GetReservation(ctx, s.DB, reservationID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !admin {
		profile, err := repo.GetProfileByIdentity(ctx, s.DB, identityKey)
		if err != nil || profile.ID != res.ProfileID {
			return ErrNotOwner
		}
	}

	_, err = repo.CancelReservation(ctx, s.DB, reservationID)
	return err
}

// ListDay returns all scheduled reservations for a date with owner profiles,
// for the administrative day view.
func (s *BookingService) ListDay(ctx context.Context, date string) ([]domain.Reservation, error) {
	if _, err := time.ParseInLocation(dateLayout, date, s.Location); err != nil {
		return nil, ErrInvalidDate
	}
	return repo.ListReservationsByDate(ctx, s.DB, date)
}

// ListPage returns a page of the caller's reservations and the total count.
// A customer with no profile yet simply has no reservations.
func (s *BookingService) ListPage(ctx context.Context, identityKey string, page, pageSize int) ([]domain.Reservation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	profile, err := repo.GetProfileByIdentity(ctx, s.DB, identityKey)
	if errors.Is(err, repo.ErrNotFound) {
		return []domain.Reservation{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := repo.CountReservationsByProfile(ctx, s.DB, profile.ID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Reservation{}, 0, nil
	}

	items, err := repo.ListReservationsByProfilePage(ctx, s.DB, profile.ID, offset, pageSize)
	return items, total, err
}

// validateSlot checks date/time shape, schedule membership, and the
// past-date boundary. The day boundary is evaluated in the service timezone.
func (s *BookingService) validateSlot(date, timeOfDay string) (time.Time, schedule.TimeOfDay, error) {
	day, err := time.ParseInLocation(dateLayout, date, s.Location)
	if err != nil {
		return time.Time{}, 0, ErrInvalidDate
	}
	tod, err := schedule.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, 0, ErrInvalidTime
	}
	if !s.Rule.Contains(day, tod) {
		return time.Time{}, 0, ErrSlotNotBookable
	}

	now := s.now().In(s.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.Location)
	if day.Before(today) {
		return time.Time{}, 0, ErrPastDate
	}
	return day, tod, nil
}

// notifyConfirmed hands the confirmation to the notifier without blocking
// the request. Notification failure never rolls back the reservation.
func (s *BookingService) notifyConfirmed(email, date, timeOfDay string) {
	if s.Notifier == nil || email == "" {
		return
	}
	n := s.Notifier
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.ReservationConfirmed(ctx, notify.Confirmation{
			Email: email,
			Date:  date,
			Time:  timeOfDay,
		}); err != nil {
			log.Warn().Err(err).
				Str("date", date).
				Str("time", timeOfDay).
				Msg("confirmation notification failed")
		}
	}()
}
