// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Reservation model.
//
// Error semantics:
//   - CreateReservation returns ErrSlotTaken when the partial unique index
//     over (date, time, status='scheduled') rejects the insert. This single
//     conditional write IS the conflict arbitration; callers must not
//     pre-check-then-insert.
//   - When a reservation is not found, functions return gorm.ErrRecordNotFound
//     (exported here as ErrNotFound). On other DB errors the raw gorm error
//     is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-barber-backend/internal/domain"
)

// ErrSlotTaken indicates a scheduled reservation already exists for the
// requested (date, time) slot.
var ErrSlotTaken = errors.New("slot already reserved")

// CreateReservation inserts a scheduled reservation for (date, time) owned
// by profileID. The insert is a single atomic conditional write: the store's
// partial unique index admits at most one scheduled row per slot, so under
// N concurrent attempts exactly one caller gets the row and the rest get
// ErrSlotTaken.
func CreateReservation(ctx context.Context, db *gorm.DB, profileID, date, timeOfDay string) (*domain.Reservation, error) {
	r := &domain.Reservation{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Date:      date,
		Time:      timeOfDay,
		Status:    domain.StatusScheduled,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return r, nil
}

// GetReservation fetches a reservation by ID, or ErrNotFound if missing.
func GetReservation(ctx context.Context, db *gorm.DB, id string) (*domain.Reservation, error) {
	var r domain.Reservation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListScheduledTimes returns the times (HH:MM) with a scheduled reservation
// on the given date. Used by the availability read; callers must treat the
// result as a freshness hint only.
func ListScheduledTimes(ctx context.Context, db *gorm.DB, date string) ([]string, error) {
	var times []string
	err := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("date = ? AND status = ?", date, domain.StatusScheduled).
		Order("time ASC").
		Pluck("time", &times).Error
	return times, err
}

// ListReservationsByDate returns all scheduled reservations for a date with
// their owning profiles preloaded, ordered by time. Backs the admin day view.
func ListReservationsByDate(ctx context.Context, db *gorm.DB, date string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := db.WithContext(ctx).
		Preload("Profile").
		Where("date = ? AND status = ?", date, domain.StatusScheduled).
		Order("time ASC").
		Find(&out).Error
	return out, err
}

// CountReservationsByProfile returns the total number of reservations owned
// by profileID, for pagination metadata.
func CountReservationsByProfile(ctx context.Context, db *gorm.DB, profileID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("profile_id = ?", profileID).
		Count(&total).Error
	return total, err
}

// ListReservationsByProfilePage returns a page of the profile's reservations,
// newest date first then time ascending.
func ListReservationsByProfilePage(ctx context.Context, db *gorm.DB, profileID string, offset, limit int) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("date DESC, time ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CancelReservation sets the reservation status to cancelled. The update is
// a no-op when the row is already cancelled; it reports whether any row
// changed so the service layer can keep cancellation idempotent.
func CancelReservation(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("id = ? AND status = ?", id, domain.StatusScheduled).
		Update("status", domain.StatusCancelled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// isUniqueViolation reports whether err is a unique-constraint failure.
// glebarez/sqlite sometimes returns plain-text errors for UNIQUE violations,
// so the translated sentinel is backed up by a string check.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
