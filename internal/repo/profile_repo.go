// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-barber-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetOrCreateProfile resolves identityKey to a profile, inserting one when
// absent. The insert uses ON CONFLICT DO NOTHING against the unique identity
// index, so two concurrent callers for the same identity both end up with
// the single winning row; a plain check-then-insert would race.
func GetOrCreateProfile(ctx context.Context, db *gorm.DB, identityKey, email string) (*domain.Profile, error) {
	display := email
	if display == "" {
		display = identityKey
	}
	p := &domain.Profile{
		ID:          uuid.NewString(),
		IdentityKey: identityKey,
		Email:       email,
		DisplayName: display,
		CreatedAt:   time.Now().UTC(),
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity_key"}},
			DoNothing: true,
		}).
		Create(p)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		return p, nil
	}
	// Lost the race (or the profile already existed): fetch the winner.
	return GetProfileByIdentity(ctx, db, identityKey)
}

// GetProfileByIdentity fetches a profile by its stable identity key, or
// ErrNotFound if missing.
func GetProfileByIdentity(ctx context.Context, db *gorm.DB, identityKey string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("identity_key = ?", identityKey).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile fetches a profile by primary key, or ErrNotFound if missing.
func GetProfile(ctx context.Context, db *gorm.DB, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
