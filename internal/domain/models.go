// Package domain defines the persistence models for customer profiles,
// reservations, and conversation history. These types are mapped with GORM
// and form the core data layer of the booking application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Reservation status values. A reservation is created as scheduled and may
// only ever transition to cancelled; it never goes back.
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
)

// Conversation roles.
const (
	RoleCustomer  = "customer"
	RoleAssistant = "assistant"
)

// Profile represents a customer identity known to the shop. Profiles are
// created lazily on the first booking attempt and are keyed by the stable
// identity of the caller (IdentityKey), never by volatile request context.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - IdentityKey: stable external identity of the customer; unique so that
//     two concurrent "create profile" attempts collapse into one row.
//   - Email: contact address used for booking confirmations.
//   - DisplayName: human-readable name, defaults to the email when absent.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Profile struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	IdentityKey string    `json:"identity_key" gorm:"type:varchar(64);not null;uniqueIndex:ux_profiles_identity"`
	Email       string    `json:"email"        gorm:"type:varchar(255);not null"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(255);not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Reservation represents a confirmed booking of a single slot. The slot
// uniqueness invariant (at most one scheduled reservation per date and time)
// is enforced by a partial unique index at the store level, which is the
// only admission mechanism safe under concurrent writers.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ProfileID: foreign key to the owning customer profile (indexed).
//   - Date: calendar day in YYYY-MM-DD form, no time component.
//   - Time: time of day in 24-hour HH:MM form, minute precision.
//   - Status: "scheduled" or "cancelled" (enforced by DB constraint).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - Profile: FK association, ensures cascade delete/update.
type Reservation struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	ProfileID string    `json:"profile_id" gorm:"type:char(36);not null;index:idx_profile_reservations"`
	Date      string    `json:"date"       gorm:"type:char(10);not null;uniqueIndex:ux_reservations_slot,priority:1,where:status = 'scheduled'"`
	Time      string    `json:"time"       gorm:"type:char(5);not null;uniqueIndex:ux_reservations_slot,priority:2"`
	Status    string    `json:"status"     gorm:"type:varchar(16);not null;default:'scheduled';check:status IN ('scheduled','cancelled')"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Profile is the owning customer. Reservations are cascade-deleted if
	// the profile is removed.
	Profile Profile `json:"-" gorm:"foreignKey:ProfileID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Reservation.
func (Reservation) TableName() string { return "reservations" }

// ConversationTurn is a single utterance within a booking chat session.
// Turns are append-only: the application never mutates or deletes them, and
// history truncation is an external retention concern.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - SessionID: the customer identity key owning the session (indexed).
//   - Role: "customer" or "assistant" (enforced by DB constraint).
//   - Content: full text of the turn.
//   - CreatedAt: insertion timestamp; ordering key within a session.
type ConversationTurn struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID string         `json:"session_id" gorm:"type:varchar(64);not null;index:idx_session_turns,priority:1"`
	Role      string         `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('customer','assistant')"`
	Content   string         `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_session_turns,priority:2"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for ConversationTurn.
func (ConversationTurn) TableName() string { return "conversation_turns" }
