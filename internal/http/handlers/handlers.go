// Package handlers provides HTTP handler implementations for the public API.
//
// This file wires the handler set to the application services and hosts the
// small helpers shared across endpoints (identity extraction, admin check,
// pagination clamping). Handlers are transport-thin: they validate input,
// call application services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-barber-backend/internal/domain"
	"github.com/tbourn/go-barber-backend/internal/services"
	"github.com/tbourn/go-barber-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// BookingService defines the booking operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type BookingService interface {
	// AvailableSlots returns the free HH:MM times for a date.
	AvailableSlots(ctx context.Context, date string) ([]string, error)
	// Reserve admits or rejects a booking intent.
	Reserve(ctx context.Context, intent services.BookingIntent) (*domain.Reservation, error)
	// Cancel transitions a reservation to cancelled (idempotent).
	Cancel(ctx context.Context, identityKey, reservationID string, admin bool) error
	// ListDay returns all scheduled reservations for a date (admin view).
	ListDay(ctx context.Context, date string) ([]domain.Reservation, error)
	// ListPage returns a page of the caller's reservations and the total.
	ListPage(ctx context.Context, identityKey string, page, pageSize int) ([]domain.Reservation, int64, error)
}

// ChatService defines the conversational booking operations consumed by
// HTTP handlers.
type ChatService interface {
	// Respond appends the customer message and returns the assistant turn.
	Respond(ctx context.Context, sessionID, email, message string) (*domain.ConversationTurn, error)
	// HistoryPage returns a page of session turns and the total count.
	HistoryPage(ctx context.Context, sessionID string, page, pageSize int) ([]domain.ConversationTurn, int64, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for slots, reservations, and chat.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	bookingSvc BookingService
	chatSvc    ChatService
	adminToken string
	// db backs idempotency replay lookups. A nil db disables replay; the
	// endpoints still work, retries just re-execute.
	db      *gorm.DB
	idemTTL time.Duration
}

// New constructs a Handlers instance bound to the given services. An empty
// adminToken disables administrative operations entirely; a non-positive
// idemTTL falls back to 24h.
func New(bookingSvc BookingService, chatSvc ChatService, adminToken string, db *gorm.DB, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{bookingSvc: bookingSvc, chatSvc: chatSvc, adminToken: adminToken, db: db, idemTTL: idemTTL}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// explicitUserID is like userID but returns "" when the request carries no
// identity at all, so callers can distinguish "anonymous" from "demo-user".
func explicitUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

// userEmail returns the caller's contact address from the X-User-Email
// header, or "" when absent (confirmations are then skipped).
func userEmail(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return ""
	}
	return strings.TrimSpace(c.GetHeader("X-User-Email"))
}

// isAdmin reports whether the request carries the configured admin token.
// With no token configured, nothing is administrative.
func (h *Handlers) isAdmin(c *gin.Context) bool {
	return h.adminToken != "" && c.GetHeader("X-Admin-Token") == h.adminToken
}

//
// Shared DTOs / helpers
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// paginationFor assembles the metadata for a page of total items.
func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}
