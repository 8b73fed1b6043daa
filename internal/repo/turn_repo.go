// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ConversationTurn model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-barber-backend/internal/domain"
)

// AppendTurn inserts a new conversation turn for a session. Turns are
// append-only; nothing else ever mutates them.
func AppendTurn(ctx context.Context, db *gorm.DB, sessionID, role, content string) (*domain.ConversationTurn, error) {
	t := &domain.ConversationTurn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	return t, db.WithContext(ctx).Create(t).Error
}

// ListTurns returns turns ordered deterministically (CreatedAt ASC, ID ASC).
// A limit of 0 returns the full history; a positive limit selects the most
// recent window, still returned oldest first.
func ListTurns(ctx context.Context, db *gorm.DB, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	var out []domain.ConversationTurn
	q := db.WithContext(ctx).Where("session_id = ?", sessionID)
	if limit > 0 {
		err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
		if err != nil {
			return nil, err
		}
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		return out, nil
	}
	err := q.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// GetTurn fetches a single turn by id.
func GetTurn(ctx context.Context, db *gorm.DB, id string) (*domain.ConversationTurn, error) {
	var t domain.ConversationTurn
	if err := db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// CountTurns uses a raw COUNT so a missing table surfaces as an error.
func CountTurns(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM conversation_turns WHERE session_id = ? AND deleted_at IS NULL", sessionID).
		Scan(&total).Error
	return total, err
}

// ListTurnsPage returns a paginated slice ordered (CreatedAt ASC, ID ASC).
func ListTurnsPage(ctx context.Context, db *gorm.DB, sessionID string, offset, limit int) ([]domain.ConversationTurn, error) {
	var out []domain.ConversationTurn
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
