// Package services – ChatService
//
// This file implements ChatService, the conversational booking session. It
// appends customer turns, drives the text-generation collaborator with the
// full ordered history, runs directive extraction on the reply, and forwards
// any extracted intent to the booking arbiter. Every outcome (confirmation,
// conflict, validation failure, upstream degradation) becomes a persisted
// assistant turn, so the history is always complete before the request is
// considered done.
//
// Concurrency: turns for one session must never interleave, so the
// read-history/generate/append sequence is serialized behind a striped
// session lock. Different sessions almost always proceed independently.
// Slot admission itself needs no lock here; the arbiter's store constraint
// is authoritative.
package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-barber-backend/internal/domain"
	"github.com/tbourn/go-barber-backend/internal/repo"
)

// Assistant copy, as shipped to customers. The conflict and generic-error
// wording mirrors the shop's original assistant.
const (
	replyConflict    = "Desculpe, este horário já está reservado. Por favor, escolha outro horário."
	replyPastDate    = "Desculpe, essa data já passou. Pode escolher uma data a partir de hoje?"
	replyNotBookable = "Desculpe, esse horário não faz parte da nossa agenda. Pode escolher outro horário?"
	replyMalformed   = "Não consegui entender a data e o horário. Pode informar no formato DD/MM/AAAA HH:MM?"
	replyDegraded    = "Desculpe, ocorreu um erro ao processar sua solicitação. Por favor, tente novamente."
)

// replyConfirmed formats the booking confirmation with the customer-facing
// day/month/year date.
func replyConfirmed(date, timeOfDay string) string {
	if d, err := time.Parse(dateLayout, date); err == nil {
		date = d.Format(directiveDateLayout)
	}
	return fmt.Sprintf("Perfeito! Seu agendamento foi realizado com sucesso para %s às %s.", date, timeOfDay)
}

// ChatService sequences booking conversations per session.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Booking is the admission arbiter every extracted intent goes through.
	Booking *BookingService
	// Generator is the external text-generation collaborator.
	Generator Generator
	// GenerateTimeout bounds each collaborator call. Zero means 15s.
	GenerateTimeout time.Duration
	// MaxMessageRunes caps customer messages by rune length (0 = unlimited).
	MaxMessageRunes int
	// HistoryLimit caps how many prior turns are replayed to the
	// collaborator (0 = full history).
	HistoryLimit int

	// locks stripes session serialization by hashed session id, so memory
	// stays bounded no matter how many distinct sessions the process sees.
	// Two sessions sharing a stripe serialize against each other, which is
	// harmless.
	locks [sessionStripes]sync.Mutex
}

// sessionStripes is the number of lock stripes. Power of two.
const sessionStripes = 64

// NewChatService constructs a ChatService with sane defaults.
func NewChatService(db *gorm.DB, booking *BookingService, gen Generator) *ChatService {
	return &ChatService{
		DB:              db,
		Booking:         booking,
		Generator:       gen,
		GenerateTimeout: 15 * time.Second,
		MaxMessageRunes: 2000,
	}
}

// sessionLock returns the stripe mutex serializing one session's turns.
func (s *ChatService) sessionLock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()&(sessionStripes-1)]
}

// Respond appends the customer message, produces the assistant's reply, and
// persists it. The returned turn is the assistant's. Upstream timeouts and
// malformed generations degrade to a retry prompt rather than failing the
// request; only input validation and store failures return errors.
func (s *ChatService) Respond(ctx context.Context, sessionID, email, message string) (*domain.ConversationTurn, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Respond",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return nil, ErrTooLong
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	history, err := repo.ListTurns(ctx, s.DB, sessionID, s.HistoryLimit)
	if err != nil {
		return nil, err
	}
	if _, err := repo.AppendTurn(ctx, s.DB, sessionID, domain.RoleCustomer, message); err != nil {
		return nil, err
	}

	reply := s.generate(ctx, history, message)
	reply = s.resolveDirective(ctx, sessionID, email, message, reply)

	return repo.AppendTurn(ctx, s.DB, sessionID, domain.RoleAssistant, reply)
}

// generate calls the collaborator under a bounded timeout. Failures and
// empty replies degrade to the generic retry prompt.
func (s *ChatService) generate(ctx context.Context, history []domain.ConversationTurn, message string) string {
	timeout := s.GenerateTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply, err := s.Generator.Reply(genCtx, SystemInstruction, history, message)
	if err != nil {
		log.Warn().Err(err).Msg("assistant generation failed")
		return replyDegraded
	}
	if strings.TrimSpace(reply) == "" {
		return replyDegraded
	}
	return reply
}

// resolveDirective turns a directive reply into a booking attempt and the
// corresponding customer-facing message. Non-directive replies pass through
// untouched. The extracted slot is never trusted: it goes through the full
// arbiter validation exactly like a form submission.
func (s *ChatService) resolveDirective(ctx context.Context, sessionID, email, sourceText, reply string) string {
	intent, directive, ok := ParseDirective(reply)
	if !directive {
		return reply
	}
	if !ok {
		return replyMalformed
	}

	_, err := s.Booking.Reserve(ctx, BookingIntent{
		IdentityKey: sessionID,
		Email:       email,
		Date:        intent.Date,
		Time:        intent.Time,
		SourceText:  sourceText,
	})
	switch {
	case err == nil:
		return replyConfirmed(intent.Date, intent.Time)
	case errors.Is(err, ErrSlotTaken):
		return replyConflict
	case errors.Is(err, ErrPastDate):
		return replyPastDate
	case errors.Is(err, ErrSlotNotBookable), errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidTime):
		return replyNotBookable
	default:
		log.Error().Err(err).Str("session_id", sessionID).Msg("chat booking failed")
		return replyDegraded
	}
}

// HistoryPage returns paginated turns for a session, oldest first.
func (s *ChatService) HistoryPage(ctx context.Context, sessionID string, page, pageSize int) ([]domain.ConversationTurn, int64, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "HistoryPage",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountTurns(ctx, s.DB, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ConversationTurn{}, 0, nil
	}

	items, err := repo.ListTurnsPage(ctx, s.DB, sessionID, offset, pageSize)
	return items, total, err
}
