package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-barber-backend/internal/domain"
	"github.com/tbourn/go-barber-backend/internal/http/middleware"
	"github.com/tbourn/go-barber-backend/internal/repo"
)

// newReplayRouter wires handlers against a real database with the
// Idempotency-Key validator installed, mirroring the production chain.
func newReplayRouter(t *testing.T, booking BookingService, chat ChatService) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "replay.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	h := New(booking, chat, "", db, 0)
	r.POST("/reservations", h.CreateReservation)
	r.POST("/chat/:id/messages", h.SendMessage)
	return r, db
}

func TestSendMessage_IdempotentReplay(t *testing.T) {
	ctx := context.Background()

	c := &stubChat{}
	r, db := newReplayRouter(t, &stubBooking{}, c)

	// The assistant turn must exist in the store for the replay to serve it.
	turn, err := repo.AppendTurn(ctx, db, "sess-1", domain.RoleAssistant, "Olá!")
	if err != nil {
		t.Fatalf("seed turn: %v", err)
	}
	c.turn = turn

	hdr := map[string]string{"Idempotency-Key": "same-key-123"}

	w := doJSON(t, r, http.MethodPost, "/chat/sess-1/messages",
		SendMessageRequest{Message: "Quero agendar"}, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("first status = %d body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("first request must not be a replay")
	}
	if c.respondCalls != 1 {
		t.Fatalf("respondCalls = %d, want 1", c.respondCalls)
	}

	// Same key again: the recorded assistant turn is served, the
	// conversation is not re-run.
	w = doJSON(t, r, http.MethodPost, "/chat/sess-1/messages",
		SendMessageRequest{Message: "Quero agendar"}, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("replay status = %d body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected Idempotency-Replayed header on retry")
	}
	if c.respondCalls != 1 {
		t.Fatalf("retry re-executed the turn: respondCalls = %d", c.respondCalls)
	}

	var got domain.ConversationTurn
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != turn.ID || got.Content != "Olá!" {
		t.Fatalf("replay served wrong turn: %+v", got)
	}

	// A different key for the same session runs the turn again.
	w = doJSON(t, r, http.MethodPost, "/chat/sess-1/messages",
		SendMessageRequest{Message: "Quero agendar"},
		map[string]string{"Idempotency-Key": "other-key-456"})
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("new key treated as replay: %d", w.Code)
	}
	if c.respondCalls != 2 {
		t.Fatalf("respondCalls = %d, want 2", c.respondCalls)
	}
}

func TestSendMessage_ReplayScopedPerSession(t *testing.T) {
	ctx := context.Background()

	c := &stubChat{}
	r, db := newReplayRouter(t, &stubBooking{}, c)

	turn, err := repo.AppendTurn(ctx, db, "sess-a", domain.RoleAssistant, "Oi")
	if err != nil {
		t.Fatalf("seed turn: %v", err)
	}
	c.turn = turn

	hdr := map[string]string{"Idempotency-Key": "shared-key"}
	if w := doJSON(t, r, http.MethodPost, "/chat/sess-a/messages",
		SendMessageRequest{Message: "Oi"}, hdr); w.Code != http.StatusOK {
		t.Fatalf("sess-a status = %d", w.Code)
	}

	// The same key against another session is a fresh request, not a replay.
	w := doJSON(t, r, http.MethodPost, "/chat/sess-b/messages",
		SendMessageRequest{Message: "Oi"}, hdr)
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("key leaked across sessions: %d %q", w.Code, w.Header().Get("Idempotency-Replayed"))
	}
	if c.respondCalls != 2 {
		t.Fatalf("respondCalls = %d, want 2", c.respondCalls)
	}
}

func TestCreateReservation_IdempotentReplay(t *testing.T) {
	ctx := context.Background()

	b := &stubBooking{}
	r, db := newReplayRouter(t, b, &stubChat{})

	profile, err := repo.GetOrCreateProfile(ctx, db, "demo-user", "")
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	res, err := repo.CreateReservation(ctx, db, profile.ID, "2099-03-25", "13:00")
	if err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	b.reserved = res

	body := CreateReservationRequest{Date: "2099-03-25", Time: "13:00"}
	hdr := map[string]string{"Idempotency-Key": "book-once"}

	w := doJSON(t, r, http.MethodPost, "/reservations", body, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("first status = %d body = %s", w.Code, w.Body.String())
	}
	if b.reserveCalls != 1 {
		t.Fatalf("reserveCalls = %d, want 1", b.reserveCalls)
	}

	w = doJSON(t, r, http.MethodPost, "/reservations", body, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("replay status = %d body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected Idempotency-Replayed header on retry")
	}
	if b.reserveCalls != 1 {
		t.Fatalf("retry re-executed the booking: reserveCalls = %d", b.reserveCalls)
	}

	var got domain.Reservation
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != res.ID {
		t.Fatalf("replay served wrong reservation: %+v", got)
	}
}
