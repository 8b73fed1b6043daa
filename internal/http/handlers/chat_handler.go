// Chat HTTP handlers.
//
// Endpoints:
//   - POST /chat/{id}/messages  (send a customer message, get the assistant turn)
//   - GET  /chat/{id}/messages  (paginated session history)
//
// The path {id} is the session identifier. It doubles as the customer's
// identity key when a directive in the assistant reply triggers a booking.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// turn exists for (user, session, key), the handler returns that recorded
// assistant turn and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-barber-backend/internal/domain"
	"github.com/tbourn/go-barber-backend/internal/http/middleware"
	"github.com/tbourn/go-barber-backend/internal/repo"
	"github.com/tbourn/go-barber-backend/internal/services"
)

// SendMessageRequest is the JSON payload for a customer chat message.
type SendMessageRequest struct {
	// Message is the customer's utterance.
	Message string `json:"message" binding:"required" example:"Quero cortar o cabelo amanhã às 14h"`
	// Email optionally identifies where the confirmation should be sent.
	Email string `json:"email" example:"user@example.com"`
}

// ChatHistoryResponse wraps a page of conversation turns.
type ChatHistoryResponse struct {
	Messages   []domain.ConversationTurn `json:"messages"`
	Pagination Pagination                `json:"pagination"`
}

// SendMessage godoc
// @ID          sendChatMessage
// @Summary     Send a chat message
// @Description Appends the customer message to the session, produces the assistant
// @Description reply, and executes any booking the assistant committed to. The
// @Description returned turn is always the assistant's.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                       true  "Chat session ID"
// @Param       body  body  handlers.SendMessageRequest  true  "Customer message"
//
// @Success     200  {object}  domain.ConversationTurn
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or oversized message"
// @Failure     403  {object}  handlers.ErrorResponse  "Session owned by another user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/{id}/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id required")
		return
	}

	// A caller with an explicit identity may only write to their own session.
	if uid := explicitUserID(c); uid != "" && uid != sessionID && !h.isAdmin(c) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "session does not belong to caller")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	email := req.Email
	if email == "" {
		email = userEmail(c)
	}

	ctx := c.Request.Context()
	currentUser := userID(c)

	// Idempotency (replay path) – a retried POST with the same key serves the
	// recorded assistant turn instead of re-running the conversation.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, currentUser, sessionID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetTurn(ctx, h.db, rec.ResourceID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, rec.Status, prev)
				return
			}
		}
	}

	turn, err := h.chatSvc.Respond(ctx, sessionID, email, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message must not be empty")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message too long")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeChatFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && h.db != nil && turn != nil {
		_, _ = repo.CreateIdempotency(ctx, h.db, currentUser, sessionID, idemKey, turn.ID, http.StatusOK, h.idemTTL)
	}

	ok(c, http.StatusOK, turn)
}

// GetHistory godoc
// @ID          getChatHistory
// @Summary     Get chat history (paginated)
// @Description Returns the session's conversation turns in chronological order.
// @Tags        Chat
// @Produce     json
//
// @Param       id         path   string  true  "Chat session ID"
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ChatHistoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Session owned by another user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/{id}/messages [get]
func (h *Handlers) GetHistory(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id required")
		return
	}

	if uid := explicitUserID(c); uid != "" && uid != sessionID && !h.isAdmin(c) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "session does not belong to caller")
		return
	}

	page, pageSize := clampPagination(c)

	turns, total, err := h.chatSvc.HistoryPage(c.Request.Context(), sessionID, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeChatFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ChatHistoryResponse{
		Messages:   turns,
		Pagination: paginationFor(page, pageSize, total),
	})
}
