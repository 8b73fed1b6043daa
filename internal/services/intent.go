// Package services – intent extraction
//
// This file owns the directive protocol between the assistant and the
// booking arbiter. The external text-generation collaborator is seeded with
// a fixed instruction telling it to reply with a directive token plus a
// date and time whenever the customer states both; everything the
// collaborator returns is treated as untrusted text, and only the exact
// token + DD/MM/YYYY + HH:MM shape is accepted as a booking intent. A
// malformed directive is never coerced into a guessed slot.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/tbourn/go-barber-backend/internal/domain"
	"github.com/tbourn/go-barber-backend/internal/schedule"
)

// DirectiveToken is the fixed marker the extraction protocol looks for at
// the start of generated text to recognize a booking request.
const DirectiveToken = "AGENDAR:"

// SystemInstruction seeds the text-generation collaborator. The wording
// fixes the directive protocol: confirm the stated date and time and answer
// "AGENDAR: DD/MM/YYYY HH:MM", or keep the conversation going naturally.
const SystemInstruction = `Você é um assistente virtual de uma barbearia. Sua função é ajudar os clientes a agendar horários.
Quando o cliente mencionar uma data e horário, você deve:
1. Confirmar a data e horário mencionados
2. Responder com "AGENDAR: [data] [horário]" (exemplo: "AGENDAR: 25/03/2024 14:00")
Se o cliente não mencionar data e horário, continue a conversa normalmente.`

// directiveDateLayout is the day/month/year form the directive carries.
const directiveDateLayout = "02/01/2006"

// Generator is the external text-generation collaborator. Implementations
// must honor the context for cancellation and timeouts; replies are plain
// untrusted text.
type Generator interface {
	// Reply produces the assistant's next utterance given the fixed
	// instruction, the ordered prior turns, and the new customer message.
	Reply(ctx context.Context, instruction string, history []domain.ConversationTurn, message string) (string, error)
}

// Intent is a booking request extracted from a generated reply. Date is
// normalized to YYYY-MM-DD and Time to 24-hour HH:MM, ready for the
// arbiter, which still re-validates both in full.
type Intent struct {
	Date string
	Time string
}

// ParseDirective inspects a generated reply for the directive protocol.
//
// Return values:
//   - (intent, true, true): well-formed directive; intent carries the slot.
//   - (zero, true, false): the reply starts with the token but the payload
//     is malformed; callers must ask for clarification, not guess.
//   - (zero, false, false): ordinary conversational reply; no intent.
func ParseDirective(reply string) (Intent, bool, bool) {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, DirectiveToken) {
		return Intent{}, false, false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(trimmed, DirectiveToken))
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return Intent{}, true, false
	}

	day, err := time.Parse(directiveDateLayout, fields[0])
	if err != nil {
		return Intent{}, true, false
	}
	tod, err := schedule.ParseTimeOfDay(fields[1])
	if err != nil {
		return Intent{}, true, false
	}

	return Intent{
		Date: day.Format(dateLayout),
		Time: tod.String(),
	}, true, true
}
