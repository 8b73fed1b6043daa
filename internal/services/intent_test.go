package services

import "testing"

func TestParseDirective(t *testing.T) {
	cases := []struct {
		name      string
		reply     string
		directive bool
		ok        bool
		date      string
		tm        string
	}{
		{"plain conversation", "Olá! Como posso ajudar?", false, false, "", ""},
		{"well formed", "AGENDAR: 25/03/2024 14:00", true, true, "2024-03-25", "14:00"},
		{"leading whitespace", "  AGENDAR: 01/12/2024 08:30", true, true, "2024-12-01", "08:30"},
		{"extra payload words", "AGENDAR: 25/03/2024 14:00 confirmado", true, false, "", ""},
		{"missing time", "AGENDAR: 25/03/2024", true, false, "", ""},
		{"empty payload", "AGENDAR:", true, false, "", ""},
		{"iso date rejected", "AGENDAR: 2024-03-25 14:00", true, false, "", ""},
		{"nonsense date", "AGENDAR: 32/13/2024 14:00", true, false, "", ""},
		{"single digit hour", "AGENDAR: 25/03/2024 9:00", true, false, "", ""},
		{"out of range time", "AGENDAR: 25/03/2024 25:00", true, false, "", ""},
		{"token mid-sentence", "Claro! AGENDAR: 25/03/2024 14:00", false, false, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent, directive, ok := ParseDirective(tc.reply)
			if directive != tc.directive || ok != tc.ok {
				t.Fatalf("flags = (%v, %v), want (%v, %v)", directive, ok, tc.directive, tc.ok)
			}
			if intent.Date != tc.date || intent.Time != tc.tm {
				t.Fatalf("intent = %+v, want {%s %s}", intent, tc.date, tc.tm)
			}
		})
	}
}
