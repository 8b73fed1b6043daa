package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhook_PostsJSONPayload(t *testing.T) {
	type received struct {
		body        []byte
		contentType string
	}
	got := make(chan received, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		b, _ := io.ReadAll(r.Body)
		got <- received{body: b, contentType: r.Header.Get("Content-Type")}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, 2*time.Second)
	err := w.ReservationConfirmed(context.Background(), Confirmation{
		Email: "u@example.com",
		Date:  "2024-03-25",
		Time:  "13:00",
	})
	if err != nil {
		t.Fatalf("ReservationConfirmed: %v", err)
	}

	r := <-got
	if r.contentType != "application/json" {
		t.Fatalf("content type = %q", r.contentType)
	}
	var c Confirmation
	if err := json.Unmarshal(r.body, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Email != "u@example.com" || c.Date != "2024-03-25" || c.Time != "13:00" {
		t.Fatalf("unexpected payload: %+v", c)
	}
}

func TestWebhook_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, 2*time.Second)
	if err := w.ReservationConfirmed(context.Background(), Confirmation{}); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestWebhook_HonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel r.Context(); otherwise srv.Close
		// deadlocks waiting on this handler.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w := NewWebhook(srv.URL, 10*time.Second)
	if err := w.ReservationConfirmed(ctx, Confirmation{}); err == nil {
		t.Fatalf("expected context deadline error")
	}
}

func TestNoop(t *testing.T) {
	if err := (Noop{}).ReservationConfirmed(context.Background(), Confirmation{}); err != nil {
		t.Fatalf("noop must never fail: %v", err)
	}
}
