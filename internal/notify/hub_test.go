package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"examclient/internal/judge/sandbox"

	"github.com/gorilla/websocket"
)

func TestHubSubscribeGetsCurrentAvailability(t *testing.T) {
	hub := NewHub()
	hub.AvailabilityChanged(true)

	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	evt := <-events
	if evt.Type != EventAvailabilityChanged || evt.Data != true {
		t.Fatalf("unexpected first event %+v", evt)
	}

	_ = hub.ReportProgress(context.Background(), sandbox.Progress{PuzzleID: "p1", Done: 1, Total: 2})
	evt = <-events
	if evt.Type != EventJudgeProgress {
		t.Fatalf("expected progress event, got %+v", evt)
	}
	if p, ok := evt.Data.(sandbox.Progress); !ok || p.PuzzleID != "p1" {
		t.Fatalf("unexpected progress payload %+v", evt.Data)
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	_, unsubscribe := hub.Subscribe()
	if hub.ListenerCount() != 1 {
		t.Fatalf("expected one listener")
	}
	unsubscribe()
	unsubscribe()
	if hub.ListenerCount() != 0 {
		t.Fatalf("expected no listeners")
	}
	hub.AvailabilityChanged(false)
}

func TestHubServeWS(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var evt Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read initial event: %v", err)
	}
	if evt.Type != EventAvailabilityChanged || evt.Data != false {
		t.Fatalf("unexpected initial event %+v", evt)
	}

	hub.AvailabilityChanged(true)
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read change event: %v", err)
	}
	if evt.Type != EventAvailabilityChanged || evt.Data != true {
		t.Fatalf("unexpected change event %+v", evt)
	}
}

func TestHubServeWSChecksOrigin(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  func(srvURL string) string
		wantOK  bool
	}{
		{
			name:   "no_origin",
			origin: func(string) string { return "" },
			wantOK: true,
		},
		{
			name:   "same_host",
			origin: func(srvURL string) string { return srvURL },
			wantOK: true,
		},
		{
			name:    "configured_ui",
			allowed: []string{"http://localhost:5173"},
			origin:  func(string) string { return "http://localhost:5173" },
			wantOK:  true,
		},
		{
			name:    "foreign_page",
			allowed: []string{"http://localhost:5173"},
			origin:  func(string) string { return "http://evil.example" },
			wantOK:  false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hub := NewHub(tc.allowed...)
			srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
			defer srv.Close()

			header := http.Header{}
			if origin := tc.origin(srv.URL); origin != "" {
				header.Set("Origin", origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
			if conn != nil {
				defer conn.Close()
			}
			if tc.wantOK && err != nil {
				t.Fatalf("dial: %v", err)
			}
			if !tc.wantOK {
				if err == nil {
					t.Fatalf("expected upgrade to be refused")
				}
				if resp == nil || resp.StatusCode != http.StatusForbidden {
					t.Fatalf("expected 403, got %+v", resp)
				}
			}
		})
	}
}
