package web

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	billing "medibill-ai/internal/billing/domain"
)

func TestHubBroadcastsItemAdded(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.ItemAdded(context.Background(), billing.Item{ID: "item-9", AdmissionID: "adm-1"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var notice Notice
	if err := json.Unmarshal(message, &notice); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if notice.Type != "items_changed" || notice.ItemID != "item-9" {
		t.Fatalf("unexpected notice %+v", notice)
	}
}

func TestHubItemAddedDoesNotBlockWithoutRun(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.ItemAdded(context.Background(), billing.Item{ID: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("ItemAdded blocked")
	}
}
