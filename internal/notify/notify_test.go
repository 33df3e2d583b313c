package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/safar/go-storefront/internal/config"
)

func newTelegramServer(t *testing.T) (*httptest.Server, *[]string, *sync.Mutex) {
	t.Helper()

	var mu sync.Mutex
	var sent []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok": true, "result": {"id": 1, "is_bot": true, "first_name": "orders", "username": "orders_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			mu.Lock()
			sent = append(sent, r.Form.Get("chat_id")+":"+r.Form.Get("text"))
			mu.Unlock()
			fmt.Fprint(w, `{"ok": true, "result": {"message_id": 7, "date": 0, "chat": {"id": 42, "type": "private"}}}`)
		default:
			t.Errorf("unexpected telegram call %s", r.URL.Path)
			fmt.Fprint(w, `{"ok": false, "error_code": 404, "description": "Not Found"}`)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &sent, &mu
}

func TestTelegramNotify(t *testing.T) {
	srv, sent, mu := newTelegramServer(t)

	tg, err := NewTelegram(config.NotifyConfig{TelegramToken: "token", Timeout: 2 * time.Second}, srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}

	if err := tg.Notify(context.Background(), "42", "order #1 confirmed"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(*sent) != 1 || (*sent)[0] != "42:order #1 confirmed" {
		t.Errorf("unexpected messages sent: %v", *sent)
	}
}

func TestTelegramNotifyInvalidChatID(t *testing.T) {
	srv, sent, mu := newTelegramServer(t)

	tg, err := NewTelegram(config.NotifyConfig{TelegramToken: "token", Timeout: 2 * time.Second}, srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}

	if err := tg.Notify(context.Background(), "not-a-chat", "hello"); err == nil {
		t.Error("expected error for non-numeric chat id")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(*sent) != 0 {
		t.Errorf("no message should be sent, got %v", *sent)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	if err := n.Notify(context.Background(), "ops", "order #1 confirmed"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !strings.Contains(buf.String(), "order #1 confirmed") {
		t.Errorf("message not logged: %s", buf.String())
	}
}
