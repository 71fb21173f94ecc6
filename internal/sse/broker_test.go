package sse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func next(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

// drain collects whatever is buffered on ch right now.
func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestClientCount(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	a, c := b.Subscribe(), b.Subscribe()
	if n := b.ClientCount(); n != 2 {
		t.Fatalf("clients = %d, want 2", n)
	}
	b.Unsubscribe(a)
	b.Unsubscribe(a)
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("clients = %d after unsubscribe, want 1", n)
	}
	b.Unsubscribe(c)
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("clients = %d, want 0", n)
	}
}

func TestPublish_ReachesEverySubscriber(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	subs := []chan []byte{b.Subscribe(), b.Subscribe()}

	b.Publish(Event{Type: TypeDocumentCreated, Data: map[string]string{"id": "d1"}})

	for i, ch := range subs {
		msg := next(t, ch)
		if !strings.Contains(msg, "event: document.created") || !strings.Contains(msg, `"id":"d1"`) {
			t.Errorf("subscriber %d got %q", i, msg)
		}
	}
}

func TestPublishDocumentEvent_WorkspaceThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("created", "d1")
	b.PublishDocumentEvent("deleted", "d2")
	time.Sleep(50 * time.Millisecond)

	var docs, workspace int
	for _, msg := range drain(ch) {
		if strings.Contains(msg, "event: "+TypeWorkspaceUpdated) {
			workspace++
		} else {
			docs++
		}
	}
	if docs != 2 || workspace != 1 {
		t.Errorf("document events = %d, workspace events = %d; want 2 and 1", docs, workspace)
	}
}

func TestFramesCarrySequenceIDs(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeClipboardState, Data: map[string]string{"state": "copied"}})
	b.Publish(Event{Type: TypeClipboardState, Data: map[string]string{"state": "idle"}})

	if msg := next(t, ch); !strings.HasPrefix(msg, "id: 1\nevent: clipboard.state\n") {
		t.Errorf("first frame = %q", msg)
	}
	if msg := next(t, ch); !strings.HasPrefix(msg, "id: 2\n") || !strings.HasSuffix(msg, "\n\n") {
		t.Errorf("second frame = %q", msg)
	}
}

func TestBannerReplayedToLateSubscriber(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	b.Publish(Event{Type: TypeBanner, Data: map[string]string{"message": "Failed to load documents: boom"}})
	ch := b.Subscribe()
	if msg := next(t, ch); !strings.Contains(msg, "Failed to load documents") {
		t.Errorf("replayed = %q", msg)
	}

	// Once ch has seen the dismissal, the loop has dropped the banner.
	b.Publish(Event{Type: TypeBanner, Data: map[string]string{"message": ""}})
	if msg := next(t, ch); !strings.Contains(msg, `"message":""`) {
		t.Fatalf("dismissal = %q", msg)
	}
	b.Unsubscribe(ch)

	ch = b.Subscribe()
	defer b.Unsubscribe(ch)
	b.Publish(Event{Type: TypeDocumentCreated, Data: map[string]string{"id": "d1"}})
	if msg := next(t, ch); !strings.Contains(msg, "document.created") {
		t.Errorf("dismissed banner should not replay, got %q", msg)
	}
}

func TestPublishDocumentEvent_UnknownKindIgnored(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("renamed", "d1")
	b.Publish(Event{Type: TypeBanner, Data: map[string]string{"message": "x"}})
	if msg := next(t, ch); !strings.Contains(msg, "event: banner") {
		t.Errorf("unknown kind produced %q", msg)
	}
}

func TestServeHTTP_StreamsUntilDisconnect(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.Publish(Event{Type: TypeBanner, Data: map[string]string{"message": "boom"}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	if body := w.Body.String(); !strings.Contains(body, "event: banner") {
		t.Errorf("stream missing event: %q", body)
	}
	time.Sleep(20 * time.Millisecond)
	if n := b.ClientCount(); n != 0 {
		t.Errorf("clients = %d after disconnect", n)
	}
}

func TestPublish_SlowClientDoesNotBlock(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < clientBuffer+10; i++ {
		b.Publish(Event{Type: TypeClipboardState, Data: map[string]string{"state": "idle"}})
	}
	if n := b.ClientCount(); n != 1 {
		t.Errorf("clients = %d", n)
	}
}

func TestClose(t *testing.T) {
	b := NewBroker(time.Hour)
	ch := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("subscriber channel should be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if n := b.ClientCount(); n != 0 {
		t.Errorf("clients = %d after close", n)
	}

	// No-ops once closed.
	b.Publish(Event{Type: TypeBanner, Data: map[string]string{"message": "x"}})
	b.PublishDocumentEvent("updated", "x")
	b.Close()
	if _, ok := <-b.Subscribe(); ok {
		t.Error("subscribe after close should return a closed channel")
	}
}

func TestClipboard_RequiresClient(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	clip := NewClipboard(b)

	if err := clip.Write(context.Background(), "x"); !errors.Is(err, ErrNoClients) {
		t.Fatalf("err = %v, want ErrNoClients", err)
	}

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)
	if err := clip.Write(context.Background(), "fmt.Println()"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: clipboard.write") || !strings.Contains(s, `"text":"fmt.Println()"`) {
			t.Errorf("unexpected message %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for clipboard event")
	}
}

func TestClipboard_CanceledContext(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewClipboard(b).Write(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
