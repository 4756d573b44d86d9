// If you are AI: This file contains unit tests for the monitor service.

package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"aeronmd/internal/core/clock"
	"aeronmd/internal/core/counters"
)

func newTestStore(t *testing.T) *counters.Store {
	t.Helper()
	return counters.NewStore(
		make([]byte, 64*counters.MetadataLength),
		make([]byte, 64*counters.CounterLength),
		&clock.Manual{}, 1000)
}

func TestHealthEndpoint(t *testing.T) {
	store := newTestStore(t)
	s := New(0, &store.Reader, time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/healthz", nil)
	w = httptest.NewRecorder()
	s.handleHealth(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz = %d, want 405", w.Code)
	}
}

func TestSnapshotReflectsCounters(t *testing.T) {
	store := newTestStore(t)
	id, err := store.Allocate(7, nil, "bytes sent")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	store.SetValue(id, 99)

	s := New(0, &store.Reader, time.Millisecond)
	snapshots := s.Snapshot()

	if len(snapshots) != 1 {
		t.Fatalf("snapshot size = %d, want 1", len(snapshots))
	}
	got := snapshots[0]
	if got.ID != id || got.TypeID != 7 || got.Label != "bytes sent" || got.Value != 99 {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestCountersWebsocketStream(t *testing.T) {
	store := newTestStore(t)
	id, err := store.Allocate(1, nil, "gauge")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	store.SetValue(id, 5)

	s := New(0, &store.Reader, time.Millisecond)
	server := httptest.NewServer(http.HandlerFunc(s.handleCounters))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var snapshots []CounterSnapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snapshots); err != nil {
		t.Fatalf("read: %v", err)
	}

	if len(snapshots) != 1 || snapshots[0].Value != 5 {
		t.Errorf("streamed snapshot = %+v", snapshots)
	}
}
