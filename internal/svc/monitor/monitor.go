// If you are AI: This file implements the monitor service: a health endpoint and
// a websocket stream of periodic counter snapshots for attached observers.

package monitor

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"aeronmd/internal/core/counters"
)

// CounterSnapshot is one counter as pushed to observers.
type CounterSnapshot struct {
	ID     int32  `json:"id"`
	TypeID int32  `json:"type_id"`
	Label  string `json:"label"`
	Value  int64  `json:"value"`
}

// Server serves /healthz and the /counters websocket stream.
type Server struct {
	httpServer *http.Server
	reader     *counters.Reader
	interval   time.Duration
	upgrader   websocket.Upgrader
}

// New creates a monitor server over a counters reader.
// The server is not started until Serve is called.
func New(port int, reader *counters.Reader, interval time.Duration) *Server {
	s := &Server{
		reader:   reader,
		interval: interval,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/counters", s.handleCounters)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Serve blocks serving HTTP until the server is closed.
func (s *Server) Serve() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the listener and open connections.
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// handleHealth responds to health check requests.
// Returns 200 OK to indicate the driver is running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleCounters upgrades to a websocket and pushes counter snapshots on
// the configured interval until the peer goes away.
func (s *Server) handleCounters(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("monitor upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		if err := conn.WriteJSON(s.Snapshot()); err != nil {
			return
		}
		time.Sleep(s.interval)
	}
}

// Snapshot collects the currently allocated counters.
func (s *Server) Snapshot() []CounterSnapshot {
	snapshots := make([]CounterSnapshot, 0, 16)
	s.reader.ForEach(func(id, typeID int32, _ []byte, label string, value int64) {
		snapshots = append(snapshots, CounterSnapshot{
			ID:     id,
			TypeID: typeID,
			Label:  label,
			Value:  value,
		})
	})
	return snapshots
}
