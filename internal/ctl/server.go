package ctl

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchell0000/boottrace/internal/trace"
)

// Server serves the administrative control endpoint for one Subsystem.
type Server struct {
	sub *trace.Subsystem
	log zerolog.Logger

	// resizeMu serializes /tablesize requests. The engine's Grow is
	// documented as needing external serialization; this boundary is
	// where it happens, keeping the engine itself lock-free.
	resizeMu sync.Mutex
}

// NewServer creates a control endpoint over sub.
func NewServer(sub *trace.Subsystem, log zerolog.Logger) *Server {
	return &Server{sub: sub, log: log}
}

// Handler returns the endpoint's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/boottimes", s.handleBootTimes)
	mux.HandleFunc("/runtimes", s.handleRunTimes)
	mux.HandleFunc("/shuttimes", s.handleShutTimes)
	mux.HandleFunc("/tablesize", s.handleTableSize)
	mux.HandleFunc("/events", s.handleEvents)
	return s.logRequests(mux)
}

// handleBootTimes is the read/write endpoint: GET dumps the boot and run
// tables unfiltered, POST records a boot-or-run-phase event.
func (s *Server) handleBootTimes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, s.sub.DumpBootRun())
	case http.MethodPost:
		s.handleRecord(w, r, s.sub.Record)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRunTimes is write-only and forces the boot-complete transition.
func (s *Server) handleRunTimes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handleRecord(w, r, s.sub.RecordRun)
}

// handleShutTimes is write-only and forces the shutdown transition.
func (s *Server) handleShutTimes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handleRecord(w, r, s.sub.RecordShutdown)
}

// handleRecord reads an "actor:event" message and feeds it to the given
// record entry point. A dropped event is reported as success: events are
// best-effort telemetry and overflow is silent at this boundary.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request, record func(event, actor string) error) {
	msg, ok := s.readMessage(w, r)
	if !ok {
		return
	}
	event, actor := ParseMessage(msg)
	if err := record(event, actor); err != nil {
		if !trace.IsDropped(err) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.log.Debug().Err(err).Str("event", event).Msg("event dropped")
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTableSize grows the run table to the posted capacity.
func (s *Server) handleTableSize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	msg, ok := s.readMessage(w, r)
	if !ok {
		return
	}
	newSize, err := strconv.Atoi(msg)
	if err != nil {
		http.Error(w, fmt.Sprintf("not a table size: %q", msg), http.StatusBadRequest)
		return
	}

	s.resizeMu.Lock()
	err = s.sub.GrowRun(newSize)
	s.resizeMu.Unlock()

	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case trace.IsTooSmall(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInsufficientStorage)
	}
}

// EventsResponse is the JSON payload of /events.
type EventsResponse struct {
	CapturedAt time.Time   `json:"captured_at"`
	Phase      string      `json:"phase"`
	Tables     []TableDump `json:"tables"`
}

// TableDump is one table's snapshot on the wire.
type TableDump struct {
	Name       string      `json:"name"`
	Policy     string      `json:"policy"`
	Capacity   int         `json:"capacity"`
	Cursor     int         `json:"cursor"`
	DropsEarly uint64      `json:"drops_early"`
	DropsFull  uint64      `json:"drops_full"`
	Events     []EventDump `json:"events"`
}

// EventDump is one live entry on the wire.
type EventDump struct {
	Slot      int    `json:"slot"`
	Cycles    uint64 `json:"cycles"`
	Tick      int64  `json:"tick"`
	CPU       int32  `json:"cpu"`
	ActorID   int32  `json:"actor_id"`
	CPUTimeUS uint32 `json:"cputime_us"`
	InBlock   uint32 `json:"inblock"`
	OutBlock  uint32 `json:"oublock"`
	Actor     string `json:"actor"`
	Name      string `json:"name"`
}

// handleEvents returns the raw live entries of all three tables.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := EventsResponse{
		CapturedAt: time.Now().UTC(),
		Phase:      s.sub.Phase().String(),
	}
	for _, snap := range s.sub.Snapshot() {
		dump := TableDump{
			Name:       snap.Name,
			Policy:     snap.Policy.String(),
			Capacity:   snap.Capacity,
			Cursor:     snap.Cursor,
			DropsEarly: snap.DropsEarly,
			DropsFull:  snap.DropsFull,
			Events:     make([]EventDump, 0, len(snap.Events)),
		}
		for _, ev := range snap.Events {
			dump.Events = append(dump.Events, EventDump{
				Slot:      ev.Slot,
				Cycles:    ev.Cycles,
				Tick:      ev.Tick,
				CPU:       ev.CPU,
				ActorID:   ev.ActorID,
				CPUTimeUS: ev.CPUTime,
				InBlock:   ev.InBlock,
				OutBlock:  ev.OutBlock,
				Actor:     ev.Actor,
				Name:      ev.Name,
			})
		}
		resp.Tables = append(resp.Tables, dump)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error().Err(err).Msg("encode events response")
	}
}

// readMessage reads and trims a request body, enforcing the message
// bound. Returns ok=false after writing the error response.
func (s *Server) readMessage(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageLen+1))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return "", false
	}
	if len(body) > maxMessageLen {
		http.Error(w, fmt.Sprintf("message exceeds %d bytes", maxMessageLen), http.StatusBadRequest)
		return "", false
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		http.Error(w, "empty message", http.StatusBadRequest)
		return "", false
	}
	return msg, true
}

// logRequests wraps the mux with request logging.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("ctl request")
	})
}
