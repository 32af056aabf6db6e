package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"stemline/internal/export"
	"stemline/internal/snapshot"
)

// SessionService is a scriptable in-process stand-in for the real session
// service. Mutate its fields under Lock to simulate session changes.
type SessionService struct {
	mu sync.Mutex

	SessionName string
	SessionPath string
	Connected   bool
	TracksList  []snapshot.Track

	// TaskID is the id returned by export/start; Statuses is the sequence
	// returned by export/status, last entry repeating.
	TaskID     string
	Statuses   []export.Task
	statusIdx  int
	StopCalls  int
	StartCalls int

	server *httptest.Server
}

// NewSessionService starts a fake session service with a connected session.
func NewSessionService(t testing.TB) *SessionService {
	t.Helper()

	s := &SessionService{
		SessionName: "Test Session",
		SessionPath: sessionFilePath(t),
		Connected:   true,
		TaskID:      "export_deadbeef_1700000000",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/session/info", s.handleSessionInfo)
	mux.HandleFunc("GET /api/v1/tracks", s.handleTracks)
	mux.HandleFunc("POST /api/v1/export/start", s.handleStartExport)
	mux.HandleFunc("GET /api/v1/export/status/{id}", s.handleExportStatus)
	mux.HandleFunc("POST /api/v1/export/stop/{id}", s.handleStopExport)
	mux.HandleFunc("POST /api/v1/session/apply-snapshot", s.handleApplySnapshot)

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func sessionFilePath(t testing.TB) string {
	return t.TempDir() + "/Test Session.ptx"
}

// BaseURL is the service root including the API prefix.
func (s *SessionService) BaseURL() string {
	return s.server.URL + "/api/v1"
}

// Lock runs fn with exclusive access to the scripted state.
func (s *SessionService) Lock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Disconnect makes every endpoint answer as if the session went away.
func (s *SessionService) Disconnect() {
	s.Lock(func() { s.Connected = false })
}

func (s *SessionService) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Connected {
		writeError(w, http.StatusServiceUnavailable, "session service not connected")
		return
	}
	writeJSON(w, map[string]any{
		"session_name": s.SessionName,
		"session_path": s.SessionPath,
		"sample_rate":  48000,
		"bit_depth":    24,
		"track_count":  len(s.TracksList),
	})
}

func (s *SessionService) handleTracks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Connected {
		writeError(w, http.StatusServiceUnavailable, "session service not connected")
		return
	}
	writeJSON(w, map[string]any{
		"success":     true,
		"message":     "ok",
		"tracks":      s.TracksList,
		"total_count": len(s.TracksList),
	})
}

func (s *SessionService) handleStartExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StartCalls++
	if !s.Connected {
		writeError(w, http.StatusServiceUnavailable, "session service not connected")
		return
	}
	writeJSON(w, map[string]any{
		"success": true,
		"message": "export task started",
		"task_id": s.TaskID,
	})
}

func (s *SessionService) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Statuses) == 0 {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	task := s.Statuses[min(s.statusIdx, len(s.Statuses)-1)]
	s.statusIdx++
	writeJSON(w, map[string]any{
		"success": true,
		"message": "ok",
		"data":    task,
	})
}

func (s *SessionService) handleStopExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StopCalls++
	writeJSON(w, map[string]any{"success": true, "message": "export task stopped"})
}

func (s *SessionService) handleApplySnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"success": true, "message": "snapshot applied"})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
