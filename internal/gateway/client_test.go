package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stemline/internal/export"
	"stemline/internal/logging"
	"stemline/internal/services"
	"stemline/internal/snapshot"
)

func newTestGateway(t *testing.T, handler http.Handler) *httpGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return newHTTPGateway(server.URL+"/api/v1", 5*time.Second, logging.NewNop())
}

func TestStatusConnected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/session/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"session_name": "My Song",
			"session_path": "/projects/mysong/My Song.ptx",
			"sample_rate":  48000,
			"bit_depth":    24,
			"track_count":  12,
		})
	})
	g := newTestGateway(t, mux)

	status := g.Status(context.Background())
	if !status.Connected {
		t.Fatal("expected connected status")
	}
	if status.SessionName != "My Song" || status.SampleRate != 48000 || status.TrackCount != 12 {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestStatusNeverErrors(t *testing.T) {
	// Service errors read as disconnected.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/session/info", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "not connected"}`, http.StatusServiceUnavailable)
	})
	g := newTestGateway(t, mux)
	if status := g.Status(context.Background()); status.Connected {
		t.Errorf("service error should read as disconnected: %+v", status)
	}

	// So does a dead endpoint.
	dead := newHTTPGateway("http://127.0.0.1:1/api/v1", 200*time.Millisecond, logging.NewNop())
	if status := dead.Status(context.Background()); status.Connected {
		t.Error("transport failure should read as disconnected")
	}
}

func TestTracksDegradeToEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/tracks", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "ok",
			"tracks": []map[string]any{
				{"id": "1", "name": "Kick", "type": "audio", "is_soloed": true},
				{"id": "2", "name": "Snare", "type": "audio", "is_muted": true},
			},
			"total_count": 2,
		})
	})
	g := newTestGateway(t, mux)

	tracks := g.Tracks(context.Background())
	if len(tracks) != 2 || tracks[0].Name != "Kick" || !tracks[0].IsSoloed {
		t.Errorf("unexpected tracks: %+v", tracks)
	}

	dead := newHTTPGateway("http://127.0.0.1:1/api/v1", 200*time.Millisecond, logging.NewNop())
	if tracks := dead.Tracks(context.Background()); len(tracks) != 0 {
		t.Errorf("transport failure should yield empty track list, got %+v", tracks)
	}
}

func TestStartExportSendsWireShape(t *testing.T) {
	var captured map[string]json.RawMessage
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/export/start", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "started",
			"task_id": "export_ab12cd34_1700000000",
		})
	})
	g := newTestGateway(t, mux)

	snaps := []snapshot.Snapshot{{ID: "s1", Name: "Drums", TrackStates: []snapshot.TrackState{
		{TrackID: "1", TrackName: "Kick", IsSoloed: true, Type: snapshot.TrackAudio},
	}}}
	settings := export.Settings{
		FileFormat: "wav", MixSourceName: "Mix Bus", MixSourceType: "Bus",
		FilePrefix: "stem_", OutputPath: "/tmp/out",
	}
	taskID, err := g.StartExport(context.Background(), snaps, settings)
	if err != nil {
		t.Fatalf("StartExport: %v", err)
	}
	if taskID != "export_ab12cd34_1700000000" {
		t.Errorf("task id: %q", taskID)
	}
	if _, ok := captured["snapshots"]; !ok {
		t.Error("request missing snapshots field")
	}
	var sent export.Settings
	if err := json.Unmarshal(captured["export_settings"], &sent); err != nil {
		t.Fatalf("export_settings shape: %v", err)
	}
	if sent.MixSourceName != "Mix Bus" || sent.OutputPath != "/tmp/out" {
		t.Errorf("settings not carried through: %+v", sent)
	}
}

func TestStartExportRejection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/export/start", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "output path not writable"}`, http.StatusBadRequest)
	})
	g := newTestGateway(t, mux)

	_, err := g.StartExport(context.Background(), []snapshot.Snapshot{{Name: "A"}}, export.Settings{})
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "output path not writable") {
		t.Errorf("service detail lost: %q", got)
	}
}

func TestExportStatusUnwrapsEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/export/status/t1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success":   true,
			"message":   "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"data": map[string]any{
				"task_id":               "t1",
				"status":                "running",
				"progress":              40.0,
				"current_snapshot":      1,
				"total_snapshots":       2,
				"current_snapshot_name": "Drums",
			},
		})
	})
	g := newTestGateway(t, mux)

	task, err := g.ExportStatus(context.Background(), "t1")
	if err != nil {
		t.Fatalf("ExportStatus: %v", err)
	}
	if task.Status != export.StatusRunning || task.Progress != 40 || task.CurrentSnapshotName != "Drums" {
		t.Errorf("unexpected task: %+v", task)
	}
}

func TestApplySnapshotRequestsFullRestore(t *testing.T) {
	var captured applySnapshotRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/session/apply-snapshot", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "applied"})
	})
	g := newTestGateway(t, mux)

	if err := g.ApplySnapshot(context.Background(), snapshot.Snapshot{ID: "s1", Name: "Drums"}); err != nil {
		t.Fatalf("ApplySnapshot: %v", err)
	}
	if !captured.RestoreAutomation || !captured.RestorePlugins || !captured.RestoreSends {
		t.Errorf("restore flags must all be true: %+v", captured)
	}
	if captured.Snapshot.Name != "Drums" {
		t.Errorf("snapshot not carried: %+v", captured.Snapshot)
	}
}

func TestSnapshotInfoEncodesSnapshotInQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/session/snapshot-info", func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("snapshot_data")
		var snap snapshot.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			t.Errorf("snapshot_data not url-encoded JSON: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true, "message": "ok",
			"snapshot": snap,
			"statistics": map[string]int{
				"total_tracks": 3, "muted_tracks": 1, "soloed_tracks": 1, "normal_tracks": 1,
			},
		})
	})
	g := newTestGateway(t, mux)

	info, err := g.SnapshotInfo(context.Background(), snapshot.Snapshot{Name: "Drums"})
	if err != nil {
		t.Fatalf("SnapshotInfo: %v", err)
	}
	if info.TotalTracks != 3 || info.SoloedTracks != 1 {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestDeleteExportTask(t *testing.T) {
	deleted := false
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/export/tasks/t1", func(w http.ResponseWriter, r *http.Request) {
		deleted = true
		json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "deleted"})
	})
	g := newTestGateway(t, mux)

	if err := g.DeleteExportTask(context.Background(), "t1"); err != nil {
		t.Fatalf("DeleteExportTask: %v", err)
	}
	if !deleted {
		t.Error("delete endpoint not called")
	}
}

func TestSnapshotDirResolver(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/session/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"session_path": "/projects/mysong/My Song.ptx",
		})
	})
	g := newTestGateway(t, mux)

	resolve := SnapshotDirResolver(g, "snapshots")
	dir, ok := resolve()
	if !ok || dir != "/projects/mysong/snapshots" {
		t.Errorf("got dir=%q ok=%v", dir, ok)
	}

	dead := newHTTPGateway("http://127.0.0.1:1/api/v1", 200*time.Millisecond, logging.NewNop())
	if _, ok := SnapshotDirResolver(dead, "snapshots")(); ok {
		t.Error("disconnected gateway should resolve to no location")
	}
}

// The orchestrator consumes the gateway through its own client interface.
var _ export.Client = (*httpGateway)(nil)
