package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stemline/internal/config"
	"stemline/internal/export"
	"stemline/internal/logging"
	"stemline/internal/services"
	"stemline/internal/snapshot"
)

// Gateway is the session service surface the core consumes. Read paths
// degrade gracefully; export operations surface typed errors.
type Gateway interface {
	// Status never returns an error; any transport failure reads as
	// disconnected.
	Status(ctx context.Context) SessionStatus
	// Tracks returns the live track list, empty on failure.
	Tracks(ctx context.Context) []snapshot.Track
	// ApplySnapshot sets session solo/mute to match the snapshot, with
	// automation, plugins and sends restored.
	ApplySnapshot(ctx context.Context, snap snapshot.Snapshot) error
	// SnapshotInfo asks the session service to describe a snapshot.
	// Diagnostic, non-critical.
	SnapshotInfo(ctx context.Context, snap snapshot.Snapshot) (SnapshotInfo, error)

	StartExport(ctx context.Context, snapshots []snapshot.Snapshot, settings export.Settings) (string, error)
	ExportStatus(ctx context.Context, taskID string) (export.Task, error)
	StopExport(ctx context.Context, taskID string) error
	// DeleteExportTask removes a finished task record on the service side.
	DeleteExportTask(ctx context.Context, taskID string) error
}

// New selects the transport strategy from configuration and builds the
// gateway. HTTP is the only transport today; this constructor is the single
// branch point for adding another.
func New(cfg *config.Config, logger *slog.Logger) (Gateway, error) {
	switch cfg.Gateway.Transport {
	case "http":
		return newHTTPGateway(cfg.Gateway.BaseURL, cfg.GatewayTimeout(), logger), nil
	default:
		return nil, fmt.Errorf("unsupported gateway transport %q", cfg.Gateway.Transport)
	}
}

type httpGateway struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func newHTTPGateway(baseURL string, timeout time.Duration, logger *slog.Logger) *httpGateway {
	return &httpGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "gateway"),
	}
}

func (g *httpGateway) Status(ctx context.Context) SessionStatus {
	var info sessionInfoResponse
	if err := g.get(ctx, "/session/info", nil, &info); err != nil {
		g.logger.Debug("session service unreachable", logging.Error(err))
		return SessionStatus{}
	}
	return SessionStatus{
		Connected:   true,
		SessionName: info.SessionName,
		SessionPath: info.SessionPath,
		SampleRate:  info.SampleRate,
		BitDepth:    info.BitDepth,
		TrackCount:  info.TrackCount,
	}
}

func (g *httpGateway) Tracks(ctx context.Context) []snapshot.Track {
	var resp trackListResponse
	if err := g.get(ctx, "/tracks", nil, &resp); err != nil {
		g.logger.Warn("failed to fetch track list", logging.Error(err))
		return nil
	}
	return resp.Tracks
}

func (g *httpGateway) ApplySnapshot(ctx context.Context, snap snapshot.Snapshot) error {
	ctx = services.WithSnapshotName(ctx, snap.Name)
	req := applySnapshotRequest{
		Snapshot:          snap,
		RestoreAutomation: true,
		RestorePlugins:    true,
		RestoreSends:      true,
	}
	var resp envelope
	if err := g.post(ctx, "/session/apply-snapshot", req, &resp); err != nil {
		return services.Wrap(services.ErrTransport, "gateway", "apply-snapshot", snap.Name, err)
	}
	if !resp.Success {
		return services.Wrap(services.ErrTransport, "gateway", "apply-snapshot", resp.Message, nil)
	}
	return nil
}

func (g *httpGateway) SnapshotInfo(ctx context.Context, snap snapshot.Snapshot) (SnapshotInfo, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("encode snapshot: %w", err)
	}
	query := url.Values{"snapshot_data": {string(data)}}
	var resp snapshotInfoResponse
	if err := g.get(ctx, "/session/snapshot-info", query, &resp); err != nil {
		return SnapshotInfo{}, services.Wrap(services.ErrTransport, "gateway", "snapshot-info", snap.Name, err)
	}
	return resp.Statistics, nil
}

func (g *httpGateway) StartExport(ctx context.Context, snapshots []snapshot.Snapshot, settings export.Settings) (string, error) {
	req := startExportRequest{Snapshots: snapshots, ExportSettings: settings}
	var resp startExportResponse
	if err := g.post(ctx, "/export/start", req, &resp); err != nil {
		return "", services.Wrap(services.ErrTransport, "gateway", "start-export", "", err)
	}
	if !resp.Success || resp.TaskID == "" {
		message := resp.Message
		if message == "" {
			message = "export task rejected"
		}
		return "", services.Wrap(services.ErrTransport, "gateway", "start-export", message, nil)
	}
	return resp.TaskID, nil
}

func (g *httpGateway) ExportStatus(ctx context.Context, taskID string) (export.Task, error) {
	var resp exportStatusResponse
	if err := g.get(ctx, "/export/status/"+url.PathEscape(taskID), nil, &resp); err != nil {
		return export.Task{}, services.Wrap(services.ErrTransport, "gateway", "export-status", taskID, err)
	}
	return resp.Data, nil
}

func (g *httpGateway) StopExport(ctx context.Context, taskID string) error {
	var resp envelope
	if err := g.post(ctx, "/export/stop/"+url.PathEscape(taskID), nil, &resp); err != nil {
		return services.Wrap(services.ErrTransport, "gateway", "stop-export", taskID, err)
	}
	return nil
}

func (g *httpGateway) DeleteExportTask(ctx context.Context, taskID string) error {
	if err := g.do(ctx, http.MethodDelete, "/export/tasks/"+url.PathEscape(taskID), nil, nil, nil); err != nil {
		return services.Wrap(services.ErrTransport, "gateway", "delete-export-task", taskID, err)
	}
	return nil
}

func (g *httpGateway) get(ctx context.Context, path string, query url.Values, out any) error {
	return g.do(ctx, http.MethodGet, path, query, nil, out)
}

func (g *httpGateway) post(ctx context.Context, path string, body any, out any) error {
	return g.do(ctx, http.MethodPost, path, nil, body, out)
}

func (g *httpGateway) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := g.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	attrs := []logging.Attr{logging.String("method", method), logging.String("path", path)}
	if id, ok := services.TaskIDFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldTaskID, id))
	}
	if name, ok := services.SnapshotNameFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldSnapshot, name))
	}
	g.logger.Debug("session service request", logging.Args(attrs...)...)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: %s", method, path, serviceError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// serviceError extracts the service's detail message from an error response,
// falling back to the HTTP status.
func serviceError(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var payload errorResponse
		if json.Unmarshal(data, &payload) == nil && payload.Detail != "" {
			return payload.Detail
		}
	}
	return resp.Status
}
