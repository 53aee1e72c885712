// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package api

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/telebridge/internal/bridge"
	"github.com/tomtom215/telebridge/internal/config"
	"github.com/tomtom215/telebridge/internal/metrics"
	"github.com/tomtom215/telebridge/internal/modelcache"
	"github.com/tomtom215/telebridge/internal/telemetry"
	"github.com/tomtom215/telebridge/internal/upstream/upstreamtest"
	"github.com/tomtom215/telebridge/internal/websocket"
)

type stubModels struct {
	asset modelcache.Asset
	err   error
}

func (s *stubModels) Fetch(context.Context, string) (modelcache.Asset, error) {
	return s.asset, s.err
}

type fixture struct {
	src     *upstreamtest.Source
	bridge  *bridge.Bridge
	handler *Handler
	server  *httptest.Server
}

func newFixture(t *testing.T, models ModelFetcher, mwCfg MiddlewareConfig) *fixture {
	t.Helper()
	src := upstreamtest.NewSource()
	b := bridge.New(config.HubsConfig{
		ReconnectBaseDelayMS:   2000,
		ReconnectMediumDelayMS: 60000,
		ReconnectLongDelayMS:   300000,
		StaleTimeoutMS:         7000,
		MapStaleTimeoutMS:      7000,
		TopologyStaleTimeoutMS: 7000,
	}, src, nil)

	h := NewHandler(b, models, HandlerConfig{SSEKeepAlive: 50 * time.Millisecond, ClientBuffer: 8})
	srv := httptest.NewServer(NewRouter(h, NewChiMiddleware(mwCfg)))

	t.Cleanup(func() {
		h.Shutdown()
		srv.Close()
		b.Close()
	})
	return &fixture{src: src, bridge: b, handler: h, server: srv}
}

func noLimits() MiddlewareConfig {
	cfg := DefaultMiddlewareConfig()
	cfg.RateLimitRequests = 0
	return cfg
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode, body
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(upstreamtest.Wait)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestListTopics(t *testing.T) {
	f := newFixture(t, nil, noLimits())

	status, body := getJSON(t, f.server.URL+"/api/v1/telemetry")
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	topics, ok := body["data"].([]any)
	if !ok || len(topics) != len(telemetry.Topics) {
		t.Fatalf("data = %#v", body["data"])
	}
	first := topics[0].(map[string]any)
	if first["topic"] != telemetry.TopicStatus || first["state"] != "idle" {
		t.Errorf("first topic = %v", first)
	}
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, nil, noLimits())

	status, body := getJSON(t, f.server.URL+"/api/v1/telemetry/status")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	data, present := body["data"]
	if !present || data != nil {
		t.Fatalf("data = %#v, want explicit null", data)
	}

	st := f.src.Next(t, telemetry.TopicStatus)
	st.Push(telemetry.Record{"timestampUnixMs": 1000.0, "seq": "5", "mode": "docked"})

	eventually(t, "snapshot data", func() bool {
		_, body := getJSON(t, f.server.URL+"/api/v1/telemetry/status")
		d, ok := body["data"].(map[string]any)
		return ok && d["mode"] == "docked" && d["seq"] == "5"
	})
}

func TestSnapshot_UnknownTopic(t *testing.T) {
	f := newFixture(t, nil, noLimits())

	status, body := getJSON(t, f.server.URL+"/api/v1/telemetry/camera")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	e, _ := body["error"].(map[string]any)
	if e["code"] != ErrCodeNotFound {
		t.Errorf("error = %v", body["error"])
	}
}

// readEvent returns the next SSE event name and data, skipping comments
// and the retry hint.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read SSE: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEvents_StreamAndClear(t *testing.T) {
	f := newFixture(t, nil, noLimits())

	resp, err := http.Get(f.server.URL + "/api/v1/telemetry/pose/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	r := bufio.NewReader(resp.Body)

	st := f.src.Next(t, telemetry.TopicPose)
	st.Push(telemetry.Record{"timestampUnixMs": 1000.0, "pose": map[string]any{}})

	event, data := readEvent(t, r)
	if event != telemetry.TopicPose {
		t.Fatalf("event = %q, want pose", event)
	}
	var snap map[string]any
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		t.Fatalf("data %q: %v", data, err)
	}

	st.Fail(errors.New("stream reset"))
	event, data = readEvent(t, r)
	if event != sseEventClear || data != "null" {
		t.Errorf("got %q %q, want clear null", event, data)
	}
}

func TestEvents_KeepAliveAndShutdown(t *testing.T) {
	f := newFixture(t, nil, noLimits())

	resp, err := http.Get(f.server.URL + "/api/v1/telemetry/lidar/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	r := bufio.NewReader(resp.Body)

	deadline := time.Now().Add(upstreamtest.Wait)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if strings.HasPrefix(line, ": keepalive") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no keepalive comment")
		}
	}

	f.handler.Shutdown()
	if _, err := io.Copy(io.Discard, r); err != nil {
		t.Errorf("stream should end cleanly after shutdown: %v", err)
	}
}

func TestWebSocket(t *testing.T) {
	f := newFixture(t, nil, noLimits())

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/v1/telemetry/pose/ws"
	conn, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	st := f.src.Next(t, telemetry.TopicPose)
	st.Push(telemetry.Record{"timestampUnixMs": 1000.0, "pose": map[string]any{}})

	_ = conn.SetReadDeadline(time.Now().Add(upstreamtest.Wait))
	var msg websocket.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != websocket.MessageTypeTelemetry || msg.Topic != telemetry.TopicPose {
		t.Errorf("message = %+v", msg)
	}
}

func TestModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nav.onnx")
	if err := os.WriteFile(path, []byte("weights"), 0o600); err != nil {
		t.Fatal(err)
	}
	okAsset := modelcache.Asset{Name: "nav.onnx", Path: path, SHA256: strings.Repeat("ab", 32), Size: 7}

	tests := []struct {
		name   string
		models ModelFetcher
		want   int
	}{
		{"served", &stubModels{asset: okAsset}, http.StatusOK},
		{"invalid name", &stubModels{err: modelcache.ErrInvalidName}, http.StatusBadRequest},
		{"not found", &stubModels{err: modelcache.ErrNotFound}, http.StatusNotFound},
		{"integrity", &stubModels{err: modelcache.ErrIntegrity}, http.StatusBadGateway},
		{"breaker open", &stubModels{err: modelcache.ErrUnavailable}, http.StatusServiceUnavailable},
		{"other failure", &stubModels{err: errors.New("connection refused")}, http.StatusBadGateway},
		{"not configured", nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.models, noLimits())
			resp, err := http.Get(f.server.URL + "/api/v1/models/nav.onnx")
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.want, body)
			}
			if tt.want == http.StatusOK {
				if string(body) != "weights" {
					t.Errorf("body = %q", body)
				}
				if resp.Header.Get("X-Model-SHA256") != okAsset.SHA256 {
					t.Errorf("missing digest header")
				}
			}
		})
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil, noLimits())

	if status, body := getJSON(t, f.server.URL+"/api/v1/health/live"); status != http.StatusOK || body["success"] != true {
		t.Fatalf("live = %d %v", status, body)
	}
	if status, _ := getJSON(t, f.server.URL+"/api/v1/health/ready"); status != http.StatusOK {
		t.Fatalf("ready = %d, want 200", status)
	}

	f.bridge.Topology.Snapshot()
	st := f.src.Next(t, telemetry.TopicTopology)
	st.Push(telemetry.Record{
		"timestampUnixMs": 1000.0,
		"polylines":       []any{map[string]any{"id": "a", "frameId": "odom", "points": []any{}}},
	})

	eventually(t, "readiness to fail", func() bool {
		status, body := getJSON(t, f.server.URL+"/api/v1/health/ready")
		data, _ := body["data"].(map[string]any)
		fatal, _ := data["fatal_topics"].([]any)
		return status == http.StatusServiceUnavailable && len(fatal) == 1 && fatal[0] == telemetry.TopicTopology
	})
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultMiddlewareConfig()
	cfg.RateLimitRequests = 2
	f := newFixture(t, nil, cfg)

	hits := metrics.APIRateLimitHits.WithLabelValues("telemetry")
	before := testutil.ToFloat64(hits)

	var last int
	for i := 0; i < 3; i++ {
		last, _ = getJSON(t, f.server.URL+"/api/v1/telemetry")
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last)
	}
	if got := testutil.ToFloat64(hits) - before; got != 1 {
		t.Errorf("rate limit hits = %v, want 1", got)
	}

	// Probes are exempt.
	if status, _ := getJSON(t, f.server.URL+"/api/v1/health/live"); status != http.StatusOK {
		t.Errorf("live = %d under rate limit", status)
	}
}

func TestRouter_MiscEndpoints(t *testing.T) {
	f := newFixture(t, nil, noLimits())

	resp, err := http.Get(f.server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "api_active_requests") {
		t.Errorf("/metrics = %d", resp.StatusCode)
	}

	status, _ := getJSON(t, f.server.URL+"/nope")
	if status != http.StatusNotFound {
		t.Errorf("unknown path = %d, want 404", status)
	}

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/api/v1/telemetry", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") != "req-123" {
		t.Errorf("request id not echoed: %q", resp.Header.Get("X-Request-ID"))
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}
