// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// producer is a fake telemetry producer. Each accepted stream reads the
// request object and then runs script.
type producer struct {
	t        *testing.T
	requests chan string
	paths    chan string
	script   func(ws *websocket.Conn)
}

func newProducer(t *testing.T, script func(ws *websocket.Conn)) (*httptest.Server, *producer) {
	t.Helper()
	p := &producer{
		t:        t,
		requests: make(chan string, 10),
		paths:    make(chan string, 10),
		script:   script,
	}
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/streams/") {
			http.NotFound(w, r)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		p.paths <- r.URL.Path

		_, req, err := ws.ReadMessage()
		if err != nil {
			return
		}
		p.requests <- string(req)
		p.script(ws)
	}))
	t.Cleanup(srv.Close)
	return srv, p
}

func openStream(t *testing.T, srv *httptest.Server, topic string) (Conn, Stream) {
	t.Helper()
	src, err := NewWebSocketSource(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("NewWebSocketSource: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := src.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	st, err := conn.OpenStream(ctx, topic)
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, st
}

func TestWebSocket_ReceivesRecordsThenEOF(t *testing.T) {
	srv, p := newProducer(t, func(ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"seq":18446744073709551615,"timestampUnixMs":1000}`))
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"seq":"2"}`))
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		// Wait for the client's close reply.
		_, _, _ = ws.ReadMessage()
	})

	_, st := openStream(t, srv, "pose")

	if path := <-p.paths; path != "/streams/pose" {
		t.Errorf("expected /streams/pose, got %s", path)
	}
	if req := <-p.requests; req != "{}" {
		t.Errorf("expected an empty request object, got %q", req)
	}

	rec, err := st.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if seq, _ := rec.Seq("seq"); seq != "18446744073709551615" {
		t.Errorf("expected the 64-bit seq to survive decoding, got %q", seq)
	}

	rec, err = st.Recv()
	if err != nil {
		t.Fatalf("Recv after undecodable message: %v", err)
	}
	if seq, _ := rec.Seq("seq"); seq != "2" {
		t.Errorf("expected seq 2, got %q", seq)
	}

	if _, err := st.Recv(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF on normal closure, got %v", err)
	}
}

func TestWebSocket_AbnormalCloseIsError(t *testing.T) {
	srv, _ := newProducer(t, func(ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "boom"))
		_, _, _ = ws.ReadMessage()
	})

	_, st := openStream(t, srv, "lidar")

	_, err := st.Recv()
	if err == nil || errors.Is(err, io.EOF) {
		t.Errorf("expected a stream error, got %v", err)
	}
}

func TestWebSocket_OversizedMessageEndsStream(t *testing.T) {
	srv, _ := newProducer(t, func(ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"seq":"1","pad":"`+strings.Repeat("x", 4096)+`"}`))
		_, _, _ = ws.ReadMessage()
	})

	src, err := NewWebSocketSource(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("NewWebSocketSource: %v", err)
	}
	src.readLimit = 1024

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := src.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()
	st, err := conn.OpenStream(ctx, "map")
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}

	if _, err := st.Recv(); !errors.Is(err, websocket.ErrReadLimit) {
		t.Errorf("expected ErrReadLimit, got %v", err)
	}
}

func TestNewWebSocketSource_DefaultReadLimit(t *testing.T) {
	src, err := NewWebSocketSource("127.0.0.1:50051")
	if err != nil {
		t.Fatal(err)
	}
	if src.readLimit != wsMaxMessageSize {
		t.Errorf("readLimit = %d, want %d", src.readLimit, wsMaxMessageSize)
	}
}

func TestWebSocket_CancelUnblocksRecv(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newProducer(t, func(ws *websocket.Conn) {
		<-release
	})
	defer close(release)

	_, st := openStream(t, srv, "map")

	errc := make(chan error, 1)
	go func() {
		_, err := st.Recv()
		errc <- err
	}()

	st.Cancel()
	st.Cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrStreamCanceled) {
			t.Errorf("expected ErrStreamCanceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Recv did not return after Cancel")
	}
}

func TestWebSocket_CloseCancelsStreams(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newProducer(t, func(ws *websocket.Conn) {
		<-release
	})
	defer close(release)

	conn, st := openStream(t, srv, "status")

	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := st.Recv(); !errors.Is(err, ErrStreamCanceled) {
		t.Errorf("expected ErrStreamCanceled after Close, got %v", err)
	}
	if _, err := conn.OpenStream(context.Background(), "status"); !errors.Is(err, ErrConnClosed) {
		t.Errorf("expected ErrConnClosed, got %v", err)
	}
}

func TestWebSocket_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	src, err := NewWebSocketSource(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	conn, err := src.Connect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.OpenStream(context.Background(), "pose"); err == nil {
		t.Fatal("expected the handshake to fail")
	} else if !strings.Contains(err.Error(), "HTTP 404") {
		t.Errorf("expected the HTTP status in the error, got %v", err)
	}
}

func TestParseWebSocketAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"127.0.0.1:50051", "ws://127.0.0.1:50051/streams/pose", false},
		{"localhost:50051", "ws://localhost:50051/streams/pose", false},
		{"ws://robot.local:9000", "ws://robot.local:9000/streams/pose", false},
		{"https://robot.local", "wss://robot.local/streams/pose", false},
		{"", "", true},
		{"ftp://robot.local", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			src, err := NewWebSocketSource(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Fatalf("expected ErrInvalidAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := src.StreamURL("pose"); got != tt.want {
				t.Errorf("StreamURL = %q, want %q", got, tt.want)
			}
		})
	}
}
