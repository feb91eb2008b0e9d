package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"wavesurvival/internal/logging"
	"wavesurvival/protocol"
)

// newTestDB opens a fresh database in a temp dir
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// startHub runs a hub until the test ends
func startHub(t *testing.T, ttl time.Duration) *LeaderboardHub {
	t.Helper()
	hub := NewLeaderboardHub(ttl, nil, logging.Discard())
	runHub(t, hub)
	return hub
}

func runHub(t *testing.T, hub *LeaderboardHub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
}

// newFakeClient builds a Client with no socket; frames land in send
func newFakeClient(hub *LeaderboardHub, id string) *Client {
	return &Client{hub: hub, send: make(chan []byte, sendBufSize), id: id}
}

// nextSnapshot waits for one snapshot frame queued for c
func nextSnapshot(t *testing.T, c *Client) []protocol.SnapshotEntry {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		entries, err := protocol.DecodeSnapshot(protocol.JSON, raw)
		require.NoError(t, err)
		return entries
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

// noFrame asserts nothing else is queued for c
func noFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected frame: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

type testServer struct {
	srv      *httptest.Server
	wsURL    string
	hub      *LeaderboardHub
	db       *DB
	auth     *Auth
	activity *Activity
}

// startTestServer wires the full HTTP stack over a temp database
func startTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logging.Discard()
	db := newTestDB(t)
	activity := NewActivity(db, log)
	hub := NewLeaderboardHub(0, activity, log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	auth := NewAuth(db, "test-secret", log)
	cfg := defaultConfig()
	cfg.PublicURL = "https://survival.example"
	mux := SetupRoutes(&Server{
		Config: cfg,
		Hub:    hub,
		API:    &API{db: db, auth: auth, activity: activity, log: log},
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		cancel()
		srv.Close()
		activity.Close()
	})
	return &testServer{
		srv:      srv,
		wsURL:    "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		hub:      hub,
		db:       db,
		auth:     auth,
		activity: activity,
	}
}

func (ts *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	u := ts.wsURL
	if query != "" {
		u += "?" + query
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn, enc protocol.Encoding) []protocol.SnapshotEntry {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	if enc == protocol.MsgPack {
		require.Equal(t, websocket.BinaryMessage, msgType)
	} else {
		require.Equal(t, websocket.TextMessage, msgType)
	}
	entries, err := protocol.DecodeSnapshot(enc, raw)
	require.NoError(t, err)
	return entries
}

func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	raw, err := json.Marshal(protocol.Envelope{T: msgType, Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func (ts *testServer) do(t *testing.T, method, path string, body any, header http.Header) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
