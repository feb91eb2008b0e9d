package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wavesurvival/protocol"
)

func TestWSSnapshotOnConnect(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t, "")
	assert.Empty(t, readSnapshot(t, conn, protocol.JSON))
}

func TestWSReportBroadcastsToEveryone(t *testing.T) {
	ts := startTestServer(t)
	a := ts.dial(t, "")
	readSnapshot(t, a, protocol.JSON)
	b := ts.dial(t, "")
	readSnapshot(t, b, protocol.JSON)

	sendMsg(t, a, protocol.MsgReport, map[string]any{"username": "Player-1a2b3c4d-tab", "score": 250, "wave": 2})

	for _, conn := range []*websocket.Conn{a, b} {
		got := readSnapshot(t, conn, protocol.JSON)
		require.Len(t, got, 1)
		assert.Equal(t, "Player-1a2b3c4d-tab", got[0].Username)
		assert.Equal(t, 250, got[0].Score)
		assert.Equal(t, 2, got[0].Wave)
		assert.NotEmpty(t, got[0].ConnectionID)
	}
}

func TestWSReportCoercesNumbers(t *testing.T) {
	ts := startTestServer(t)
	a := ts.dial(t, "")
	readSnapshot(t, a, protocol.JSON)

	sendMsg(t, a, protocol.MsgReport, map[string]any{"username": "  frank  ", "score": "75", "wave": "abc"})
	got := readSnapshot(t, a, protocol.JSON)
	require.Len(t, got, 1)
	assert.Equal(t, "frank", got[0].Username)
	assert.Equal(t, 75, got[0].Score)
	assert.Equal(t, 0, got[0].Wave)
}

func TestWSMalformedFramesAreDropped(t *testing.T) {
	ts := startTestServer(t)
	a := ts.dial(t, "")
	readSnapshot(t, a, protocol.JSON)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("{not json")))
	sendMsg(t, a, "bogus", nil)
	sendMsg(t, a, protocol.MsgReport, map[string]any{"username": "gina", "score": 5, "wave": 1})

	// the connection survives and the valid report still lands
	got := readSnapshot(t, a, protocol.JSON)
	require.Len(t, got, 1)
	assert.Equal(t, "gina", got[0].Username)
}

func TestWSDisconnectRemovesEntry(t *testing.T) {
	ts := startTestServer(t)
	watcher := ts.dial(t, "")
	readSnapshot(t, watcher, protocol.JSON)

	player := ts.dial(t, "")
	readSnapshot(t, player, protocol.JSON)
	sendMsg(t, player, protocol.MsgReport, map[string]any{"username": "hank", "score": 40, "wave": 1})
	require.Len(t, readSnapshot(t, watcher, protocol.JSON), 1)

	player.Close()
	assert.Empty(t, readSnapshot(t, watcher, protocol.JSON))
}

func TestWSStopRemovesEntry(t *testing.T) {
	ts := startTestServer(t)
	a := ts.dial(t, "")
	readSnapshot(t, a, protocol.JSON)

	sendMsg(t, a, protocol.MsgReport, map[string]any{"username": "ivy", "score": 40, "wave": 1})
	require.Len(t, readSnapshot(t, a, protocol.JSON), 1)
	sendMsg(t, a, protocol.MsgStop, map[string]any{"username": "ivy"})
	assert.Empty(t, readSnapshot(t, a, protocol.JSON))
}

func TestWSMsgpackClients(t *testing.T) {
	ts := startTestServer(t)
	bin := ts.dial(t, "enc=msgpack")
	assert.Empty(t, readSnapshot(t, bin, protocol.MsgPack))
	text := ts.dial(t, "")
	readSnapshot(t, text, protocol.JSON)

	sendMsg(t, text, protocol.MsgReport, map[string]any{"username": "jade", "score": 1200, "wave": 6})

	got := readSnapshot(t, bin, protocol.MsgPack)
	require.Len(t, got, 1)
	assert.Equal(t, "jade", got[0].Username)
	assert.Equal(t, 1200, got[0].Score)
	assert.Equal(t, 6, got[0].Wave)
	readSnapshot(t, text, protocol.JSON)
}

func TestWSPerIPLimit(t *testing.T) {
	ts := startTestServer(t)
	for i := 0; i < maxConnsPerIP; i++ {
		conn := ts.dial(t, "")
		readSnapshot(t, conn, protocol.JSON)
	}
	_, resp, err := websocket.DefaultDialer.Dial(ts.wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWSRateLimitDisconnects(t *testing.T) {
	ts := startTestServer(t)
	a := ts.dial(t, "")
	readSnapshot(t, a, protocol.JSON)

	for i := 0; i <= maxMessagesPerSec; i++ {
		if err := a.WriteMessage(websocket.TextMessage, []byte(`{"t":"noop"}`)); err != nil {
			break
		}
	}

	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := a.ReadMessage(); err != nil {
			assert.False(t, isTimeout(err), "expected the server to close the connection")
			return
		}
	}
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	te, ok := err.(timeout)
	return ok && te.Timeout()
}
