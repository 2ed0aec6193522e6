package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"nhooyr.io/websocket"

	"scorepad/internal/history"
	"scorepad/internal/session"
	"scorepad/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts    *httptest.Server
	mgr   *session.Manager
	store *storage.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := log.New(io.Discard, "", 0)
	hist := history.New(store, logger)
	mgr := session.NewManager(store, hist, logger)

	webFS := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html><body>test</body></html>")},
	}
	srv := New(mgr, hist, store, webFS)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, mgr: mgr, store: store}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

// doJSON sends body (if not empty) to path and decodes the response into out
// (if not nil). It returns the status code.
func doJSON(t *testing.T, ts *httptest.Server, method, path, body string, out any) int {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

const twoPlayerForm = `{"gameName":"duel","targetScore":500,"playerCount":2,"playerNames":["P1","P2"],"ghaltaValue":50}`

// startGame creates a game through the API and fails the test otherwise.
func startGame(t *testing.T, ts *httptest.Server, form string) session.State {
	t.Helper()
	var st session.State
	if code := doJSON(t, ts, http.MethodPost, "/api/game", form, &st); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	return st
}

func scoreRound(t *testing.T, ts *httptest.Server, scores string) scoreRoundResponse {
	t.Helper()
	var resp scoreRoundResponse
	if code := doJSON(t, ts, http.MethodPost, "/api/game/rounds", `{"scores":`+scores+`}`, &resp); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	return resp
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/game/ws"
}

// wsConnect dials the game feed. The caller is responsible for closing the
// connection.
func wsConnect(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := timeoutCtx(t)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	return conn
}

// readState reads a WebSocket message and expects it to be a "state" message.
func readState(t *testing.T, ctx context.Context, conn *websocket.Conn) session.State {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v", err)
	}
	if msg.Type != "state" {
		t.Fatalf("expected state message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var st session.State
	if err := json.Unmarshal(msg.Payload, &st); err != nil {
		t.Fatalf("unmarshal state payload: %v", err)
	}
	return st
}

func scores(st session.State) []int {
	out := make([]int, len(st.Players))
	for i, p := range st.Players {
		out[i] = p.Score()
	}
	return out
}
