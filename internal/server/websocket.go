package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"scorepad/internal/session"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// feed fans state updates out to every open scoreboard connection.
type feed struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func newFeed() *feed {
	return &feed{subs: make(map[chan []byte]struct{})}
}

func (f *feed) subscribe() chan []byte {
	ch := make(chan []byte, 16)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *feed) unsubscribe(ch chan []byte) {
	f.mu.Lock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
	f.mu.Unlock()
}

func (f *feed) publish(msg []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- msg:
		default:
			// drop message if buffer full
		}
	}
}

// handleWebSocket streams a state message on connect and after every
// change to the game. Incoming messages are ignored.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		log.Printf("websocket accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	send := s.feed.subscribe()
	defer s.feed.unsubscribe(send)

	send <- stateMessage(s.manager.Snapshot())

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for msg := range send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop: only used to notice the client going away
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}
}

// broadcastState pushes the current state to all subscribers and returns it.
func (s *Server) broadcastState() session.State {
	st := s.manager.Snapshot()
	s.feed.publish(stateMessage(st))
	return st
}

func stateMessage(st session.State) []byte {
	p, _ := json.Marshal(st)
	msg, _ := json.Marshal(WSMessage{Type: "state", Payload: p})
	return msg
}
