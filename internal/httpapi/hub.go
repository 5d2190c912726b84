package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/atomic-chess-arena/pkg/atomicdto"
)

const (
	subscriberBuffer = 32
	pingInterval     = 15 * time.Second
)

// Hub fans state updates out to websocket watchers, one subscriber list
// per room. Slow watchers drop frames instead of blocking the game.
type Hub struct {
	logger *zap.Logger

	mu    sync.RWMutex
	rooms map[string]map[*subscriber]struct{}
}

type subscriber struct {
	send chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger: logger,
		rooms:  map[string]map[*subscriber]struct{}{},
	}
}

// Publish marshals the update once and hands it to every watcher of the
// room. Satisfies arena.Publisher.
func (h *Hub) Publish(room string, update *atomicdto.StateUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		h.logger.Error("hub_marshal_error", zap.String("room", room), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[room] {
		select {
		case sub.send <- data:
		default:
		}
	}
}

// Watchers reports how many connections are subscribed to the room.
func (h *Hub) Watchers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) subscribe(room string) *subscriber {
	sub := &subscriber{send: make(chan []byte, subscriberBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	watchers := h.rooms[room]
	if watchers == nil {
		watchers = map[*subscriber]struct{}{}
		h.rooms[room] = watchers
	}
	watchers[sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(room string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	watchers := h.rooms[room]
	if watchers == nil {
		return
	}
	if _, ok := watchers[sub]; !ok {
		return
	}
	delete(watchers, sub)
	if len(watchers) == 0 {
		delete(h.rooms, room)
	}
	close(sub.send)
}

// ServeLive upgrades the request and streams frames for the room until
// the watcher disconnects. snapshot, when non-nil, is sent first so a
// late joiner sees the current position before the next move lands.
func (h *Hub) ServeLive(w http.ResponseWriter, r *http.Request, room string, snapshot []byte) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Warn("hub_accept_error", zap.String("room", room), zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.subscribe(room)
	defer h.unsubscribe(room, sub)
	h.logger.Debug("hub_watcher_joined", zap.String("room", room))

	if snapshot != nil {
		if err := conn.Write(ctx, websocket.MessageText, snapshot); err != nil {
			_ = conn.Close(websocket.StatusInternalError, "write failed")
			return
		}
	}

	// Writer drains the subscriber channel; pings keep idle watchers alive.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		ping := time.NewTicker(pingInterval)
		defer ping.Stop()
		for {
			select {
			case msg, ok := <-sub.send:
				if !ok {
					return
				}
				if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
					cancel()
					return
				}
			case <-ping.C:
				if err := conn.Ping(ctx); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Watchers send nothing; the read loop only notices the close.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}
	cancel()
	<-writeDone
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	h.logger.Debug("hub_watcher_left", zap.String("room", room))
}
