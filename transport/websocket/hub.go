package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Watchers never send anything meaningful; the limit only bounds abuse.
	maxInboundSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Event kinds pushed to watchers.
const (
	EventEvaluation = "evaluation"
	EventReset      = "reset"
)

// Event is the wire format pushed to session watchers. Evaluation is set for
// EventEvaluation; EventReset carries only the fresh runner state.
type Event struct {
	Event      string              `json:"event"`
	SessionID  string              `json:"session_id"`
	Evaluation *engine.Evaluation  `json:"evaluation,omitempty"`
	State      *engine.RunnerState `json:"state,omitempty"`
}

// watcher is one WebSocket connection subscribed to a single session.
type watcher struct {
	hub       *Hub
	conn      *websocket.Conn
	out       chan []byte
	sessionID string
}

// Hub fans evaluation events out to the watchers of each session. All map
// access happens on the Run goroutine; callers interact only through
// channels, so broadcasts are safe from any goroutine.
type Hub struct {
	watchers map[string]map[*watcher]struct{}

	events chan *Event
	join   chan *watcher
	leave  chan *watcher
}

// NewHub creates a hub. Call Run on its own goroutine before serving
// connections.
func NewHub() *Hub {
	return &Hub{
		watchers: make(map[string]map[*watcher]struct{}),
		events:   make(chan *Event),
		join:     make(chan *watcher),
		leave:    make(chan *watcher),
	}
}

// Run drives the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case w := <-h.join:
			h.addWatcher(w)

		case w := <-h.leave:
			h.dropWatcher(w)

		case ev := <-h.events:
			h.deliver(ev)
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to sessionID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed: %v", err)
		return
	}

	wt := &watcher{
		hub:       h,
		conn:      conn,
		out:       make(chan []byte, engine.WebSocketBufferSize),
		sessionID: sessionID,
	}
	h.join <- wt

	go wt.writeLoop()
	go wt.readLoop()
}

// BroadcastEvaluation pushes an evaluation result to everyone watching the
// session. A nil evaluation announces a segment reset.
func (h *Hub) BroadcastEvaluation(sessionID string, evaluation *engine.Evaluation, state *engine.RunnerState) {
	kind := EventEvaluation
	if evaluation == nil {
		kind = EventReset
	}
	h.events <- &Event{
		Event:      kind,
		SessionID:  sessionID,
		Evaluation: evaluation,
		State:      state,
	}
}

func (h *Hub) addWatcher(w *watcher) {
	set := h.watchers[w.sessionID]
	if set == nil {
		set = make(map[*watcher]struct{})
		h.watchers[w.sessionID] = set
	}
	set[w] = struct{}{}

	log.Printf("[WS] watcher joined session %s (%d watching)", w.sessionID, len(set))
}

func (h *Hub) dropWatcher(w *watcher) {
	set, ok := h.watchers[w.sessionID]
	if !ok {
		return
	}
	if _, ok := set[w]; !ok {
		return
	}
	delete(set, w)
	close(w.out)
	if len(set) == 0 {
		delete(h.watchers, w.sessionID)
	}

	log.Printf("[WS] watcher left session %s (%d watching)", w.sessionID, len(set))
}

// deliver marshals the event once and queues it to every watcher of the
// session. Watchers with a full queue are dropped rather than blocked on.
func (h *Hub) deliver(ev *Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[WS] marshal failed: %v", err)
		return
	}

	for w := range h.watchers[ev.SessionID] {
		select {
		case w.out <- data:
		default:
			h.dropWatcher(w)
		}
	}
}

// readLoop discards inbound frames and keeps the pong deadline fresh. The
// protocol is push-only; a read error means the peer is gone.
func (w *watcher) readLoop() {
	defer func() {
		w.hub.leave <- w
		w.conn.Close()
	}()

	w.conn.SetReadLimit(maxInboundSize)
	w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] read error: %v", err)
			}
			return
		}
	}
}

// writeLoop drains the outbound queue and pings on idle.
func (w *watcher) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		w.conn.Close()
	}()

	for {
		select {
		case data, ok := <-w.out:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				w.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
