package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/codegraphd/codegraphd/internal/errs"
)

// Hub broadcasts async push notifications (e.g. "a snapshot just
// completed") to every connected websocket client, generalized from
// cmd/ui.go's package-level wsClients map + wsBroadcast function into a
// reusable type the daemon can own and push to from the applier/snapshot
// path instead of only a file watcher.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	log      *logrus.Entry
}

// NewHub builds an empty Hub.
func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  map[*websocket.Conn]struct{}{},
		log:      log,
	}
}

// ServeWS upgrades r to a websocket connection and registers it for
// broadcasts until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes event to every connected client as a JSON text frame.
func (h *Hub) Broadcast(event string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.WriteControl(websocket.PingMessage, []byte("1"), time.Now().Add(2*time.Second))
		_ = c.WriteMessage(websocket.TextMessage, []byte(event))
	}
}

// Server is the HTTP entry point for the Query/Control API: request/
// response verbs over POST, and a websocket for async push, per spec §4.8
// ("Transport is unspecified; implementers may choose a local socket...").
type Server struct {
	dispatcher *Dispatcher
	hub        *Hub
}

// NewServer builds a Server around dispatcher, reusing hub for push.
func NewServer(dispatcher *Dispatcher, hub *Hub) *Server {
	return &Server{dispatcher: dispatcher, hub: hub}
}

// Handler returns the http.Handler serving /query (POST Request -> JSON
// Response) and /ws (websocket upgrade).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/ws", s.hub.ServeWS)
	return mux
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResponse("", errs.QueryBadInput, err))
		return
	}
	resp := s.dispatcher.Dispatch(req)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
