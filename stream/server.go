// Package stream serves live mesh frames to websocket viewers.
package stream

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// MeshFrame is one broadcast payload: the full mesh projection plus frame
// bookkeeping for the viewer HUD.
type MeshFrame struct {
	Type       string       `json:"type"`
	Frame      int          `json:"frame"`
	Population int          `json:"population"`
	Frozen     int          `json:"frozen"`
	Vertices   [][3]float64 `json:"vertices"`
	Normals    [][3]float64 `json:"normals"`
	Faces      [][3]int32   `json:"faces"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server broadcasts mesh frames to any number of websocket viewers.
// Viewers are write-only; Broadcast drops clients whose writes fail.
type Server struct {
	addr string

	clientsMutex sync.RWMutex
	clients      map[*websocket.Conn]*sync.Mutex

	lastMutex sync.RWMutex
	last      *MeshFrame

	listener   net.Listener
	httpServer *http.Server
}

// New returns a server for the given listen address. Nothing is bound
// until Start.
func New(addr string) *Server {
	return &Server{
		addr:    addr,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Start binds the listen address and serves the /ws endpoint until Close.
// Binding happens synchronously so a bad address fails here rather than in
// the serve goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("stream listen %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = &http.Server{Handler: mux}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("stream server stopped", "error", err)
		}
	}()
	slog.Info("stream server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address, which differs from the configured
// one when the port was 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	s.clientsMutex.Lock()
	s.clients[conn] = connMutex
	s.clientsMutex.Unlock()
	defer func() {
		s.clientsMutex.Lock()
		delete(s.clients, conn)
		s.clientsMutex.Unlock()
	}()

	// New viewers get the latest frame right away rather than waiting out
	// the broadcast cadence.
	s.lastMutex.RLock()
	last := s.last
	s.lastMutex.RUnlock()
	if last != nil {
		connMutex.Lock()
		err := conn.WriteJSON(last)
		connMutex.Unlock()
		if err != nil {
			return
		}
	}

	// Viewers send nothing we act on; the read loop just detects
	// disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends the frame to every connected viewer, dropping the ones
// whose writes fail.
func (s *Server) Broadcast(frame MeshFrame) {
	s.lastMutex.Lock()
	s.last = &frame
	s.lastMutex.Unlock()

	s.clientsMutex.RLock()
	var failed []*websocket.Conn
	for client, mutex := range s.clients {
		mutex.Lock()
		err := client.WriteJSON(frame)
		mutex.Unlock()
		if err != nil {
			slog.Warn("websocket write failed, dropping viewer", "error", err)
			client.Close()
			failed = append(failed, client)
		}
	}
	s.clientsMutex.RUnlock()

	if len(failed) > 0 {
		s.clientsMutex.Lock()
		for _, client := range failed {
			delete(s.clients, client)
		}
		s.clientsMutex.Unlock()
	}
}

// ClientCount returns the number of connected viewers.
func (s *Server) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// Close stops the listener and disconnects every viewer.
func (s *Server) Close() error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Close()
	}
	s.clientsMutex.Lock()
	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
	s.clientsMutex.Unlock()
	return err
}
