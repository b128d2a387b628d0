package comms

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 20 * time.Second
	wsWriteWait  = 10 * time.Second
)

// wsConn adapts a websocket connection to io.ReadWriteCloser. Every text
// frame read becomes one line; every Write becomes one text frame.
type wsConn struct {
	ws *websocket.Conn
	r  io.Reader

	wlock sync.Mutex
	done  chan struct{}
	once  sync.Once
}

// NewWebSocketConn wraps ws so a Session can use it. It also keeps the
// connection alive with pings until closed.
func NewWebSocketConn(ws *websocket.Conn) io.ReadWriteCloser {
	c := &wsConn{ws: ws, done: make(chan struct{})}
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go c.ping()
	return c
}

func (c *wsConn) ping() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.wlock.Lock()
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err := c.ws.WriteMessage(websocket.PingMessage, nil)
			c.wlock.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				var closeErr *websocket.CloseError
				if errors.As(err, &closeErr) {
					return 0, io.EOF
				}
				return 0, err
			}
			c.r = io.MultiReader(r, strings.NewReader("\n"))
		}
		n, err := c.r.Read(p)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.wlock.Lock()
	defer c.wlock.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, bytes.TrimRight(p, "\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() (err error) {
	c.once.Do(func() {
		close(c.done)
		c.wlock.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsWriteWait))
		c.wlock.Unlock()
		err = c.ws.Close()
	})
	return
}

// WebSocketServer lets browser renderers join the same session handler
// as the unix socket clients. Routes:
//
//	/ws       upgrade to a websocket session
//	/healthz  liveness probe
type WebSocketServer struct {
	sh       SessionHandler
	sessions SessionCollection
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// NewWebSocketServer creates a WebSocketServer handing sessions to sh.
// sessions, if not nil, is reported by /healthz.
func NewWebSocketServer(sh SessionHandler, sessions SessionCollection) *WebSocketServer {
	s := &WebSocketServer{
		sh:       sh,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Hot-seat play on one screen; any local page may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/ws", s.handleWS)
	return s
}

// ServeHTTP implements http.Handler.
func (s *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *WebSocketServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}{"ok", s.Sessions()})
}

func (s *WebSocketServer) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade error")
		return
	}
	sess := NewSession(NewSessionID(), NewWebSocketConn(ws))
	log.Debug().Str("session", sess.ID()).Str("remote", r.RemoteAddr).Msg("websocket session opened")
	serveSession(sess, s.sh)
}

// Sessions returns the number of sessions known, or -1 if the server
// was not given a collection.
func (s *WebSocketServer) Sessions() int {
	if s.sessions == nil {
		return -1
	}
	return s.sessions.Len()
}
