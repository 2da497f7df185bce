package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/pleimann/camel-touch/internal/utils"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Status is the pipeline snapshot served at /state
type Status struct {
	State      string `json:"state"`
	Devices    []int  `json:"devices"`
	Contacts   int    `json:"contacts"`
	Input      string `json:"input"`
	TUIRunning bool   `json:"tui_running"`
	Clients    int    `json:"clients"`
}

// StateFunc reports the pipeline status for /state
type StateFunc func() Status

// Server serves the gesture feed over HTTP
type Server struct {
	hub      *Hub
	state    StateFunc
	upgrader websocket.Upgrader
	router   *gin.Engine
	http     *http.Server
}

// NewServer builds the feed routes around a hub
func NewServer(hub *Hub, state StateFunc) *Server {
	if !utils.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		hub:   hub,
		state: state,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     isSameOrigin,
		},
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ws", s.handleWS)
	r.GET("/state", s.handleState)
	r.GET("/healthz", s.handleHealth)
	s.router = r

	return s
}

// Handler returns the HTTP handler, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves until Shutdown. It returns once the
// listener is bound.
func (s *Server) Start(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.http = &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Warn("feed server stopped: %v", err)
		}
	}()

	utils.Info("gesture feed listening on %s", ln.Addr())
	return ln.Addr(), nil
}

// Shutdown stops the server and disconnects clients
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleState(c *gin.Context) {
	st := Status{State: "unknown"}
	if s.state != nil {
		st = s.state()
	}
	if st.Devices == nil {
		st.Devices = []int{}
	}
	st.Clients = s.hub.Clients()
	c.JSON(http.StatusOK, st)
}

// /ws
func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Verbose("feed: websocket upgrade failed: %v", err)
		return
	}

	cl := s.hub.register(conn)
	utils.Verbose("feed: client connected from %s", conn.RemoteAddr())

	go s.writePump(cl)
	s.readPump(cl)
}

// readPump discards client messages and detects disconnects
func (s *Server) readPump(cl *client) {
	defer s.hub.unregister(cl)

	cl.conn.SetReadLimit(512)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			utils.Verbose("feed: client %s closed: %v", cl.conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *Server) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
