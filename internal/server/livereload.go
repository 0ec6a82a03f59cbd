package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mdocs/mdocs/internal/site"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type reloadMessage struct {
	Type    string   `json:"type"`
	BuildID string   `json:"build_id,omitempty"`
	Pages   []string `json:"pages,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan reloadMessage
}

// LivereloadHub fans build notifications out to connected browsers.
type LivereloadHub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func NewLivereloadHub() *LivereloadHub {
	return &LivereloadHub{clients: make(map[*wsClient]struct{})}
}

func (h *LivereloadHub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *LivereloadHub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// ClientCount reports how many browsers are connected.
func (h *LivereloadHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// NotifyBuild broadcasts a reload for the given build. Slow clients are
// skipped rather than blocking the broadcast.
func (h *LivereloadHub) NotifyBuild(res *site.BuildResult) {
	h.broadcast(reloadMessage{Type: "reload", BuildID: res.BuildID, Pages: res.Pages})
}

// NotifyPages broadcasts a reload for individually changed pages.
func (h *LivereloadHub) NotifyPages(pages []string) {
	h.broadcast(reloadMessage{Type: "reload", Pages: pages})
}

func (h *LivereloadHub) broadcast(msg reloadMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
		}
	}
}

// Handler upgrades the connection and pumps messages until the client
// goes away. Reads only service pings, the protocol is one way.
func (h *LivereloadHub) Handler(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	logger := logutil.GetLogger(c.Request.Context())
	client := &wsClient{conn: conn, send: make(chan reloadMessage, 8)}
	h.register(client)
	defer func() {
		h.unregister(client)
		conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-client.send:
				if !ok {
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	}
	// unregister before closing send so a concurrent broadcast cannot
	// hit the closed channel
	h.unregister(client)
	close(client.send)
	<-done
	logger.Debug("livereload client disconnected", zap.Int("clients", h.ClientCount()))
}
