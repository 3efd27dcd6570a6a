package service

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"english_edu_dashboard/internal/exam"
	"english_edu_dashboard/pkg/logger"
	"english_edu_dashboard/pkg/monitoring"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is one frame on the exam event stream.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	MsgEvent    = "EVENT"
	MsgSnapshot = "SNAPSHOT"
)

type hubClient struct {
	hub       *ExamHub
	conn      *websocket.Conn
	send      chan []byte
	workspace *Workspace
	events    <-chan exam.Event
	cancel    func()
	limiter   *rate.Limiter // 限流器
}

// readPump only serves SNAPSHOT requests; anything else is ignored.
func (c *hubClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("exam websocket unexpected close", zap.Error(err), zap.String("sessionId", c.workspace.SessionID))
			}
			return
		}

		if !c.limiter.Allow() {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == MsgSnapshot {
			c.enqueue(WSMessage{Type: MsgSnapshot, Data: c.workspace.Exam.Snapshot()})
		}
	}
}

// forward copies session events into the send queue until the subscription
// ends.
func (c *hubClient) forward() {
	for ev := range c.events {
		c.enqueue(WSMessage{Type: MsgEvent, Data: ev})
	}
	c.hub.unregister(c)
}

func (c *hubClient) enqueue(msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ExamHub streams exam session events to websocket clients.
type ExamHub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

func NewExamHub() *ExamHub {
	return &ExamHub{clients: make(map[*hubClient]struct{})}
}

func (h *ExamHub) register(c *hubClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	monitoring.ExamWSConnections.Inc()
}

// unregister is idempotent; both pumps and the event forwarder call it.
func (h *ExamHub) unregister(c *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()

	c.cancel()
	monitoring.ExamWSConnections.Dec()
}

func (h *ExamHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Stop closes every connection.
func (h *ExamHub) Stop() {
	h.mu.Lock()
	list := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	h.mu.Unlock()

	for _, c := range list {
		h.unregister(c)
	}
	logger.Log.Info("exam hub stopped", zap.Int("closedConnections", len(list)))
}

// ServeWs upgrades the request and streams the workspace's exam events. The
// first frame is a full snapshot.
func (h *ExamHub) ServeWs(w http.ResponseWriter, r *http.Request, ws *Workspace) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("exam websocket upgrade failed", zap.Error(err), zap.String("sessionId", ws.SessionID))
		return
	}

	events, cancel := ws.Exam.Subscribe()
	c := &hubClient{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 64),
		workspace: ws,
		events:    events,
		cancel:    cancel,
		limiter:   rate.NewLimiter(rate.Limit(5), 10), // 每秒5条，允许突发10条
	}
	h.register(c)
	c.enqueue(WSMessage{Type: MsgSnapshot, Data: ws.Exam.Snapshot()})

	go c.writePump()
	go c.readPump()
	go c.forward()
}
