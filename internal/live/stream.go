package live

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
)

// StreamHandler serves the live feed over SSE.
type StreamHandler struct {
	broker *Broker
}

// NewStreamHandler constructs a stream handler.
func NewStreamHandler(broker *Broker) *StreamHandler {
	return &StreamHandler{broker: broker}
}

// ServeHTTP handles GET /api/v1/live/stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.broker == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.broker.Subscribe()
	defer h.broker.Unsubscribe(ch)

	_, _ = w.Write([]byte("event: ready\ndata: {}\n\n"))
	flusher.Flush()

	keepAlive := time.NewTicker(pingPeriod)
	defer keepAlive.Stop()
	notify := r.Context().Done()
	for {
		select {
		case payload, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write([]byte("event: kpis\ndata: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

// SocketHandler serves the live feed over WebSocket.
type SocketHandler struct {
	broker   *Broker
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewSocketHandler constructs a WebSocket handler. A nil checkOrigin
// accepts every origin.
func NewSocketHandler(broker *Broker, checkOrigin func(*http.Request) bool, logger *zap.Logger) *SocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocketHandler{
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// ServeHTTP handles GET /api/v1/live/ws.
func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	ch := h.broker.Subscribe()
	closed := make(chan struct{})
	go h.readPump(conn, closed)
	h.writePump(conn, ch, closed)
	h.broker.Unsubscribe(ch)
	_ = conn.Close()
}

// readPump discards client frames and signals when the peer goes away.
func (h *SocketHandler) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *SocketHandler) writePump(conn *websocket.Conn, ch <-chan []byte, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case payload, ok := <-ch:
			if !ok {
				_ = write(conn, websocket.CloseMessage, []byte{})
				return
			}
			if err := write(conn, websocket.TextMessage, payload); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func write(conn *websocket.Conn, messageType int, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(messageType, data)
}
