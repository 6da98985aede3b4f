package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type client struct {
	userID int64
	conn   *websocket.Conn
}

type userMessage struct {
	userID  int64
	payload []byte
}

// HubService tracks the websocket connections of logged-in users so pest
// alerts can be pushed to them while they have the app open. A user may
// hold several connections at once.
type HubService struct {
	clients    map[int64]map[*websocket.Conn]bool
	send       chan userMessage
	register   chan client
	unregister chan client
	mutex      sync.RWMutex
	logger     *zap.Logger
}

func NewHubService(logger *zap.Logger) *HubService {
	return &HubService{
		clients:    make(map[int64]map[*websocket.Conn]bool),
		send:       make(chan userMessage),
		register:   make(chan client),
		unregister: make(chan client),
		logger:     logger,
	}
}

func (h *HubService) Run() {
	for {
		select {
		case c := <-h.register:
			h.mutex.Lock()
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*websocket.Conn]bool)
			}
			h.clients[c.userID][c.conn] = true
			h.mutex.Unlock()
			h.logger.Info("client connected", zap.Int64("user_id", c.userID))

		case c := <-h.unregister:
			h.mutex.Lock()
			if conns, ok := h.clients[c.userID]; ok {
				if _, ok := conns[c.conn]; ok {
					delete(conns, c.conn)
					c.conn.Close()
					if len(conns) == 0 {
						delete(h.clients, c.userID)
					}
				}
			}
			h.mutex.Unlock()
			h.logger.Info("client disconnected", zap.Int64("user_id", c.userID))

		case msg := <-h.send:
			h.mutex.RLock()
			for conn := range h.clients[msg.userID] {
				if err := conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					h.logger.Error("error sending message", zap.Int64("user_id", msg.userID), zap.Error(err))
					delete(h.clients[msg.userID], conn)
					conn.Close()
				}
			}
			h.mutex.RUnlock()
		}
	}
}

func (h *HubService) Register(userID int64, conn *websocket.Conn) {
	h.register <- client{userID: userID, conn: conn}
}

func (h *HubService) Unregister(userID int64, conn *websocket.Conn) {
	h.unregister <- client{userID: userID, conn: conn}
}

// SendToUser delivers a message to every open connection of the user.
// A user with no connections is a silent no-op.
func (h *HubService) SendToUser(userID int64, message []byte) {
	h.send <- userMessage{userID: userID, payload: message}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for _, conns := range h.clients {
		count += len(conns)
	}
	return count
}
