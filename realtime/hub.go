package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/school-journal/models"
	"github.com/yeremiapane/school-journal/utils"
)

// Event types
const (
	EventNotification = "notification_created"
	EventUnreadCount  = "unread_count"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub menampung koneksi websocket milik siswa dan mengirim event notifikasi
// hanya ke pemiliknya. A student may hold several connections.
type Hub struct {
	clients map[*websocket.Conn]uint // conn -> student id
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]uint)}
}

// RegisterClient -> menambahkan connection untuk student
func (h *Hub) RegisterClient(conn *websocket.Conn, studentID uint) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = studentID
	utils.InfoLogger.Debugf("Websocket client registered for student %d (%d open)", studentID, len(h.clients))
}

// UnregisterClient -> melepaskan connection
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// NotificationsCreated pushes every new notification to its student.
func (h *Hub) NotificationsCreated(notifications []models.Notification) {
	if len(notifications) == 0 {
		return
	}
	batch := append([]models.Notification(nil), notifications...)
	go func() {
		for _, n := range batch {
			h.SendToStudent(n.StudentID, Message{Event: EventNotification, Data: n})
		}
	}()
}

func (h *Hub) UnreadCountChanged(studentID uint, unread int64) {
	go h.SendToStudent(studentID, Message{
		Event: EventUnreadCount,
		Data:  map[string]int64{"count": unread},
	})
}

// SendToStudent writes msg to every connection of the student. Connections
// that fail to take the write are dropped.
func (h *Hub) SendToStudent(studentID uint, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, owner := range h.clients {
		if owner != studentID {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Errorf("Error sending %s to student %d: %v", msg.Event, studentID, err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
