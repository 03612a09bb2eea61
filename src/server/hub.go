package server

import (
	"encoding/json"
	"net/http"
	"time"

	"stock-dashboard/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// subscription carries a client's new filter (or the reason it was refused)
// into the hub loop.
type subscription struct {
	client *Client
	filter models.MRecordFilter
	err    string
}

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

func (s *DashboardServer) startHub() {
	s.hubOnce.Do(func() { go s.runHub() })
}

// runHub owns the client set. Every channel send to a client happens here.
func (s *DashboardServer) runHub() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.clientCount.Store(int64(len(s.clients)))

		case client := <-s.unregister:
			s.removeClient(client)

		case sub := <-s.subscribe:
			if _, ok := s.clients[sub.client]; !ok {
				continue
			}
			if sub.err != "" {
				s.deliver(sub.client, models.MStockUpdate{Type: "ERROR", Error: sub.err, Timestamp: time.Now().Unix()})
				continue
			}
			sub.client.filter = sub.filter
			filter := sub.filter
			s.deliver(sub.client, models.MStockUpdate{Type: "SUBSCRIBED", Filter: &filter, Timestamp: time.Now().Unix()})

		case result := <-s.broadcast:
			update := models.MStockUpdate{Type: "UPDATE", Result: &result, Timestamp: time.Now().Unix()}
			for client := range s.clients {
				if client.wants(result) {
					s.deliver(client, update)
				}
			}

		case <-s.done:
			for client := range s.clients {
				s.removeClient(client)
			}
			return
		}
	}
}

// -----------------------------------------------------------------------------

// deliver drops clients whose buffer is full so one slow reader cannot stall
// the hub.
func (s *DashboardServer) deliver(client *Client, update models.MStockUpdate) {
	select {
	case client.send <- update:
	default:
		s.Logger.Warning("WebSocket client too slow, disconnecting")
		s.removeClient(client)
	}
}

func (s *DashboardServer) removeClient(client *Client) {
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
		s.clientCount.Store(int64(len(s.clients)))
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues a fetch result for websocket subscribers. It never blocks
// the job runner; results are dropped when the queue is full.
func (s *DashboardServer) Broadcast(result models.MFetchResult) {
	select {
	case s.broadcast <- result:
	default:
		s.Logger.Warning("Broadcast queue full, dropping result for %s", result.Symbol)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	s.startHub()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		send: make(chan models.MStockUpdate, 64),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe command. Unparseable messages close
// the connection; an invalid filter is answered with an ERROR update.
func (s *DashboardServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	sub := subscription{client: client}
	filter, err := ParseFilter(cmd.ForwardPE, cmd.MA50, cmd.MA200)
	if err != nil {
		sub.err = err.Error()
	} else {
		sub.filter = filter
	}

	select {
	case s.subscribe <- sub:
	case <-s.done:
	}
}
