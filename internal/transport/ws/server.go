// Package ws serves the chat over WebSocket. Every chat frame runs one
// synchronous turn and the reply is fanned out to all sockets bound to the
// session.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/crispai/sitechat/internal/config"
	"github.com/crispai/sitechat/internal/domain"
)

// TurnHandler runs chat turns. *service.Service satisfies it.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
	NewSessionID() string
}

// Server handles WebSocket connections.
type Server struct {
	hub      *Hub
	turns    TurnHandler
	upgrader websocket.Upgrader

	pingInterval   time.Duration
	writeTimeout   time.Duration
	readTimeout    time.Duration
	maxMessageSize int64
	turnTimeout    time.Duration
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *Hub, turns TurnHandler) *Server {
	s := &Server{
		hub:            h,
		turns:          turns,
		pingInterval:   orDefault(cfg.WSPingInterval, 30*time.Second),
		writeTimeout:   orDefault(cfg.WSWriteTimeout, 10*time.Second),
		readTimeout:    orDefault(cfg.WSReadTimeout, 60*time.Second),
		maxMessageSize: cfg.WSMaxMessageSize,
		turnTimeout:    cfg.TurnTimeout(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The site widget is served from other origins.
				return true
			},
		},
	}
	if s.maxMessageSize <= 0 {
		s.maxMessageSize = 65536
	}
	return s
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// HandleWebSocket upgrades the request and starts the connection pumps.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("WARN: failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	ws.SetReadLimit(s.maxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

func (s *Server) readPump(conn *Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WARN: WebSocket error: %v", err)
			}
			return
		}

		s.handleMessage(conn, message)
	}
}

func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(s.pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WARN: failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleMessage(conn *Connection, data []byte) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch base.Type {
	case TypeHello:
		s.handleHello(conn, data)
	case TypeChat:
		s.handleChat(conn, data)
	default:
		s.sendError(conn, base.RequestID, ErrorCodeInvalidMessage, "unknown message type: "+base.Type)
	}
}

func (s *Server) handleHello(conn *Connection, data []byte) {
	var msg HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = s.turns.NewSessionID()
	}
	s.hub.BindSession(conn, sessionID)

	ack := HelloAckMessage{
		BaseMessage: BaseMessage{
			Type:      TypeHelloAck,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: sessionID,
		},
	}
	if err := s.hub.SendJSONToConnection(conn, ack); err != nil {
		log.Printf("WARN: failed to send hello_ack: %v", err)
	}
}

// handleChat runs the turn inline so frames from one socket are served in order.
func (s *Server) handleChat(conn *Connection, data []byte) {
	var msg ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, domain.MessageRequiredText)
		return
	}

	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = conn.SessionID
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.turnTimeout)
	defer cancel()

	resp, err := s.turns.HandleTurn(ctx, domain.ChatRequest{Message: msg.Message, SessionID: sessionID})
	if err != nil {
		if domain.IsValidation(err) {
			s.sendError(conn, msg.RequestID, ErrorCodeInvalidMessage, err.Error())
			return
		}
		log.Printf("ERROR: chat turn failed: %v", err)
		s.sendError(conn, msg.RequestID, ErrorCodeInternalError, domain.InternalErrorText)
		return
	}

	if conn.SessionID != resp.SessionID {
		s.hub.BindSession(conn, resp.SessionID)
	}

	reply := ChatResponseMessage{
		BaseMessage: BaseMessage{
			Type:      TypeChatResponse,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: resp.SessionID,
		},
		Response: resp.Response,
	}
	if err := s.hub.BroadcastJSON(resp.SessionID, reply); err != nil {
		log.Printf("ERROR: failed to broadcast reply: %v", err)
	}
}

func (s *Server) sendError(conn *Connection, requestID, code, message string) {
	errMsg := ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: conn.SessionID,
		},
		Code:    code,
		Message: message,
	}
	if err := s.hub.SendJSONToConnection(conn, errMsg); err != nil {
		log.Printf("WARN: failed to send error frame: %v", err)
	}
}
