package ws

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crispai/sitechat/internal/config"
	"github.com/crispai/sitechat/internal/domain"
)

// fakeTurns answers "reply: <message>" and keeps the requested session id.
type fakeTurns struct {
	mu       sync.Mutex
	requests []domain.ChatRequest
	err      error
}

func (f *fakeTurns) HandleTurn(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if req.Message == "" {
		return nil, &domain.ValidationError{Field: "message", Message: domain.MessageRequiredText}
	}
	if f.err != nil {
		return nil, f.err
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "chat_new"
	}
	return &domain.ChatResponse{Response: "reply: " + req.Message, SessionID: sessionID}, nil
}

func (f *fakeTurns) NewSessionID() string {
	return "chat_allocated"
}

func newTestServer(t *testing.T, turns TurnHandler) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	cfg := &config.Config{
		LLMTimeout:       time.Second,
		WSPingInterval:   time.Minute,
		WSWriteTimeout:   time.Second,
		WSReadTimeout:    time.Minute,
		WSMaxMessageSize: 4096,
	}
	srv := NewServer(cfg, hub, turns)

	e := echo.New()
	e.GET("/chat/ws", srv.HandleWebSocket)
	ts := httptest.NewServer(e)

	t.Cleanup(func() {
		ts.Close()
		cancel()
	})

	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/chat/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame[T any](t *testing.T, conn *websocket.Conn) T {
	t.Helper()
	var v T
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&v))
	return v
}

func hello(t *testing.T, conn *websocket.Conn, sessionID string) HelloAckMessage {
	t.Helper()
	require.NoError(t, conn.WriteJSON(HelloMessage{
		BaseMessage: BaseMessage{Type: TypeHello, SessionID: sessionID},
	}))
	return readFrame[HelloAckMessage](t, conn)
}

func TestHelloAllocatesSession(t *testing.T) {
	url := newTestServer(t, &fakeTurns{})
	conn := dial(t, url)

	ack := hello(t, conn, "")
	assert.Equal(t, TypeHelloAck, ack.Type)
	assert.Equal(t, "chat_allocated", ack.SessionID)
}

func TestHelloKeepsGivenSession(t *testing.T) {
	url := newTestServer(t, &fakeTurns{})
	conn := dial(t, url)

	ack := hello(t, conn, "chat_1_abcd1234")
	assert.Equal(t, "chat_1_abcd1234", ack.SessionID)
}

func TestChatUsesBoundSession(t *testing.T) {
	turns := &fakeTurns{}
	url := newTestServer(t, turns)
	conn := dial(t, url)
	hello(t, conn, "s1")

	require.NoError(t, conn.WriteJSON(ChatMessage{
		BaseMessage: BaseMessage{Type: TypeChat, RequestID: "r1"},
		Message:     "hi",
	}))

	resp := readFrame[ChatResponseMessage](t, conn)
	assert.Equal(t, TypeChatResponse, resp.Type)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "r1", resp.RequestID)
	assert.Equal(t, "reply: hi", resp.Response)

	turns.mu.Lock()
	defer turns.mu.Unlock()
	require.Len(t, turns.requests, 1)
	assert.Equal(t, "s1", turns.requests[0].SessionID)
}

func TestChatWithoutHelloBindsResultingSession(t *testing.T) {
	url := newTestServer(t, &fakeTurns{})
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(ChatMessage{
		BaseMessage: BaseMessage{Type: TypeChat},
		Message:     "hi",
	}))

	resp := readFrame[ChatResponseMessage](t, conn)
	assert.Equal(t, "chat_new", resp.SessionID)
	assert.Equal(t, "reply: hi", resp.Response)
}

func TestReplyFansOutToSessionSockets(t *testing.T) {
	url := newTestServer(t, &fakeTurns{})
	first := dial(t, url)
	second := dial(t, url)
	other := dial(t, url)
	hello(t, first, "shared")
	hello(t, second, "shared")
	hello(t, other, "elsewhere")

	require.NoError(t, first.WriteJSON(ChatMessage{
		BaseMessage: BaseMessage{Type: TypeChat},
		Message:     "hello",
	}))

	for _, conn := range []*websocket.Conn{first, second} {
		resp := readFrame[ChatResponseMessage](t, conn)
		assert.Equal(t, "shared", resp.SessionID)
		assert.Equal(t, "reply: hello", resp.Response)
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestInvalidFrames(t *testing.T) {
	url := newTestServer(t, &fakeTurns{})
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	errFrame := readFrame[ErrorMessage](t, conn)
	assert.Equal(t, TypeError, errFrame.Type)
	assert.Equal(t, ErrorCodeInvalidMessage, errFrame.Code)

	require.NoError(t, conn.WriteJSON(BaseMessage{Type: "bogus"}))
	errFrame = readFrame[ErrorMessage](t, conn)
	assert.Equal(t, ErrorCodeInvalidMessage, errFrame.Code)
	assert.Contains(t, errFrame.Message, "bogus")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","message":42}`)))
	errFrame = readFrame[ErrorMessage](t, conn)
	assert.Equal(t, ErrorCodeInvalidMessage, errFrame.Code)
	assert.Equal(t, domain.MessageRequiredText, errFrame.Message)
}

func TestEmptyChatMessage(t *testing.T) {
	url := newTestServer(t, &fakeTurns{})
	conn := dial(t, url)
	hello(t, conn, "s1")

	require.NoError(t, conn.WriteJSON(ChatMessage{BaseMessage: BaseMessage{Type: TypeChat}}))
	errFrame := readFrame[ErrorMessage](t, conn)
	assert.Equal(t, ErrorCodeInvalidMessage, errFrame.Code)
	assert.Equal(t, domain.MessageRequiredText, errFrame.Message)
	assert.Equal(t, "s1", errFrame.SessionID)
}

func TestTurnFailureIsInternalError(t *testing.T) {
	url := newTestServer(t, &fakeTurns{err: errors.New("database is locked")})
	conn := dial(t, url)
	hello(t, conn, "s1")

	require.NoError(t, conn.WriteJSON(ChatMessage{
		BaseMessage: BaseMessage{Type: TypeChat},
		Message:     "hi",
	}))
	errFrame := readFrame[ErrorMessage](t, conn)
	assert.Equal(t, ErrorCodeInternalError, errFrame.Code)
	assert.Equal(t, domain.InternalErrorText, errFrame.Message)
}
