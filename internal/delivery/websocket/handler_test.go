package websocket_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"valentine-server/internal/delivery/websocket"
	"valentine-server/internal/domain"
	"valentine-server/internal/letter"
	"valentine-server/internal/mocks"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedOffsets struct{}

func (fixedOffsets) Offset(bound letter.Offset) letter.Offset { return bound }

func newServer(t *testing.T, recorder websocket.AnswerRecorder) (*httptest.Server, *websocket.SessionManager) {
	t.Helper()
	return newServerWithPolicy(t, recorder, letter.DefaultPolicy())
}

func newServerWithPolicy(t *testing.T, recorder websocket.AnswerRecorder, p letter.Policy) (*httptest.Server, *websocket.SessionManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	manager := websocket.NewSessionManager(zap.NewNop())
	h := websocket.NewHandler(context.Background(), manager, recorder, websocket.Config{
		Policy:        p,
		SubmitTimeout: time.Second,
		NewOffsets:    func() letter.OffsetSource { return fixedOffsets{} },
	}, zap.NewNop())

	router := gin.New()
	router.GET("/ws/letter", h.ServeWS)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, manager
}

func dial(t *testing.T, srv *httptest.Server) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/letter"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *gorilla.Conn, kind string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(websocket.InboundMessage{
		Type:     kind,
		Viewport: letter.Viewport{Width: 900, Height: 600},
	}))
}

func read(t *testing.T, conn *gorilla.Conn) websocket.OutboundMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg websocket.OutboundMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil skips frames until one of the given type arrives.
func readUntil(t *testing.T, conn *gorilla.Conn, msgType string) websocket.OutboundMessage {
	t.Helper()
	for {
		msg := read(t, conn)
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestSession_YesFlow(t *testing.T) {
	svc := new(mocks.ResponseService)
	saved := make(chan string, 1)
	svc.On("SubmitResponse", mock.Anything, true, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { saved <- args.String(2) }).
		Return(&domain.Response{ID: 1, Answer: true, Timestamp: time.Now()}, false, nil).Once()

	srv, manager := newServer(t, svc)
	conn := dial(t, srv)

	initial := read(t, conn)
	require.Equal(t, websocket.MessageState, initial.Type)
	assert.Equal(t, letter.PhaseNarrating, initial.Phase)
	assert.Equal(t, "intro", initial.Scene.Key)

	send(t, conn, "advance")
	send(t, conn, "advance")
	st := readUntil(t, conn, websocket.MessageState)
	st = readUntil(t, conn, websocket.MessageState)
	assert.Equal(t, letter.PhasePresenting, st.Phase)
	assert.Equal(t, "question", st.Scene.Key)

	send(t, conn, "choose_yes")
	effect := readUntil(t, conn, websocket.MessageEffect)
	assert.Equal(t, letter.EffectCelebrate, effect.Effect.Kind)
	assert.Equal(t, int64(3000), effect.Effect.DurationMS)

	st = readUntil(t, conn, websocket.MessageState)
	assert.Equal(t, letter.PhaseAnswered, st.Phase)

	select {
	case key := <-saved:
		assert.NotEmpty(t, key)
	case <-time.After(5 * time.Second):
		t.Fatal("answer was not submitted")
	}

	// повторный выбор ничего не отправляет
	send(t, conn, "choose_yes")
	st = readUntil(t, conn, websocket.MessageState)
	assert.Equal(t, letter.PhaseAnswered, st.Phase)
	assert.Equal(t, 1, manager.Count())

	conn.Close()
	require.Eventually(t, func() bool { return manager.Count() == 0 }, 5*time.Second, 20*time.Millisecond)
	svc.AssertExpectations(t)
}

func TestSession_EvasionAndEscalation(t *testing.T) {
	svc := new(mocks.ResponseService)
	srv, _ := newServer(t, svc)
	conn := dial(t, srv)
	read(t, conn)

	send(t, conn, "advance")
	send(t, conn, "advance")
	readUntil(t, conn, websocket.MessageState)
	readUntil(t, conn, websocket.MessageState)

	send(t, conn, "hover_no")
	st := readUntil(t, conn, websocket.MessageState)
	assert.Equal(t, 1, st.State.EvasionCount)
	assert.Equal(t, letter.Offset{X: 300, Y: 200}, st.State.EvasionOffset)
	assert.InDelta(t, 1.2, st.State.PositiveEmphasis, 1e-9)

	for range 4 {
		send(t, conn, "choose_no")
		st = readUntil(t, conn, websocket.MessageState)
	}
	assert.Equal(t, letter.PhaseEscalated, st.Phase)
	assert.False(t, st.State.Answer.IsSet())

	send(t, conn, "reset")
	st = readUntil(t, conn, websocket.MessageState)
	assert.Equal(t, letter.PhaseNarrating, st.Phase)
	assert.Equal(t, 0, st.State.EvasionCount)

	svc.AssertNotCalled(t, "SubmitResponse", mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_YesAfterEscalation(t *testing.T) {
	escalate := func(t *testing.T, conn *gorilla.Conn) websocket.OutboundMessage {
		t.Helper()
		st := read(t, conn)
		assert.False(t, st.YesAvailable, "narrating")
		send(t, conn, "advance")
		send(t, conn, "advance")
		readUntil(t, conn, websocket.MessageState)
		st = readUntil(t, conn, websocket.MessageState)
		assert.True(t, st.YesAvailable, "presenting")
		for range 5 {
			send(t, conn, "hover_no")
			st = readUntil(t, conn, websocket.MessageState)
		}
		require.Equal(t, letter.PhaseEscalated, st.Phase)
		return st
	}

	t.Run("Disabled by default", func(t *testing.T) {
		svc := new(mocks.ResponseService)
		srv, _ := newServer(t, svc)
		conn := dial(t, srv)

		st := escalate(t, conn)
		assert.False(t, st.YesAvailable)

		send(t, conn, "choose_yes")
		st = readUntil(t, conn, websocket.MessageState)
		assert.Equal(t, letter.PhaseEscalated, st.Phase)
		assert.False(t, st.State.Answer.IsSet())
		svc.AssertNotCalled(t, "SubmitResponse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Enabled by policy", func(t *testing.T) {
		svc := new(mocks.ResponseService)
		saved := make(chan bool, 1)
		svc.On("SubmitResponse", mock.Anything, true, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { saved <- args.Bool(1) }).
			Return(&domain.Response{ID: 7, Answer: true, Timestamp: time.Now()}, false, nil).Once()

		p := letter.DefaultPolicy()
		p.YesAfterEscalation = true
		srv, _ := newServerWithPolicy(t, svc, p)
		conn := dial(t, srv)

		st := escalate(t, conn)
		assert.True(t, st.YesAvailable)

		send(t, conn, "choose_yes")
		effect := readUntil(t, conn, websocket.MessageEffect)
		assert.Equal(t, letter.EffectCelebrate, effect.Effect.Kind)
		st = readUntil(t, conn, websocket.MessageState)
		assert.Equal(t, letter.PhaseAnswered, st.Phase)
		assert.Equal(t, letter.AnswerYes, st.State.Answer)
		assert.False(t, st.YesAvailable)

		select {
		case answer := <-saved:
			assert.True(t, answer)
		case <-time.After(5 * time.Second):
			t.Fatal("answer was not submitted")
		}
	})
}

func TestSession_SaveFailureProducesNotice(t *testing.T) {
	svc := new(mocks.ResponseService)
	svc.On("SubmitResponse", mock.Anything, true, mock.Anything).
		Return(nil, false, errors.New("db down")).Once()

	srv, _ := newServer(t, svc)
	conn := dial(t, srv)
	read(t, conn)
	send(t, conn, "advance")
	send(t, conn, "advance")
	send(t, conn, "choose_yes")

	notice := readUntil(t, conn, websocket.MessageNotice)
	assert.Equal(t, letter.NoticeTitle, notice.Notice.Title)
	assert.Equal(t, letter.NoticeBody, notice.Notice.Body)
}

func TestSession_UnknownIntent(t *testing.T) {
	srv, _ := newServer(t, new(mocks.ResponseService))
	conn := dial(t, srv)
	read(t, conn)

	send(t, conn, "dance")
	msg := read(t, conn)
	assert.Equal(t, websocket.MessageError, msg.Type)
	assert.Contains(t, msg.Message, "unknown intent")
}
