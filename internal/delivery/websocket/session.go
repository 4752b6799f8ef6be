package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"valentine-server/internal/letter"
	"valentine-server/internal/submission"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Отправлять пинги клиенту с этим периодом. Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер сообщения, разрешенный от клиента.
	maxMessageSize = 512
	sendBuffer     = 32
)

var intentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "letter_intents_total",
		Help: "Intents received from letter sessions by kind.",
	},
	[]string{"kind"},
)

// Session is one reader connected to the letter. Only readPump touches the machine.
type Session struct {
	ID         uuid.UUID
	conn       *websocket.Conn
	machine    *letter.Machine
	dispatcher *submission.Dispatcher
	send       chan []byte
	// done закрывается при выходе из readPump; send никогда не закрывается
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

func (s *Session) closeConn() {
	s.closeOnce.Do(func() { _ = s.conn.Close() })
}

// enqueue blocks until the frame is queued or the session ends.
func (s *Session) enqueue(msg OutboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Failed to marshal outbound message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case s.send <- data:
	case <-s.done:
	}
}

// onResult runs on the dispatcher goroutine; a failure only produces a notice.
func (s *Session) onResult(res submission.Result) {
	if res.OK() {
		s.logger.Info("Answer saved", zap.Int64("response_id", res.Response.ID), zap.Bool("answer", res.Answer))
		return
	}
	s.logger.Warn("Answer was not saved", zap.Bool("answer", res.Answer), zap.Error(res.Err))
	if res.Notice != nil {
		s.enqueue(noticeMessage(*res.Notice))
	}
}

func (s *Session) handle(raw []byte) {
	var in InboundMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		s.enqueue(errorMessage("malformed message"))
		return
	}
	kind, err := letter.ParseIntentKind(in.Type)
	if err != nil {
		s.logger.Debug("Unknown intent", zap.String("type", in.Type))
		s.enqueue(errorMessage(err.Error()))
		return
	}
	intentsTotal.WithLabelValues(string(kind)).Inc()

	effects := s.machine.Apply(letter.Intent{Kind: kind, Viewport: in.Viewport})
	for _, e := range effects {
		switch e.Kind {
		case letter.EffectSubmitAnswer:
			if !s.dispatcher.Dispatch(e.Answer) {
				s.logger.Warn("Duplicate submit effect ignored")
			}
		case letter.EffectCelebrate:
			s.enqueue(effectMessage(e))
		}
	}
	s.enqueue(stateMessage(s.machine))
}

// readPump откачивает интенты из соединения и применяет их к машине.
func (s *Session) readPump(manager *SessionManager) {
	defer func() {
		close(s.done)
		manager.Unregister(s)
		s.closeConn()
		// ответ уже отдан: дожидаемся сохранения, отмена только по остановке сервера
		s.dispatcher.Wait()
		s.logger.Info("Session finished", zap.String("phase", string(s.machine.Phase())))
	}()
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				s.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		s.handle(message)
	}
}

// writePump откачивает сообщения из канала send в WebSocket соединение.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.closeConn()
	}()
	for {
		select {
		case message := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Debug("Failed to write message", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
