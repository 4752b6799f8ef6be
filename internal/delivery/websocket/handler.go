package websocket

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"time"

	"valentine-server/internal/domain"
	"valentine-server/internal/letter"
	"valentine-server/internal/submission"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// AnswerRecorder persists an answer under an idempotency key.
type AnswerRecorder interface {
	SubmitResponse(ctx context.Context, answer bool, idempotencyKey string) (*domain.Response, bool, error)
}

// Config описывает сессии, которые создает Handler.
type Config struct {
	Policy         letter.Policy
	SubmitTimeout  time.Duration
	AllowedOrigins []string
	// NewOffsets выдаёт источник смещений на сессию; по умолчанию случайный.
	NewOffsets func() letter.OffsetSource
}

// Handler upgrades requests to letter sessions.
type Handler struct {
	manager  *SessionManager
	recorder AnswerRecorder
	cfg      Config
	// baseCtx отменяется при остановке сервера и прерывает незавершённые сохранения
	baseCtx  context.Context
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHandler(baseCtx context.Context, manager *SessionManager, recorder AnswerRecorder, cfg Config, logger *zap.Logger) *Handler {
	if cfg.NewOffsets == nil {
		cfg.NewOffsets = func() letter.OffsetSource { return letter.NewRandomOffsets(uint64(time.Now().UnixNano())) }
	}
	h := &Handler{
		manager:  manager,
		recorder: recorder,
		cfg:      cfg,
		baseCtx:  baseCtx,
		logger:   logger.Named("WebSocketHandler"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	// страница письма отдаётся этим же сервером
	if u.Host == r.Host {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin)
}

// ServeWS обрабатывает GET /ws/letter.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader уже ответил клиенту
		h.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	id := uuid.New()
	s := &Session{
		ID:      id,
		conn:    conn,
		machine: letter.NewMachine(h.cfg.Policy, h.cfg.NewOffsets()),
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		logger:  h.logger.With(zap.String("session_id", id.String())),
	}
	key := id.String()
	submitter := submission.SubmitterFunc(func(ctx context.Context, answer bool) (*domain.Response, error) {
		resp, _, err := h.recorder.SubmitResponse(ctx, answer, key)
		return resp, err
	})
	s.dispatcher = submission.NewDispatcher(h.baseCtx, submitter, s.onResult,
		submission.WithSubmitTimeout(h.cfg.SubmitTimeout))

	h.manager.Register(s)
	s.logger.Info("WebSocket session established", zap.String("remote_addr", c.ClientIP()))

	go s.writePump()
	s.enqueue(stateMessage(s.machine))
	go s.readPump(h.manager)
}
