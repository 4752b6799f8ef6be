// Package websocket serves one letter session per WebSocket connection.
package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "letter_ws_sessions_active",
	Help: "Number of open letter WebSocket sessions.",
})

// SessionManager отслеживает активные сессии письма.
type SessionManager struct {
	sessions map[uuid.UUID]*Session
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewSessionManager(logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger.Named("SessionManager"),
	}
}

func (m *SessionManager) Register(s *Session) {
	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()
	activeSessions.Inc()
	m.logger.Debug("Session registered", zap.String("session_id", s.ID.String()), zap.Int("active", n))
}

func (m *SessionManager) Unregister(s *Session) {
	m.mu.Lock()
	_, ok := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	if ok {
		activeSessions.Dec()
		m.logger.Debug("Session unregistered", zap.String("session_id", s.ID.String()))
	}
}

// Count returns the number of open sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll закрывает соединения всех сессий; read-циклы завершатся сами.
func (m *SessionManager) CloseAll() {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	m.logger.Info("Closing all sessions", zap.Int("count", len(sessions)))
	for _, s := range sessions {
		s.closeConn()
	}
}
