package mocks

import (
	"context"

	"valentine-server/internal/notification"

	"github.com/stretchr/testify/mock"
)

// Mock PlatformSender
type PlatformSender struct {
	mock.Mock
	platform string
}

func NewPlatformSender(platform string) *PlatformSender {
	return &PlatformSender{platform: platform}
}

func (m *PlatformSender) Send(ctx context.Context, tokens []string, n notification.PushNotification, data map[string]string) error {
	args := m.Called(ctx, tokens, n, data)
	return args.Error(0)
}

func (m *PlatformSender) Platform() string { return m.platform }
