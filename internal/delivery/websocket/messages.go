package websocket

import (
	"valentine-server/internal/letter"
	"valentine-server/internal/submission"
)

const (
	MessageState  = "state"
	MessageEffect = "effect"
	MessageNotice = "notice"
	MessageError  = "error"
)

// InboundMessage is an intent sent by the page.
type InboundMessage struct {
	Type     string          `json:"type"`
	Viewport letter.Viewport `json:"viewport"`
}

// OutboundMessage is one server frame; Type selects which field is set.
type OutboundMessage struct {
	Type    string         `json:"type"`
	State   *letter.State  `json:"state,omitempty"`
	Phase   letter.Phase   `json:"phase,omitempty"`
	Scene   *letter.Scene  `json:"scene,omitempty"`
	Effect  *EffectPayload `json:"effect,omitempty"`
	Notice  *NoticePayload `json:"notice,omitempty"`
	Message string         `json:"message,omitempty"`

	// YesAvailable: "Yes" принимается и показывается, в том числе после эскалации.
	YesAvailable bool `json:"yes_available,omitempty"`
}

type EffectPayload struct {
	Kind       letter.EffectKind `json:"kind"`
	DurationMS int64             `json:"duration_ms,omitempty"`
}

type NoticePayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func stateMessage(m *letter.Machine) OutboundMessage {
	st := m.State()
	scene := letter.SceneFor(st.Step)
	return OutboundMessage{
		Type:         MessageState,
		State:        &st,
		Phase:        m.Phase(),
		Scene:        &scene,
		YesAvailable: m.YesAvailable(),
	}
}

func effectMessage(e letter.Effect) OutboundMessage {
	return OutboundMessage{
		Type:   MessageEffect,
		Effect: &EffectPayload{Kind: e.Kind, DurationMS: e.Duration.Milliseconds()},
	}
}

func noticeMessage(n submission.Notice) OutboundMessage {
	return OutboundMessage{Type: MessageNotice, Notice: &NoticePayload{Title: n.Title, Body: n.Body}}
}

func errorMessage(msg string) OutboundMessage {
	return OutboundMessage{Type: MessageError, Message: msg}
}
