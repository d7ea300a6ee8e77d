package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeChatMessage  MessageType = "chat_message"
	TypeHealthCheck  MessageType = "health_check"
	TypeSystemInfo   MessageType = "system_info"
	TypeHealthStatus MessageType = "health_status"
	TypeChatResponse MessageType = "chat_response"
	TypeError        MessageType = "error"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ChatMessage is a customer message sent over the socket.
type ChatMessage struct {
	Type      MessageType `json:"type"`
	Message   string      `json:"message"`
	SessionID string      `json:"sessionId"`
}

type HealthCheck struct {
	Type MessageType `json:"type"`
}

// SystemInfo is pushed once when a client connects.
type SystemInfo struct {
	Type         MessageType       `json:"type"`
	Message      string            `json:"message"`
	Architecture map[string]string `json:"architecture,omitempty"`
}

type HealthStatus struct {
	Type   MessageType `json:"type"`
	Status any         `json:"status"`
}

// ErrorEvent reports a message the server could not process. Fallback tells
// the client to keep the conversation going locally.
type ErrorEvent struct {
	Type     MessageType `json:"type"`
	Message  string      `json:"message"`
	Fallback bool        `json:"fallback"`
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: message, Fallback: true}
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeChatMessage:
		var msg ChatMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		msg.Message = strings.TrimSpace(msg.Message)
		msg.SessionID = strings.TrimSpace(msg.SessionID)
		if msg.Message == "" || msg.SessionID == "" {
			return nil, errors.New("invalid chat_message: message and sessionId are required")
		}
		return msg, nil
	case TypeHealthCheck:
		return HealthCheck{Type: TypeHealthCheck}, nil
	default:
		return nil, ErrUnsupportedType
	}
}
