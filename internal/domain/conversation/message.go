package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MessageType 持久化消息类型
type MessageType string

const (
	MessageTypeUser      MessageType = "USER"
	MessageTypeAssistant MessageType = "ASSISTANT"
	MessageTypeSystem    MessageType = "SYSTEM"
	// MessageTypeTool 可读取但不能还原为领域消息
	MessageTypeTool MessageType = "TOOL"
)

// Valid 是否为已知类型
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeUser, MessageTypeAssistant, MessageTypeSystem, MessageTypeTool:
		return true
	}
	return false
}

// UnmarshalJSON 拒绝未知类型
func (t *MessageType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	mt := MessageType(s)
	if !mt.Valid() {
		return fmt.Errorf("unknown message type %q", s)
	}
	*t = mt
	return nil
}

// Role 领域消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message 领域消息
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage 构造用户消息
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage 构造助手消息
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// StoredMessage 持久化消息
type StoredMessage struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

// NewStoredMessage 领域消息 -> 持久化消息
func NewStoredMessage(m Message) (StoredMessage, error) {
	var t MessageType
	switch m.Role {
	case RoleUser:
		t = MessageTypeUser
	case RoleAssistant:
		t = MessageTypeAssistant
	case RoleSystem:
		t = MessageTypeSystem
	default:
		return StoredMessage{}, fmt.Errorf("%w: role %q", ErrUnsupportedMessageType, m.Role)
	}
	return StoredMessage{Type: t, Content: m.Content}, nil
}

// ToMessage 持久化消息 -> 领域消息，TOOL 直接失败
func (s StoredMessage) ToMessage() (Message, error) {
	switch s.Type {
	case MessageTypeUser:
		return Message{Role: RoleUser, Content: s.Content}, nil
	case MessageTypeAssistant:
		return Message{Role: RoleAssistant, Content: s.Content}, nil
	case MessageTypeSystem:
		return Message{Role: RoleSystem, Content: s.Content}, nil
	default:
		return Message{}, fmt.Errorf("%w: %s", ErrUnsupportedMessageType, s.Type)
	}
}

// DecodeContent 解析 content 列
// 空字符串视为空列表
func DecodeContent(content string) ([]StoredMessage, error) {
	if content == "" {
		return []StoredMessage{}, nil
	}
	var messages []StoredMessage
	if err := json.Unmarshal([]byte(content), &messages); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	if messages == nil {
		messages = []StoredMessage{}
	}
	return messages, nil
}

// EncodeContent 序列化消息列表
func EncodeContent(messages []StoredMessage) (string, error) {
	if messages == nil {
		messages = []StoredMessage{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(messages); err != nil {
		return "", fmt.Errorf("failed to encode messages: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
