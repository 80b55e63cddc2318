package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Message represents a Minecraft JSON chat message.
type Message struct {
	Text          string    `json:"text"`
	Translate     string    `json:"translate,omitempty"`
	With          []Message `json:"with,omitempty"`
	Bold          bool      `json:"bold,omitempty"`
	Italic        bool      `json:"italic,omitempty"`
	Underlined    bool      `json:"underlined,omitempty"`
	Strikethrough bool      `json:"strikethrough,omitempty"`
	Obfuscated    bool      `json:"obfuscated,omitempty"`
	Color         string    `json:"color,omitempty"`
	Extra         []Message `json:"extra,omitempty"`
}

// String serializes the message to JSON.
func (m Message) String() string {
	b, _ := json.Marshal(m)
	return string(b)
}

// messageFields breaks the UnmarshalJSON recursion.
type messageFields Message

// UnmarshalJSON accepts the three shapes servers send: a bare string, an
// object, or an array whose first element is the parent of the rest.
func (m *Message) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("chat: empty component")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Message{Text: s}
		return nil
	case '[':
		var parts []Message
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*m = Message{}
		if len(parts) > 0 {
			*m = parts[0]
			m.Extra = append(m.Extra, parts[1:]...)
		}
		return nil
	default:
		var f messageFields
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*m = Message(f)
		return nil
	}
}

// Parse decodes a JSON chat component.
func Parse(raw string) (Message, error) {
	var m Message
	err := json.Unmarshal([]byte(raw), &m)
	return m, err
}

// PlainText flattens the message to its visible text, dropping formatting.
// Translated components render as their key followed by their arguments.
func (m Message) PlainText() string {
	var sb strings.Builder
	m.writePlain(&sb)
	return sb.String()
}

func (m Message) writePlain(sb *strings.Builder) {
	sb.WriteString(m.Text)
	if m.Translate != "" {
		sb.WriteString(m.Translate)
		for _, arg := range m.With {
			sb.WriteByte(' ')
			arg.writePlain(sb)
		}
	}
	for _, e := range m.Extra {
		e.writePlain(sb)
	}
}

// Text creates a simple text message.
func Text(text string) Message {
	return Message{Text: text}
}

// Colored creates a colored text message.
func Colored(text, color string) Message {
	return Message{Text: text, Color: color}
}

// Translatef creates a translated message with the given arguments.
func Translatef(key string, args ...Message) Message {
	return Message{Translate: key, With: args}
}
