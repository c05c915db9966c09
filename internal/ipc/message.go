// Package ipc carries the shell<->app control protocol: newline-delimited
// JSON envelopes over a per-app unix domain socket.
package ipc

import (
	"encoding/json"
	"fmt"

	"tuishell/internal/notify"
)

// Type discriminates message envelopes on the wire.
type Type string

const (
	// Shell -> app.
	TypeFocus          Type = "focus"
	TypeBlur           Type = "blur"
	TypeResize         Type = "resize"
	TypeSessionSave    Type = "session_save"
	TypeSessionRestore Type = "session_restore"

	// App -> shell.
	TypeNotification Type = "notification"
	TypeRequestFocus Type = "request_focus"
	TypeData         Type = "data"
	TypeCommand      Type = "command"

	// Bidirectional.
	TypePing  Type = "ping"
	TypePong  Type = "pong"
	TypeOk    Type = "ok"
	TypeError Type = "error"
)

// Message is one protocol envelope. Only the fields for its Type are
// meaningful; everything crossing the socket is copied through
// serialization, so a Message never shares state with the peer.
type Message struct {
	Type         Type
	Width        int
	Height       int
	State        json.RawMessage
	Notification *notify.Notification
	Key          string
	Value        json.RawMessage
	Name         string
	Args         []string
	ErrMessage   string
}

func Focus() Message                  { return Message{Type: TypeFocus} }
func Blur() Message                   { return Message{Type: TypeBlur} }
func Ping() Message                   { return Message{Type: TypePing} }
func Pong() Message                   { return Message{Type: TypePong} }
func Ok() Message                     { return Message{Type: TypeOk} }
func RequestFocus() Message           { return Message{Type: TypeRequestFocus} }
func SessionSave() Message            { return Message{Type: TypeSessionSave} }

// SessionSaveReply is the app's answer to a save request, carrying its
// serialized state back to the shell.
func SessionSaveReply(state json.RawMessage) Message {
	return Message{Type: TypeSessionSave, State: state}
}
func Errorf(format string, args ...any) Message {
	return Message{Type: TypeError, ErrMessage: fmt.Sprintf(format, args...)}
}

func Resize(width, height int) Message {
	return Message{Type: TypeResize, Width: width, Height: height}
}

func SessionRestore(state json.RawMessage) Message {
	return Message{Type: TypeSessionRestore, State: state}
}

func NotificationMsg(n notify.Notification) Message {
	return Message{Type: TypeNotification, Notification: &n}
}

func Data(key string, value json.RawMessage) Message {
	return Message{Type: TypeData, Key: key, Value: value}
}

func Command(name string, args []string) Message {
	return Message{Type: TypeCommand, Name: name, Args: args}
}

type resizeWire struct {
	Type   Type `json:"type"`
	Width  int  `json:"width"`
	Height int  `json:"height"`
}

type sessionRestoreWire struct {
	Type  Type            `json:"type"`
	State json.RawMessage `json:"state"`
}

type sessionSaveWire struct {
	Type  Type            `json:"type"`
	State json.RawMessage `json:"state,omitempty"`
}

type notificationWire struct {
	Type Type `json:"type"`
	notify.Notification
}

type dataWire struct {
	Type  Type            `json:"type"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type commandWire struct {
	Type Type     `json:"type"`
	Name string   `json:"name"`
	Args []string `json:"args"`
}

type errorWire struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

type bareWire struct {
	Type Type `json:"type"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case TypeResize:
		return json.Marshal(resizeWire{Type: m.Type, Width: m.Width, Height: m.Height})
	case TypeSessionRestore:
		return json.Marshal(sessionRestoreWire{Type: m.Type, State: m.State})
	case TypeNotification:
		var n notify.Notification
		if m.Notification != nil {
			n = *m.Notification
		}
		return json.Marshal(notificationWire{Type: m.Type, Notification: n})
	case TypeData:
		return json.Marshal(dataWire{Type: m.Type, Key: m.Key, Value: m.Value})
	case TypeCommand:
		return json.Marshal(commandWire{Type: m.Type, Name: m.Name, Args: m.Args})
	case TypeError:
		return json.Marshal(errorWire{Type: m.Type, Message: m.ErrMessage})
	case TypeSessionSave:
		return json.Marshal(sessionSaveWire{Type: m.Type, State: m.State})
	case TypeFocus, TypeBlur, TypeRequestFocus, TypePing, TypePong, TypeOk:
		return json.Marshal(bareWire{Type: m.Type})
	default:
		return nil, fmt.Errorf("marshal ipc message: unknown type %q", m.Type)
	}
}

// UnmarshalJSON decodes an envelope by its type tag. An unrecognized tag
// decodes into an Error message so no conforming peer drops it silently.
func (m *Message) UnmarshalJSON(data []byte) error {
	var tag bareWire
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	*m = Message{Type: tag.Type}
	switch tag.Type {
	case TypeResize:
		var w resizeWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		m.Width, m.Height = w.Width, w.Height
	case TypeSessionRestore:
		var w sessionRestoreWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		m.State = w.State
	case TypeNotification:
		var w notificationWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		n := w.Notification
		m.Notification = &n
	case TypeData:
		var w dataWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		m.Key, m.Value = w.Key, w.Value
	case TypeCommand:
		var w commandWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		m.Name, m.Args = w.Name, w.Args
	case TypeError:
		var w errorWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		m.ErrMessage = w.Message
	case TypeSessionSave:
		var w sessionSaveWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		m.State = w.State
	case TypeFocus, TypeBlur, TypeRequestFocus, TypePing, TypePong, TypeOk:
	default:
		m.Type = TypeError
		m.ErrMessage = fmt.Sprintf("unknown message type: %s", tag.Type)
	}
	return nil
}
