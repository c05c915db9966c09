package ipc

import (
	"encoding/json"
	"strings"
	"testing"

	"tuishell/internal/notify"
)

func roundTrip(t *testing.T, msg Message) Message {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal %s: %v", msg.Type, err)
	}
	var restored Message
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal %s: %v", msg.Type, err)
	}
	return restored
}

func TestBareMessagesRoundTrip(t *testing.T) {
	for _, msg := range []Message{
		Focus(), Blur(), SessionSave(), RequestFocus(), Ping(), Pong(), Ok(),
	} {
		restored := roundTrip(t, msg)
		if restored.Type != msg.Type {
			t.Fatalf("expected type %q, got %q", msg.Type, restored.Type)
		}
	}
}

func TestResizeRoundTrip(t *testing.T) {
	restored := roundTrip(t, Resize(120, 40))
	if restored.Width != 120 || restored.Height != 40 {
		t.Fatalf("unexpected size: %dx%d", restored.Width, restored.Height)
	}
}

func TestSessionSaveReplyRoundTrip(t *testing.T) {
	restored := roundTrip(t, SessionSaveReply(json.RawMessage(`{"cursor":5}`)))
	if restored.Type != TypeSessionSave || string(restored.State) != `{"cursor":5}` {
		t.Fatalf("unexpected reply: %+v", restored)
	}

	// The bare request still serializes without a state field.
	data, err := json.Marshal(SessionSave())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "state") {
		t.Fatalf("bare save request must omit state: %s", data)
	}
}

func TestSessionRestoreRoundTrip(t *testing.T) {
	state := json.RawMessage(`{"cursor":5,"open_files":["a.go"]}`)
	restored := roundTrip(t, SessionRestore(state))
	if string(restored.State) != string(state) {
		t.Fatalf("state not preserved: %s", restored.State)
	}
}

func TestNotificationRoundTripAndTag(t *testing.T) {
	msg := NotificationMsg(notify.Info("test", "Hello"))
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"type":"notification"`) {
		t.Fatalf("expected notification tag, got %s", data)
	}

	var restored Message
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Notification == nil {
		t.Fatalf("notification payload lost")
	}
	if restored.Notification.Source != "test" || restored.Notification.Message != "Hello" {
		t.Fatalf("unexpected notification: %+v", restored.Notification)
	}
	if restored.Notification.Level != notify.LevelInfo {
		t.Fatalf("level not preserved")
	}
}

func TestDataRoundTrip(t *testing.T) {
	restored := roundTrip(t, Data("shared.theme", json.RawMessage(`"dark"`)))
	if restored.Key != "shared.theme" || string(restored.Value) != `"dark"` {
		t.Fatalf("unexpected data message: %+v", restored)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	restored := roundTrip(t, Command("open", []string{"notes.md", "--readonly"}))
	if restored.Name != "open" || len(restored.Args) != 2 || restored.Args[1] != "--readonly" {
		t.Fatalf("unexpected command message: %+v", restored)
	}
}

func TestErrorRoundTrip(t *testing.T) {
	restored := roundTrip(t, Errorf("launch failed: %s", "no binary"))
	if restored.ErrMessage != "launch failed: no binary" {
		t.Fatalf("unexpected error message: %q", restored.ErrMessage)
	}
}

func TestUnknownTypeDecodesAsError(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"type":"telepathy","x":1}`), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != TypeError {
		t.Fatalf("unknown type must map to error, got %q", msg.Type)
	}
	if !strings.Contains(msg.ErrMessage, "telepathy") {
		t.Fatalf("error should name the unknown type: %q", msg.ErrMessage)
	}
}

func TestSnakeCaseTags(t *testing.T) {
	for msg, want := range map[*Message]string{
		{Type: TypeSessionSave}:  "session_save",
		{Type: TypeRequestFocus}: "request_focus",
	} {
		data, err := json.Marshal(*msg)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !strings.Contains(string(data), `"type":"`+want+`"`) {
			t.Fatalf("expected tag %q in %s", want, data)
		}
	}
}
