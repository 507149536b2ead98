// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/romanoksyukovski/telegram-mqtt/pkg/chat"
)

func private(text string) chat.Message {
	return chat.Message{ChatID: 42, Text: text, Private: true, IsText: true}
}

func TestParse_ValidCommands(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		kind   Kind
		params map[string]string
	}{
		{
			name:   "connect with host and port",
			text:   "/connect host=test.mosquitto.org port=1883",
			kind:   Connect,
			params: map[string]string{"host": "test.mosquitto.org", "port": "1883"},
		},
		{
			name:   "disconnect without params",
			text:   "/disconnect",
			kind:   Disconnect,
			params: map[string]string{},
		},
		{
			name:   "isconnected",
			text:   "/isconnected",
			kind:   IsConnected,
			params: map[string]string{},
		},
		{
			name:   "subscribe with topic",
			text:   "/subscribe topic=telegram/test01",
			kind:   Subscribe,
			params: map[string]string{"topic": "telegram/test01"},
		},
		{
			name:   "unsubscribe with topic",
			text:   "/unsubscribe topic=telegram/test01",
			kind:   Unsubscribe,
			params: map[string]string{"topic": "telegram/test01"},
		},
		{
			name:   "publish with topic and payload",
			text:   "/publish topic=a/b payload=hi",
			kind:   Publish,
			params: map[string]string{"topic": "a/b", "payload": "hi"},
		},
		{
			name:   "extra whitespace between tokens",
			text:   "  /subscribe   topic=x  ",
			kind:   Subscribe,
			params: map[string]string{"topic": "x"},
		},
		{
			name:   "duplicate keys keep last occurrence",
			text:   "/publish topic=a topic=b payload=p",
			kind:   Publish,
			params: map[string]string{"topic": "b", "payload": "p"},
		},
		{
			name:   "empty value is allowed",
			text:   "/publish topic=a payload=",
			kind:   Publish,
			params: map[string]string{"topic": "a", "payload": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(private(tt.text))
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.text, err)
			}
			if cmd.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", cmd.Kind, tt.kind)
			}
			if !reflect.DeepEqual(cmd.Params, tt.params) {
				t.Errorf("params = %v, want %v", cmd.Params, tt.params)
			}
		})
	}
}

func TestParse_Violations(t *testing.T) {
	tests := []struct {
		name   string
		msg    chat.Message
		reason Reason
	}{
		{
			name:   "group chat",
			msg:    chat.Message{ChatID: 1, Text: "/disconnect", Private: false, IsText: true},
			reason: WrongContext,
		},
		{
			name:   "non-text content",
			msg:    chat.Message{ChatID: 1, Private: true, IsText: false},
			reason: WrongContext,
		},
		{
			name:   "no prefix",
			msg:    private("hello there"),
			reason: MissingPrefix,
		},
		{
			name:   "whitespace only",
			msg:    private("   "),
			reason: MissingPrefix,
		},
		{
			name:   "unknown command",
			msg:    private("/reboot"),
			reason: UnknownCommand,
		},
		{
			name:   "param without equals",
			msg:    private("/subscribe topic"),
			reason: MalformedParam,
		},
		{
			name:   "param with two equals",
			msg:    private("/publish topic=a=b payload=p"),
			reason: MalformedParam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.msg)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want violation", tt.msg.Text)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if verr.Reason != tt.reason {
				t.Errorf("reason = %v, want %v", verr.Reason, tt.reason)
			}
			if verr.ChatText() == "" {
				t.Error("ChatText() is empty")
			}
		})
	}
}

func TestValidationError_ChatText(t *testing.T) {
	err := &ValidationError{Reason: UnknownCommand, Token: "reboot"}
	text := err.ChatText()

	if !strings.Contains(text, "/reboot is not supported") {
		t.Errorf("ChatText() = %q, want it to name the command", text)
	}
	for _, name := range Supported {
		if !strings.Contains(text, "/"+name) {
			t.Errorf("ChatText() = %q, missing supported command /%s", text, name)
		}
	}
}

func TestKind_String(t *testing.T) {
	for name, kind := range kinds {
		if kind.String() != name {
			t.Errorf("Kind(%v).String() = %q, want %q", int(kind), kind.String(), name)
		}
	}
}
