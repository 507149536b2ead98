// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"strings"

	"github.com/romanoksyukovski/telegram-mqtt/pkg/chat"
)

// Kind identifies one of the six supported commands.
type Kind int

const (
	Connect Kind = iota
	Disconnect
	IsConnected
	Subscribe
	Unsubscribe
	Publish
)

func (k Kind) String() string {
	switch k {
	case Connect:
		return "connect"
	case Disconnect:
		return "disconnect"
	case IsConnected:
		return "isconnected"
	case Subscribe:
		return "subscribe"
	case Unsubscribe:
		return "unsubscribe"
	case Publish:
		return "publish"
	default:
		return "unknown"
	}
}

// kinds maps command names to their Kind, in grammar order.
var kinds = map[string]Kind{
	"connect":     Connect,
	"disconnect":  Disconnect,
	"isconnected": IsConnected,
	"subscribe":   Subscribe,
	"unsubscribe": Unsubscribe,
	"publish":     Publish,
}

// Supported lists the command names advertised to users.
var Supported = []string{"connect", "disconnect", "isconnected", "subscribe", "unsubscribe", "publish"}

// Command is one parsed chat command. Transient: built per inbound message
// and discarded after dispatch.
type Command struct {
	Kind   Kind
	Params map[string]string
}

// Reason classifies grammar violations.
type Reason int

const (
	// WrongContext: not a plain text message in a private chat.
	WrongContext Reason = iota
	// MissingPrefix: first word does not start with "/".
	MissingPrefix
	// UnknownCommand: the name after "/" is not a supported command.
	UnknownCommand
	// MalformedParam: a parameter token is not a single key=value pair.
	MalformedParam
)

// ValidationError is a grammar violation. ChatText carries the sentence
// shown to the user; Error is for logs.
type ValidationError struct {
	Reason Reason
	Token  string // offending command name or parameter token, if any
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case WrongContext:
		return "message is not private text"
	case MissingPrefix:
		return "command prefix missing"
	case UnknownCommand:
		return fmt.Sprintf("unknown command %q", e.Token)
	case MalformedParam:
		return fmt.Sprintf("malformed parameter %q", e.Token)
	default:
		return "invalid command"
	}
}

// ChatText renders the user-facing reply for this violation.
func (e *ValidationError) ChatText() string {
	switch e.Reason {
	case WrongContext:
		return "Sorry, but I react only on text commands in private chat ..."
	case MissingPrefix:
		return "Sorry, but a proper command should start with / symbol"
	case UnknownCommand:
		supported := make([]string, len(Supported))
		for i, name := range Supported {
			supported[i] = "/" + name
		}
		return fmt.Sprintf("Command /%s is not supported. These are the supported commands: %s", e.Token, strings.Join(supported, ", "))
	case MalformedParam:
		return "One of the params is provided in the incorrect way. Every param should be {param_name}={param_value}"
	default:
		return "Sorry, I could not understand that command"
	}
}

// Parse turns one inbound chat message into a Command.
// On any grammar violation it returns a *ValidationError and a zero Command.
func Parse(msg chat.Message) (Command, error) {
	if !msg.IsText || !msg.Private {
		return Command{}, &ValidationError{Reason: WrongContext}
	}

	words := strings.Fields(msg.Text)
	if len(words) == 0 || !strings.HasPrefix(words[0], "/") {
		return Command{}, &ValidationError{Reason: MissingPrefix}
	}

	name := words[0][1:]
	kind, ok := kinds[name]
	if !ok {
		return Command{}, &ValidationError{Reason: UnknownCommand, Token: name}
	}

	params := make(map[string]string)
	for _, word := range words[1:] {
		parts := strings.Split(word, "=")
		if len(parts) != 2 {
			return Command{}, &ValidationError{Reason: MalformedParam, Token: word}
		}
		// Duplicate keys: last occurrence wins.
		params[parts[0]] = parts[1]
	}

	return Command{Kind: kind, Params: params}, nil
}
