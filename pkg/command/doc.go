// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

// Package command parses chat text into broker commands.
//
// # Grammar
//
// A command is a single text message in a private chat:
//
//	/connect host=<string> port=<integer>
//	/disconnect
//	/isconnected
//	/subscribe topic=<string>
//	/unsubscribe topic=<string>
//	/publish topic=<string> payload=<string>
//
// The first whitespace-separated word must start with "/" followed by one of
// the six command names. Every following word must be a key=value pair with
// exactly one "=". There is no quoting: values cannot contain spaces or "=".
// Duplicate keys keep the last occurrence.
//
// The parser performs no semantic validation. Required-parameter checks
// belong to the dispatcher because the required set differs per command.
package command
