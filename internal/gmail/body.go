package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// decodeBase64URL decodes the URL-safe, unpadded base64 variant the mail
// API uses for body payloads. Padded input is tolerated. Anything else
// malformed is a hard error so corrupted content is never shown silently.
func decodeBase64URL(data string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode message payload: %w", err)
	}
	return decoded, nil
}

// FindPartByMIME walks a part forest depth-first in document order and
// returns the first part whose MIME type matches and whose body carries
// data, or nil when no such part exists at any depth. Container and
// attachment parts (no inline data) never match but their subtrees are
// still searched, so a text leaf buried under multipart/mixed →
// multipart/alternative is found the same as a top-level one.
func FindPartByMIME(parts []*gmail.MessagePart, mimeType string) *gmail.MessagePart {
	for _, part := range parts {
		if part == nil {
			continue
		}
		if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
			return part
		}
		if found := FindPartByMIME(part.Parts, mimeType); found != nil {
			return found
		}
	}
	return nil
}

// ResolveBody produces the best human-readable text body for a message.
//
// The fallback order is fixed: a payload carried directly on the root part
// wins (converted when the root is text/html), then the first text/plain
// leaf anywhere in the tree, then the first text/html leaf converted to
// text, then the API snippet, then the empty string. text/plain beats
// text/html no matter where either sits in the tree. An empty result is a
// valid outcome, not an error; only a payload that fails to decode
// reports one.
func ResolveBody(msg *gmail.Message) (string, error) {
	if msg == nil {
		return "", nil
	}
	if msg.Payload == nil {
		return msg.Snippet, nil
	}

	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		data, err := decodeBase64URL(msg.Payload.Body.Data)
		if err != nil {
			return "", err
		}
		if msg.Payload.MimeType == "text/html" {
			return HTMLToText(string(data)), nil
		}
		return string(data), nil
	}

	if part := FindPartByMIME(msg.Payload.Parts, "text/plain"); part != nil {
		data, err := decodeBase64URL(part.Body.Data)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if part := FindPartByMIME(msg.Payload.Parts, "text/html"); part != nil {
		data, err := decodeBase64URL(part.Body.Data)
		if err != nil {
			return "", err
		}
		return HTMLToText(string(data)), nil
	}

	return msg.Snippet, nil
}

// RawHTML returns the decoded text/html content of a message without any
// conversion, or "" when the message carries none. Used where the markup
// itself is wanted (link extraction, --html output).
func RawHTML(msg *gmail.Message) (string, error) {
	if msg == nil || msg.Payload == nil {
		return "", nil
	}
	if msg.Payload.MimeType == "text/html" && msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		data, err := decodeBase64URL(msg.Payload.Body.Data)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if part := FindPartByMIME(msg.Payload.Parts, "text/html"); part != nil {
		data, err := decodeBase64URL(part.Body.Data)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", nil
}

// RawPlainText returns the decoded text/plain content of a message, or ""
// when the message carries none. Unlike ResolveBody it never falls back
// to HTML or the snippet.
func RawPlainText(msg *gmail.Message) (string, error) {
	if msg == nil || msg.Payload == nil {
		return "", nil
	}
	if msg.Payload.MimeType == "text/plain" && msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		data, err := decodeBase64URL(msg.Payload.Body.Data)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if part := FindPartByMIME(msg.Payload.Parts, "text/plain"); part != nil {
		data, err := decodeBase64URL(part.Body.Data)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", nil
}
