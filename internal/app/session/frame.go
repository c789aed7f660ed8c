package session

import (
	"encoding/json"

	"vcturbo/internal/pkg/errs"
)

// Frame types.
const (
	TypeReply = "reply"
	TypePush  = "push"
)

// Inbound is a frame sent by a client. AckID is echoed on the reply.
type Inbound struct {
	Event string          `json:"event"`
	AckID string          `json:"ackId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Frame is a frame sent to a client: either the reply to an Inbound frame or a
// server-initiated push.
type Frame struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	AckID string `json:"ackId,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Push builds a push frame.
func Push(event string, data any) *Frame {
	return &Frame{Type: TypePush, Event: event, Data: data}
}

// Result is the data object of a reply. The ok flag is always present.
type Result map[string]any

func okResult(kv ...any) Result {
	res := Result{"ok": true}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			res[key] = kv[i+1]
		}
	}
	return res
}

func errorResult(customErr *errs.CustomError) Result {
	return Result{
		"ok":      false,
		"error":   customErr.Reason,
		"kind":    customErr.Kind,
		"code":    customErr.Code,
		"message": customErr.Message,
	}
}

// errorPush is the payload of the "error" push sent for frames that cannot be dispatched.
type errorPush struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
