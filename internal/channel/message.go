package channel

import (
	"bytes"
	"encoding/json"
	"strings"
)

const MaxRequestId = 4294967295

type request struct {
	Id       uint32 `json:"id"`
	Method   string `json:"method"`
	TargetId string `json:"targetId,omitempty"`
	Data     any    `json:"data,omitempty"`
}

type notification struct {
	Event    string `json:"event"`
	TargetId string `json:"targetId,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// message is either a response or a notification sent by the worker.
type message struct {
	Id       uint32          `json:"id,omitempty"`
	Accepted bool            `json:"accepted,omitempty"`
	Error    string          `json:"error,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	TargetId json.RawMessage `json:"targetId,omitempty"`
	Event    string          `json:"event,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

func (m *message) isResponse() bool {
	return m.Id > 0
}

// target returns the notification target, which is a string entity id or the
// numeric pid of the worker.
func (m *message) target() string {
	raw := bytes.TrimSpace(m.TargetId)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return strings.TrimSuffix(string(raw), ".0")
}

// Response is the accepted body of a request.
type Response struct {
	Data json.RawMessage
}

// Unmarshal decodes the response body into v. An empty body leaves v untouched.
func (r Response) Unmarshal(v any) error {
	if len(r.Data) == 0 || v == nil {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

type result struct {
	resp Response
	err  error
}
