package command

import (
	"bytes"
	"encoding/json"
)

// Response status values carried in the envelope's data.status field.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Payload is what a handler receives: the raw "data" object of the inbound
// command and the envelope the handler fills in as its reply.
type Payload struct {
	Data     json.RawMessage
	Response *Response
}

// NewPayload wraps raw command arguments with a fresh response envelope.
func NewPayload(data json.RawMessage) *Payload {
	return &Payload{
		Data:     data,
		Response: NewResponse(),
	}
}

// HasData reports whether the payload carries a non-null data object.
func (p *Payload) HasData() bool {
	if p == nil {
		return false
	}
	trimmed := bytes.TrimSpace(p.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Response is the {content, data:{status, ...}} envelope a handler reports back.
type Response struct {
	Content string         `json:"content"`
	Data    map[string]any `json:"data"`
}

// NewResponse returns an empty envelope.
func NewResponse() *Response {
	return &Response{Data: make(map[string]any)}
}

// Status returns data.status, or "" when the handler never set it.
func (r *Response) Status() string {
	if r == nil || r.Data == nil {
		return ""
	}
	s, _ := r.Data["status"].(string)
	return s
}

// Filled reports whether a handler has written anything to the envelope.
func (r *Response) Filled() bool {
	return r != nil && (r.Content != "" || r.Status() != "")
}

// Arguments is the "arguments" member of a command's data object. Senders use
// either a JSON array of strings or a single string; "" means no arguments.
type Arguments []string

// UnmarshalJSON accepts a string array, a single string, or null.
func (a *Arguments) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*a = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s == "" {
			*a = nil
		} else {
			*a = Arguments{s}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return err
	}
	*a = list
	return nil
}

// First returns the first argument, or "" when there is none.
func (a Arguments) First() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}
