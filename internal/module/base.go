package module

import (
	"encoding/json"
	"log"

	"github.com/dyluth/ember/internal/command"
)

// Base carries the helpers every module gets for free. Embed it and construct
// it with NewBase.
type Base struct {
	name string
}

// NewBase returns a Base reporting name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the module name.
func (b *Base) Name() string {
	return b.name
}

// Logf logs with the module name as prefix.
func (b *Base) Logf(format string, args ...any) {
	log.Printf("["+b.name+"] "+format, args...)
}

// BuildResponse fills resp with message and status, then merges extra into
// data. A "status" key in extra overrides status.
func (b *Base) BuildResponse(resp *command.Response, status, message string, extra map[string]any) {
	if resp == nil {
		return
	}
	if resp.Data == nil {
		resp.Data = make(map[string]any, len(extra)+1)
	}

	resp.Content = message
	resp.Data["status"] = status
	for k, v := range extra {
		resp.Data[k] = v
	}
}

// DecodeData splits p into typed arguments and the response envelope.
// When out is non-nil the data object is unmarshalled into it. Fails when the
// payload is nil, has no data object, has no response envelope, or the data
// does not decode.
func (b *Base) DecodeData(p *command.Payload, out any) (*command.Response, bool) {
	if p == nil {
		b.Logf("Invalid data (nil payload).")
		return nil, false
	}
	if !p.HasData() || p.Response == nil {
		b.Logf("Failed to extract data or response objects.")
		return nil, false
	}
	if out != nil {
		if err := json.Unmarshal(p.Data, out); err != nil {
			b.Logf("Failed to decode data: %v", err)
			return nil, false
		}
	}
	return p.Response, true
}

// ResponseFor returns the envelope of an argument-less command.
func (b *Base) ResponseFor(p *command.Payload) (*command.Response, bool) {
	if p == nil || p.Response == nil {
		b.Logf("Missing response object.")
		return nil, false
	}
	return p.Response, true
}
