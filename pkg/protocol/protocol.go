// Package protocol defines the JSON text frames exchanged between a device and
// the operator console over the WebSocket link.
//
// Every frame is a JSON object with a "type" member. Timestamps are float
// seconds: the console uses Unix time, the device uses seconds since its
// current connection was established.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Frame types.
const (
	TypePing             = "ping"
	TypePong             = "pong"
	TypeTimeSyncRequest  = "time_sync_request"
	TypeTimeSyncResponse = "time_sync_response"
	TypeCommand          = "command"
	TypeCommandResponse  = "command_response"
)

// ResponseSuffix is appended to a command name to form its reply type.
const ResponseSuffix = "_response"

// ErrNoType is returned by Peek for frames without a "type" member.
var ErrNoType = errors.New("frame has no type")

// ResponseType returns the reply frame type for a command,
// e.g. "set_led" -> "set_led_response".
func ResponseType(command string) string {
	return command + ResponseSuffix
}

// Peek returns the "type" member of a raw frame.
func Peek(raw []byte) (string, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("malformed frame: %w", err)
	}
	if env.Type == "" {
		return "", ErrNoType
	}
	return env.Type, nil
}

// Ping is sent by the console to measure latency.
type Ping struct {
	Type          string          `json:"type"`
	ID            string          `json:"id"`
	PingTimestamp float64         `json:"ping_timestamp"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// Pong answers a Ping, echoing its id and timestamp.
type Pong struct {
	Type            string  `json:"type"`
	ID              string  `json:"id"`
	PingTimestamp   float64 `json:"ping_timestamp"`
	ClientTimestamp float64 `json:"client_timestamp"`
}

// TimeSyncRequest starts a clock-offset exchange.
type TimeSyncRequest struct {
	Type           string  `json:"type"`
	ID             string  `json:"id"`
	ServerSendTime float64 `json:"server_send_time"`
}

// TimeSyncResponse carries the device's receive and send times for a sync.
type TimeSyncResponse struct {
	Type              string  `json:"type"`
	ID                string  `json:"id"`
	ServerSendTime    float64 `json:"server_send_time"`
	ClientSendTime    float64 `json:"client_send_time"`
	ClientReceiveTime float64 `json:"client_receive_time"`
}

// Command asks the device to run a named command. Content is the command
// name; Data is passed to the handler untouched.
type Command struct {
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// CommandData is the data object the console attaches to a Command.
type CommandData struct {
	Arguments []string `json:"arguments"`
}

// NewCommand builds a command frame carrying args as data.arguments.
func NewCommand(name string, args []string, ts float64) (*Command, error) {
	if args == nil {
		args = []string{}
	}
	data, err := json.Marshal(CommandData{Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command data: %w", err)
	}
	return &Command{Type: TypeCommand, Content: name, Timestamp: ts, Data: data}, nil
}

// Response is any device reply that is not a pong or sync response: a
// "<command>_response" or the generic "command_response".
type Response struct {
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Data      map[string]any `json:"data"`
	Timestamp float64        `json:"timestamp"`
}

// Status returns data.status, or "" when absent.
func (r *Response) Status() string {
	s, _ := r.Data["status"].(string)
	return s
}

// Seconds converts a wall-clock time to float Unix seconds.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Elapsed returns d as float seconds, the device-side timestamp format.
func Elapsed(d time.Duration) float64 {
	return d.Seconds()
}
