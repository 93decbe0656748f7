package agent

import (
	"encoding/json"
	"log"

	"github.com/dyluth/ember/internal/command"
	"github.com/dyluth/ember/internal/eventbus"
	"github.com/dyluth/ember/pkg/protocol"
)

// handleFrame routes one console frame. Malformed and unknown frames are
// logged and dropped.
func (e *Engine) handleFrame(frame []byte) {
	log.Printf("[WSc] Received text: %s", frame)

	typ, err := protocol.Peek(frame)
	if err != nil {
		log.Printf("[WSc] Dropping frame: %v", err)
		return
	}

	switch typ {
	case protocol.TypePing:
		var ping protocol.Ping
		if err := json.Unmarshal(frame, &ping); err != nil {
			log.Printf("[WSc] Dropping ping: %v", err)
			return
		}
		e.send(protocol.Pong{
			Type:            protocol.TypePong,
			ID:              ping.ID,
			PingTimestamp:   ping.PingTimestamp,
			ClientTimestamp: e.elapsed(),
		})

	case protocol.TypeTimeSyncRequest:
		received := e.elapsed()
		var req protocol.TimeSyncRequest
		if err := json.Unmarshal(frame, &req); err != nil {
			log.Printf("[WSc] Dropping time sync request: %v", err)
			return
		}
		e.send(protocol.TimeSyncResponse{
			Type:              protocol.TypeTimeSyncResponse,
			ID:                req.ID,
			ServerSendTime:    req.ServerSendTime,
			ClientReceiveTime: received,
			ClientSendTime:    e.elapsed(),
		})

	case protocol.TypeCommand:
		var cmd protocol.Command
		if err := json.Unmarshal(frame, &cmd); err != nil {
			log.Printf("[WSc] Dropping command: %v", err)
			return
		}
		e.handleCommand(cmd)

	default:
		log.Printf("[WSc] Ignoring frame type %q", typ)
	}
}

// handleCommand runs a command through the manager and replies. A filled
// envelope becomes "<name>_response"; otherwise a generic command_response
// carries the handler's outcome.
func (e *Engine) handleCommand(cmd protocol.Command) {
	e.notify(eventbus.NewCommandReceived(cmd.Content))

	p := command.NewPayload(cmd.Data)
	ok := e.mgr.HandleCommand(cmd.Content, p)
	e.handled.Add(1)

	e.notify(eventbus.NewCommandProcessed(cmd.Content, ok))

	if p.Response.Filled() {
		e.send(protocol.Response{
			Type:      protocol.ResponseType(cmd.Content),
			Content:   p.Response.Content,
			Data:      p.Response.Data,
			Timestamp: e.elapsed(),
		})
		log.Printf("[CMD] Handled: %s (ok=%v)", cmd.Content, ok)
		return
	}

	content, status := "Command failed", command.StatusError
	switch {
	case ok:
		content, status = "Command executed", command.StatusOK
	case !e.rt.Commands.Has(cmd.Content):
		content = "Unknown command"
	}
	e.send(protocol.Response{
		Type:      protocol.TypeCommandResponse,
		Content:   content,
		Data:      map[string]any{"status": status},
		Timestamp: e.elapsed(),
	})
	log.Printf("[CMD] %s: %q", content, cmd.Content)
}

// notify publishes an informational event only when someone listens, so an
// unobserved command does not log a missing-subscriber line.
func (e *Engine) notify(ev eventbus.Event) {
	if e.rt.Events.SubscriberCount(ev.Kind) == 0 {
		return
	}
	e.rt.Events.Publish(ev)
}

func (e *Engine) send(v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Printf("[ERROR] Failed to encode reply: %v", err)
		return
	}
	if !e.link.Send(frame) {
		log.Printf("[WSc] Link down or send queue full, dropped: %s", frame)
	}
}
