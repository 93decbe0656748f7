package eventbus

import "fmt"

// Kind identifies an event. The set is closed and fixed at build time.
type Kind int

const (
	NetworkConnected Kind = iota
	NetworkDisconnected
	CommandReceived
	CommandProcessed
	LEDStateChanged

	kindCount
)

var kindNames = [...]string{
	NetworkConnected:    "network_connected",
	NetworkDisconnected: "network_disconnected",
	CommandReceived:     "command_received",
	CommandProcessed:    "command_processed",
	LEDStateChanged:     "led_state_changed",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the predefined kinds.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// Kinds returns every predefined kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// NetworkConnectedPayload accompanies NetworkConnected.
type NetworkConnectedPayload struct {
	URL string `json:"url"`
}

// NetworkDisconnectedPayload accompanies NetworkDisconnected.
type NetworkDisconnectedPayload struct {
	Reason string `json:"reason"`
}

// CommandReceivedPayload accompanies CommandReceived.
type CommandReceivedPayload struct {
	Name string `json:"name"`
}

// CommandProcessedPayload accompanies CommandProcessed.
type CommandProcessedPayload struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
}

// LEDStateChangedPayload accompanies LEDStateChanged.
type LEDStateChangedPayload struct {
	Mode       string `json:"mode"`
	Brightness int    `json:"brightness"`
}

// Event is one publication on the bus. Payload is nil or the payload type
// that belongs to Kind.
type Event struct {
	Kind    Kind
	Payload any
}

// Validate checks that the kind is known and that the payload type matches it.
func (e Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown event kind %d", int(e.Kind))
	}
	if e.Payload == nil {
		return nil
	}

	var ok bool
	switch e.Kind {
	case NetworkConnected:
		_, ok = e.Payload.(NetworkConnectedPayload)
	case NetworkDisconnected:
		_, ok = e.Payload.(NetworkDisconnectedPayload)
	case CommandReceived:
		_, ok = e.Payload.(CommandReceivedPayload)
	case CommandProcessed:
		_, ok = e.Payload.(CommandProcessedPayload)
	case LEDStateChanged:
		_, ok = e.Payload.(LEDStateChangedPayload)
	}
	if !ok {
		return fmt.Errorf("payload %T does not match event kind %s", e.Payload, e.Kind)
	}
	return nil
}

// NewNetworkConnected builds a NetworkConnected event.
func NewNetworkConnected(url string) Event {
	return Event{Kind: NetworkConnected, Payload: NetworkConnectedPayload{URL: url}}
}

// NewNetworkDisconnected builds a NetworkDisconnected event.
func NewNetworkDisconnected(reason string) Event {
	return Event{Kind: NetworkDisconnected, Payload: NetworkDisconnectedPayload{Reason: reason}}
}

// NewCommandReceived builds a CommandReceived event.
func NewCommandReceived(name string) Event {
	return Event{Kind: CommandReceived, Payload: CommandReceivedPayload{Name: name}}
}

// NewCommandProcessed builds a CommandProcessed event.
func NewCommandProcessed(name string, ok bool) Event {
	return Event{Kind: CommandProcessed, Payload: CommandProcessedPayload{Name: name, OK: ok}}
}

// NewLEDStateChanged builds a LEDStateChanged event.
func NewLEDStateChanged(mode string, brightness int) Event {
	return Event{Kind: LEDStateChanged, Payload: LEDStateChangedPayload{Mode: mode, Brightness: brightness}}
}
