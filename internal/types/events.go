package types

type EventType string

const (
	EventConnection      EventType = "connection"
	EventMarketUpdate    EventType = "market_update"
	EventOrderCreated    EventType = "order_created"
	EventOrderUpdated    EventType = "order_updated"
	EventSignalGenerated EventType = "signal_generated"
)

// ConnectionMessage is the acknowledgement body sent to a new subscriber.
const ConnectionMessage = "Connected to trading server"

// Event is the envelope pushed to every subscriber.
type Event struct {
	Type    EventType `json:"type"`
	Data    any       `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
}

// NewEvent stamps an event of type t carrying data.
func NewEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data}
}

// ConnectionEvent is the ack sent to every new subscriber.
func ConnectionEvent() Event {
	return Event{
		Type:    EventConnection,
		Data:    map[string]string{"message": ConnectionMessage},
		Message: ConnectionMessage,
	}
}
