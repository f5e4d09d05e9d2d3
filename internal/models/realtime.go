package models

import "encoding/json"

type EventType string

const (
	// EventPresenceUpdate carries the sorted list of online user ids.
	EventPresenceUpdate EventType = "presence-update"
	// EventNewMessage carries a full persisted Message.
	EventNewMessage EventType = "new-message"
)

// Event is the envelope of every frame written on the realtime channel.
type Event struct {
	Type EventType       `json:"event"`
	Data json.RawMessage `json:"data"`
}

func NewPresenceEvent(online []string) Event {
	if online == nil {
		online = []string{}
	}
	// Marshalling a string slice cannot fail.
	data, _ := json.Marshal(online)
	return Event{Type: EventPresenceUpdate, Data: data}
}

func NewMessageEvent(msg Message) Event {
	data, _ := json.Marshal(msg)
	return Event{Type: EventNewMessage, Data: data}
}

func (e Event) DecodePresence() ([]string, error) {
	var online []string
	if err := json.Unmarshal(e.Data, &online); err != nil {
		return nil, err
	}
	return online, nil
}

func (e Event) DecodeMessage() (Message, error) {
	var msg Message
	err := json.Unmarshal(e.Data, &msg)
	return msg, err
}
