package models

import (
	"time"

	"github.com/shubhamrasal/jsq/internal/jetstream"
)

// Message is the display shape of a stored message
type Message struct {
	Sequence  uint64
	Subject   string
	Data      []byte
	Timestamp time.Time
	Size      int
}

// FromStoredMsg converts an engine stored message for display
func FromStoredMsg(msg *jetstream.StoredMsg) *Message {
	return &Message{
		Sequence:  msg.Sequence,
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: msg.Time,
		Size:      len(msg.Data),
	}
}
