package models

import (
	"time"

	"github.com/shubhamrasal/jsq/internal/jetstream"
)

// Stream is the display shape of a JetStream stream
type Stream struct {
	Name      string
	Subjects  []string
	Retention string // limits, interest, workqueue
	Storage   string // file, memory
	Replicas  int
	MaxAge    time.Duration
	Messages  uint64
	Bytes     uint64
	FirstSeq  uint64
	LastSeq   uint64
	Consumers int
	Created   time.Time
}

// FromStreamInfo converts engine stream info for display
func FromStreamInfo(info *jetstream.StreamInfo) *Stream {
	return &Stream{
		Name:      info.Config.Name,
		Subjects:  info.Config.Subjects,
		Retention: string(info.Config.Retention),
		Storage:   string(info.Config.Storage),
		Replicas:  info.Config.Replicas,
		MaxAge:    info.Config.MaxAge,
		Messages:  info.State.Msgs,
		Bytes:     info.State.Bytes,
		FirstSeq:  info.State.FirstSeq,
		LastSeq:   info.State.LastSeq,
		Consumers: info.State.Consumers,
		Created:   info.Created,
	}
}
