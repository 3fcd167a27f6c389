package models

import (
	"time"

	"github.com/shubhamrasal/jsq/internal/jetstream"
)

// Consumer is the display shape of a JetStream consumer
type Consumer struct {
	Name           string
	Stream         string
	Durable        string
	FilterSubject  string
	DeliverSubject string
	DeliverPolicy  string // all, last, new, by_start_sequence, by_start_time, last_per_subject
	AckPolicy      string // none, all, explicit
	ReplayPolicy   string // instant, original
	AckWait        time.Duration
	MaxDeliver     int64
	MaxAckPending  int64
	NumPending     uint64
	NumAckPending  int
	NumRedelivered int
	NumWaiting     int
}

// FromConsumerInfo converts engine consumer info for display
func FromConsumerInfo(info *jetstream.ConsumerInfo) *Consumer {
	return &Consumer{
		Name:           info.Name,
		Stream:         info.Stream,
		Durable:        info.Config.Durable(),
		FilterSubject:  info.Config.FilterSubject(),
		DeliverSubject: info.Config.DeliverSubject(),
		DeliverPolicy:  string(info.Config.DeliverPolicy()),
		AckPolicy:      string(info.Config.AckPolicy()),
		ReplayPolicy:   string(info.Config.ReplayPolicy()),
		AckWait:        info.Config.AckWait(),
		MaxDeliver:     info.Config.MaxDeliver(),
		MaxAckPending:  info.Config.MaxAckPending(),
		NumPending:     info.NumPending,
		NumAckPending:  info.NumAckPending,
		NumRedelivered: info.NumRedelivered,
		NumWaiting:     info.NumWaiting,
	}
}
