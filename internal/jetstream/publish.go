package jetstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Headers recognized by the server on published messages.
const (
	MsgIDHdr             = "Nats-Msg-Id"
	ExpectedStreamHdr    = "Nats-Expected-Stream"
	ExpectedLastSeqHdr   = "Nats-Expected-Last-Sequence"
	ExpectedLastMsgIDHdr = "Nats-Expected-Last-Msg-Id"
)

// PublishAck is the server's confirmation that a message was stored.
type PublishAck struct {
	Stream    string `json:"stream"`
	Sequence  uint64 `json:"seq"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

type pubOpts struct {
	// stream is validated against the ack; it is not sent to the server.
	stream string

	// header values, enforced server-side
	msgID             string
	expectedStream    string
	expectedLastMsgID string
	expectedLastSeq   uint64

	timeout time.Duration
}

// PubOpt configures a single publish call.
type PubOpt func(*pubOpts)

// WithStream makes the publish fail unless the ack comes from the named
// stream. This catches a subject bound to the wrong stream.
func WithStream(stream string) PubOpt {
	return func(o *pubOpts) { o.stream = stream }
}

// WithMsgID sets the deduplication message id header.
func WithMsgID(id string) PubOpt {
	return func(o *pubOpts) { o.msgID = id }
}

// WithExpectStream asks the server to reject the publish unless it lands
// on the named stream.
func WithExpectStream(stream string) PubOpt {
	return func(o *pubOpts) { o.expectedStream = stream }
}

// WithExpectLastSequence asks the server to reject the publish unless the
// stream's last sequence matches.
func WithExpectLastSequence(seq uint64) PubOpt {
	return func(o *pubOpts) { o.expectedLastSeq = seq }
}

// WithExpectLastMsgID asks the server to reject the publish unless the
// stream's last message id matches.
func WithExpectLastMsgID(id string) PubOpt {
	return func(o *pubOpts) { o.expectedLastMsgID = id }
}

// WithPubTimeout overrides the engine-wide timeout for this publish.
func WithPubTimeout(timeout time.Duration) PubOpt {
	return func(o *pubOpts) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

func (o *pubOpts) header() nats.Header {
	h := nats.Header{}
	if o.msgID != "" {
		h.Set(MsgIDHdr, o.msgID)
	}
	if o.expectedStream != "" {
		h.Set(ExpectedStreamHdr, o.expectedStream)
	}
	if o.expectedLastSeq > 0 {
		h.Set(ExpectedLastSeqHdr, fmt.Sprintf("%d", o.expectedLastSeq))
	}
	if o.expectedLastMsgID != "" {
		h.Set(ExpectedLastMsgIDHdr, o.expectedLastMsgID)
	}
	if len(h) == 0 {
		return nil
	}
	return h
}

// processAck validates a raw publish reply. Both the synchronous and the
// asynchronous publish paths funnel through here so behavior is identical
// regardless of concurrency mode. It is pure: no retries, no state.
func (js *JetStream) processAck(data []byte, expectedStream string) (*PublishAck, error) {
	var resp struct {
		Error *APIError `json:"error,omitempty"`
		PublishAck
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAck, err)
	}
	if resp.Error != nil {
		// Server rejected the publish; no ack body to validate.
		return nil, resp.Error
	}
	if resp.Stream == "" || resp.Sequence == 0 {
		return nil, ErrInvalidAck
	}
	if expectedStream != "" && expectedStream != resp.Stream {
		js.metrics.IncAckMismatch()
		return nil, fmt.Errorf("%w: expected %q, received from %q",
			ErrStreamMismatch, expectedStream, resp.Stream)
	}

	return &resp.PublishAck, nil
}

// Publish sends a message and blocks until the server acknowledges it or
// the timeout elapses. The publish subject is used as-is; the API prefix
// applies to management subjects only.
func (js *JetStream) Publish(subject string, data []byte, opts ...PubOpt) (*PublishAck, error) {
	if subject == "" {
		return nil, ErrSubjectRequired
	}
	o := js.pubOpts(opts)

	resp, err := js.nc.RequestMsg(&nats.Msg{
		Subject: subject,
		Header:  o.header(),
		Data:    data,
	}, o.timeout)
	if err != nil {
		js.metrics.IncPublish(err)
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("%w: %v", ErrNoResponse, err)
		}
		return nil, fmt.Errorf("publish failed: %w", err)
	}

	ack, err := js.processAck(resp.Data, o.stream)
	js.metrics.IncPublish(err)
	return ack, err
}

// PubAckFuture is the pending result of an asynchronous publish. Exactly
// one of Ok or Err receives a value.
type PubAckFuture interface {
	// Ok receives the ack when the publish is confirmed.
	Ok() <-chan *PublishAck

	// Err receives the failure, including timeout / no-responder when no
	// reply ever arrives.
	Err() <-chan error

	// Msg returns the message that was published.
	Msg() *nats.Msg
}

type pubAckFuture struct {
	msg *nats.Msg
	ok  chan *PublishAck
	err chan error
}

func (f *pubAckFuture) Ok() <-chan *PublishAck { return f.ok }
func (f *pubAckFuture) Err() <-chan error      { return f.err }
func (f *pubAckFuture) Msg() *nats.Msg         { return f.msg }

// PublishAsync sends a message and returns immediately with a future that
// resolves when the ack arrives or the timeout elapses. Correlation runs on
// a separate goroutine, not the caller's. No ordering is guaranteed between
// two in-flight asynchronous publishes; callers needing strict order must
// await each ack or publish synchronously.
func (js *JetStream) PublishAsync(subject string, data []byte, opts ...PubOpt) (PubAckFuture, error) {
	if subject == "" {
		return nil, ErrSubjectRequired
	}
	o := js.pubOpts(opts)

	f := &pubAckFuture{
		msg: &nats.Msg{Subject: subject, Header: o.header(), Data: data},
		ok:  make(chan *PublishAck, 1),
		err: make(chan error, 1),
	}

	go func() {
		resp, err := js.nc.RequestMsg(f.msg, o.timeout)
		if err != nil {
			js.metrics.IncPublish(err)
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, nats.ErrNoResponders) {
				err = fmt.Errorf("%w: %v", ErrNoResponse, err)
			}
			f.err <- err
			return
		}

		ack, err := js.processAck(resp.Data, o.stream)
		js.metrics.IncPublish(err)
		if err != nil {
			f.err <- err
			return
		}
		f.ok <- ack
	}()

	return f, nil
}

func (js *JetStream) pubOpts(opts []PubOpt) *pubOpts {
	o := &pubOpts{timeout: js.timeout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
