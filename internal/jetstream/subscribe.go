package jetstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// subOpts carries subscription-binding options.
type subOpts struct {
	stream    string
	cfg       *ConsumerConfigBuilder
	manualAck bool
}

// SubOpt configures a subscription binding.
type SubOpt func(*subOpts)

// BindStream names the stream to bind to, skipping subject-based lookup.
// A caller-specified stream is always trusted over lookup.
func BindStream(stream string) SubOpt {
	return func(o *subOpts) { o.stream = stream }
}

// Durable sets the durable consumer name. Presence of a durable name is
// the sole discriminator between durable and ephemeral consumers.
func Durable(name string) SubOpt {
	return func(o *subOpts) { o.cfg.Durable(name) }
}

// ConfigureConsumer seeds the binding with a caller-supplied partial
// configuration.
func ConfigureConsumer(cfg ConsumerConfig) SubOpt {
	return func(o *subOpts) { o.cfg = cfg.Builder() }
}

// ManualAck disables the automatic acknowledgement wrapper on
// handler-based subscriptions.
func ManualAck() SubOpt {
	return func(o *subOpts) { o.manualAck = true }
}

// Subscription binds a server-side consumer to a local delivery
// destination. It holds the consumer identity for its lifetime; the
// consumer itself is only removed by an explicit DeleteConsumer.
type Subscription struct {
	js             *JetStream
	sub            *nats.Subscription
	consumer       string
	stream         string
	deliverSubject string
	pull           bool
}

// Consumer returns the server-assigned consumer name.
func (s *Subscription) Consumer() string { return s.consumer }

// Stream returns the name of the bound stream.
func (s *Subscription) Stream() string { return s.stream }

// DeliverSubject returns the delivery destination. Empty for pull mode.
func (s *Subscription) DeliverSubject() string { return s.deliverSubject }

// IsPullMode reports whether this subscription binds a pull consumer.
func (s *Subscription) IsPullMode() bool { return s.pull }

// NextMsg waits for the next message on a synchronous subscription.
func (s *Subscription) NextMsg(timeout time.Duration) (*nats.Msg, error) {
	return s.sub.NextMsg(timeout)
}

// Unsubscribe detaches the local sink. The server-side consumer is left
// intact.
func (s *Subscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

// Subscribe binds a push consumer for subject and dispatches messages to
// handler. Messages are acknowledged automatically after the handler
// returns unless ManualAck is set.
func (js *JetStream) Subscribe(subject string, handler nats.MsgHandler, opts ...SubOpt) (*Subscription, error) {
	if handler == nil {
		return nil, errors.New("message handler is required")
	}
	return js.createSubscription(subject, "", handler, false, js.subOpts(opts))
}

// SubscribeSync binds a push consumer for subject with a synchronous local
// sink; messages are read with NextMsg and acknowledged by the caller.
func (js *JetStream) SubscribeSync(subject string, opts ...SubOpt) (*Subscription, error) {
	return js.createSubscription(subject, "", nil, false, js.subOpts(opts))
}

// QueueSubscribe binds a push consumer whose deliveries are balanced
// across the members of a queue group.
func (js *JetStream) QueueSubscribe(subject, queue string, handler nats.MsgHandler, opts ...SubOpt) (*Subscription, error) {
	if queue == "" {
		return nil, errors.New("queue group name is required")
	}
	if handler == nil {
		return nil, errors.New("message handler is required")
	}
	return js.createSubscription(subject, queue, handler, false, js.subOpts(opts))
}

// PullSubscribe binds a durable pull consumer. Pull consumers never carry
// a delivery destination; batches are requested on demand.
func (js *JetStream) PullSubscribe(subject, durable string, opts ...SubOpt) (*Subscription, error) {
	if durable == "" {
		return nil, ErrDurableRequired
	}
	o := js.subOpts(opts)
	o.cfg.Durable(durable)
	return js.createSubscription(subject, "", nil, true, o)
}

func (js *JetStream) subOpts(opts []SubOpt) *subOpts {
	o := &subOpts{cfg: NewConsumerConfig()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// createSubscription runs the binding protocol: resolve the stream, look
// up durable state, decide reuse-vs-create, attach the local sink before
// the consumer exists so no delivery is missed, then create the consumer
// if needed. Any failure after the sink attach tears the sink down again.
//
// Concurrent calls for the same (stream, durable) are not serialized here;
// the server's idempotent create/update semantics make the race safe.
func (js *JetStream) createSubscription(subject, queue string, handler nats.MsgHandler, isPull bool, o *subOpts) (*Subscription, error) {
	if subject == "" {
		return nil, ErrSubjectRequired
	}

	builder := o.cfg
	if isPull {
		// Pull mode can't have a deliver subject.
		builder.DeliverSubject("")
		builder.DeliverGroup("")
	}

	// 1. Did they tell us the stream? No? Look it up by subject.
	stream := o.stream
	if stream == "" {
		var err error
		stream, err = js.lookupStreamBySubject(subject)
		if err != nil {
			return nil, err
		}
	}

	// 2. Durable or ephemeral? A durable may already exist server-side.
	durable := builder.durable()
	inbox := builder.deliverSubject()
	createConsumer := true

	if durable != "" {
		info, err := js.lookupConsumerInfo(stream, durable)
		if err != nil {
			return nil, err
		}
		if info != nil {
			createConsumer = false

			// An existing durable never silently changes what it filters on.
			if filter := info.Config.FilterSubject(); filter != "" && filter != subject {
				return nil, fmt.Errorf("%w: subject %q, consumer filter %q",
					ErrSubjectMismatch, subject, filter)
			}

			// May be empty; a push consumer without a bound subscriber is
			// still a legal binding state.
			inbox = info.Config.DeliverSubject()
		}
	}

	// 3. No delivery destination yet, make one.
	if inbox == "" {
		inbox = js.nc.NewInbox()
	}

	// 4. Attach the local sink before the server-side consumer exists.
	sub, err := js.attachSink(inbox, queue, handler, o.manualAck)
	if err != nil {
		return nil, err
	}

	// 5. Consumer didn't exist: ephemeral, or a durable seen for the
	// first time.
	consumerName := durable
	if createConsumer {
		if builder.maxAckPending() == 0 {
			// Cap the server at what the local sink can buffer.
			limit, _, err := sub.PendingLimits()
			if err == nil && limit > 0 {
				builder.MaxAckPending(int64(limit))
			}
		}
		if !isPull {
			builder.DeliverSubject(inbox)
		}
		builder.FilterSubject(subject)

		info, err := js.AddOrUpdateConsumer(stream, builder.Build())
		if err != nil {
			// No dangling local subscription on a failed bind.
			_ = sub.Unsubscribe()
			return nil, err
		}
		consumerName = info.Name
		stream = info.Stream
	} else {
		js.metrics.IncConsumerReused()
	}

	deliverSubject := inbox
	if isPull {
		deliverSubject = ""
	}

	js.logger.Debug("bound JetStream consumer",
		"stream", stream, "consumer", consumerName,
		"subject", subject, "created", createConsumer, "pull", isPull)

	return &Subscription{
		js:             js,
		sub:            sub,
		consumer:       consumerName,
		stream:         stream,
		deliverSubject: deliverSubject,
		pull:           isPull,
	}, nil
}

func (js *JetStream) attachSink(inbox, queue string, handler nats.MsgHandler, manualAck bool) (*nats.Subscription, error) {
	if handler == nil {
		if queue != "" {
			return js.nc.QueueSubscribeSync(inbox, queue)
		}
		return js.nc.SubscribeSync(inbox)
	}

	if !manualAck {
		handler = autoAckHandler(handler)
	}
	if queue != "" {
		return js.nc.QueueSubscribe(inbox, queue, handler)
	}
	return js.nc.Subscribe(inbox, handler)
}

// autoAckHandler acknowledges each message after the user handler returns
// normally. A panicking handler withholds the ack, leaving the message
// pending for redelivery; the panic is not escalated further, incident
// handling belongs to the dispatch layer.
func autoAckHandler(handler nats.MsgHandler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ok := false
		func() {
			defer func() {
				_ = recover()
			}()
			handler(msg)
			ok = true
		}()
		if ok {
			_ = msg.Ack()
		}
	}
}

// lookupConsumerInfo treats a "consumer not found" API error as absence;
// any other failure propagates.
func (js *JetStream) lookupConsumerInfo(stream, durable string) (*ConsumerInfo, error) {
	info, err := js.ConsumerInfo(stream, durable)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() &&
			strings.Contains(apiErr.Description, "consumer") {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// lookupStreamBySubject asks the server which streams carry the subject.
// Exactly one match is required; zero or several is fatal since the
// binding would be ambiguous.
func (js *JetStream) lookupStreamBySubject(subject string) (string, error) {
	body, err := json.Marshal(apiPagedRequest{Subject: subject})
	if err != nil {
		return "", err
	}

	data, err := js.apiRequest(apiStreamNames, body)
	if err != nil {
		return "", err
	}

	var resp struct {
		Streams []string `json:"streams"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}
	if len(resp.Streams) != 1 {
		return "", fmt.Errorf("%w: subject %q matches %d streams",
			ErrNoMatchingStream, subject, len(resp.Streams))
	}

	return resp.Streams[0], nil
}
