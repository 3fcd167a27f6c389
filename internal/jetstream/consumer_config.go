package jetstream

import (
	"encoding/json"
	"time"
)

// DeliverPolicy selects where in the stream a consumer starts.
// Unrecognized server values are preserved as-is for diagnostics rather
// than failing parse.
type DeliverPolicy string

const (
	DeliverAll             DeliverPolicy = "all"
	DeliverLast            DeliverPolicy = "last"
	DeliverNew             DeliverPolicy = "new"
	DeliverByStartSequence DeliverPolicy = "by_start_sequence"
	DeliverByStartTime     DeliverPolicy = "by_start_time"
	DeliverLastPerSubject  DeliverPolicy = "last_per_subject"
)

// AckPolicy selects how messages must be acknowledged.
type AckPolicy string

const (
	AckNone     AckPolicy = "none"
	AckAll      AckPolicy = "all"
	AckExplicit AckPolicy = "explicit"
)

// ReplayPolicy selects the pace at which stored messages are replayed.
type ReplayPolicy string

const (
	ReplayInstant  ReplayPolicy = "instant"
	ReplayOriginal ReplayPolicy = "original"
)

// Defaults and minimums for duration fields.
const (
	MinAckWait           = time.Nanosecond
	DefaultAckWait       = 30 * time.Second
	MinIdleHeartbeat     = time.Duration(0)
	DefaultIdleHeartbeat = time.Duration(0)
)

// ccNumeric describes a numeric consumer field with a sentinel encoding:
// anything at or below min means "unset" and is normalized to normal. For
// equality checks the server's own default collapses to the same value, so
// a client that left a field unset compares equal to a server that filled
// in its default.
type ccNumeric struct {
	name       string
	min        int64
	normal     int64
	srvDefault int64
}

var (
	ccStartSeq      = ccNumeric{"start sequence", 1, -1, -1}
	ccMaxDeliver    = ccNumeric{"max deliver", 1, -1, -1}
	ccRateLimit     = ccNumeric{"rate limit", 1, -1, -1}
	ccMaxAckPending = ccNumeric{"max ack pending", 0, 0, 20000}
	ccMaxWaiting    = ccNumeric{"max waiting", 0, 0, 512}
)

func (n ccNumeric) normalize(v int64) int64 {
	if v <= n.min {
		return n.normal
	}
	return v
}

func (n ccNumeric) comparable(v int64) int64 {
	if v <= n.min || v == n.srvDefault {
		return n.srvDefault
	}
	return v
}

func (n ccNumeric) notEqual(v1, v2 int64) bool {
	return n.comparable(v1) != n.comparable(v2)
}

// ConsumerConfig is an immutable description of consumer behavior. Values
// are produced either by a ConsumerConfigBuilder or by parsing a server
// response; both paths normalize sentinel numerics so the two converge on
// the same representation.
type ConsumerConfig struct {
	description    string
	durable        string
	deliverSubject string
	deliverGroup   string
	deliverPolicy  DeliverPolicy
	optStartSeq    int64
	optStartTime   *time.Time
	ackPolicy      AckPolicy
	ackWait        time.Duration
	maxDeliver     int64
	filterSubject  string
	replayPolicy   ReplayPolicy
	sampleFreq     string
	rateLimit      int64
	maxAckPending  int64
	idleHeartbeat  time.Duration
	flowControl    bool
	maxWaiting     int64
	headersOnly    bool
}

func (c ConsumerConfig) Description() string          { return c.description }
func (c ConsumerConfig) Durable() string              { return c.durable }
func (c ConsumerConfig) DeliverSubject() string       { return c.deliverSubject }
func (c ConsumerConfig) DeliverGroup() string         { return c.deliverGroup }
func (c ConsumerConfig) DeliverPolicy() DeliverPolicy { return c.deliverPolicy }
func (c ConsumerConfig) StartSequence() int64         { return c.optStartSeq }
func (c ConsumerConfig) StartTime() *time.Time        { return c.optStartTime }
func (c ConsumerConfig) AckPolicy() AckPolicy         { return c.ackPolicy }
func (c ConsumerConfig) AckWait() time.Duration       { return c.ackWait }
func (c ConsumerConfig) MaxDeliver() int64            { return c.maxDeliver }
func (c ConsumerConfig) FilterSubject() string        { return c.filterSubject }
func (c ConsumerConfig) ReplayPolicy() ReplayPolicy   { return c.replayPolicy }
func (c ConsumerConfig) SampleFrequency() string      { return c.sampleFreq }
func (c ConsumerConfig) RateLimit() int64             { return c.rateLimit }
func (c ConsumerConfig) MaxAckPending() int64         { return c.maxAckPending }
func (c ConsumerConfig) IdleHeartbeat() time.Duration { return c.idleHeartbeat }
func (c ConsumerConfig) FlowControl() bool            { return c.flowControl }
func (c ConsumerConfig) MaxWaiting() int64            { return c.maxWaiting }
func (c ConsumerConfig) HeadersOnly() bool            { return c.headersOnly }

// Builder returns a mutable builder seeded from this configuration.
func (c ConsumerConfig) Builder() *ConsumerConfigBuilder {
	return &ConsumerConfigBuilder{cfg: c}
}

// consumerConfigJSON is the wire shape. Sentinel values are mapped to the
// zero value before marshalling so omitempty drops them and the server
// applies its own defaults.
type consumerConfigJSON struct {
	Description    string        `json:"description,omitempty"`
	Durable        string        `json:"durable_name,omitempty"`
	DeliverSubject string        `json:"deliver_subject,omitempty"`
	DeliverGroup   string        `json:"deliver_group,omitempty"`
	DeliverPolicy  DeliverPolicy `json:"deliver_policy"`
	OptStartSeq    int64         `json:"opt_start_seq,omitempty"`
	OptStartTime   *time.Time    `json:"opt_start_time,omitempty"`
	AckPolicy      AckPolicy     `json:"ack_policy"`
	AckWait        int64         `json:"ack_wait,omitempty"`
	MaxDeliver     int64         `json:"max_deliver,omitempty"`
	FilterSubject  string        `json:"filter_subject,omitempty"`
	ReplayPolicy   ReplayPolicy  `json:"replay_policy"`
	SampleFreq     string        `json:"sample_freq,omitempty"`
	RateLimit      int64         `json:"rate_limit_bps,omitempty"`
	MaxAckPending  int64         `json:"max_ack_pending,omitempty"`
	IdleHeartbeat  int64         `json:"idle_heartbeat,omitempty"`
	FlowControl    bool          `json:"flow_control,omitempty"`
	MaxWaiting     int64         `json:"max_waiting,omitempty"`
	HeadersOnly    bool          `json:"headers_only,omitempty"`
}

// positiveOrZero drops the unset sentinel so omitempty omits the field.
func positiveOrZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// MarshalJSON emits only fields the caller actually set; durations travel
// as nanoseconds.
func (c ConsumerConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(consumerConfigJSON{
		Description:    c.description,
		Durable:        c.durable,
		DeliverSubject: c.deliverSubject,
		DeliverGroup:   c.deliverGroup,
		DeliverPolicy:  c.deliverPolicy,
		OptStartSeq:    positiveOrZero(c.optStartSeq),
		OptStartTime:   c.optStartTime,
		AckPolicy:      c.ackPolicy,
		AckWait:        int64(c.ackWait),
		MaxDeliver:     positiveOrZero(c.maxDeliver),
		FilterSubject:  c.filterSubject,
		ReplayPolicy:   c.replayPolicy,
		SampleFreq:     c.sampleFreq,
		RateLimit:      positiveOrZero(c.rateLimit),
		MaxAckPending:  c.maxAckPending,
		IdleHeartbeat:  int64(c.idleHeartbeat),
		FlowControl:    c.flowControl,
		MaxWaiting:     c.maxWaiting,
		HeadersOnly:    c.headersOnly,
	})
}

// UnmarshalJSON parses a server-reported configuration. Absent fields take
// the documented defaults and numerics are normalized exactly like the
// builder path.
func (c *ConsumerConfig) UnmarshalJSON(data []byte) error {
	var w consumerConfigJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	if w.DeliverPolicy == "" {
		w.DeliverPolicy = DeliverAll
	}
	if w.AckPolicy == "" {
		w.AckPolicy = AckExplicit
	}
	if w.ReplayPolicy == "" {
		w.ReplayPolicy = ReplayInstant
	}
	ackWait := time.Duration(w.AckWait)
	if ackWait == 0 {
		ackWait = DefaultAckWait
	}

	*c = ConsumerConfig{
		description:    w.Description,
		durable:        w.Durable,
		deliverSubject: w.DeliverSubject,
		deliverGroup:   w.DeliverGroup,
		deliverPolicy:  w.DeliverPolicy,
		optStartSeq:    ccStartSeq.normalize(w.OptStartSeq),
		optStartTime:   w.OptStartTime,
		ackPolicy:      w.AckPolicy,
		ackWait:        ackWait,
		maxDeliver:     ccMaxDeliver.normalize(w.MaxDeliver),
		filterSubject:  w.FilterSubject,
		replayPolicy:   w.ReplayPolicy,
		sampleFreq:     w.SampleFreq,
		rateLimit:      ccRateLimit.normalize(w.RateLimit),
		maxAckPending:  ccMaxAckPending.normalize(w.MaxAckPending),
		idleHeartbeat:  time.Duration(w.IdleHeartbeat),
		flowControl:    w.FlowControl,
		maxWaiting:     ccMaxWaiting.normalize(w.MaxWaiting),
		headersOnly:    w.HeadersOnly,
	}

	return nil
}

// ConsumerConfigBuilder assembles a ConsumerConfig. Duration fields below
// their minimum fall back to the documented default, numeric sentinel
// fields are normalized on Build.
type ConsumerConfigBuilder struct {
	cfg ConsumerConfig
}

// NewConsumerConfig returns a builder whose Build yields the default
// configuration: deliver all, explicit ack, instant replay, 30s ack wait.
func NewConsumerConfig() *ConsumerConfigBuilder {
	return &ConsumerConfigBuilder{cfg: ConsumerConfig{
		deliverPolicy: DeliverAll,
		optStartSeq:   -1,
		ackPolicy:     AckExplicit,
		ackWait:       DefaultAckWait,
		maxDeliver:    -1,
		replayPolicy:  ReplayInstant,
		rateLimit:     -1,
	}}
}

func (b *ConsumerConfigBuilder) Description(description string) *ConsumerConfigBuilder {
	b.cfg.description = description
	return b
}

func (b *ConsumerConfigBuilder) Durable(durable string) *ConsumerConfigBuilder {
	b.cfg.durable = durable
	return b
}

func (b *ConsumerConfigBuilder) DeliverSubject(subject string) *ConsumerConfigBuilder {
	b.cfg.deliverSubject = subject
	return b
}

func (b *ConsumerConfigBuilder) DeliverGroup(group string) *ConsumerConfigBuilder {
	b.cfg.deliverGroup = group
	return b
}

func (b *ConsumerConfigBuilder) DeliverPolicy(policy DeliverPolicy) *ConsumerConfigBuilder {
	if policy == "" {
		policy = DeliverAll
	}
	b.cfg.deliverPolicy = policy
	return b
}

func (b *ConsumerConfigBuilder) StartSequence(seq int64) *ConsumerConfigBuilder {
	b.cfg.optStartSeq = seq
	return b
}

func (b *ConsumerConfigBuilder) StartTime(t time.Time) *ConsumerConfigBuilder {
	b.cfg.optStartTime = &t
	return b
}

func (b *ConsumerConfigBuilder) AckPolicy(policy AckPolicy) *ConsumerConfigBuilder {
	if policy == "" {
		policy = AckExplicit
	}
	b.cfg.ackPolicy = policy
	return b
}

func (b *ConsumerConfigBuilder) AckWait(d time.Duration) *ConsumerConfigBuilder {
	if d < MinAckWait {
		d = DefaultAckWait
	}
	b.cfg.ackWait = d
	return b
}

func (b *ConsumerConfigBuilder) MaxDeliver(max int64) *ConsumerConfigBuilder {
	b.cfg.maxDeliver = max
	return b
}

func (b *ConsumerConfigBuilder) FilterSubject(subject string) *ConsumerConfigBuilder {
	b.cfg.filterSubject = subject
	return b
}

func (b *ConsumerConfigBuilder) ReplayPolicy(policy ReplayPolicy) *ConsumerConfigBuilder {
	if policy == "" {
		policy = ReplayInstant
	}
	b.cfg.replayPolicy = policy
	return b
}

func (b *ConsumerConfigBuilder) SampleFrequency(freq string) *ConsumerConfigBuilder {
	b.cfg.sampleFreq = freq
	return b
}

func (b *ConsumerConfigBuilder) RateLimit(bitsPerSec int64) *ConsumerConfigBuilder {
	b.cfg.rateLimit = bitsPerSec
	return b
}

func (b *ConsumerConfigBuilder) MaxAckPending(max int64) *ConsumerConfigBuilder {
	b.cfg.maxAckPending = max
	return b
}

func (b *ConsumerConfigBuilder) IdleHeartbeat(d time.Duration) *ConsumerConfigBuilder {
	if d < MinIdleHeartbeat {
		d = DefaultIdleHeartbeat
	}
	b.cfg.idleHeartbeat = d
	return b
}

// FlowControl enables flow control, which requires an idle heartbeat.
func (b *ConsumerConfigBuilder) FlowControl(idleHeartbeat time.Duration) *ConsumerConfigBuilder {
	b.cfg.flowControl = true
	return b.IdleHeartbeat(idleHeartbeat)
}

func (b *ConsumerConfigBuilder) MaxWaiting(max int64) *ConsumerConfigBuilder {
	b.cfg.maxWaiting = max
	return b
}

func (b *ConsumerConfigBuilder) HeadersOnly(headersOnly bool) *ConsumerConfigBuilder {
	b.cfg.headersOnly = headersOnly
	return b
}

func (b *ConsumerConfigBuilder) durable() string        { return b.cfg.durable }
func (b *ConsumerConfigBuilder) deliverSubject() string { return b.cfg.deliverSubject }
func (b *ConsumerConfigBuilder) maxAckPending() int64   { return b.cfg.maxAckPending }

// Build finalizes the configuration, normalizing sentinel numerics.
func (b *ConsumerConfigBuilder) Build() ConsumerConfig {
	cfg := b.cfg
	cfg.optStartSeq = ccStartSeq.normalize(cfg.optStartSeq)
	cfg.maxDeliver = ccMaxDeliver.normalize(cfg.maxDeliver)
	cfg.rateLimit = ccRateLimit.normalize(cfg.rateLimit)
	cfg.maxAckPending = ccMaxAckPending.normalize(cfg.maxAckPending)
	cfg.maxWaiting = ccMaxWaiting.normalize(cfg.maxWaiting)
	return cfg
}
