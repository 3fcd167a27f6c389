package jetstream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericNormalize(t *testing.T) {
	tests := []struct {
		name string
		n    ccNumeric
		in   int64
		want int64
	}{
		{"start seq unset", ccStartSeq, 0, -1},
		{"start seq negative", ccStartSeq, -5, -1},
		{"start seq at min", ccStartSeq, 1, -1},
		{"start seq above min", ccStartSeq, 2, 2},
		{"max deliver unset", ccMaxDeliver, 0, -1},
		{"max deliver kept", ccMaxDeliver, 10, 10},
		{"rate limit unset", ccRateLimit, 0, -1},
		{"rate limit kept", ccRateLimit, 8192, 8192},
		{"max ack pending unset", ccMaxAckPending, 0, 0},
		{"max ack pending negative", ccMaxAckPending, -5, 0},
		{"max ack pending kept", ccMaxAckPending, 100, 100},
		{"max waiting unset", ccMaxWaiting, 0, 0},
		{"max waiting kept", ccMaxWaiting, 64, 64},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.n.normalize(tc.in))
		})
	}
}

func TestNumericComparable(t *testing.T) {
	// An unset value and the server's default must compare equal, so a
	// locally built config matches the server-reported one.
	assert.Equal(t, ccMaxAckPending.comparable(0), ccMaxAckPending.comparable(20000))
	assert.Equal(t, ccMaxWaiting.comparable(0), ccMaxWaiting.comparable(512))
	assert.Equal(t, ccMaxDeliver.comparable(0), ccMaxDeliver.comparable(-1))

	assert.False(t, ccMaxAckPending.notEqual(0, 20000))
	assert.False(t, ccMaxWaiting.notEqual(-1, 512))
	assert.True(t, ccMaxAckPending.notEqual(0, 100))
	assert.True(t, ccMaxDeliver.notEqual(5, 6))
}

func TestConsumerConfigDefaults(t *testing.T) {
	cfg := NewConsumerConfig().Build()

	assert.Equal(t, DeliverAll, cfg.DeliverPolicy())
	assert.Equal(t, AckExplicit, cfg.AckPolicy())
	assert.Equal(t, ReplayInstant, cfg.ReplayPolicy())
	assert.Equal(t, DefaultAckWait, cfg.AckWait())
	assert.Equal(t, int64(-1), cfg.StartSequence())
	assert.Equal(t, int64(-1), cfg.MaxDeliver())
	assert.Equal(t, int64(-1), cfg.RateLimit())
	assert.Equal(t, int64(0), cfg.MaxAckPending())
	assert.Equal(t, int64(0), cfg.MaxWaiting())
	assert.Nil(t, cfg.StartTime())
	assert.False(t, cfg.FlowControl())
	assert.False(t, cfg.HeadersOnly())
}

func TestConsumerConfigBuilder(t *testing.T) {
	start := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	cfg := NewConsumerConfig().
		Description("order fanout").
		Durable("dur").
		DeliverSubject("deliver.orders").
		DeliverGroup("workers").
		DeliverPolicy(DeliverByStartTime).
		StartTime(start).
		AckPolicy(AckAll).
		AckWait(10 * time.Second).
		MaxDeliver(5).
		FilterSubject("orders.eu.*").
		ReplayPolicy(ReplayOriginal).
		SampleFrequency("50%").
		RateLimit(1024).
		MaxAckPending(100).
		FlowControl(2 * time.Second).
		MaxWaiting(32).
		HeadersOnly(true).
		Build()

	assert.Equal(t, "order fanout", cfg.Description())
	assert.Equal(t, "dur", cfg.Durable())
	assert.Equal(t, "deliver.orders", cfg.DeliverSubject())
	assert.Equal(t, "workers", cfg.DeliverGroup())
	assert.Equal(t, DeliverByStartTime, cfg.DeliverPolicy())
	require.NotNil(t, cfg.StartTime())
	assert.True(t, start.Equal(*cfg.StartTime()))
	assert.Equal(t, AckAll, cfg.AckPolicy())
	assert.Equal(t, 10*time.Second, cfg.AckWait())
	assert.Equal(t, int64(5), cfg.MaxDeliver())
	assert.Equal(t, "orders.eu.*", cfg.FilterSubject())
	assert.Equal(t, ReplayOriginal, cfg.ReplayPolicy())
	assert.Equal(t, "50%", cfg.SampleFrequency())
	assert.Equal(t, int64(1024), cfg.RateLimit())
	assert.Equal(t, int64(100), cfg.MaxAckPending())
	assert.True(t, cfg.FlowControl())
	assert.Equal(t, 2*time.Second, cfg.IdleHeartbeat())
	assert.Equal(t, int64(32), cfg.MaxWaiting())
	assert.True(t, cfg.HeadersOnly())
}

func TestConsumerConfigBuilderDurationFloor(t *testing.T) {
	cfg := NewConsumerConfig().
		AckWait(-time.Second).
		IdleHeartbeat(-time.Second).
		Build()

	assert.Equal(t, DefaultAckWait, cfg.AckWait())
	assert.Equal(t, DefaultIdleHeartbeat, cfg.IdleHeartbeat())
}

func TestConsumerConfigBuilderEmptyPolicies(t *testing.T) {
	cfg := NewConsumerConfig().
		DeliverPolicy("").
		AckPolicy("").
		ReplayPolicy("").
		Build()

	assert.Equal(t, DeliverAll, cfg.DeliverPolicy())
	assert.Equal(t, AckExplicit, cfg.AckPolicy())
	assert.Equal(t, ReplayInstant, cfg.ReplayPolicy())
}

func TestConsumerConfigRoundTrip(t *testing.T) {
	cfg := NewConsumerConfig().
		Durable("dur").
		DeliverSubject("deliver.x").
		DeliverPolicy(DeliverByStartSequence).
		StartSequence(42).
		AckWait(15 * time.Second).
		MaxDeliver(3).
		FilterSubject("orders.*").
		MaxAckPending(256).
		Build()

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var parsed ConsumerConfig
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, cfg, parsed)
}

func TestConsumerConfigMarshalOmitsSentinels(t *testing.T) {
	data, err := json.Marshal(NewConsumerConfig().Build())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	// Unset sentinel numerics must not travel on the wire.
	assert.NotContains(t, raw, "opt_start_seq")
	assert.NotContains(t, raw, "max_deliver")
	assert.NotContains(t, raw, "rate_limit_bps")
	assert.NotContains(t, raw, "max_ack_pending")
	assert.NotContains(t, raw, "max_waiting")

	assert.Equal(t, "all", raw["deliver_policy"])
	assert.Equal(t, "explicit", raw["ack_policy"])
	assert.Equal(t, "instant", raw["replay_policy"])
	assert.Equal(t, float64(30*time.Second), raw["ack_wait"])
}

func TestConsumerConfigUnmarshalDefaults(t *testing.T) {
	var cfg ConsumerConfig
	require.NoError(t, json.Unmarshal([]byte(`{}`), &cfg))

	assert.Equal(t, DeliverAll, cfg.DeliverPolicy())
	assert.Equal(t, AckExplicit, cfg.AckPolicy())
	assert.Equal(t, ReplayInstant, cfg.ReplayPolicy())
	assert.Equal(t, DefaultAckWait, cfg.AckWait())
	assert.Equal(t, int64(-1), cfg.StartSequence())
	assert.Equal(t, int64(-1), cfg.MaxDeliver())
}

func TestConsumerConfigUnmarshalKeepsUnknownPolicies(t *testing.T) {
	var cfg ConsumerConfig
	require.NoError(t, json.Unmarshal([]byte(
		`{"deliver_policy":"by_start_time_exotic","ack_policy":"explicit","replay_policy":"instant"}`), &cfg))

	// Unknown values survive so diagnostics show what the server sent.
	assert.Equal(t, DeliverPolicy("by_start_time_exotic"), cfg.DeliverPolicy())
}

func TestConsumerConfigBuilderFromExisting(t *testing.T) {
	base := NewConsumerConfig().Durable("dur").MaxDeliver(3).Build()

	derived := base.Builder().FilterSubject("orders.*").Build()

	assert.Equal(t, "dur", derived.Durable())
	assert.Equal(t, int64(3), derived.MaxDeliver())
	assert.Equal(t, "orders.*", derived.FilterSubject())

	// The source config is untouched.
	assert.Equal(t, "", base.FilterSubject())
}
