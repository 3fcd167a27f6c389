// Package metrics holds the Prometheus collectors for the JetStream
// engine. A nil *Collectors is valid and turns every observation into a
// no-op, so instrumentation stays optional.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors groups the engine's Prometheus metrics.
type Collectors struct {
	apiRequests      *prometheus.CounterVec
	publishes        *prometheus.CounterVec
	ackMismatches    prometheus.Counter
	consumersCreated prometheus.Counter
	consumersReused  prometheus.Counter
}

// New registers the engine collectors with the given registerer.
func New(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)

	return &Collectors{
		apiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jsq",
			Name:      "api_requests_total",
			Help:      "JetStream API requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		publishes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jsq",
			Name:      "publishes_total",
			Help:      "Publish attempts by outcome",
		}, []string{"outcome"}),
		ackMismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "jsq",
			Name:      "ack_stream_mismatches_total",
			Help:      "Publish acks rejected because they came from an unexpected stream",
		}),
		consumersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "jsq",
			Name:      "consumers_created_total",
			Help:      "Consumer create/update requests issued",
		}),
		consumersReused: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "jsq",
			Name:      "consumers_reused_total",
			Help:      "Subscription bindings that reused an existing consumer",
		}),
	}
}

// apiOperation reduces a request subject to its operation, dropping
// stream and consumer names to keep label cardinality bounded.
func apiOperation(subject string) string {
	parts := strings.SplitN(subject, ".", 4)
	if len(parts) >= 3 && (parts[1] == "DURABLE" || parts[1] == "MSG") {
		return parts[0] + "." + parts[1] + "." + parts[2]
	}
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return parts[0]
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// IncAPIRequest records one API round trip.
func (c *Collectors) IncAPIRequest(subject string, err error) {
	if c == nil {
		return
	}
	c.apiRequests.WithLabelValues(apiOperation(subject), outcome(err)).Inc()
}

// IncPublish records one publish attempt.
func (c *Collectors) IncPublish(err error) {
	if c == nil {
		return
	}
	c.publishes.WithLabelValues(outcome(err)).Inc()
}

// IncAckMismatch records a publish ack rejected for stream mismatch.
func (c *Collectors) IncAckMismatch() {
	if c == nil {
		return
	}
	c.ackMismatches.Inc()
}

// IncConsumerCreated records a consumer create/update request.
func (c *Collectors) IncConsumerCreated() {
	if c == nil {
		return
	}
	c.consumersCreated.Inc()
}

// IncConsumerReused records a binding that reused an existing consumer.
func (c *Collectors) IncConsumerReused() {
	if c == nil {
		return
	}
	c.consumersReused.Inc()
}
