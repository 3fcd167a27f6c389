// Package jetstream implements the client side of the NATS JetStream
// protocol directly over a core NATS connection: management requests,
// publish acknowledgements, and consumer-binding subscriptions.
package jetstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/shubhamrasal/jsq/internal/metrics"
)

// DefaultAPIPrefix is prepended to every API request subject unless
// overridden with WithAPIPrefix.
const DefaultAPIPrefix = "$JS.API."

// DefaultRequestTimeout bounds every API round trip unless overridden.
const DefaultRequestTimeout = 5 * time.Second

// API request subject templates, relative to the prefix.
const (
	apiAccountInfo = "INFO"

	apiStreamCreateT = "STREAM.CREATE.%s"
	apiStreamUpdateT = "STREAM.UPDATE.%s"
	apiStreamDeleteT = "STREAM.DELETE.%s"
	apiStreamPurgeT  = "STREAM.PURGE.%s"
	apiStreamInfoT   = "STREAM.INFO.%s"
	apiStreamNames   = "STREAM.NAMES"
	apiStreamList    = "STREAM.LIST"

	apiConsumerCreateT = "CONSUMER.CREATE.%s"
	apiDurableCreateT  = "CONSUMER.DURABLE.CREATE.%s.%s"
	apiConsumerInfoT   = "CONSUMER.INFO.%s.%s"
	apiConsumerDeleteT = "CONSUMER.DELETE.%s.%s"
	apiConsumerNamesT  = "CONSUMER.NAMES.%s"
	apiConsumerListT   = "CONSUMER.LIST.%s"

	apiMsgGetT    = "STREAM.MSG.GET.%s"
	apiMsgDeleteT = "STREAM.MSG.DELETE.%s"
)

// apiResponse is the envelope common to all API replies.
type apiResponse struct {
	Type  string    `json:"type"`
	Error *APIError `json:"error,omitempty"`
}

// JetStream talks the JetStream API over a core NATS connection. The
// connection itself (framing, reconnects, auth) is owned by the caller; the
// engine only issues requests on it and never mutates connection state.
type JetStream struct {
	nc      *nats.Conn
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Collectors
}

// Option configures a JetStream engine.
type Option func(*JetStream)

// WithAPIPrefix sets the namespace prefix prepended to API request subjects.
func WithAPIPrefix(prefix string) Option {
	return func(js *JetStream) {
		if prefix != "" {
			js.prefix = prefix
		}
	}
}

// WithRequestTimeout sets the default timeout for API round trips and
// synchronous publishes.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(js *JetStream) {
		if timeout > 0 {
			js.timeout = timeout
		}
	}
}

// WithLogger sets the structured logger used by the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(js *JetStream) {
		if logger != nil {
			js.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors to the engine.
func WithMetrics(c *metrics.Collectors) Option {
	return func(js *JetStream) {
		js.metrics = c
	}
}

// New creates a JetStream engine over the given connection and verifies the
// server has JetStream available by requesting account info. A 503 error or
// an unanswered request means the extension is unavailable and New fails.
func New(nc *nats.Conn, opts ...Option) (*JetStream, error) {
	if nc == nil {
		return nil, errors.New("nats connection is required")
	}

	js := &JetStream{
		nc:      nc,
		prefix:  DefaultAPIPrefix,
		timeout: DefaultRequestTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(js)
	}

	if err := js.checkEnabled(); err != nil {
		return nil, err
	}

	return js, nil
}

func (js *JetStream) checkEnabled() error {
	data, err := js.apiRequest(apiAccountInfo, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == 503 {
			return fmt.Errorf("%w: %s", ErrJetStreamNotEnabled, apiErr.Description)
		}
		if errors.Is(err, ErrNoResponse) {
			return ErrJetStreamNotEnabled
		}
		return err
	}

	// Decode the account stats so a malformed reply is caught at startup.
	var stats AccountStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}
	js.logger.Debug("JetStream account verified",
		"streams", stats.Streams, "consumers", stats.Consumers,
		"memory", stats.Memory, "storage", stats.Store)

	return nil
}

// apiRequest issues one prefixed request and unwraps the error envelope.
// The returned bytes are the full reply body for the caller to decode.
func (js *JetStream) apiRequest(subject string, body []byte) ([]byte, error) {
	msg, err := js.nc.Request(js.prefix+subject, body, js.timeout)
	if err != nil {
		js.metrics.IncAPIRequest(subject, err)
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("%w: %v", ErrNoResponse, err)
		}
		return nil, fmt.Errorf("JetStream API request failed: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		js.metrics.IncAPIRequest(subject, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}
	if resp.Error != nil {
		js.metrics.IncAPIRequest(subject, resp.Error)
		return nil, resp.Error
	}

	js.metrics.IncAPIRequest(subject, nil)
	return msg.Data, nil
}
