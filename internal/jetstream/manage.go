package jetstream

import (
	"encoding/json"
	"fmt"
)

// AddStream creates a stream from the given configuration.
func (js *JetStream) AddStream(cfg StreamConfig) (*StreamInfo, error) {
	return js.addOrUpdateStream(cfg, apiStreamCreateT)
}

// UpdateStream updates an existing stream's configuration.
func (js *JetStream) UpdateStream(cfg StreamConfig) (*StreamInfo, error) {
	return js.addOrUpdateStream(cfg, apiStreamUpdateT)
}

func (js *JetStream) addOrUpdateStream(cfg StreamConfig, template string) (*StreamInfo, error) {
	if cfg.Name == "" {
		return nil, ErrStreamNameRequired
	}

	body, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stream config: %w", err)
	}

	data, err := js.apiRequest(fmt.Sprintf(template, cfg.Name), body)
	if err != nil {
		return nil, err
	}

	var info StreamInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}

	return &info, nil
}

// DeleteStream deletes a stream and all its messages.
func (js *JetStream) DeleteStream(name string) error {
	if name == "" {
		return ErrStreamNameRequired
	}
	return js.successRequest(fmt.Sprintf(apiStreamDeleteT, name), nil)
}

// PurgeStream removes all messages from a stream and returns the purged count.
func (js *JetStream) PurgeStream(name string) (uint64, error) {
	if name == "" {
		return 0, ErrStreamNameRequired
	}

	data, err := js.apiRequest(fmt.Sprintf(apiStreamPurgeT, name), nil)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Success bool   `json:"success"`
		Purged  uint64 `json:"purged"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}
	if !resp.Success {
		return 0, fmt.Errorf("%w: purge not confirmed", ErrInvalidAPIResponse)
	}

	return resp.Purged, nil
}

// StreamInfo returns detailed information about a stream.
func (js *JetStream) StreamInfo(name string) (*StreamInfo, error) {
	if name == "" {
		return nil, ErrStreamNameRequired
	}

	data, err := js.apiRequest(fmt.Sprintf(apiStreamInfoT, name), nil)
	if err != nil {
		return nil, err
	}

	var info StreamInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}

	return &info, nil
}

// StreamNames lists all stream names, optionally restricted to streams
// whose subjects overlap filterSubject. Pages until the server-reported
// total is reached.
func (js *JetStream) StreamNames(filterSubject string) ([]string, error) {
	page := &namesPage{filter: filterSubject}
	if err := js.fetchPaged(apiStreamNames, page); err != nil {
		return nil, err
	}
	return page.names, nil
}

// Streams lists full stream info for all streams.
func (js *JetStream) Streams() ([]*StreamInfo, error) {
	page := &streamListPage{}
	if err := js.fetchPaged(apiStreamList, page); err != nil {
		return nil, err
	}
	return page.streams, nil
}

// AddOrUpdateConsumer creates a consumer, or updates it if a durable with
// the same name already exists. Durable consumers go through the durable
// create subject, ephemerals through the plain create subject.
func (js *JetStream) AddOrUpdateConsumer(stream string, cfg ConsumerConfig) (*ConsumerInfo, error) {
	if stream == "" {
		return nil, ErrStreamNameRequired
	}

	req := struct {
		Stream string         `json:"stream_name"`
		Config ConsumerConfig `json:"config"`
	}{Stream: stream, Config: cfg}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode consumer config: %w", err)
	}

	var subject string
	if durable := cfg.Durable(); durable != "" {
		subject = fmt.Sprintf(apiDurableCreateT, stream, durable)
	} else {
		subject = fmt.Sprintf(apiConsumerCreateT, stream)
	}

	data, err := js.apiRequest(subject, body)
	if err != nil {
		return nil, err
	}

	var info ConsumerInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}
	js.metrics.IncConsumerCreated()

	return &info, nil
}

// DeleteConsumer deletes a consumer from a stream.
func (js *JetStream) DeleteConsumer(stream, consumer string) error {
	if stream == "" {
		return ErrStreamNameRequired
	}
	return js.successRequest(fmt.Sprintf(apiConsumerDeleteT, stream, consumer), nil)
}

// ConsumerInfo returns detailed information about a consumer.
func (js *JetStream) ConsumerInfo(stream, consumer string) (*ConsumerInfo, error) {
	if stream == "" {
		return nil, ErrStreamNameRequired
	}

	data, err := js.apiRequest(fmt.Sprintf(apiConsumerInfoT, stream, consumer), nil)
	if err != nil {
		return nil, err
	}

	var info ConsumerInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}

	return &info, nil
}

// ConsumerNames lists all consumer names of a stream.
func (js *JetStream) ConsumerNames(stream string) ([]string, error) {
	if stream == "" {
		return nil, ErrStreamNameRequired
	}

	page := &namesPage{}
	if err := js.fetchPaged(fmt.Sprintf(apiConsumerNamesT, stream), page); err != nil {
		return nil, err
	}
	return page.names, nil
}

// Consumers lists full consumer info for all consumers of a stream.
func (js *JetStream) Consumers(stream string) ([]*ConsumerInfo, error) {
	if stream == "" {
		return nil, ErrStreamNameRequired
	}

	page := &consumerListPage{}
	if err := js.fetchPaged(fmt.Sprintf(apiConsumerListT, stream), page); err != nil {
		return nil, err
	}
	return page.consumers, nil
}

// GetMsg retrieves a message from stream storage by sequence.
func (js *JetStream) GetMsg(stream string, seq uint64) (*StoredMsg, error) {
	if stream == "" {
		return nil, ErrStreamNameRequired
	}

	body, err := json.Marshal(struct {
		Seq uint64 `json:"seq"`
	}{seq})
	if err != nil {
		return nil, err
	}

	data, err := js.apiRequest(fmt.Sprintf(apiMsgGetT, stream), body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Message *StoredMsg `json:"message"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}
	if resp.Message == nil {
		return nil, fmt.Errorf("%w: missing message", ErrInvalidAPIResponse)
	}

	return resp.Message, nil
}

// DeleteMsg deletes a message from a stream by sequence.
func (js *JetStream) DeleteMsg(stream string, seq uint64) error {
	if stream == "" {
		return ErrStreamNameRequired
	}

	body, err := json.Marshal(struct {
		Seq uint64 `json:"seq"`
	}{seq})
	if err != nil {
		return err
	}

	return js.successRequest(fmt.Sprintf(apiMsgDeleteT, stream), body)
}

// successRequest issues a request whose reply only confirms success.
func (js *JetStream) successRequest(subject string, body []byte) error {
	data, err := js.apiRequest(subject, body)
	if err != nil {
		return err
	}

	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: operation not confirmed", ErrInvalidAPIResponse)
	}

	return nil
}
