package jetstream

import (
	"encoding/json"
	"fmt"
)

// pagedRequest drives a multi-page API listing. The request/ingest loop
// terminates only when the accumulated count reaches the server-reported
// total; a server returning fewer items than requested per page is not
// exhaustion.
type pagedRequest interface {
	hasMore() bool
	nextRequest() ([]byte, error)
	ingest(body []byte) error
}

// apiPaged holds the pagination fields common to list responses.
type apiPaged struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type apiPagedRequest struct {
	Offset  int    `json:"offset"`
	Subject string `json:"subject,omitempty"`
}

// fetchPaged runs the page loop for one listing subject.
func (js *JetStream) fetchPaged(subject string, pr pagedRequest) error {
	for pr.hasMore() {
		body, err := pr.nextRequest()
		if err != nil {
			return err
		}
		data, err := js.apiRequest(subject, body)
		if err != nil {
			return err
		}
		if err := pr.ingest(data); err != nil {
			return err
		}
	}
	return nil
}

// namesPage accumulates name listings (stream names or consumer names).
// The wire puts the items under a response-specific key, so both keys are
// decoded and whichever is present is taken.
type namesPage struct {
	filter string
	total  int
	loaded bool
	names  []string
}

func (p *namesPage) hasMore() bool {
	return !p.loaded || len(p.names) < p.total
}

func (p *namesPage) nextRequest() ([]byte, error) {
	return json.Marshal(apiPagedRequest{Offset: len(p.names), Subject: p.filter})
}

func (p *namesPage) ingest(body []byte) error {
	var resp struct {
		apiPaged
		Streams   []string `json:"streams"`
		Consumers []string `json:"consumers"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}

	items := resp.Streams
	if items == nil {
		items = resp.Consumers
	}
	if p.loaded && len(items) == 0 && len(p.names) < resp.Total {
		// An empty page with more remaining would loop forever.
		return fmt.Errorf("%w: empty page before reported total", ErrInvalidAPIResponse)
	}

	p.total = resp.Total
	p.names = append(p.names, items...)
	p.loaded = true

	return nil
}

// consumerListPage accumulates full consumer info listings.
type consumerListPage struct {
	total     int
	loaded    bool
	consumers []*ConsumerInfo
}

func (p *consumerListPage) hasMore() bool {
	return !p.loaded || len(p.consumers) < p.total
}

func (p *consumerListPage) nextRequest() ([]byte, error) {
	return json.Marshal(apiPagedRequest{Offset: len(p.consumers)})
}

func (p *consumerListPage) ingest(body []byte) error {
	var resp struct {
		apiPaged
		Consumers []*ConsumerInfo `json:"consumers"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}
	if p.loaded && len(resp.Consumers) == 0 && len(p.consumers) < resp.Total {
		return fmt.Errorf("%w: empty page before reported total", ErrInvalidAPIResponse)
	}

	p.total = resp.Total
	p.consumers = append(p.consumers, resp.Consumers...)
	p.loaded = true

	return nil
}

// streamListPage accumulates full stream info listings.
type streamListPage struct {
	total   int
	loaded  bool
	streams []*StreamInfo
}

func (p *streamListPage) hasMore() bool {
	return !p.loaded || len(p.streams) < p.total
}

func (p *streamListPage) nextRequest() ([]byte, error) {
	return json.Marshal(apiPagedRequest{Offset: len(p.streams)})
}

func (p *streamListPage) ingest(body []byte) error {
	var resp struct {
		apiPaged
		Streams []*StreamInfo `json:"streams"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAPIResponse, err)
	}
	if p.loaded && len(resp.Streams) == 0 && len(p.streams) < resp.Total {
		return fmt.Errorf("%w: empty page before reported total", ErrInvalidAPIResponse)
	}

	p.total = resp.Total
	p.streams = append(p.streams, resp.Streams...)
	p.loaded = true

	return nil
}
