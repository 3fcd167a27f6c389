package jetstream

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddStream(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)

	var (
		mu  sync.Mutex
		req StreamConfig
	)
	f.handle("$JS.API.STREAM.CREATE.ORDERS", func(body []byte) string {
		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, json.Unmarshal(body, &req))
		return `{"config":{"name":"ORDERS","subjects":["orders.*"],"retention":"limits","storage":"file","num_replicas":1},` +
			`"state":{"messages":0,"bytes":0,"first_seq":0,"last_seq":0,"consumer_count":0}}`
	})

	js := newEngine(t, nc)

	info, err := js.AddStream(StreamConfig{
		Name:     "ORDERS",
		Subjects: []string{"orders.*"},
		Storage:  FileStorage,
	})
	require.NoError(t, err)
	assert.Equal(t, "ORDERS", info.Config.Name)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"orders.*"}, req.Subjects)
	assert.Equal(t, FileStorage, req.Storage)
}

func TestAddStreamRequiresName(t *testing.T) {
	js := &JetStream{}

	_, err := js.AddStream(StreamConfig{})
	require.ErrorIs(t, err, ErrStreamNameRequired)

	_, err = js.UpdateStream(StreamConfig{})
	require.ErrorIs(t, err, ErrStreamNameRequired)

	require.ErrorIs(t, js.DeleteStream(""), ErrStreamNameRequired)

	_, err = js.PurgeStream("")
	require.ErrorIs(t, err, ErrStreamNameRequired)

	_, err = js.StreamInfo("")
	require.ErrorIs(t, err, ErrStreamNameRequired)

	_, err = js.ConsumerNames("")
	require.ErrorIs(t, err, ErrStreamNameRequired)

	_, err = js.GetMsg("", 1)
	require.ErrorIs(t, err, ErrStreamNameRequired)
}

func TestDeleteStream(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)
	f.respond("$JS.API.STREAM.DELETE.ORDERS", `{"success":true}`)

	js := newEngine(t, nc)
	require.NoError(t, js.DeleteStream("ORDERS"))
}

func TestDeleteStreamNotConfirmed(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)
	f.respond("$JS.API.STREAM.DELETE.ORDERS", `{"success":false}`)

	js := newEngine(t, nc)
	require.ErrorIs(t, js.DeleteStream("ORDERS"), ErrInvalidAPIResponse)
}

func TestDeleteStreamAPIError(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)
	f.respond("$JS.API.STREAM.DELETE.ORDERS",
		`{"error":{"code":404,"description":"stream not found"}}`)

	js := newEngine(t, nc)

	err := js.DeleteStream("ORDERS")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.NotFound())
	assert.Contains(t, apiErr.Description, "stream not found")
}

func TestPurgeStream(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)
	f.respond("$JS.API.STREAM.PURGE.ORDERS", `{"success":true,"purged":42}`)

	js := newEngine(t, nc)

	purged, err := js.PurgeStream("ORDERS")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), purged)
}

func TestStreamNamesPaged(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)

	// Three pages; the middle one is short of the page limit, which must
	// not terminate the loop since the total is not yet reached.
	pages := []string{
		`{"total":5,"offset":0,"limit":2,"streams":["A","B"]}`,
		`{"total":5,"offset":2,"limit":2,"streams":["C"]}`,
		`{"total":5,"offset":3,"limit":2,"streams":["D","E"]}`,
	}
	var offsets []int
	f.handle("$JS.API.STREAM.NAMES", func(body []byte) string {
		var req apiPagedRequest
		require.NoError(t, json.Unmarshal(body, &req))
		offsets = append(offsets, req.Offset)
		page := pages[0]
		pages = pages[1:]
		return page
	})

	js := newEngine(t, nc)

	names, err := js.StreamNames("")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names)
	assert.Equal(t, []int{0, 2, 3}, offsets)
}

func TestStreamNamesFilter(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)

	var req apiPagedRequest
	f.handle("$JS.API.STREAM.NAMES", func(body []byte) string {
		require.NoError(t, json.Unmarshal(body, &req))
		return oneStreamPage
	})

	js := newEngine(t, nc)

	names, err := js.StreamNames("orders.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDERS"}, names)
	assert.Equal(t, "orders.*", req.Subject)
}

func TestStreamNamesEmptyPageBeforeTotal(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)

	pages := []string{
		`{"total":4,"offset":0,"limit":2,"streams":["A","B"]}`,
		`{"total":4,"offset":2,"limit":2,"streams":[]}`,
	}
	f.handle("$JS.API.STREAM.NAMES", func([]byte) string {
		page := pages[0]
		pages = pages[1:]
		return page
	})

	js := newEngine(t, nc)

	_, err := js.StreamNames("")
	require.ErrorIs(t, err, ErrInvalidAPIResponse)
}

func TestStreamNamesEmpty(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)
	f.respond("$JS.API.STREAM.NAMES", `{"total":0,"offset":0,"limit":1024,"streams":[]}`)

	js := newEngine(t, nc)

	names, err := js.StreamNames("")
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Equal(t, 1, f.callCount("$JS.API.STREAM.NAMES"))
}

func TestStreamsPaged(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)

	streamInfo := func(name string) string {
		return fmt.Sprintf(`{"config":{"name":"%s","retention":"limits","storage":"file","num_replicas":1},`+
			`"state":{"messages":0,"bytes":0,"first_seq":0,"last_seq":0,"consumer_count":0}}`, name)
	}
	pages := []string{
		`{"total":3,"offset":0,"limit":2,"streams":[` + streamInfo("A") + `,` + streamInfo("B") + `]}`,
		`{"total":3,"offset":2,"limit":2,"streams":[` + streamInfo("C") + `]}`,
	}
	f.handle("$JS.API.STREAM.LIST", func([]byte) string {
		page := pages[0]
		pages = pages[1:]
		return page
	})

	js := newEngine(t, nc)

	streams, err := js.Streams()
	require.NoError(t, err)
	require.Len(t, streams, 3)
	assert.Equal(t, "A", streams[0].Config.Name)
	assert.Equal(t, "C", streams[2].Config.Name)
}

func TestConsumerNamesPaged(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)

	pages := []string{
		`{"total":3,"offset":0,"limit":2,"consumers":["one","two"]}`,
		`{"total":3,"offset":2,"limit":2,"consumers":["three"]}`,
	}
	f.handle("$JS.API.CONSUMER.NAMES.ORDERS", func([]byte) string {
		page := pages[0]
		pages = pages[1:]
		return page
	})

	js := newEngine(t, nc)

	names, err := js.ConsumerNames("ORDERS")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, names)
	assert.Equal(t, 2, f.callCount("$JS.API.CONSUMER.NAMES.ORDERS"))
}

func TestConsumersPaged(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)

	info := func(name string) string {
		return consumerInfoReply(t, &ConsumerInfo{
			Stream: "ORDERS",
			Name:   name,
			Config: NewConsumerConfig().Durable(name).Build(),
		})
	}
	pages := []string{
		`{"total":2,"offset":0,"limit":1,"consumers":[` + info("one") + `]}`,
		`{"total":2,"offset":1,"limit":1,"consumers":[` + info("two") + `]}`,
	}
	f.handle("$JS.API.CONSUMER.LIST.ORDERS", func([]byte) string {
		page := pages[0]
		pages = pages[1:]
		return page
	})

	js := newEngine(t, nc)

	consumers, err := js.Consumers("ORDERS")
	require.NoError(t, err)
	require.Len(t, consumers, 2)
	assert.Equal(t, "one", consumers[0].Name)
	assert.Equal(t, "two", consumers[1].Config.Durable())
}

func TestAddOrUpdateConsumerSubjects(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)

	f.handle("$JS.API.CONSUMER.DURABLE.CREATE.ORDERS.dur", func(body []byte) string {
		var req consumerCreateReq
		require.NoError(t, json.Unmarshal(body, &req))
		return consumerInfoReply(t, &ConsumerInfo{Stream: "ORDERS", Name: "dur", Config: req.Config})
	})
	f.handle("$JS.API.CONSUMER.CREATE.ORDERS", func(body []byte) string {
		var req consumerCreateReq
		require.NoError(t, json.Unmarshal(body, &req))
		return consumerInfoReply(t, &ConsumerInfo{Stream: "ORDERS", Name: "eph-1", Config: req.Config})
	})

	js := newEngine(t, nc)

	// A durable name routes through the durable create subject.
	info, err := js.AddOrUpdateConsumer("ORDERS", NewConsumerConfig().Durable("dur").Build())
	require.NoError(t, err)
	assert.Equal(t, "dur", info.Name)
	assert.Equal(t, 1, f.callCount("$JS.API.CONSUMER.DURABLE.CREATE.ORDERS.dur"))
	assert.Equal(t, 0, f.callCount("$JS.API.CONSUMER.CREATE.ORDERS"))

	// No durable name routes through the plain create subject.
	info, err = js.AddOrUpdateConsumer("ORDERS", NewConsumerConfig().Build())
	require.NoError(t, err)
	assert.Equal(t, "eph-1", info.Name)
	assert.Equal(t, 1, f.callCount("$JS.API.CONSUMER.CREATE.ORDERS"))
}

func TestDeleteConsumer(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)
	f.respond("$JS.API.CONSUMER.DELETE.ORDERS.dur", `{"success":true}`)

	js := newEngine(t, nc)
	require.NoError(t, js.DeleteConsumer("ORDERS", "dur"))
}

func TestGetMsg(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)

	var req struct {
		Seq uint64 `json:"seq"`
	}
	f.handle("$JS.API.STREAM.MSG.GET.ORDERS", func(body []byte) string {
		require.NoError(t, json.Unmarshal(body, &req))
		return `{"message":{"subject":"orders.new","seq":7,"data":"aGVsbG8=","time":"2026-02-03T04:05:06Z"}}`
	})

	js := newEngine(t, nc)

	msg, err := js.GetMsg("ORDERS", 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), req.Seq)
	assert.Equal(t, "orders.new", msg.Subject)
	assert.Equal(t, uint64(7), msg.Sequence)
	assert.Equal(t, []byte("hello"), msg.Data)
}

func TestGetMsgMissingMessage(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)
	f.respond("$JS.API.STREAM.MSG.GET.ORDERS", `{}`)

	js := newEngine(t, nc)

	_, err := js.GetMsg("ORDERS", 7)
	require.ErrorIs(t, err, ErrInvalidAPIResponse)
}

func TestDeleteMsg(t *testing.T) {
	nc := runBasicServer(t)
	f := newFakeAPI(t, nc)

	var req struct {
		Seq uint64 `json:"seq"`
	}
	f.handle("$JS.API.STREAM.MSG.DELETE.ORDERS", func(body []byte) string {
		require.NoError(t, json.Unmarshal(body, &req))
		return `{"success":true}`
	})

	js := newEngine(t, nc)
	require.NoError(t, js.DeleteMsg("ORDERS", 9))
	assert.Equal(t, uint64(9), req.Seq)
}
