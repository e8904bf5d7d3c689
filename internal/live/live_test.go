package live

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dstech-dashboard/internal/analytics/application"
)

type stubToday struct {
	err error
}

func (s stubToday) TodayKPIs(context.Context) (application.TodayKPIs, error) {
	if s.err != nil {
		return application.TodayKPIs{}, s.err
	}
	return application.TodayKPIs{OpenAlarms: 3, Efficiency: 91.5}, nil
}

func (stubToday) Now() time.Time { return time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC) }

func decode(t *testing.T, payload []byte) Message {
	t.Helper()
	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

func TestBrokerReplaysLatestAndDropsSlowClients(t *testing.T) {
	broker := NewBroker()
	broker.Publish([]byte(`"first"`))

	ch := broker.Subscribe()
	assert.Equal(t, `"first"`, string(<-ch))
	assert.Equal(t, 1, broker.Subscribers())

	for i := 0; i < clientBuffer+5; i++ {
		broker.Publish([]byte(`"x"`))
	}
	assert.Len(t, ch, clientBuffer)

	broker.Unsubscribe(ch)
	broker.Unsubscribe(ch)
	assert.Equal(t, 0, broker.Subscribers())
	_, open := <-drain(ch)
	assert.False(t, open)
}

func drain(ch chan []byte) chan []byte {
	for len(ch) > 0 {
		<-ch
	}
	return ch
}

func TestBrokerConcurrentPublishAndUnsubscribe(t *testing.T) {
	broker := NewBroker()
	var wg sync.WaitGroup
	for round := 0; round < 200; round++ {
		subs := make([]chan []byte, 16)
		for i := range subs {
			subs[i] = broker.Subscribe()
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 32; i++ {
				broker.Publish([]byte("tick"))
			}
		}()
		go func() {
			defer wg.Done()
			for _, ch := range subs {
				broker.Unsubscribe(ch)
			}
		}()
		wg.Wait()
	}
	assert.Equal(t, 0, broker.Subscribers())
}

func TestPublisherPublishesToday(t *testing.T) {
	broker := NewBroker()
	publisher, err := NewPublisher(stubToday{}, broker, 0, nil)
	require.NoError(t, err)
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	publisher.PublishOnce(context.Background())
	msg := decode(t, <-ch)
	assert.Equal(t, "today", msg.Type)
	require.NotNil(t, msg.Today)
	assert.Equal(t, 3, msg.Today.OpenAlarms)
}

func TestPublisherReportsUnavailable(t *testing.T) {
	broker := NewBroker()
	source := stubToday{err: application.Unavailable(application.DatasetStatus, errors.New("timeout"))}
	publisher, err := NewPublisher(source, broker, time.Second, nil)
	require.NoError(t, err)
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	publisher.PublishOnce(context.Background())
	msg := decode(t, <-ch)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "data unavailable", msg.Error)
	assert.Nil(t, msg.Today)
}

func TestNewPublisherValidates(t *testing.T) {
	_, err := NewPublisher(nil, NewBroker(), 0, nil)
	assert.Error(t, err)
	_, err = NewPublisher(stubToday{}, nil, 0, nil)
	assert.Error(t, err)
}

func TestStreamHandlerSendsEvents(t *testing.T) {
	broker := NewBroker()
	broker.Publish([]byte(`{"type":"today"}`))
	server := httptest.NewServer(NewStreamHandler(broker))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 4 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, []string{"event: ready", "data: {}", "event: kpis", `data: {"type":"today"}`}, lines)
}

func TestSocketHandlerStreamsPayloads(t *testing.T) {
	broker := NewBroker()
	server := httptest.NewServer(NewSocketHandler(broker, nil, nil))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return broker.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	broker.Publish([]byte(`{"type":"today"}`))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"today"}`, string(payload))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return broker.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
