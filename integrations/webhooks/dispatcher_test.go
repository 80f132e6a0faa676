package webhooks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"escrowchain/core/types"
)

type testEvent struct{ evt *types.Event }

func (e testEvent) EventType() string { return e.evt.Type }

func (e testEvent) Event() *types.Event { return e.evt }

func newEvent(eventType string) testEvent {
	return testEvent{evt: &types.Event{Type: eventType, Attributes: map[string]string{"program": "house"}}}
}

func TestDispatcherSignsPayload(t *testing.T) {
	secret := []byte("secret")
	var (
		mu        sync.Mutex
		body      []byte
		signature string
		eventType string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		mu.Lock()
		body = data
		signature = r.Header.Get(HeaderSignature)
		eventType = r.Header.Get(HeaderEvent)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dispatcher, err := NewDispatcher(server.URL, secret)
	require.NoError(t, err)
	defer dispatcher.Close()

	dispatcher.Emit(newEvent("auction.settled"))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return signature != ""
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "auction.settled", eventType)
	require.True(t, Verify(secret, body, signature))
	require.False(t, Verify([]byte("other"), body, signature))

	var payload Payload
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "house", payload.Attributes["program"])
	require.NotEmpty(t, payload.DeliveryID)
}

func TestDispatcherRetries(t *testing.T) {
	attempts := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dispatcher, err := NewDispatcher(server.URL, []byte("secret"), WithRetryPolicy(5, 10*time.Millisecond, 20*time.Millisecond))
	require.NoError(t, err)
	defer dispatcher.Close()

	dispatcher.Emit(newEvent("crowdfund.withdrawn"))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) >= 3 }, time.Second, 10*time.Millisecond)
}

func TestDispatcherFiltersTypes(t *testing.T) {
	received := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&received, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	dispatcher, err := NewDispatcher(server.URL, []byte("secret"), WithTypes("auction.settled"))
	require.NoError(t, err)
	defer dispatcher.Close()

	dispatcher.Emit(newEvent("auction.bid"))
	dispatcher.Emit(newEvent("auction.settled"))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&received) == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&received))
}

func TestNewDispatcherValidates(t *testing.T) {
	_, err := NewDispatcher(" ", []byte("secret"))
	require.Error(t, err)
	_, err = NewDispatcher("http://localhost", nil)
	require.Error(t, err)
}

func TestNextBackoffCaps(t *testing.T) {
	require.Equal(t, 4*time.Second, nextBackoff(2*time.Second, 30*time.Second))
	require.Equal(t, 30*time.Second, nextBackoff(20*time.Second, 30*time.Second))
}
