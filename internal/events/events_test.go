package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := SaleCommitted{
		SaleID:         uuid.New(),
		CustomerID:     uuid.New(),
		ProductID:      uuid.New(),
		Quantity:       2,
		TotalPrice:     decimal.RequireFromString("30.00"),
		RemainingStock: 1,
		CommittedAt:    time.Now().UTC(),
	}

	event, err := NewEvent(TypeSaleCommitted, payload)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeSaleCommitted, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, time.Second)

	var decoded SaleCommitted
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload.SaleID, decoded.SaleID)
	assert.Equal(t, 2, decoded.Quantity)
	assert.True(t, payload.TotalPrice.Equal(decoded.TotalPrice))
}

func TestNewEvent_UnserializablePayload(t *testing.T) {
	_, err := NewEvent("bad", map[string]interface{}{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestEventEnvelopeJSON(t *testing.T) {
	event, err := NewEvent(TypeSaleCommitted, map[string]int{"quantity": 3})
	require.NoError(t, err)

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.JSONEq(t, `{"quantity":3}`, string(decoded.Payload))
}

// recordingHandler remembers every event it sees and returns err for each.
type recordingHandler struct {
	mu   sync.Mutex
	seen []*Event
	err  error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, event)
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func (h *recordingHandler) last() *Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.seen) == 0 {
		return nil
	}
	return h.seen[len(h.seen)-1]
}

func TestUnmarshalPayload_BadJSON(t *testing.T) {
	event := &Event{ID: uuid.New(), Type: TypeSaleCommitted, Payload: json.RawMessage(`{"quantity":"two"}`)}

	var payload SaleCommitted
	err := event.UnmarshalPayload(&payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), TypeSaleCommitted)
}

func TestHandlerFunc(t *testing.T) {
	want := errors.New("rejected")
	var got *Event
	h := HandlerFunc(func(_ context.Context, e *Event) error {
		got = e
		return want
	})

	event, err := NewEvent(TypeSaleCommitted, map[string]string{"k": "v"})
	require.NoError(t, err)

	assert.ErrorIs(t, h.HandleEvent(context.Background(), event), want)
	assert.Same(t, event, got)
}
