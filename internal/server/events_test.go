package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEvent(t *testing.T) {
	ev := NewEvent(EventMessageReceived, map[string]int{"id": 1})
	assert.Equal(t, EventMessageReceived, ev.Type, "expected event type set")
	assert.NotZero(t, ev.Timestamp, "expected timestamp set")

	raw, err := json.Marshal(ev)
	assert.NoError(t, err, "expected event to serialize")
	assert.Contains(t, string(raw), `"type":"message_received"`, "expected type in envelope")
	assert.Contains(t, string(raw), `"data":{"id":1}`, "expected data in envelope")
}

func TestErrEvent(t *testing.T) {
	ev := ErrEvent(CodeNotAuthorized, "not a member of this room")
	assert.Equal(t, EventError, ev.Type, "expected error event type")

	payload, ok := ev.Data.(ErrorPayload)
	assert.True(t, ok, "expected ErrorPayload data")
	assert.Equal(t, CodeNotAuthorized, payload.Code, "expected error code")
	assert.Equal(t, "not a member of this room", payload.Message, "expected error message")
}

func TestClientEvent_unmarshal(t *testing.T) {
	raw := []byte(`{"type":"send_message","data":{"room_id":5,"content":"hi"}}`)

	var ev ClientEvent
	err := json.Unmarshal(raw, &ev)
	assert.NoError(t, err, "expected envelope to parse")
	assert.Equal(t, EventSendMessage, ev.Type, "expected event type")

	var p SendMessagePayload
	err = json.Unmarshal(ev.Data, &p)
	assert.NoError(t, err, "expected payload to parse")
	assert.Equal(t, 5, p.RoomId, "expected room id")
	assert.Equal(t, "hi", p.Content, "expected content")
}
