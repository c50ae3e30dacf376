package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/palemoky/mystery-pairs/internal/protocol"
)

func TestEncodeDecode_JSON(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgDrawCard, protocol.DrawCardPayload{RoomID: "r1", Color: "red", Source: "deck"})
	msg.ID = "7"

	data, err := Encode(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	decoded, err := Decode(data)
	require.NoError(t, err)
	defer PutMessage(decoded)

	assert.Equal(t, "7", decoded.ID)
	assert.Equal(t, protocol.MsgDrawCard, decoded.Type)

	payload, err := ParsePayload[protocol.DrawCardPayload](decoded)
	require.NoError(t, err)
	assert.Equal(t, "r1", payload.RoomID)
	assert.Equal(t, "red", payload.Color)
	assert.Equal(t, "deck", payload.Source)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"not json", "hello"},
		{"missing type", `{"payload":{}}`},
		{"wrong shape", `[1,2,3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestEncodeDecode_Binary(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgResolveMystery, protocol.ResolveMysteryPayload{RoomID: "r1", CardID: "c3", ChosenValue: 5})
	msg.ID = "abc"

	decoded, err := DecodeBinary(EncodeBinary(msg))
	require.NoError(t, err)
	defer PutMessage(decoded)

	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, msg.Type, decoded.Type)
	assert.JSONEq(t, string(msg.Payload), string(decoded.Payload))
}

func TestDecodeBinary_SkipsUnknownFields(t *testing.T) {
	t.Parallel()

	var b []byte
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = protowire.AppendTag(b, fieldType, protowire.BytesType)
	b = protowire.AppendString(b, string(protocol.MsgPing))

	decoded, err := DecodeBinary(b)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgPing, decoded.Type)
	assert.Empty(t, decoded.Payload)
}

func TestDecodeBinary_Truncated(t *testing.T) {
	t.Parallel()

	data := EncodeBinary(&protocol.Message{Type: protocol.MsgStand, Payload: json.RawMessage(`{"roomId":"r1"}`)})
	_, err := DecodeBinary(data[:len(data)-3])
	assert.Error(t, err)

	_, err = DecodeBinary(nil)
	assert.Error(t, err)
}

func TestParsePayload_Empty(t *testing.T) {
	t.Parallel()

	_, err := ParsePayload[protocol.RoomPayload](&protocol.Message{Type: protocol.MsgStand})
	assert.Error(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	msg := NewErrorMessage(protocol.ErrCodeRateLimit)
	assert.Equal(t, protocol.MsgError, msg.Type)

	payload, err := ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeRateLimit, payload.Code)
	assert.Equal(t, protocol.ErrorMessages[protocol.ErrCodeRateLimit], payload.Message)

	custom := NewErrorMessageWithText(protocol.ErrCodeInvalidMsg, "坏消息")
	payload, err = ParsePayload[protocol.ErrorPayload](custom)
	require.NoError(t, err)
	assert.Equal(t, "坏消息", payload.Message)
}

func TestNewAck(t *testing.T) {
	t.Parallel()

	req := &protocol.Message{ID: "42", Type: protocol.MsgStand}

	ok := NewAck(req, 0, "")
	assert.Equal(t, "42", ok.ID)
	assert.Equal(t, protocol.MsgAck, ok.Type)
	payload, err := ParsePayload[protocol.AckPayload](ok)
	require.NoError(t, err)
	assert.True(t, payload.OK)
	assert.Equal(t, protocol.MsgStand, payload.Request)

	fail := NewAck(req, protocol.ErrCodeNotYourTurn, "还没轮到您")
	payload, err = ParsePayload[protocol.AckPayload](fail)
	require.NoError(t, err)
	assert.False(t, payload.OK)
	assert.Equal(t, protocol.ErrCodeNotYourTurn, payload.Code)
	assert.Equal(t, "还没轮到您", payload.Error)
}
