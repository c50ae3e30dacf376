package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/palemoky/mystery-pairs/internal/protocol"
)

// 二进制信封字段号，与文本帧的 JSON 字段一一对应
const (
	fieldType    protowire.Number = 1
	fieldPayload protowire.Number = 2
	fieldID      protowire.Number = 3
)

var errEmptyType = errors.New("消息类型为空")

// NewMessage 创建一个新消息，payload 以 JSON 编码
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &protocol.Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 将消息编码为 JSON 字节（文本帧）
func Encode(m *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return nil, err
	}
	// 去掉 Encoder 追加的换行
	out := buf.Bytes()
	return append([]byte(nil), out[:len(out)-1]...), nil
}

// Decode 从 JSON 字节解码消息
// 注意: 使用完毕后应调用 PutMessage 归还对象到池
func Decode(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		PutMessage(msg)
		return nil, err
	}
	if msg.Type == "" {
		PutMessage(msg)
		return nil, errEmptyType
	}
	return msg, nil
}

// EncodeBinary 将消息编码为 protobuf wire 格式（二进制帧）
func EncodeBinary(m *protocol.Message) []byte {
	b := make([]byte, 0, len(m.Type)+len(m.Payload)+len(m.ID)+8)
	b = protowire.AppendTag(b, fieldType, protowire.BytesType)
	b = protowire.AppendString(b, string(m.Type))
	if len(m.Payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Payload)
	}
	if m.ID != "" {
		b = protowire.AppendTag(b, fieldID, protowire.BytesType)
		b = protowire.AppendString(b, m.ID)
	}
	return b
}

// DecodeBinary 从 protobuf wire 格式解码消息，未知字段会被跳过
// 注意: 使用完毕后应调用 PutMessage 归还对象到池
func DecodeBinary(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			PutMessage(msg)
			return nil, protowire.ParseError(n)
		}
		data = data[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				PutMessage(msg)
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			PutMessage(msg)
			return nil, protowire.ParseError(n)
		}
		data = data[n:]

		switch num {
		case fieldType:
			msg.Type = protocol.MessageType(v)
		case fieldPayload:
			msg.Payload = append(msg.Payload[:0], v...) // 复制出帧缓冲区，复用池中消息的底层数组
		case fieldID:
			msg.ID = string(v)
		}
	}
	if msg.Type == "" {
		PutMessage(msg)
		return nil, errEmptyType
	}
	return msg, nil
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return nil, fmt.Errorf("消息 %s 缺少 payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: protocol.ErrorMessages[code],
	})
	return msg
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
	return msg
}

// NewAck 创建确认消息，err 为 nil 时表示成功
func NewAck(req *protocol.Message, code int, text string) *protocol.Message {
	ack := protocol.AckPayload{Request: req.Type}
	if code == 0 {
		ack.OK = true
	} else {
		ack.Code = code
		ack.Error = text
	}
	msg := MustNewMessage(protocol.MsgAck, ack)
	msg.ID = req.ID
	return msg
}
