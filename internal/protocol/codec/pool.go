package codec

import (
	"bytes"
	"sync"

	"github.com/palemoky/mystery-pairs/internal/protocol"
)

const (
	maxPooledPayload = 4 << 10  // 请求 payload 一般只有几十字节，过大的不回收
	maxPooledBuffer  = 64 << 10 // 大房间快照编码后可能较大，超过上限的缓冲区交给 GC
)

var (
	// 入站请求，由 Decode / DecodeBinary 取出，读循环处理完后归还
	requestPool = sync.Pool{
		New: func() any { return &protocol.Message{} },
	}

	// 出站编码缓冲区
	bufferPool = sync.Pool{
		New: func() any { return new(bytes.Buffer) },
	}
)

// GetMessage 从池中取出一条空消息
func GetMessage() *protocol.Message {
	return requestPool.Get().(*protocol.Message)
}

// PutMessage 归还请求消息
// 保留 payload 的底层数组供下次解码复用，调用后不得再引用 msg 及其 Payload
func PutMessage(msg *protocol.Message) {
	if msg == nil {
		return
	}
	msg.ID = ""
	msg.Type = ""
	if cap(msg.Payload) > maxPooledPayload {
		msg.Payload = nil
	} else {
		msg.Payload = msg.Payload[:0]
	}
	requestPool.Put(msg)
}

// GetBuffer 取出编码缓冲区
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// PutBuffer 归还编码缓冲区
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
