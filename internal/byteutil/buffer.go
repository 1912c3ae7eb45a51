// Package byteutil pools the buffers that responses are rendered into.
package byteutil

import (
	"bytes"
	"sync"
)

// Buffers above this size are dropped instead of pooled, so one huge dump
// does not pin its memory.
const maxPooledCap = 1 << 20

var bytesBuffer = sync.Pool{
	New: func() interface{} { return &bytes.Buffer{} },
}

// GetBytesBuf returns an empty buffer.
func GetBytesBuf() *bytes.Buffer {
	buf := bytesBuffer.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func PutBytesBuf(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledCap {
		return
	}
	bytesBuffer.Put(buf)
}
