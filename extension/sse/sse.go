// Package sse 在响应上发布服务器推送事件（text/event-stream）。
//
// 事件流使用分块传输：创建流时立即发送响应头，之后每个事件编码为一个分块直接写出，
// 关闭流时由刷新方写出结束块。
package sse

import (
	"github.com/favbox/spool/app"
	"github.com/favbox/spool/common/bytebufferpool"
	"github.com/favbox/spool/protocol/http1/ext"
)

const (
	ContentType  = "text/event-stream"
	noCache      = "no-cache"
	cacheControl = "Cache-Control"
	LastEventID  = "Last-Event-ID"
)

type Event struct {
	Event string
	ID    string
	Retry uint64
	Data  []byte
}

// GetLastEventID 获取请求头中可能存在的 Last-Event-ID 值。
func GetLastEventID(r *app.ResponseContext) string {
	return r.Request.Get(LastEventID)
}

type Stream struct {
	r *app.ResponseContext
}

// NewStream 为发布事件创建一个新的流，并立即发送响应头。
//
// 调用前必须设置状态码。
func NewStream(r *app.ResponseContext) (*Stream, error) {
	if err := r.Header("Content-Type", ContentType); err != nil {
		return nil, err
	}
	if err := r.Header(cacheControl, noCache); err != nil {
		return nil, err
	}
	if err := r.SendChunkedHeaders(); err != nil {
		return nil, err
	}
	return &Stream{r: r}, nil
}

// Publish 发布事件至客户端。
func (s *Stream) Publish(event *Event) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.B = AppendEvent(buf.B, event)
	chunk := ext.AppendChunk(make([]byte, 0, buf.Len()+16), buf.B)
	_, err := s.r.WriteRaw(chunk)
	return err
}

// Close 结束事件流，cb 在响应结束后调用。
func (s *Stream) Close(cb app.EndFunc) error {
	return s.r.End(cb)
}
