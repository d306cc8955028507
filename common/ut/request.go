// Package ut 提供不经网络传输即可驱动路由引擎的测试工具。
package ut

import (
	"context"
	"strconv"
	"strings"

	"github.com/favbox/spool/common/mock"
	"github.com/favbox/spool/route"
)

// Header 表明一个 http 标头的键值对。
type Header struct {
	Key   string
	Value string
}

// PerformRequest 将一个构造好的请求写入内存连接，交给引擎处理（无需网络传输）。
//
// 引擎尚未初始化时会先初始化。处理器挂起响应或刷新尚未完成时，
// 返回的记录器只包含已经写出的部分。
func PerformRequest(engine *route.Engine, method, url string, body []byte, headers ...Header) *ResponseRecorder {
	_ = engine.Init()

	conn := mock.NewConn(buildRequest(method, url, body, headers))
	_ = engine.Serve(context.Background(), conn)
	return NewRecorder(conn.Flushed())
}

func buildRequest(method, url string, body []byte, headers []Header) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(url)
	b.WriteString(" HTTP/1.1\r\n")
	for _, h := range headers {
		b.WriteString(h.Key)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	if len(body) > 0 {
		b.WriteString("Content-Length: ")
		b.WriteString(strconv.Itoa(len(body)))
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.Write(body)
	return b.String()
}
