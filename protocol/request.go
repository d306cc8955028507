// Package protocol 定义与具体协议版本无关的请求和服务器接口。
package protocol

import (
	"bytes"
	"strings"

	"github.com/favbox/spool/internal/bytesconv"
	"github.com/favbox/spool/internal/bytestr"
)

// Request 是已读取的 HTTP 请求。
//
// 请求只携带生成响应所需的信息：请求行、原始标头和（可选的）定长正文。
type Request struct {
	Method string
	URI    string
	Proto  string

	// 原始标头，不含请求行，每行以 CRLF 结尾
	Header []byte

	Body []byte
}

// Path 返回不含查询串的请求路径。
func (r *Request) Path() string {
	if i := strings.IndexByte(r.URI, '?'); i >= 0 {
		return r.URI[:i]
	}
	return r.URI
}

// Peek 返回指定标头的值，名称不区分大小写。不存在时返回 nil。
func (r *Request) Peek(name string) []byte {
	b := r.Header
	for len(b) > 0 {
		n := bytes.IndexByte(b, '\n')
		var line []byte
		if n < 0 {
			line, b = b, nil
		} else {
			line, b = b[:n], b[n+1:]
		}
		line = bytes.TrimRight(line, "\r")

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		if strings.EqualFold(bytesconv.B2s(bytes.TrimSpace(line[:colon])), name) {
			return bytes.TrimSpace(line[colon+1:])
		}
	}
	return nil
}

// Get 返回指定标头的字符串值。
func (r *Request) Get(name string) string {
	return string(r.Peek(name))
}

// ContentLength 返回 Content-Length 标头的值，缺失或无效时返回 0。
func (r *Request) ContentLength() int {
	v := r.Peek(bytesconv.B2s(bytestr.StrContentLength))
	if len(v) == 0 {
		return 0
	}
	n, err := bytesconv.ParseUint(v)
	if err != nil {
		return 0
	}
	return n
}

// KeepAlive 报告响应后是否保持连接。
//
// HTTP/1.1 默认保持，除非 Connection: close；HTTP/1.0 仅在 Connection: keep-alive 时保持。
func (r *Request) KeepAlive() bool {
	conn := r.Peek(bytesconv.B2s(bytestr.StrConnection))
	if r.Proto == bytesconv.B2s(bytestr.StrHTTP11) {
		return !bytes.EqualFold(conn, bytestr.StrClose)
	}
	return bytes.EqualFold(conn, bytestr.StrKeepAlive)
}

// Reset 清空请求。
func (r *Request) Reset() {
	*r = Request{}
}
